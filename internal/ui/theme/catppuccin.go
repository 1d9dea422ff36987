package theme

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha, https://github.com/catppuccin/catppuccin
var Catppuccin = Theme{
	Name: "catppuccin",

	Background: lipgloss.Color("#1E1E2E"),
	Foreground: lipgloss.Color("#CDD6F4"),
	Subtle:     lipgloss.Color("#6C7086"),
	Highlight:  lipgloss.Color("#313244"),
	Border:     lipgloss.Color("#45475A"),

	Primary:   lipgloss.Color("#89B4FA"), // Blue
	Secondary: lipgloss.Color("#CBA6F7"), // Mauve
	Accent:    lipgloss.Color("#F5C2E7"), // Pink
	Info:      lipgloss.Color("#74C7EC"),

	Success: lipgloss.Color("#A6E3A1"),
	Warning: lipgloss.Color("#F9E2AF"),
	Error:   lipgloss.Color("#F38BA8"),

	PriorityLow:    lipgloss.Color("#A6E3A1"),
	PriorityMedium: lipgloss.Color("#F9E2AF"),
	PriorityHigh:   lipgloss.Color("#F38BA8"),

	StatusTodo:       lipgloss.Color("#74C7EC"),
	StatusInProgress: lipgloss.Color("#FAB387"),
	StatusDone:       lipgloss.Color("#A6E3A1"),
}
