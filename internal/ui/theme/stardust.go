package theme

import "github.com/charmbracelet/lipgloss"

// Stardust is the default theme: deep purple night sky with gold menace.
var Stardust = Theme{
	Name: "stardust",

	Background: lipgloss.Color("#1A1025"),
	Foreground: lipgloss.Color("#F3E8FF"),
	Subtle:     lipgloss.Color("#7C6A99"),
	Highlight:  lipgloss.Color("#2E1F47"),
	Border:     lipgloss.Color("#4C3A6B"),

	Primary:   lipgloss.Color("#FFD700"), // Gold
	Secondary: lipgloss.Color("#9932CC"), // Stand purple
	Accent:    lipgloss.Color("#FF1493"), // Menacing pink
	Info:      lipgloss.Color("#00BFFF"),

	Success: lipgloss.Color("#00FF7F"),
	Warning: lipgloss.Color("#FFA500"),
	Error:   lipgloss.Color("#FF4500"),

	PriorityLow:    lipgloss.Color("#00FF7F"),
	PriorityMedium: lipgloss.Color("#FFD700"),
	PriorityHigh:   lipgloss.Color("#FF4500"),

	StatusTodo:       lipgloss.Color("#00BFFF"),
	StatusInProgress: lipgloss.Color("#FFD700"),
	StatusDone:       lipgloss.Color("#00FF7F"),
}
