package views

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the dashboard keybindings
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	Top       key.Binding
	Bottom    key.Binding
	MoveLeft  key.Binding
	MoveRight key.Binding

	Add      key.Binding
	Edit     key.Binding
	Delete   key.Binding
	Priority key.Binding

	NewBoard      key.Binding
	NextBoard     key.Binding
	PrevBoard     key.Binding
	AllBoards     key.Binding
	ToggleSidebar key.Binding
	Refresh       key.Binding
	Logout        key.Binding
}

// DefaultKeyMap returns the default dashboard keybindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "column"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "column"),
		),
		Top: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G"),
			key.WithHelp("G", "bottom"),
		),
		MoveLeft: key.NewBinding(
			key.WithKeys("H", "shift+left"),
			key.WithHelp("H", "move left"),
		),
		MoveRight: key.NewBinding(
			key.WithKeys("L", "shift+right"),
			key.WithHelp("L", "move right"),
		),
		Add: key.NewBinding(
			key.WithKeys("a", "n"),
			key.WithHelp("a", "add task"),
		),
		Edit: key.NewBinding(
			key.WithKeys("enter", "e"),
			key.WithHelp("enter", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "delete"),
		),
		Priority: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "priority"),
		),
		NewBoard: key.NewBinding(
			key.WithKeys("B"),
			key.WithHelp("B", "new board"),
		),
		NextBoard: key.NewBinding(
			key.WithKeys("]", "tab"),
			key.WithHelp("]", "next board"),
		),
		PrevBoard: key.NewBinding(
			key.WithKeys("[", "shift+tab"),
			key.WithHelp("[", "prev board"),
		),
		AllBoards: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "all boards"),
		),
		ToggleSidebar: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sidebar"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r", "ctrl+r"),
			key.WithHelp("r", "refresh"),
		),
		Logout: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "logout"),
		),
	}
}

// ShortHelp returns the bindings shown in the footer
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Edit, k.Delete, k.MoveLeft, k.MoveRight, k.NewBoard, k.NextBoard}
}

// FullHelp returns the bindings shown in the help overlay
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.Top, k.Bottom},
		{k.Add, k.Edit, k.Delete, k.Priority, k.MoveLeft, k.MoveRight},
		{k.NewBoard, k.NextBoard, k.PrevBoard, k.AllBoards, k.ToggleSidebar},
		{k.Refresh, k.Logout},
	}
}
