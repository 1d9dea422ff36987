package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dori/tasktrackr/internal/model"
	"github.com/dori/tasktrackr/internal/ui/theme"
)

// BoardForm collects a new board's name and color
type BoardForm struct {
	name     textinput.Model
	color    int
	onColors bool
	errMsg   string
}

// NewBoardForm opens an empty board form with the first palette color
func NewBoardForm() BoardForm {
	name := textinput.New()
	name.Placeholder = "Enter board name..."
	name.CharLimit = 64
	name.Prompt = ""
	name.Focus()
	return BoardForm{name: name}
}

// Update handles a message while the form is open
func (f BoardForm) Update(msg tea.Msg) (BoardForm, tea.Cmd, formResult) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			return f, nil, formCancel
		case "tab", "shift+tab", "down", "up":
			f.onColors = !f.onColors
			if f.onColors {
				f.name.Blur()
			} else {
				f.name.Focus()
			}
			return f, nil, formOpen
		case "left", "right":
			if f.onColors {
				n := len(model.BoardColors)
				if key.String() == "left" {
					f.color = (f.color + n - 1) % n
				} else {
					f.color = (f.color + 1) % n
				}
				return f, nil, formOpen
			}
		case "enter", "ctrl+s":
			if strings.TrimSpace(f.name.Value()) == "" {
				f.errMsg = model.ErrEmptyName.Error()
				f.onColors = false
				f.name.Focus()
				return f, nil, formOpen
			}
			f.errMsg = ""
			return f, nil, formSubmit
		}
	}

	if f.onColors {
		return f, nil, formOpen
	}
	var cmd tea.Cmd
	f.name, cmd = f.name.Update(msg)
	return f, cmd, formOpen
}

// Draft returns the normalized board payload
func (f BoardForm) Draft() model.BoardDraft {
	return model.BoardDraft{
		Name:  f.name.Value(),
		Color: model.BoardColors[f.color],
	}.Normalize()
}

// View renders the form as a modal panel
func (f BoardForm) View() string {
	t := theme.Current.Theme
	styles := theme.Current.Styles

	nameBox := styles.InputFocused
	colorLabel := styles.Label
	if f.onColors {
		nameBox = styles.Input
		colorLabel = lipgloss.NewStyle().Foreground(t.Primary).Bold(true)
	}

	swatches := make([]string, len(model.BoardColors))
	for i, c := range model.BoardColors {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(c)).Render("●")
		if i == f.color {
			dot = "[" + dot + "]"
		} else {
			dot = " " + dot + " "
		}
		swatches[i] = dot
	}

	rows := []string{
		styles.PanelTitle.Render("Create New Board"),
		"",
		styles.Label.Render("Board Name *"),
		nameBox.Width(40).Render(f.name.View()),
		colorLabel.Render("Board Color"),
		strings.Join(swatches, ""),
	}
	if f.errMsg != "" {
		rows = append(rows, styles.ToastError.Render(f.errMsg))
	}
	rows = append(rows, "",
		styles.HelpKey.Render("enter")+styles.HelpDesc.Render(" create board")+"  "+
			styles.HelpKey.Render("tab")+styles.HelpDesc.Render(" color")+"  "+
			styles.HelpKey.Render("←/→")+styles.HelpDesc.Render(" pick")+"  "+
			styles.HelpKey.Render("esc")+styles.HelpDesc.Render(" cancel"),
	)

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(1, 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
