package views

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dori/tasktrackr/internal/model"
	"github.com/dori/tasktrackr/internal/quickadd"
	"github.com/dori/tasktrackr/internal/ui/theme"
)

// formResult tells the dashboard what a form wants after a keypress
type formResult int

const (
	formOpen formResult = iota
	formSubmit
	formCancel
)

const (
	taskFieldTitle = iota
	taskFieldDescription
	taskFieldStatus
	taskFieldPriority
	taskFieldDue
	taskFieldCount
)

var errBadDate = errors.New("unrecognized due date (try YYYY-MM-DD, tomorrow or friday)")

// TaskForm creates or edits a single task
type TaskForm struct {
	editing *model.Task
	now     func() time.Time

	title       textinput.Model
	description textarea.Model
	due         textinput.Model
	status      model.Status
	priority    model.Priority

	focus  int
	errMsg string
}

// NewTaskForm opens an empty form; the status preselects the column
func NewTaskForm(status model.Status, now func() time.Time) TaskForm {
	f := newTaskForm(now)
	f.status = status
	if !f.status.Valid() {
		f.status = model.StatusTodo
	}
	return f.focusField(taskFieldTitle)
}

// EditTaskForm opens the form filled in from an existing task
func EditTaskForm(task model.Task, now func() time.Time) TaskForm {
	f := newTaskForm(now)
	f.editing = &task
	f.title.SetValue(task.Title)
	f.description.SetValue(task.Description)
	f.status = task.Status
	f.priority = task.Priority
	if task.DueDate != nil {
		f.due.SetValue(task.DueDate.In(f.now().Location()).Format("2006-01-02"))
	}
	return f.focusField(taskFieldTitle)
}

func newTaskForm(now func() time.Time) TaskForm {
	if now == nil {
		now = time.Now
	}

	title := textinput.New()
	title.Placeholder = "Enter task title..."
	title.CharLimit = 256
	title.Prompt = ""

	desc := textarea.New()
	desc.Placeholder = "Enter task description..."
	desc.ShowLineNumbers = false
	desc.SetHeight(3)
	desc.SetWidth(44)

	due := textinput.New()
	due.Placeholder = "YYYY-MM-DD, tomorrow, friday..."
	due.CharLimit = 32
	due.Prompt = ""

	return TaskForm{
		now:         now,
		title:       title,
		description: desc,
		due:         due,
		status:      model.StatusTodo,
		priority:    model.PriorityMedium,
	}
}

// Editing returns the task being edited, or nil for a new task
func (f TaskForm) Editing() *model.Task {
	return f.editing
}

func (f TaskForm) focusField(i int) TaskForm {
	f.title.Blur()
	f.description.Blur()
	f.due.Blur()
	f.focus = i
	switch i {
	case taskFieldTitle:
		f.title.Focus()
	case taskFieldDescription:
		f.description.Focus()
	case taskFieldDue:
		f.due.Focus()
	}
	return f
}

// Update handles a message while the form is open
func (f TaskForm) Update(msg tea.Msg) (TaskForm, tea.Cmd, formResult) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			return f, nil, formCancel
		case "ctrl+s":
			return f.trySubmit()
		case "tab":
			return f.focusField((f.focus + 1) % taskFieldCount), nil, formOpen
		case "shift+tab":
			return f.focusField((f.focus + taskFieldCount - 1) % taskFieldCount), nil, formOpen
		case "enter":
			if f.focus != taskFieldDescription {
				return f.trySubmit()
			}
		case "left", "right", " ":
			if f.focus == taskFieldStatus {
				f.status = cycleStatus(f.status, key.String() == "left")
				return f, nil, formOpen
			}
			if f.focus == taskFieldPriority {
				f.priority = cyclePriority(f.priority, key.String() == "left")
				return f, nil, formOpen
			}
		}
	}

	var cmd tea.Cmd
	switch f.focus {
	case taskFieldTitle:
		f.title, cmd = f.title.Update(msg)
	case taskFieldDescription:
		f.description, cmd = f.description.Update(msg)
	case taskFieldDue:
		f.due, cmd = f.due.Update(msg)
	}
	return f, cmd, formOpen
}

func (f TaskForm) trySubmit() (TaskForm, tea.Cmd, formResult) {
	if strings.TrimSpace(f.title.Value()) == "" {
		f.errMsg = model.ErrEmptyTitle.Error()
		return f.focusField(taskFieldTitle), nil, formOpen
	}
	if _, err := f.dueDate(); err != nil {
		f.errMsg = err.Error()
		return f.focusField(taskFieldDue), nil, formOpen
	}
	f.errMsg = ""
	return f, nil, formSubmit
}

// dueDate parses the due field; an empty field means no due date
func (f TaskForm) dueDate() (*time.Time, error) {
	raw := strings.TrimSpace(f.due.Value())
	if raw == "" {
		return nil, nil
	}
	due := quickadd.ParseDate(raw, f.now())
	if due == nil {
		return nil, errBadDate
	}
	return due, nil
}

// Draft returns the create payload. The board is left to the state provider.
func (f TaskForm) Draft() (model.TaskDraft, error) {
	due, err := f.dueDate()
	if err != nil {
		return model.TaskDraft{}, err
	}
	d := model.TaskDraft{
		Title:       f.title.Value(),
		Description: f.description.Value(),
		Status:      f.status,
		Priority:    f.priority,
		DueDate:     due,
	}.Normalize()
	return d, d.Validate()
}

// Patch returns only the fields that differ from the edited task
func (f TaskForm) Patch() (model.TaskPatch, error) {
	var p model.TaskPatch
	if f.editing == nil {
		return p, errors.New("no task being edited")
	}
	orig := *f.editing

	due, err := f.dueDate()
	if err != nil {
		return p, err
	}

	if title := strings.TrimSpace(f.title.Value()); title != orig.Title {
		p.Title = &title
	}
	if desc := strings.TrimSpace(f.description.Value()); desc != orig.Description {
		p.Description = &desc
	}
	if f.status != orig.Status {
		status := f.status
		p.Status = &status
	}
	if f.priority != orig.Priority {
		priority := f.priority
		p.Priority = &priority
	}
	switch {
	case due == nil && orig.DueDate != nil:
		p.ClearDueDate = true
	case due != nil && (orig.DueDate == nil || !sameDate(*due, orig.DueDate.In(due.Location()))):
		p.DueDate = due
	}
	return p, p.Validate()
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func cycleStatus(s model.Status, back bool) model.Status {
	if back {
		if s == model.StatusTodo {
			return model.StatusDone
		}
		return s.Prev()
	}
	if s == model.StatusDone {
		return model.StatusTodo
	}
	return s.Next()
}

func cyclePriority(p model.Priority, back bool) model.Priority {
	if !back {
		return p.Cycle()
	}
	return p.Cycle().Cycle()
}

// View renders the form as a modal panel
func (f TaskForm) View() string {
	t := theme.Current.Theme
	styles := theme.Current.Styles

	heading := "Create New Task"
	if f.editing != nil {
		heading = "Edit Task"
	}

	label := func(i int, text string) string {
		s := styles.Label
		if i == f.focus {
			s = lipgloss.NewStyle().Foreground(t.Primary).Bold(true)
		}
		return s.Render(text)
	}
	box := func(i int, content string) string {
		s := styles.Input
		if i == f.focus {
			s = styles.InputFocused
		}
		return s.Width(46).Render(content)
	}
	choice := func(i int, value string, c lipgloss.Color) string {
		v := lipgloss.NewStyle().Foreground(c).Bold(true).Render(value)
		if i == f.focus {
			return "‹ " + v + " ›"
		}
		return "  " + v
	}

	rows := []string{
		styles.PanelTitle.Render(heading),
		"",
		label(taskFieldTitle, "Title *"),
		box(taskFieldTitle, f.title.View()),
		label(taskFieldDescription, "Description"),
		box(taskFieldDescription, f.description.View()),
		label(taskFieldStatus, "Status") + "  " +
			choice(taskFieldStatus, f.status.Label(), t.StatusColor(f.status)),
		label(taskFieldPriority, "Priority") + "  " +
			choice(taskFieldPriority, strings.ToUpper(string(f.priority)), t.PriorityColor(f.priority)),
		label(taskFieldDue, "Due Date"),
		box(taskFieldDue, f.due.View()),
	}
	if due, err := f.dueDate(); err == nil && due != nil {
		rows = append(rows, styles.Label.Render(fmt.Sprintf("  → %s", quickadd.FormatDate(*due, f.now()))))
	}
	if f.errMsg != "" {
		rows = append(rows, styles.ToastError.Render(f.errMsg))
	}

	action := "Create Task"
	if f.editing != nil {
		action = "Update Task"
	}
	rows = append(rows, "",
		styles.HelpKey.Render("enter")+styles.HelpDesc.Render(" "+strings.ToLower(action))+"  "+
			styles.HelpKey.Render("tab")+styles.HelpDesc.Render(" next field")+"  "+
			styles.HelpKey.Render("←/→")+styles.HelpDesc.Render(" change")+"  "+
			styles.HelpKey.Render("esc")+styles.HelpDesc.Render(" cancel"),
	)

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(1, 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
