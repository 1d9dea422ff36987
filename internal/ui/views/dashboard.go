package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dori/tasktrackr/internal/model"
	"github.com/dori/tasktrackr/internal/notify"
	"github.com/dori/tasktrackr/internal/quickadd"
	"github.com/dori/tasktrackr/internal/state"
	"github.com/dori/tasktrackr/internal/ui/theme"
)

// DashboardMode represents the current input mode
type DashboardMode int

const (
	DashboardModeNormal DashboardMode = iota
	DashboardModeTaskForm
	DashboardModeBoardForm
	DashboardModeConfirmDelete
)

const (
	cardHeight            = 2
	sidebarWidth          = 24
	sidebarCollapsedWidth = 3
)

// DashboardView is the signed-in screen: sidebar, header and three columns
type DashboardView struct {
	tasks    *state.Tasks
	auth     *state.Auth
	notifier *notify.Notifier
	keys     KeyMap
	now      func() time.Time
	width    int
	height   int

	// Navigation state
	currentColumn int
	cursorRow     int
	columnScroll  [3]int

	sidebarCollapsed bool

	mode      DashboardMode
	taskForm  TaskForm
	boardForm BoardForm

	deleteTaskID string

	// Tasks whose due reminder already went out
	reminded map[string]bool
}

// NewDashboardView creates the dashboard
func NewDashboardView(tasks *state.Tasks, auth *state.Auth, notifier *notify.Notifier) DashboardView {
	return DashboardView{
		tasks:    tasks,
		auth:     auth,
		notifier: notifier,
		keys:     DefaultKeyMap(),
		now:      time.Now,
		reminded: make(map[string]bool),
	}
}

// WithClock replaces the clock used for due dates
func (v DashboardView) WithClock(now func() time.Time) DashboardView {
	v.now = now
	return v
}

// Init loads the signed-in user's boards and tasks
func (v DashboardView) Init() tea.Cmd {
	return v.load()
}

// SetSize sets the view dimensions
func (v DashboardView) SetSize(width, height int) DashboardView {
	v.width = width
	v.height = height
	v.ensureCursorVisible()
	return v
}

// Keys returns the dashboard keybindings
func (v DashboardView) Keys() KeyMap {
	return v.keys
}

// Mode returns the current input mode
func (v DashboardView) Mode() DashboardMode {
	return v.mode
}

// IsInputMode returns whether keys go to a form or prompt
func (v DashboardView) IsInputMode() bool {
	return v.mode != DashboardModeNormal
}

// Reset drops per-user view state, e.g. after logout
func (v DashboardView) Reset() DashboardView {
	v.mode = DashboardModeNormal
	v.currentColumn = 0
	v.cursorRow = 0
	v.columnScroll = [3]int{}
	v.deleteTaskID = ""
	v.reminded = make(map[string]bool)
	return v
}

func (v DashboardView) load() tea.Cmd {
	tasks, user := v.tasks, v.auth.User()
	return func() tea.Msg {
		return boardLoadedMsg{err: tasks.Load(context.Background(), user)}
	}
}

// Update handles messages
func (v DashboardView) Update(msg tea.Msg) (DashboardView, tea.Cmd) {
	switch msg := msg.(type) {
	case boardLoadedMsg:
		if msg.err != nil {
			return v, Toast("Error loading data", msg.err.Error(), true)
		}
		v.clampCursor()
		return v, v.remindDue()

	case syncedMsg:
		v.clampCursor()
		if msg.err != nil {
			return v, Toast("Something went wrong", msg.err.Error(), true)
		}
		return v, tea.Batch(Toast(msg.done, "", false), v.remindDue())

	case reminderSentMsg:
		for _, id := range msg.ids {
			v.reminded[id] = true
		}
		return v, nil

	case tea.KeyMsg:
		switch v.mode {
		case DashboardModeTaskForm:
			return v.handleTaskForm(msg)
		case DashboardModeBoardForm:
			return v.handleBoardForm(msg)
		case DashboardModeConfirmDelete:
			return v.handleConfirmDeleteMode(msg)
		default:
			return v.handleNormalMode(msg)
		}
	}

	// Cursor blink and similar messages for the open form
	var cmd tea.Cmd
	switch v.mode {
	case DashboardModeTaskForm:
		v.taskForm, cmd, _ = v.taskForm.Update(msg)
	case DashboardModeBoardForm:
		v.boardForm, cmd, _ = v.boardForm.Update(msg)
	}
	return v, cmd
}

// handleNormalMode handles keys in normal mode
func (v DashboardView) handleNormalMode(msg tea.KeyMsg) (DashboardView, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Left):
		if v.currentColumn > 0 {
			v.currentColumn--
			v.clampCursor()
		}

	case key.Matches(msg, v.keys.Right):
		if v.currentColumn < 2 {
			v.currentColumn++
			v.clampCursor()
		}

	case key.Matches(msg, v.keys.Down):
		if v.cursorRow < len(v.column(v.currentColumn))-1 {
			v.cursorRow++
			v.ensureCursorVisible()
		}

	case key.Matches(msg, v.keys.Up):
		if v.cursorRow > 0 {
			v.cursorRow--
			v.ensureCursorVisible()
		}

	case key.Matches(msg, v.keys.Top):
		v.cursorRow = 0
		v.columnScroll[v.currentColumn] = 0

	case key.Matches(msg, v.keys.Bottom):
		if col := v.column(v.currentColumn); len(col) > 0 {
			v.cursorRow = len(col) - 1
			v.ensureCursorVisible()
		}

	case key.Matches(msg, v.keys.MoveLeft):
		return v, v.moveTask(-1)

	case key.Matches(msg, v.keys.MoveRight):
		return v, v.moveTask(1)

	case key.Matches(msg, v.keys.Add):
		v.taskForm = NewTaskForm(model.Statuses()[v.currentColumn], v.now)
		v.mode = DashboardModeTaskForm
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Edit):
		if task, ok := v.selectedTask(); ok {
			v.taskForm = EditTaskForm(task, v.now)
			v.mode = DashboardModeTaskForm
		}

	case key.Matches(msg, v.keys.Delete):
		if task, ok := v.selectedTask(); ok {
			v.deleteTaskID = task.ID
			v.mode = DashboardModeConfirmDelete
		}

	case key.Matches(msg, v.keys.Priority):
		return v, v.cyclePriority()

	case key.Matches(msg, v.keys.NewBoard):
		v.boardForm = NewBoardForm()
		v.mode = DashboardModeBoardForm

	case key.Matches(msg, v.keys.NextBoard):
		v.switchBoard(1)

	case key.Matches(msg, v.keys.PrevBoard):
		v.switchBoard(-1)

	case key.Matches(msg, v.keys.AllBoards):
		v.tasks.SetActiveBoard("")
		v.resetCursor()

	case key.Matches(msg, v.keys.ToggleSidebar):
		v.sidebarCollapsed = !v.sidebarCollapsed

	case key.Matches(msg, v.keys.Refresh):
		return v, v.load()

	case key.Matches(msg, v.keys.Logout):
		auth := v.auth
		return v, func() tea.Msg {
			auth.Logout(context.Background())
			return LoggedOutMsg{}
		}
	}

	return v, nil
}

// handleTaskForm forwards keys to the task form and acts on its result
func (v DashboardView) handleTaskForm(msg tea.KeyMsg) (DashboardView, tea.Cmd) {
	form, cmd, result := v.taskForm.Update(msg)
	v.taskForm = form

	switch result {
	case formCancel:
		v.mode = DashboardModeNormal
		return v, nil
	case formSubmit:
		v.mode = DashboardModeNormal
		return v, v.saveTask(form)
	}
	return v, cmd
}

// handleBoardForm forwards keys to the board form and acts on its result
func (v DashboardView) handleBoardForm(msg tea.KeyMsg) (DashboardView, tea.Cmd) {
	form, cmd, result := v.boardForm.Update(msg)
	v.boardForm = form

	switch result {
	case formCancel:
		v.mode = DashboardModeNormal
		return v, nil
	case formSubmit:
		v.mode = DashboardModeNormal
		v.resetCursor()
		tasks, draft := v.tasks, form.Draft()
		return v, func() tea.Msg {
			_, err := tasks.CreateBoard(context.Background(), draft)
			return syncedMsg{done: "Board created", err: err}
		}
	}
	return v, cmd
}

// handleConfirmDeleteMode handles keys in delete confirmation mode
func (v DashboardView) handleConfirmDeleteMode(msg tea.KeyMsg) (DashboardView, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.mode = DashboardModeNormal
		taskID := v.deleteTaskID
		v.deleteTaskID = ""
		return v, v.deleteTask(taskID)
	case "n", "N", "esc":
		v.mode = DashboardModeNormal
		v.deleteTaskID = ""
	}
	return v, nil
}

// column returns the tasks of a column on the active board
func (v DashboardView) column(i int) []model.Task {
	return v.tasks.TasksByStatus(model.Statuses()[i])
}

func (v DashboardView) selectedTask() (model.Task, bool) {
	col := v.column(v.currentColumn)
	if v.cursorRow < 0 || v.cursorRow >= len(col) {
		return model.Task{}, false
	}
	return col[v.cursorRow], true
}

// switchBoard moves the active board through the sidebar order
func (v *DashboardView) switchBoard(delta int) {
	boards := v.tasks.Boards()
	if len(boards) == 0 {
		return
	}
	active := v.tasks.ActiveBoard()
	next := 0
	for i, b := range boards {
		if b.ID == active {
			next = (i + delta + len(boards)) % len(boards)
			break
		}
	}
	v.tasks.SetActiveBoard(boards[next].ID)
	v.resetCursor()
}

func (v *DashboardView) resetCursor() {
	v.cursorRow = 0
	v.columnScroll = [3]int{}
}

// clampCursor ensures cursor is valid for current column
func (v *DashboardView) clampCursor() {
	col := v.column(v.currentColumn)
	if v.cursorRow >= len(col) {
		if len(col) > 0 {
			v.cursorRow = len(col) - 1
		} else {
			v.cursorRow = 0
		}
	}
	v.ensureCursorVisible()
}

// ensureCursorVisible adjusts scroll to keep cursor in view
func (v *DashboardView) ensureCursorVisible() {
	visible := v.visibleItemCount()
	col := v.currentColumn

	if v.cursorRow >= v.columnScroll[col]+visible {
		v.columnScroll[col] = v.cursorRow - visible + 1
	}
	if v.cursorRow < v.columnScroll[col] {
		v.columnScroll[col] = v.cursorRow
	}
}

// bodyHeight is what remains below the header and above the prompt line
func (v DashboardView) bodyHeight() int {
	return v.height - 3
}

// visibleItemCount returns how many cards fit in a column
func (v DashboardView) visibleItemCount() int {
	// column title, two border lines, two scroll indicators
	available := v.bodyHeight() - 5
	if n := available / cardHeight; n > 0 {
		return n
	}
	return 1
}

// moveTask moves the selected task to the adjacent column
func (v DashboardView) moveTask(direction int) tea.Cmd {
	task, ok := v.selectedTask()
	if !ok {
		return nil
	}
	status := task.Status.Next()
	if direction < 0 {
		status = task.Status.Prev()
	}
	if status == task.Status {
		return nil
	}

	tasks := v.tasks
	return func() tea.Msg {
		_, err := tasks.MoveTask(context.Background(), task.ID, status)
		return syncedMsg{done: "Moved to " + status.Label(), err: err}
	}
}

// cyclePriority cycles the priority of the selected task
func (v DashboardView) cyclePriority() tea.Cmd {
	task, ok := v.selectedTask()
	if !ok {
		return nil
	}
	priority := task.Priority.Cycle()

	tasks := v.tasks
	return func() tea.Msg {
		_, err := tasks.UpdateTask(context.Background(), task.ID, model.TaskPatch{Priority: &priority})
		return syncedMsg{done: "Priority: " + string(priority), err: err}
	}
}

// saveTask creates or updates a task from the submitted form
func (v DashboardView) saveTask(form TaskForm) tea.Cmd {
	tasks := v.tasks

	if editing := form.Editing(); editing != nil {
		patch, err := form.Patch()
		if err != nil {
			return Toast("Invalid task", err.Error(), true)
		}
		if patch.IsEmpty() {
			return nil
		}
		id := editing.ID
		return func() tea.Msg {
			_, err := tasks.UpdateTask(context.Background(), id, patch)
			return syncedMsg{done: "Task updated", err: err}
		}
	}

	draft, err := form.Draft()
	if err != nil {
		return Toast("Invalid task", err.Error(), true)
	}
	return func() tea.Msg {
		_, err := tasks.CreateTask(context.Background(), draft)
		return syncedMsg{done: "Task created", err: err}
	}
}

// deleteTask deletes a task
func (v DashboardView) deleteTask(taskID string) tea.Cmd {
	tasks := v.tasks
	return func() tea.Msg {
		err := tasks.DeleteTask(context.Background(), taskID)
		return syncedMsg{done: "Task deleted", err: err}
	}
}

// remindDue sends one desktop reminder per open task that is overdue or due soon
func (v DashboardView) remindDue() tea.Cmd {
	if v.notifier == nil || !v.notifier.IsEnabled() {
		return nil
	}
	now := v.now()

	var due []model.Task
	for _, t := range v.tasks.Tasks() {
		if t.Status == model.StatusDone || v.reminded[t.ID] {
			continue
		}
		if t.IsOverdue(now) || t.IsDueSoon(now) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}

	notifier := v.notifier
	return func() tea.Msg {
		ids := make([]string, 0, len(due))
		for _, t := range due {
			notifier.SendDueReminder(t.Title, t.DueDate.Sub(now))
			ids = append(ids, t.ID)
		}
		return reminderSentMsg{ids: ids}
	}
}

// View renders the dashboard
func (v DashboardView) View() string {
	if v.width == 0 || v.height == 0 {
		return "Loading..."
	}

	t := theme.Current.Theme
	header := v.renderHeader()
	divider := lipgloss.NewStyle().Foreground(t.Border).Render(strings.Repeat("─", v.width))

	sidebar := v.renderSidebar()
	mainWidth := v.width - lipgloss.Width(sidebar)

	var main string
	switch {
	case v.tasks.Loading():
		main = lipgloss.Place(mainWidth, v.bodyHeight(), lipgloss.Center, lipgloss.Center,
			lipgloss.NewStyle().Foreground(t.Primary).Bold(true).Render("Loading your bizarre adventure..."))
	case v.mode == DashboardModeTaskForm:
		main = lipgloss.Place(mainWidth, v.bodyHeight(), lipgloss.Center, lipgloss.Center, v.taskForm.View())
	case v.mode == DashboardModeBoardForm:
		main = lipgloss.Place(mainWidth, v.bodyHeight(), lipgloss.Center, lipgloss.Center, v.boardForm.View())
	default:
		main = v.renderColumns(mainWidth)
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main)

	var prompt string
	if v.mode == DashboardModeConfirmDelete {
		title := ""
		if task, ok := v.tasks.Task(v.deleteTaskID); ok {
			title = task.Title
		}
		prompt = lipgloss.NewStyle().
			Foreground(t.Error).
			Bold(true).
			Render(fmt.Sprintf("Delete '%s'? This cannot be undone. (y/n)", title))
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, divider, body, prompt)
}

// renderHeader shows the active board on the left and the user on the right
func (v DashboardView) renderHeader() string {
	t := theme.Current.Theme

	var left string
	if board, ok := v.tasks.ActiveBoardData(); ok {
		dot := lipgloss.NewStyle().Foreground(boardColor(board)).Render("●")
		left = dot + " " + lipgloss.NewStyle().Foreground(t.Foreground).Bold(true).Render(board.Name)
	} else {
		left = lipgloss.NewStyle().Foreground(t.Foreground).Bold(true).Render("✦ All Boards")
	}

	var right string
	if u := v.auth.User(); u != nil {
		stand := u.StandName
		if stand == "" {
			stand = "Unknown Stand"
		}
		right = u.AvatarEmoji + " " +
			lipgloss.NewStyle().Foreground(t.Foreground).Bold(true).Render(u.DisplayName()) + " " +
			lipgloss.NewStyle().Foreground(t.Secondary).Bold(true).Render("🌟 Stand: "+stand+" 🌟") + "  " +
			lipgloss.NewStyle().Foreground(t.Error).Render("X: Za Warudo... Logout")
	}

	gap := v.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return " " + left + strings.Repeat(" ", gap) + right + " "
}

// renderSidebar lists the boards with their color dot
func (v DashboardView) renderSidebar() string {
	t := theme.Current.Theme
	styles := theme.Current.Styles
	active := v.tasks.ActiveBoard()
	boards := v.tasks.Boards()

	var lines []string
	if v.sidebarCollapsed {
		lines = append(lines, styles.HelpKey.Render("+"))
		for _, b := range boards {
			dot := "●"
			if b.ID == active {
				dot = "◉"
			}
			lines = append(lines, lipgloss.NewStyle().Foreground(boardColor(b)).Render(dot))
		}
		return styles.Sidebar.
			Width(sidebarCollapsedWidth).
			Height(v.bodyHeight()).
			Render(strings.Join(lines, "\n"))
	}

	lines = append(lines,
		lipgloss.NewStyle().Foreground(t.Primary).Bold(true).Render("+ New Board")+styles.Label.Render(" (B)"),
		"",
		styles.Label.Bold(true).Render("BOARDS"),
	)

	all := "  ✦ All Boards"
	if active == "" {
		all = lipgloss.NewStyle().Foreground(t.Primary).Bold(true).Render("▸ ✦ All Boards")
	}
	lines = append(lines, all)

	for _, b := range boards {
		dot := lipgloss.NewStyle().Foreground(boardColor(b)).Render("●")
		name := ansi.Truncate(b.Name, sidebarWidth-6, "…")
		if b.ID == active {
			lines = append(lines, lipgloss.NewStyle().Foreground(t.Primary).Bold(true).Render("▸ ")+dot+" "+
				lipgloss.NewStyle().Foreground(t.Primary).Bold(true).Render(name))
		} else {
			lines = append(lines, "  "+dot+" "+lipgloss.NewStyle().Foreground(t.Foreground).Render(name))
		}
	}
	if len(boards) == 0 {
		lines = append(lines, styles.Label.Italic(true).Render("  (no boards yet)"))
	}

	return styles.Sidebar.
		Width(sidebarWidth).
		Height(v.bodyHeight()).
		Render(strings.Join(lines, "\n"))
}

// renderColumns renders To Do, In Progress and Done side by side
func (v DashboardView) renderColumns(width int) string {
	t := theme.Current.Theme
	statuses := model.Statuses()

	colWidth := width/len(statuses) - 2
	if colWidth < 18 {
		colWidth = 18
	}

	visibleItems := v.visibleItemCount()
	var cols []string
	for i, status := range statuses {
		tasks := v.column(i)
		isActiveCol := i == v.currentColumn
		scrollOffset := v.columnScroll[i]

		headerStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(t.StatusColor(status)).
			Width(colWidth + 2).
			Align(lipgloss.Center)
		if isActiveCol {
			headerStyle = headerStyle.Background(t.Highlight)
		}
		header := headerStyle.Render(fmt.Sprintf("%s (%d)", status.Label(), len(tasks)))

		startIdx := min(scrollOffset, len(tasks))
		endIdx := min(scrollOffset+visibleItems, len(tasks))

		var items []string
		if scrollOffset > 0 {
			items = append(items, v.scrollIndicator(colWidth, fmt.Sprintf("↑ %d more", scrollOffset)))
		}
		for j := startIdx; j < endIdx; j++ {
			items = append(items, v.renderCard(tasks[j], colWidth, isActiveCol && j == v.cursorRow))
		}
		if endIdx < len(tasks) {
			items = append(items, v.scrollIndicator(colWidth, fmt.Sprintf("↓ %d more", len(tasks)-endIdx)))
		}

		content := strings.Join(items, "\n")
		if len(tasks) == 0 {
			content = lipgloss.NewStyle().
				Foreground(t.Subtle).
				Italic(true).
				Render("No tasks yet. Press a to add one")
		}

		cs := lipgloss.NewStyle().
			Width(colWidth).
			Height(v.bodyHeight() - 3).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(t.Border)
		if isActiveCol {
			cs = cs.BorderForeground(t.Primary)
		}

		cols = append(cols, lipgloss.JoinVertical(lipgloss.Left, header, cs.Render(content)))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (v DashboardView) scrollIndicator(width int, text string) string {
	return lipgloss.NewStyle().
		Foreground(theme.Current.Theme.Subtle).
		Width(width).
		Align(lipgloss.Center).
		Render(text)
}

// renderCard renders a task as two lines: priority and title, then
// description and due date
func (v DashboardView) renderCard(task model.Task, width int, selected bool) string {
	t := theme.Current.Theme
	styles := theme.Current.Styles
	now := v.now()

	cardStyle := lipgloss.NewStyle().
		Width(width).
		Foreground(t.Foreground)
	if selected {
		cardStyle = cardStyle.Background(t.Highlight)
	}

	marker := lipgloss.NewStyle().Foreground(t.PriorityColor(task.Priority)).Render(priorityMarker(task.Priority))
	title := ansi.Truncate(task.Title, width-3, "…")
	if task.Status == model.StatusDone {
		title = styles.TaskDone.Render(title)
	}
	line1 := marker + " " + title

	var due string
	if task.DueDate != nil {
		style := styles.DueDate
		switch {
		case task.IsOverdue(now):
			style = styles.TaskOverdue
		case task.IsDueSoon(now):
			style = styles.DueSoon
		}
		due = style.Render("◷ " + quickadd.FormatDate(*task.DueDate, now))
	}

	descWidth := width - 2 - lipgloss.Width(due)
	desc := ""
	if task.Description != "" && descWidth > 4 {
		firstLine, _, _ := strings.Cut(task.Description, "\n")
		desc = styles.Label.Render(ansi.Truncate(firstLine, descWidth, "…"))
	}
	line2 := "  " + desc
	if due != "" {
		gap := width - lipgloss.Width(line2) - lipgloss.Width(due)
		if gap < 1 {
			gap = 1
		}
		line2 += strings.Repeat(" ", gap) + due
	}

	return cardStyle.Render(line1 + "\n" + line2)
}

func priorityMarker(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "▲"
	case model.PriorityLow:
		return "▽"
	default:
		return "●"
	}
}

func boardColor(b model.Board) lipgloss.Color {
	if b.Color == "" {
		return lipgloss.Color(model.DefaultBoardColor)
	}
	return lipgloss.Color(b.Color)
}
