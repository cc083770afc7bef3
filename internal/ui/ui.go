package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"taskboard/internal/config"
	"taskboard/internal/kv"
	"taskboard/internal/store"
	"taskboard/internal/task"
	"taskboard/internal/view"
)

type mode int

const (
	modeList mode = iota
	modeAdd
	modeConfirmDelete
	modeConfirmClear
)

type formState struct {
	text     string
	assignee string
	start    string
	deadline string
	tags     string
	index    int
}

type Model struct {
	store        *store.Store
	backend      kv.Store
	cfg          config.Config
	cursor       int
	mode         mode
	input        textinput.Model
	status       string
	statusErr    bool
	statusFilter task.StatusFilter
	tagFilter    string
	form         *formState
	pendingDel   *task.Task
	theme        theme
}

// New builds the model over an already loaded store. backend holds the
// dark-mode preference.
func New(st *store.Store, backend kv.Store, cfg config.Config) Model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 40

	return Model{
		store:        st,
		backend:      backend,
		cfg:          cfg,
		input:        ti,
		mode:         modeList,
		status:       fmt.Sprintf("Press '%s' to add, space to advance status, '%s' to delete.", cfg.Keys.Add, cfg.Keys.Delete),
		statusFilter: cfg.StatusFilter(),
		tagFilter:    cfg.TagFilter(),
		theme:        newTheme(loadDarkMode(backend)),
	}
}

func Run(st *store.Store, backend kv.Store, cfg config.Config) error {
	_, err := tea.NewProgram(New(st, backend, cfg)).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.mode {
		case modeAdd:
			return m.updateAddMode(msg.String(), msg)
		case modeConfirmDelete:
			return m.updateDeleteConfirm(msg.String())
		case modeConfirmClear:
			return m.updateClearConfirm(msg.String())
		default:
			return m.updateListMode(msg.String())
		}
	case tea.WindowSizeMsg:
		m.input.Width = max(msg.Width-10, 10)
	}
	return m, nil
}

func (m Model) visible() []task.Task {
	return m.store.FilteredView(m.statusFilter, m.tagFilter)
}

func (m Model) selected() (task.Task, bool) {
	tasks := m.visible()
	if len(tasks) == 0 {
		return task.Task{}, false
	}
	return tasks[clampCursor(m.cursor, len(tasks))], true
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	k := m.cfg.Keys
	switch key {
	case "ctrl+c", k.Quit:
		return m, tea.Quit
	case k.Down, "down":
		m.cursor = clampCursor(m.cursor+1, len(m.visible()))
	case k.Up, "up":
		m.cursor = clampCursor(m.cursor-1, len(m.visible()))
	case k.Add:
		m.mode = modeAdd
		m.form = &formState{}
		m.input.SetValue("")
		m.input.Placeholder = m.form.currentLabel()
		m.input.Focus()
		m.setInfo(m.formPrompt())
	case k.CycleStatus:
		if t, ok := m.selected(); ok {
			m.applyStatus(t, t.Status.Next())
		}
	case k.SetPending:
		if t, ok := m.selected(); ok {
			m.applyStatus(t, task.StatusPending)
		}
	case k.SetInProgress:
		if t, ok := m.selected(); ok {
			m.applyStatus(t, task.StatusInProgress)
		}
	case k.SetDone:
		if t, ok := m.selected(); ok {
			m.applyStatus(t, task.StatusDone)
		}
	case k.Delete:
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.pendingDel = &t
		m.mode = modeConfirmDelete
		m.setInfo(fmt.Sprintf("Delete \"%s\"? y/n", t.Text))
	case k.ClearDone:
		done := m.store.Stats().Done
		if done == 0 {
			m.setInfo("No done tasks to clear")
			return m, nil
		}
		m.mode = modeConfirmClear
		m.setInfo(fmt.Sprintf("Clear %d done task(s)? y/n", done))
	case k.Filter:
		m.statusFilter = nextStatusFilter(m.statusFilter)
		m.cursor = clampCursor(m.cursor, len(m.visible()))
		m.setInfo("Status filter: " + string(m.statusFilter))
	case k.TagFilter:
		m.tagFilter = nextTagFilter(m.tagFilter, m.store.UsedTags())
		m.cursor = clampCursor(m.cursor, len(m.visible()))
		m.setInfo("Tag filter: " + m.tagFilter)
	case k.DarkMode:
		m.theme = newTheme(!m.theme.dark)
		if err := saveDarkMode(m.backend, m.theme.dark); err != nil {
			m.setErr(fmt.Errorf("%w: %w", store.ErrNotSaved, err))
			return m, nil
		}
		m.setInfo("Dark mode " + onOff(m.theme.dark))
	case k.Detail:
		t, ok := m.selected()
		if !ok {
			m.setInfo("No tasks")
			return m, nil
		}
		m.setInfo(m.detailLine(t))
	}
	return m, nil
}

func (m *Model) applyStatus(t task.Task, s task.Status) {
	if err := m.store.SetStatus(t.ID, s); err != nil {
		m.setErr(err)
		return
	}
	m.cursor = clampCursor(m.cursor, len(m.visible()))
	m.setInfo(fmt.Sprintf("\"%s\" is now %s", t.Text, s.Label()))
}

func (m Model) updateAddMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel:
		m.closeForm()
		m.setInfo("Cancelled")
		return m, nil
	case "tab", "down":
		m.form.setCurrentValue(m.input.Value())
		m.form.index = wrapIndex(m.form.index+1, len(formFields()))
		m.syncInput()
		return m, nil
	case "shift+tab", "up":
		m.form.setCurrentValue(m.input.Value())
		m.form.index = wrapIndex(m.form.index-1, len(formFields()))
		m.syncInput()
		return m, nil
	case m.cfg.Keys.Confirm:
		m.form.setCurrentValue(m.input.Value())
		if m.form.index >= len(formFields())-1 {
			return m.saveForm()
		}
		m.form.index++
		m.syncInput()
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) saveForm() (tea.Model, tea.Cmd) {
	f := m.form
	if strings.TrimSpace(f.text) == "" {
		f.index = 0
		m.syncInput()
		m.setErr(errors.New("task text cannot be empty"))
		return m, nil
	}
	for i, v := range []string{f.start, f.deadline} {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if _, err := task.ParseDate(v, nil); err != nil {
			f.index = 2 + i
			m.syncInput()
			m.setErr(err)
			return m, nil
		}
	}
	tags, err := parseTags(f.tags)
	if err != nil {
		m.setErr(err)
		return m, nil
	}

	created, err := m.store.Add(store.NewTask{
		Text:      f.text,
		Tags:      tags,
		StartDate: f.start,
		Deadline:  f.deadline,
		Assignee:  f.assignee,
	})
	m.closeForm()
	if err != nil {
		m.setErr(err)
		return m, nil
	}
	if created != nil {
		m.cursor = 0
		m.setInfo(fmt.Sprintf("Added \"%s\"", created.Text))
	}
	return m, nil
}

func (m *Model) closeForm() {
	m.form = nil
	m.mode = modeList
	m.input.SetValue("")
	m.input.Blur()
}

func (m *Model) syncInput() {
	m.input.SetValue(m.form.currentValue())
	m.input.Placeholder = m.form.currentLabel()
	m.setInfo(m.formPrompt())
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", m.cfg.Keys.Cancel:
		m.setInfo("Delete cancelled")
	case "y", "Y":
		if m.pendingDel != nil {
			if err := m.store.Remove(m.pendingDel.ID); err != nil {
				m.setErr(err)
			} else {
				m.setInfo("Deleted task")
			}
		}
	default:
		return m, nil
	}
	m.mode = modeList
	m.pendingDel = nil
	m.cursor = clampCursor(m.cursor, len(m.visible()))
	return m, nil
}

func (m Model) updateClearConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", m.cfg.Keys.Cancel:
		m.setInfo("Clear cancelled")
	case "y", "Y":
		n, err := m.store.ClearDone()
		if err != nil {
			m.setErr(err)
		} else {
			m.setInfo(fmt.Sprintf("Cleared %d done task(s)", n))
		}
	default:
		return m, nil
	}
	m.mode = modeList
	m.cursor = clampCursor(m.cursor, len(m.visible()))
	return m, nil
}

func (m *Model) setInfo(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setErr(err error) {
	m.statusErr = true
	if errors.Is(err, store.ErrNotSaved) {
		m.status = fmt.Sprintf("Changes could not be saved (%v)", err)
		return
	}
	m.status = "Error: " + err.Error()
}

func (m Model) View() string {
	var b strings.Builder
	th := m.theme

	b.WriteString(th.title.Render("Todo List"))
	b.WriteString("\n\n")

	stats := m.store.Stats()
	if stats.Total > 0 {
		b.WriteString(m.renderProgress(stats))
		b.WriteString("\n\n")
	}

	b.WriteString(th.muted.Render(fmt.Sprintf("Status: %s • Tag: %s", m.statusFilter, m.tagFilter)))
	b.WriteString("\n\n")

	tasks := m.visible()
	switch {
	case stats.Total == 0:
		b.WriteString(fmt.Sprintf("No tasks yet. Press '%s' to add one.\n", m.cfg.Keys.Add))
	case len(tasks) == 0:
		b.WriteString("No tasks match the current filters.\n")
	default:
		b.WriteString(m.renderTaskList(tasks))
	}

	b.WriteString("---\n")
	if m.form != nil {
		b.WriteString(m.renderForm())
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.statusErr {
		b.WriteString(th.errorMsg.Render(m.status))
	} else {
		b.WriteString(m.status)
	}
	b.WriteString("\n")
	b.WriteString(th.muted.Render(renderHelp(m.cfg.Keys)))
	return b.String()
}

func (m Model) renderProgress(s view.Stats) string {
	const width = 20
	filled := s.CompletionPercentage * width / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	th := m.theme
	return fmt.Sprintf("%s %3d%% complete\n%s %d • %s %d • %s %d",
		th.statusStyle(task.StatusDone).Render(bar), s.CompletionPercentage,
		th.statusStyle(task.StatusPending).Render(task.StatusPending.Label()), s.Pending,
		th.statusStyle(task.StatusInProgress).Render(task.StatusInProgress.Label()), s.InProgress,
		th.statusStyle(task.StatusDone).Render(task.StatusDone.Label()), s.Done)
}

func (m Model) renderTaskList(tasks []task.Task) string {
	var b strings.Builder
	cur := clampCursor(m.cursor, len(tasks))
	for i, t := range tasks {
		cursor := " "
		if i == cur && m.mode == modeList {
			cursor = m.theme.cursor.Render(">")
		}
		parts := []string{cursor, m.theme.statusStyle(t.Status).Render(statusBox(t.Status)), t.Text}
		for _, id := range t.Tags {
			if badge := m.theme.tagBadge(id); badge != "" {
				parts = append(parts, badge)
			}
		}
		if t.Assignee != "" {
			parts = append(parts, m.theme.muted.Render("@"+t.Assignee))
		}
		if d := m.deadlineLabel(t); d != "" {
			parts = append(parts, d)
		}
		b.WriteString(strings.Join(parts, " "))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) deadlineLabel(t task.Task) string {
	if t.Deadline == "" {
		return ""
	}
	days, ok := view.DaysUntil(t.Deadline, m.store.Now())
	if !ok {
		return m.theme.muted.Render("due " + t.Deadline)
	}
	if t.Status == task.StatusDone {
		return m.theme.muted.Render("due " + t.Deadline)
	}
	switch {
	case days < 0:
		return m.theme.overdue.Render(fmt.Sprintf("overdue (%s)", t.Deadline))
	case days == 0:
		return m.theme.overdue.Render("due today")
	case days == 1:
		return m.theme.muted.Render("1 day left")
	default:
		return m.theme.muted.Render(fmt.Sprintf("%d days left", days))
	}
}

func (m Model) detailLine(t task.Task) string {
	info := fmt.Sprintf("%s • %s • created %s", t.Text, t.Status.Label(), t.CreatedAt.Local().Format("2006-01-02 15:04"))
	var labels []string
	for _, id := range t.Tags {
		if tag, ok := task.ResolveTag(id); ok {
			labels = append(labels, tag.Label)
		}
	}
	if len(labels) > 0 {
		info += " • tags:" + strings.Join(labels, ",")
	}
	if t.Assignee != "" {
		info += " • assignee:" + t.Assignee
	}
	if t.StartDate != "" {
		info += " • start:" + t.StartDate
	}
	if t.Deadline != "" {
		info += " • deadline:" + t.Deadline
		if view.IsOverdue(t.Deadline, m.store.Now()) {
			info += " (overdue)"
		}
	}
	return info
}

func (m Model) renderForm() string {
	fields := formFields()
	values := []string{m.form.text, m.form.assignee, m.form.start, m.form.deadline, m.form.tags}
	var b strings.Builder
	b.WriteString("New task (tab/shift+tab to move, enter for next/save, esc to cancel)\n\n")
	for i, name := range fields {
		prefix := " "
		if i == m.form.index {
			prefix = ">"
		}
		val := values[i]
		if strings.TrimSpace(val) == "" {
			val = "(empty)"
		}
		b.WriteString(fmt.Sprintf("%s %-24s : %s\n", prefix, name, val))
	}
	return b.String()
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("%s/%s move • %s add • space cycle • %s/%s/%s set status • %s delete • %s clear done • %s filter • %s tag • %s dark • %s info • %s quit",
		k.Up, k.Down, k.Add, k.SetPending, k.SetInProgress, k.SetDone, k.Delete, k.ClearDone, k.Filter, k.TagFilter, k.DarkMode, k.Detail, k.Quit)
}

func formFields() []string {
	return []string{"task", "assignee", "start date (YYYY-MM-DD)", "deadline (YYYY-MM-DD)", "tags (comma separated)"}
}

func (f formState) currentLabel() string {
	return formFields()[f.index]
}

func (f formState) currentValue() string {
	switch f.index {
	case 0:
		return f.text
	case 1:
		return f.assignee
	case 2:
		return f.start
	case 3:
		return f.deadline
	case 4:
		return f.tags
	default:
		return ""
	}
}

func (f *formState) setCurrentValue(v string) {
	switch f.index {
	case 0:
		f.text = v
	case 1:
		f.assignee = v
	case 2:
		f.start = v
	case 3:
		f.deadline = v
	case 4:
		f.tags = v
	}
}

func (m Model) formPrompt() string {
	if m.form == nil {
		return ""
	}
	return fmt.Sprintf("Editing %s (field %d of %d)", m.form.currentLabel(), m.form.index+1, len(formFields()))
}

// parseTags splits a comma or space separated list of catalog tag ids.
func parseTags(v string) ([]string, error) {
	var out []string
	for _, f := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' }) {
		id := strings.ToLower(strings.TrimSpace(f))
		if _, ok := task.ResolveTag(id); !ok {
			return nil, fmt.Errorf("unknown tag %q (known: %s)", f, knownTags())
		}
		out = append(out, id)
	}
	return out, nil
}

func knownTags() string {
	var ids []string
	for _, t := range task.Catalog() {
		ids = append(ids, t.ID)
	}
	return strings.Join(ids, ", ")
}

func nextStatusFilter(cur task.StatusFilter) task.StatusFilter {
	all := task.StatusFilters()
	for i, f := range all {
		if f == cur {
			return all[(i+1)%len(all)]
		}
	}
	return all[0]
}

// nextTagFilter cycles "all" followed by the tags currently in use.
func nextTagFilter(cur string, used []string) string {
	opts := append([]string{task.FilterAll}, used...)
	for i, id := range opts {
		if id == cur {
			return opts[(i+1)%len(opts)]
		}
	}
	return opts[0]
}

func statusBox(s task.Status) string {
	switch s {
	case task.StatusInProgress:
		return "[~]"
	case task.StatusDone:
		return "[x]"
	default:
		return "[ ]"
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func wrapIndex(idx, n int) int {
	if n <= 0 {
		return 0
	}
	idx %= n
	if idx < 0 {
		idx += n
	}
	return idx
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
