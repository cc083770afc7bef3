package ui

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/config"
	"taskboard/internal/kv"
	"taskboard/internal/store"
	"taskboard/internal/task"
)

var now = time.Date(2024, 5, 20, 10, 0, 0, 0, time.Local)

type brokenKV struct{ kv.Memory }

func (b *brokenKV) Save(string, string) error { return errors.New("quota exceeded") }

func newModel(t *testing.T, backend kv.Store) Model {
	t.Helper()
	cfg, err := config.LoadOrCreate(filepath.Join(t.TempDir(), config.DefaultConfigFileName))
	require.NoError(t, err)
	n := 0
	st := store.New(backend,
		store.WithClock(func() time.Time { return now }),
		store.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
	require.NoError(t, st.Load())
	return New(st, backend, cfg)
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

// addTask walks the add form: text, assignee, start, deadline, tags.
func addTask(m Model, fields ...string) Model {
	m = press(m, "a")
	for i := 0; i < len(formFields()); i++ {
		if i < len(fields) && fields[i] != "" {
			m = press(m, fields[i])
		}
		m = press(m, "enter")
	}
	return m
}

func TestAddTaskThroughForm(t *testing.T) {
	m := newModel(t, kv.NewMemory())

	m = addTask(m, "Buy milk", "Kim", "", "2024-05-19", "shopping")
	require.Equal(t, modeList, m.mode)

	tasks := m.store.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "Buy milk", tasks[0].Text)
	assert.Equal(t, "Kim", tasks[0].Assignee)
	assert.Equal(t, "2024-05-19", tasks[0].Deadline)
	assert.Equal(t, []string{"shopping"}, tasks[0].Tags)

	out := m.View()
	assert.Contains(t, out, "Buy milk")
	assert.Contains(t, out, "#Shopping")
	assert.Contains(t, out, "overdue")
	assert.Contains(t, out, "0% complete")
}

func TestAddFormRejectsEmptyTextAndBadInput(t *testing.T) {
	m := newModel(t, kv.NewMemory())

	m = addTask(m)
	assert.Equal(t, modeAdd, m.mode)
	assert.True(t, m.statusErr)
	assert.Empty(t, m.store.Tasks())

	m = press(m, "esc")
	m = addTask(m, "x", "", "", "", "gardening")
	assert.Equal(t, modeAdd, m.mode)
	assert.Contains(t, m.status, "unknown tag")

	m = press(m, "esc")
	m = addTask(m, "x", "", "tomorrow")
	assert.Equal(t, modeAdd, m.mode)
	assert.Equal(t, 2, m.form.index)
	assert.Empty(t, m.store.Tasks())
}

func TestStatusKeys(t *testing.T) {
	m := newModel(t, kv.NewMemory())
	m = addTask(m, "a")

	m = press(m, " ")
	assert.Equal(t, task.StatusInProgress, m.store.Tasks()[0].Status)
	m = press(m, "3")
	assert.Equal(t, task.StatusDone, m.store.Tasks()[0].Status)
	m = press(m, " ")
	assert.Equal(t, task.StatusPending, m.store.Tasks()[0].Status)
}

func TestDeleteAndClearDoneConfirm(t *testing.T) {
	m := newModel(t, kv.NewMemory())
	m = addTask(m, "a")
	m = addTask(m, "b")
	m = addTask(m, "c")

	m = press(m, "d", "n")
	assert.Len(t, m.store.Tasks(), 3)

	m = press(m, "d", "y")
	require.Len(t, m.store.Tasks(), 2)
	assert.Equal(t, "b", m.store.Tasks()[0].Text)

	m = press(m, "3", "C", "y")
	require.Len(t, m.store.Tasks(), 1)
	assert.Equal(t, "a", m.store.Tasks()[0].Text)

	m = press(m, "C")
	assert.Equal(t, modeList, m.mode)
	assert.Contains(t, m.status, "No done tasks")
}

func TestFilterCycling(t *testing.T) {
	m := newModel(t, kv.NewMemory())
	m = addTask(m, "work item", "", "", "", "work")
	m = addTask(m, "errand", "", "", "", "shopping")

	m = press(m, "f")
	assert.Equal(t, task.StatusFilter(task.StatusPending), m.statusFilter)
	m = press(m, "f", "f", "f")
	assert.Equal(t, task.StatusFilter(task.FilterAll), m.statusFilter)

	m = press(m, "t")
	assert.Equal(t, "shopping", m.tagFilter, "newest task's tags come first")
	m = press(m, "t")
	assert.Equal(t, "work", m.tagFilter)
	visible := m.visible()
	require.Len(t, visible, 1)
	assert.Equal(t, "work item", visible[0].Text)

	m = press(m, "t")
	assert.Equal(t, task.FilterAll, m.tagFilter)
}

func TestDarkModePersists(t *testing.T) {
	backend := kv.NewMemory()
	m := newModel(t, backend)
	require.False(t, m.theme.dark)

	m = press(m, "D")
	assert.True(t, m.theme.dark)
	raw, found, err := backend.Load(kv.KeyDarkMode)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "true", raw)

	assert.True(t, loadDarkMode(backend))
}

func TestSaveFailureIsReported(t *testing.T) {
	m := newModel(t, &brokenKV{})
	m = addTask(m, "a")

	assert.True(t, m.statusErr)
	assert.True(t, strings.HasPrefix(m.status, "Changes could not be saved"), m.status)
	assert.Len(t, m.store.Tasks(), 1, "memory keeps the task")
}

func TestEmptyViewSkipsProgress(t *testing.T) {
	m := newModel(t, kv.NewMemory())
	out := m.View()
	assert.NotContains(t, out, "complete")
	assert.Contains(t, out, "No tasks yet")
}

func TestNextTagFilter(t *testing.T) {
	assert.Equal(t, "work", nextTagFilter("all", []string{"work", "home"}))
	assert.Equal(t, "all", nextTagFilter("home", []string{"work", "home"}))
	assert.Equal(t, "all", nextTagFilter("gone", []string{"work"}))
}
