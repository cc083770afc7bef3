package ui

import (
	"encoding/json"
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"taskboard/internal/kv"
	"taskboard/internal/task"
)

type theme struct {
	title    lipgloss.Style
	muted    lipgloss.Style
	cursor   lipgloss.Style
	overdue  lipgloss.Style
	errorMsg lipgloss.Style
	status   map[task.Status]lipgloss.Style
	dark     bool
}

func newTheme(dark bool) theme {
	fg, muted := lipgloss.Color("#1F2937"), lipgloss.Color("#6B7280")
	if dark {
		fg, muted = lipgloss.Color("#F9FAFB"), lipgloss.Color("#9CA3AF")
	}
	return theme{
		title:    lipgloss.NewStyle().Bold(true).Foreground(fg),
		muted:    lipgloss.NewStyle().Foreground(muted),
		cursor:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3B82F6")),
		overdue:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#DC2626")),
		errorMsg: lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626")),
		status: map[task.Status]lipgloss.Style{
			task.StatusPending:    lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")),
			task.StatusInProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6")),
			task.StatusDone:       lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")),
		},
		dark: dark,
	}
}

func (th theme) statusStyle(s task.Status) lipgloss.Style {
	if st, ok := th.status[s]; ok {
		return st
	}
	return th.muted
}

// tagBadge renders a catalog tag with its colour hint. Tags missing from the
// catalog render as "".
func (th theme) tagBadge(id string) string {
	tag, ok := task.ResolveTag(id)
	if !ok {
		return ""
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(tag.Color)).Render("#" + tag.Label)
}

// loadDarkMode reads the persisted preference. Anything but a JSON boolean
// counts as off.
func loadDarkMode(backend kv.Store) bool {
	if backend == nil {
		return false
	}
	raw, found, err := backend.Load(kv.KeyDarkMode)
	if err != nil || !found {
		return false
	}
	var on bool
	if err := json.Unmarshal([]byte(raw), &on); err != nil {
		return false
	}
	return on
}

func saveDarkMode(backend kv.Store, on bool) error {
	if backend == nil {
		return nil
	}
	return backend.Save(kv.KeyDarkMode, strconv.FormatBool(on))
}
