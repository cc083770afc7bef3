package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/task"
)

func sample() []task.Task {
	return []task.Task{
		{ID: "1", Text: "a", Status: task.StatusDone, Tags: []string{"work"}},
		{ID: "2", Text: "b", Status: task.StatusPending, Tags: []string{"shopping"}},
		{ID: "3", Text: "c", Status: task.StatusDone, Tags: []string{"finance", "work"}},
		{ID: "4", Text: "d", Status: task.StatusInProgress, Tags: []string{}},
	}
}

func ids(tasks []task.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestFilter(t *testing.T) {
	tasks := sample()

	assert.Equal(t, []string{"1", "3"}, ids(Filter(tasks, task.StatusFilter(task.StatusDone), task.FilterAll)))
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(Filter(tasks, task.FilterAll, task.FilterAll)))
	assert.Equal(t, []string{"1", "3"}, ids(Filter(tasks, task.FilterAll, "work")))
	assert.Equal(t, []string{"3"}, ids(Filter(tasks, task.StatusFilter(task.StatusDone), "finance")))
	assert.Empty(t, Filter(tasks, task.StatusFilter(task.StatusPending), "work"))
}

func TestFilterReturnsCopies(t *testing.T) {
	tasks := sample()
	got := Filter(tasks, task.FilterAll, "work")
	got[0].Tags[0] = "changed"
	assert.Equal(t, "work", tasks[0].Tags[0])
}

func TestSummarize(t *testing.T) {
	tasks := []task.Task{
		{Status: task.StatusDone},
		{Status: task.StatusPending},
		{Status: task.StatusPending},
		{Status: task.StatusInProgress},
	}
	s := Summarize(tasks)
	assert.Equal(t, Counts{Pending: 2, InProgress: 1, Done: 1, Total: 4}, s.Counts)
	assert.Equal(t, 25, s.CompletionPercentage)
}

func TestCompletionPercentageRounds(t *testing.T) {
	assert.Equal(t, 67, CompletionPercentage(Counts{Done: 2, Total: 3}))
	assert.Equal(t, 0, CompletionPercentage(Counts{}))
}

func TestUsedTags(t *testing.T) {
	assert.Equal(t, []string{"work", "shopping", "finance"}, UsedTags(sample()))
	assert.Empty(t, UsedTags(nil))
}

func TestOverdueIgnoresTimeOfDay(t *testing.T) {
	late := time.Date(2024, 5, 20, 23, 59, 0, 0, time.Local)
	early := time.Date(2024, 5, 20, 0, 1, 0, 0, time.Local)

	for _, now := range []time.Time{early, late} {
		assert.False(t, IsOverdue("2024-05-20", now), "deadline of today at %v", now)
		assert.True(t, IsOverdue("2024-05-19", now), "deadline of yesterday at %v", now)
		assert.False(t, IsOverdue("2024-05-21", now))
	}
	assert.False(t, IsOverdue("", late))
	assert.False(t, IsOverdue("soon", late))
}

func TestDaysUntil(t *testing.T) {
	now := time.Date(2024, 3, 9, 18, 0, 0, 0, time.FixedZone("PST", -8*3600))

	days, ok := DaysUntil("2024-03-09", now)
	require.True(t, ok)
	assert.Equal(t, 0, days)

	days, ok = DaysUntil("2024-03-12", now)
	require.True(t, ok)
	assert.Equal(t, 3, days)

	days, ok = DaysUntil("2024-02-28", now)
	require.True(t, ok)
	assert.Equal(t, -10, days)

	days, ok = DaysUntil("2500-01-01", time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, 172837, days)

	days, ok = DaysUntil("1700-01-01", time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, -119357, days)

	_, ok = DaysUntil("", now)
	assert.False(t, ok)
}
