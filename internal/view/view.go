// Package view computes read-only projections of a task collection.
// Every function is pure; callers recompute on each read.
package view

import (
	"math"
	"time"

	"taskboard/internal/task"
)

const secondsPerDay = 24 * 60 * 60

type Counts struct {
	Pending    int
	InProgress int
	Done       int
	Total      int
}

// Stats is Counts plus the completion percentage.
type Stats struct {
	Counts
	CompletionPercentage int
}

// Filter keeps tasks that match both the status filter and the tag filter,
// in source order.
func Filter(tasks []task.Task, status task.StatusFilter, tag string) []task.Task {
	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if !status.Matches(t.Status) {
			continue
		}
		if tag != "" && tag != task.FilterAll && !t.HasTag(tag) {
			continue
		}
		out = append(out, t.Clone())
	}
	return out
}

func CountByStatus(tasks []task.Task) Counts {
	c := Counts{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case task.StatusPending:
			c.Pending++
		case task.StatusInProgress:
			c.InProgress++
		case task.StatusDone:
			c.Done++
		}
	}
	return c
}

// CompletionPercentage is round(done/total*100), or 0 for an empty collection.
func CompletionPercentage(c Counts) int {
	if c.Total == 0 {
		return 0
	}
	return int(math.Round(float64(c.Done) / float64(c.Total) * 100))
}

func Summarize(tasks []task.Task) Stats {
	c := CountByStatus(tasks)
	return Stats{Counts: c, CompletionPercentage: CompletionPercentage(c)}
}

// UsedTags is the union of every task's tags in order of first appearance.
func UsedTags(tasks []task.Task) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, t := range tasks {
		for _, id := range t.Tags {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// IsOverdue reports whether deadline falls on a day before today's date.
// Unparsable or empty deadlines are never overdue.
func IsOverdue(deadline string, today time.Time) bool {
	days, ok := DaysUntil(deadline, today)
	return ok && days < 0
}

// DaysUntil is the number of calendar days from today's date to deadline:
// zero on the day itself, negative once past. ok is false when deadline is
// empty or not a YYYY-MM-DD date.
func DaysUntil(deadline string, today time.Time) (days int, ok bool) {
	if deadline == "" {
		return 0, false
	}
	d, err := task.ParseDate(deadline, time.UTC)
	if err != nil {
		return 0, false
	}
	y, m, dd := today.Date()
	t0 := time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
	// Unix seconds rather than Sub: a Duration saturates after ~292 years.
	return int((d.Unix() - t0.Unix()) / secondsPerDay), true
}
