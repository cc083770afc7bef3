package task

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

var (
	ErrUnknownStatus = errors.New("unknown status")
	ErrUnknownFilter = errors.New("unknown filter")
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusDone:
		return true
	}
	return false
}

func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusInProgress:
		return "In Progress"
	case StatusDone:
		return "Done"
	}
	return string(s)
}

// Next cycles pending -> in-progress -> done -> pending.
func (s Status) Next() Status {
	switch s {
	case StatusPending:
		return StatusInProgress
	case StatusInProgress:
		return StatusDone
	default:
		return StatusPending
	}
}

func ParseStatus(v string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(v)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, v)
	}
	return s, nil
}

// FilterAll matches every task for both the status and the tag filter.
const FilterAll = "all"

// StatusFilter is "all" or one of the statuses.
type StatusFilter string

func ParseStatusFilter(v string) (StatusFilter, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" || v == FilterAll {
		return FilterAll, nil
	}
	s, err := ParseStatus(v)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownFilter, v)
	}
	return StatusFilter(s), nil
}

func (f StatusFilter) Matches(s Status) bool {
	return f == FilterAll || f == "" || Status(f) == s
}

// StatusFilters lists the filter choices in display order.
func StatusFilters() []StatusFilter {
	return []StatusFilter{FilterAll, StatusFilter(StatusPending), StatusFilter(StatusInProgress), StatusFilter(StatusDone)}
}

// Task is a single to-do item. Only Status changes after creation.
type Task struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	Tags      []string  `json:"tags"`
	StartDate string    `json:"startDate,omitempty"`
	Deadline  string    `json:"deadline,omitempty"`
	Assignee  string    `json:"assignee,omitempty"`
}

func (t Task) HasTag(id string) bool {
	for _, tag := range t.Tags {
		if tag == id {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices with t.
func (t Task) Clone() Task {
	c := t
	c.Tags = append([]string{}, t.Tags...)
	return c
}
