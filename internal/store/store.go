// Package store owns the live task collection. Every mutation is applied in
// memory first and then the whole collection is written back through the
// key-value backend as one snapshot.
package store

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskboard/internal/kv"
	"taskboard/internal/task"
	"taskboard/internal/view"
)

// ErrNotSaved wraps every persistence failure. The in-memory collection
// keeps the change; only the write was lost.
var ErrNotSaved = errors.New("changes could not be saved")

type Store struct {
	backend kv.Store
	tasks   []task.Task
	now     func() time.Time
	newID   func() string
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

func New(backend kv.Store, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		tasks:   []task.Task{},
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewTask is the input to Add. Empty optional fields mean absent.
type NewTask struct {
	Text      string
	Tags      []string
	StartDate string
	Deadline  string
	Assignee  string
}

// Load replaces the in-memory collection with the persisted one. A snapshot
// that is not a JSON array is copied to kv.KeyTodosCorrupt and the store
// starts empty.
func (s *Store) Load() error {
	data, found, err := s.backend.Load(kv.KeyTodos)
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	if !found {
		s.tasks = []task.Task{}
		return nil
	}
	dec := task.Decoder{Now: s.now, NewID: s.newID}
	tasks, err := dec.DecodeAll(data)
	if err != nil {
		log.Printf("[store] %v; moving snapshot to %q", err, kv.KeyTodosCorrupt)
		if serr := s.backend.Save(kv.KeyTodosCorrupt, data); serr != nil {
			return fmt.Errorf("quarantine corrupt tasks: %w", serr)
		}
		tasks = []task.Task{}
	}
	s.tasks = tasks
	log.Printf("[store] loaded %d tasks", len(tasks))
	return nil
}

// Add creates a pending task at the front of the collection. Text that is
// empty after trimming is a no-op and returns nil, nil. Unknown tags are
// dropped and dates that are not YYYY-MM-DD are treated as absent.
func (s *Store) Add(in NewTask) (*task.Task, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, nil
	}
	t := task.Task{
		ID:        s.uniqueID(),
		Text:      text,
		Status:    task.StatusPending,
		CreatedAt: s.now().UTC(),
		Tags:      task.NormalizeTags(in.Tags),
		StartDate: task.NormalizeDate(in.StartDate),
		Deadline:  task.NormalizeDate(in.Deadline),
		Assignee:  strings.TrimSpace(in.Assignee),
	}
	s.tasks = append([]task.Task{t}, s.tasks...)

	created := t.Clone()
	return &created, s.persist()
}

// SetStatus changes only the status of task id. Unknown ids and invalid
// statuses are ignored.
func (s *Store) SetStatus(id string, status task.Status) error {
	if !status.Valid() {
		return nil
	}
	i := s.indexOf(id)
	if i < 0 || s.tasks[i].Status == status {
		return nil
	}
	s.tasks[i].Status = status
	return s.persist()
}

// Remove deletes task id. Unknown ids are ignored.
func (s *Store) Remove(id string) error {
	i := s.indexOf(id)
	if i < 0 {
		return nil
	}
	s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
	return s.persist()
}

// ClearDone removes every done task, keeping the rest in order, and
// persists once.
func (s *Store) ClearDone() (int, error) {
	kept := make([]task.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if t.Status != task.StatusDone {
			kept = append(kept, t)
		}
	}
	removed := len(s.tasks) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	s.tasks = kept
	return removed, s.persist()
}

// Tasks returns a copy of the collection, newest first.
func (s *Store) Tasks() []task.Task {
	out := make([]task.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Clone()
	}
	return out
}

func (s *Store) Get(id string) (task.Task, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return task.Task{}, false
	}
	return s.tasks[i].Clone(), true
}

func (s *Store) FilteredView(status task.StatusFilter, tag string) []task.Task {
	return view.Filter(s.tasks, status, tag)
}

func (s *Store) Stats() view.Stats {
	return view.Summarize(s.tasks)
}

func (s *Store) UsedTags() []string {
	return view.UsedTags(s.tasks)
}

// Now is the store clock, used for deadline comparisons.
func (s *Store) Now() time.Time {
	return s.now()
}

func (s *Store) persist() error {
	data, err := task.Encode(s.tasks)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotSaved, err)
	}
	if err := s.backend.Save(kv.KeyTodos, data); err != nil {
		log.Printf("[store] save failed: %v", err)
		return fmt.Errorf("%w: %w", ErrNotSaved, err)
	}
	return nil
}

func (s *Store) indexOf(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) uniqueID() string {
	for {
		id := s.newID()
		if id != "" && s.indexOf(id) < 0 {
			return id
		}
	}
}
