package task

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps tasks in memory. It backs tests and runs the bot
// without a database; ids are strictly increasing like the SQL store's.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	tasks  map[int64]Task
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tasks: map[int64]Task{}}
}

// snapshot copies a task so callers never share pointers with the store.
func snapshot(t Task) Task {
	if t.DueAt != nil {
		due := *t.DueAt
		t.DueAt = &due
	}
	if t.CompletedAt != nil {
		done := *t.CompletedAt
		t.CompletedAt = &done
	}
	return t
}

func (s *MemoryStore) Create(ctx context.Context, text string, dueAt *time.Time, dueDisplay string, priority Priority) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	t := Task{
		ID:         s.nextID,
		Text:       text,
		DueDisplay: dueDisplay,
		Priority:   priority,
		CreatedAt:  time.Now().UTC(),
	}
	if dueAt != nil {
		due := dueAt.UTC()
		t.DueAt = &due
	}
	s.tasks[t.ID] = t
	return t.ID, nil
}

func (s *MemoryStore) Get(ctx context.Context, id int64) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, nil
	}
	t = snapshot(t)
	return &t, nil
}

func (s *MemoryStore) ListPending(ctx context.Context) ([]Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tasks []Task
	for _, t := range s.tasks {
		if !t.Completed {
			tasks = append(tasks, snapshot(t))
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.Priority.rank() != b.Priority.rank() {
			return a.Priority.rank() < b.Priority.rank()
		}
		switch {
		case a.DueAt == nil && b.DueAt == nil:
			return a.ID < b.ID
		case a.DueAt == nil:
			return false
		case b.DueAt == nil:
			return true
		case !a.DueAt.Equal(*b.DueAt):
			return a.DueAt.Before(*b.DueAt)
		}
		return a.ID < b.ID
	})
	return tasks, nil
}

func (s *MemoryStore) ListOverdue(ctx context.Context, asOf time.Time) ([]Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tasks []Task
	for _, t := range s.tasks {
		if !t.Completed && t.DueAt != nil && t.DueAt.Before(asOf) {
			tasks = append(tasks, snapshot(t))
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		if !tasks[i].DueAt.Equal(*tasks[j].DueAt) {
			return tasks[i].DueAt.Before(*tasks[j].DueAt)
		}
		return tasks[i].ID < tasks[j].ID
	})
	return tasks, nil
}

func (s *MemoryStore) Complete(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.Completed {
		return false, nil
	}
	now := time.Now().UTC()
	t.Completed = true
	t.CompletedAt = &now
	s.tasks[id] = t
	return true, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return false, nil
	}
	delete(s.tasks, id)
	return true, nil
}
