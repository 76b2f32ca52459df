package task

import (
	"context"
	"time"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ParsePriority maps free-form input to a known priority, defaulting to medium.
func ParsePriority(s string) Priority {
	switch Priority(s) {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return Priority(s)
	}
	return PriorityMedium
}

func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	}
	return 2
}

// Task is the sole persisted entity. DueAt is the canonical due instant
// used for all comparisons; DueDisplay is a human-readable rendering kept
// only for messages.
type Task struct {
	ID          int64
	Text        string
	DueDisplay  string
	DueAt       *time.Time
	Priority    Priority
	Completed   bool
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// Store is the durable record of tasks. Getters return (nil, nil) when a
// task does not exist; a non-nil error always means the store itself
// failed, so callers can tell "not found" from "store unavailable".
type Store interface {
	// Create assigns a store-wide unique, strictly-increasing id. The text
	// is stored as-is; validation belongs to the caller.
	Create(ctx context.Context, text string, dueAt *time.Time, dueDisplay string, priority Priority) (int64, error)
	Get(ctx context.Context, id int64) (*Task, error)
	// ListPending returns incomplete tasks ordered by priority, then due
	// time (nulls last), then creation order.
	ListPending(ctx context.Context) ([]Task, error)
	// ListOverdue returns pending tasks whose due instant is strictly
	// before asOf, ordered by due time ascending.
	ListOverdue(ctx context.Context, asOf time.Time) ([]Task, error)
	// Complete transitions pending -> completed. It reports false, with no
	// error, when the task is missing or already completed. Exactly one of
	// two concurrent calls for the same id observes true.
	Complete(ctx context.Context, id int64) (bool, error)
	// Delete removes the record if present.
	Delete(ctx context.Context, id int64) (bool, error)
}
