// Package task holds the task record shared by every storage backend.
package task

import (
	"strings"

	"github.com/google/uuid"
)

// Status is the free-text state of a task.
type Status string

const (
	StatusPending Status = "Pending"
	StatusDone    Status = "Done"
)

// Toggle flips between Pending and Done. Any other status becomes Done.
func (s Status) Toggle() Status {
	if s == StatusDone {
		return StatusPending
	}
	return StatusDone
}

// Task is one logged item. ID identifies the task in memory only; it is
// regenerated on every load and never written to a backend.
type Task struct {
	ID       string
	Title    string
	Deadline string
	Notes    string
	Status   Status
}

// New builds a task with a fresh ID. An empty status becomes Pending.
func New(title, deadline, notes string, status Status) Task {
	if strings.TrimSpace(string(status)) == "" {
		status = StatusPending
	}
	return Task{
		ID:       uuid.NewString(),
		Title:    title,
		Deadline: deadline,
		Notes:    notes,
		Status:   status,
	}
}

// HasDeadline reports whether a deadline was set.
func (t Task) HasDeadline() bool {
	return strings.TrimSpace(t.Deadline) != ""
}

// Same compares the persisted fields of two tasks, ignoring ID.
func Same(a, b Task) bool {
	return a.Title == b.Title &&
		a.Deadline == b.Deadline &&
		a.Notes == b.Notes &&
		a.Status == b.Status
}

// SameList reports whether two lists hold the same persisted fields in the same order.
func SameList(a, b []Task) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Same(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Clone returns a copy of tasks that does not share the backing array.
func Clone(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	copy(out, tasks)
	return out
}

// Reverse returns a reversed copy of tasks.
func Reverse(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[len(tasks)-1-i] = t
	}
	return out
}
