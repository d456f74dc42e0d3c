package task

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrEmptyTitle is returned when a title is blank after trimming.
	ErrEmptyTitle = errors.New("title is required")

	// ErrInvalidDeadline is returned when a deadline is not a recognised date.
	ErrInvalidDeadline = errors.New("deadline must be YYYY-MM-DD or like Jan 2, 2006")
)

// DeadlineLayout is the medium date form deadlines are stored in.
const DeadlineLayout = "Jan 2, 2006"

var deadlineInputLayouts = []string{
	"2006-01-02",
	DeadlineLayout,
	"January 2, 2006",
}

// Fields is the user-editable part of a task, as typed into a form.
type Fields struct {
	Title    string
	Deadline string
	Notes    string
}

// Validate trims the fields and normalizes the deadline.
func Validate(f Fields) (Fields, error) {
	out := Fields{
		Title:    strings.TrimSpace(f.Title),
		Deadline: strings.TrimSpace(f.Deadline),
		Notes:    strings.TrimSpace(f.Notes),
	}
	if out.Title == "" {
		return Fields{}, ErrEmptyTitle
	}
	deadline, err := NormalizeDeadline(out.Deadline)
	if err != nil {
		return Fields{}, err
	}
	out.Deadline = deadline
	return out, nil
}

// NormalizeDeadline parses a deadline and formats it as DeadlineLayout.
// An empty deadline stays empty.
func NormalizeDeadline(v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", nil
	}
	for _, layout := range deadlineInputLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format(DeadlineLayout), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDeadline, v)
}
