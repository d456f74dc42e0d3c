// Package codec converts task lists to and from the JSON array text kept in
// the preference slot.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"tasklogger/internal/task"
)

// ErrMalformed is returned by DecodeStrict when the text is not an array of objects.
var ErrMalformed = errors.New("malformed task list")

// EmptyList is the encoded form of a list with no tasks.
const EmptyList = "[]"

// record fixes the key order of the encoded objects.
type record struct {
	Title    string `json:"title"`
	Deadline string `json:"deadline"`
	Notes    string `json:"notes"`
	Status   string `json:"status"`
}

// Encode renders tasks as a JSON array in list order.
func Encode(tasks []task.Task) (string, error) {
	records := make([]record, 0, len(tasks))
	for _, t := range tasks {
		records = append(records, record{
			Title:    t.Title,
			Deadline: t.Deadline,
			Notes:    t.Notes,
			Status:   string(t.Status),
		})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		return "", fmt.Errorf("encode tasks: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// DecodeStrict parses text produced by Encode. Missing keys read as empty
// text, except status which reads as Pending.
func DecodeStrict(text string) ([]task.Task, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty text", ErrMalformed)
	}

	var objects []map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &objects); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	tasks := make([]task.Task, 0, len(objects))
	for i, obj := range objects {
		if obj == nil {
			return nil, fmt.Errorf("%w: element %d is not an object", ErrMalformed, i)
		}
		tasks = append(tasks, task.New(
			field(obj, "title"),
			field(obj, "deadline"),
			field(obj, "notes"),
			task.Status(field(obj, "status")),
		))
	}
	return tasks, nil
}

// Decode is DecodeStrict with failures read as an empty list.
func Decode(text string) []task.Task {
	tasks, err := DecodeStrict(text)
	if err != nil {
		return []task.Task{}
	}
	return tasks
}

// field returns the text of key. Non-string scalars are taken literally.
func field(obj map[string]json.RawMessage, key string) string {
	raw, ok := obj[key]
	if !ok {
		return ""
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}
