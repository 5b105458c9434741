// Package validation collects per-field validation messages.
package validation

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// FieldErrors maps a field path (e.g. "lessons[0].title") to its message.
type FieldErrors map[string]string

// Add records msg for field unless the field already has a message.
func (f FieldErrors) Add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

// Err returns a *Error carrying the messages, or nil if there are none.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}

	return &Error{Fields: f}
}

// Error is returned by operations rejecting their input.
type Error struct {
	Fields FieldErrors
}

func (e *Error) Error() string {
	keys := slices.Sorted(maps.Keys(e.Fields))

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}

	return "validation failed: " + strings.Join(parts, "; ")
}
