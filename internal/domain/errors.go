package domain

import (
	"fmt"
	"strings"
)

// FieldError is a single field-scoped validation failure, shaped like
// the backend's {loc, msg} detail entries so client-side and
// server-side failures format identically.
type FieldError struct {
	Loc string
	Msg string
}

func (e FieldError) Error() string {
	if e.Loc == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Loc, e.Msg)
}

// FieldErrors aggregates validation failures, one line per field.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	lines := make([]string, len(e))
	for i, fe := range e {
		lines[i] = fe.Error()
	}
	return strings.Join(lines, "\n")
}
