// Package domain holds the entity types served by the tomorrows-news
// backend and the client-side validation rules applied before a draft
// is submitted.
package domain

import (
	"strings"
	"time"
)

// Topic is a monitored subject owned by the authenticated user.
// Deleting a topic cascades server-side to its sources and events.
type Topic struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Keywords    string    `json:"keywords,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// TopicDraft is the payload for creating or updating a topic.
type TopicDraft struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Keywords    string `json:"keywords,omitempty"`
	IsActive    bool   `json:"is_active"`
}

// Validate applies the backend's field constraints client-side so a
// doomed request never leaves the process.
func (d TopicDraft) Validate() error {
	var errs FieldErrors
	name := strings.TrimSpace(d.Name)
	if name == "" {
		errs = append(errs, FieldError{Loc: "name", Msg: "name must not be empty"})
	}
	if len(name) > 200 {
		errs = append(errs, FieldError{Loc: "name", Msg: "name must be at most 200 characters"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
