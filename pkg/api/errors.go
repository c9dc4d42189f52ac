package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Convl/tomorrows-news/internal/domain"
)

// ErrUnauthorized marks a dead session: the stored token has been
// purged and the user must log in again. It is handled globally and
// never shown as a field-level message.
var ErrUnauthorized = errors.New("unauthorized: session expired")

// APIError is a non-2xx response from the backend with its detail
// normalized to display form.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return e.Detail
}

// validationEntry is one element of a structured validation detail,
// {loc: ["body", "name"], msg: "..."}.
type validationEntry struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// decodeAPIError turns an error response body into an *APIError. The
// backend sends `detail` either as a flat string or as a list of
// {loc, msg} pairs; the latter formats one "loc.path: msg" per line.
func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apiErr
	}

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		apiErr.Detail = strings.TrimSpace(string(body))
		return apiErr
	}

	var flat string
	if err := json.Unmarshal(envelope.Detail, &flat); err == nil {
		apiErr.Detail = flat
		return apiErr
	}

	var entries []validationEntry
	if err := json.Unmarshal(envelope.Detail, &entries); err == nil {
		lines := make([]string, 0, len(entries))
		for _, entry := range entries {
			msg := entry.Msg
			if msg == "" {
				msg = "Unknown error"
			}
			if loc := formatLoc(entry.Loc); loc != "" {
				lines = append(lines, fmt.Sprintf("%s: %s", loc, msg))
			} else {
				lines = append(lines, msg)
			}
		}
		apiErr.Detail = strings.Join(lines, "\n")
		return apiErr
	}

	apiErr.Detail = strings.TrimSpace(string(envelope.Detail))
	return apiErr
}

func formatLoc(loc []any) string {
	parts := make([]string, 0, len(loc))
	for _, p := range loc {
		parts = append(parts, fmt.Sprintf("%v", p))
	}
	return strings.Join(parts, ".")
}

// FormatError normalizes any mutation failure into the single error
// string shown in a dialog.
func FormatError(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	var fieldErrs domain.FieldErrors
	if errors.As(err, &fieldErrs) {
		return fieldErrs.Error()
	}
	if err != nil {
		return err.Error()
	}
	return "Unknown error"
}
