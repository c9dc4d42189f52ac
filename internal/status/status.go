// Package status derives a scraping source's human-facing scheduling
// state from its raw timestamps. Everything here is a pure function of
// (source, now); callers re-derive on a wall-clock tick because the
// labels decay with elapsed time even when the source is unchanged.
package status

import (
	"fmt"
	"strings"
	"time"

	"github.com/Convl/tomorrows-news/internal/domain"
)

// State is a source's discrete scheduling state.
type State string

// Scheduling states, mutually exclusive.
const (
	StateNeverScraped State = "never_scraped"
	StateScheduled    State = "scheduled"
	StateOverdue      State = "overdue"
	StateScraping     State = "scraping"
	StateFailed       State = "failed"
)

// Severity maps a state onto a display tone.
type Severity string

// Display severities.
const (
	SeverityNeutral Severity = "neutral"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Info is the derived status of a source at a point in time.
type Info struct {
	State    State
	Label    string
	Severity Severity
}

// sentinelYear: backends encode "never scraped" as a date in the far
// past; anything at or before this year is treated as null.
const sentinelYear = 1900

// RederiveInterval is how often callers should re-derive statuses even
// when no entity changed.
const RederiveInterval = time.Minute

// lastScraped normalizes the sentinel encoding to a nil pointer.
func lastScraped(src domain.ScrapingSource) *time.Time {
	if src.LastScrapedAt == nil || src.LastScrapedAt.Year() <= sentinelYear {
		return nil
	}
	return src.LastScrapedAt
}

// Derive computes the scheduling state of src as observed at now.
func Derive(src domain.ScrapingSource, now time.Time) Info {
	last := lastScraped(src)

	ago := "never"
	if last != nil {
		ago = FormatInterval(now.Sub(*last)) + " ago"
	}

	if src.CurrentlyScraping {
		return Info{
			State:    StateScraping,
			Label:    fmt.Sprintf("Currently scraping • Last scraped: %s", ago),
			Severity: SeverityWarning,
		}
	}

	if last == nil {
		return Info{State: StateNeverScraped, Label: "Never scraped", Severity: SeverityNeutral}
	}

	nextDue := last.Add(time.Duration(src.ScrapingFrequency) * time.Minute)
	untilDue := nextDue.Sub(now)

	var due string
	if untilDue > 0 {
		due = "Due in " + FormatInterval(untilDue)
	} else {
		due = "Overdue by " + FormatInterval(-untilDue)
	}

	if src.LastError != nil && *src.LastError != "" {
		return Info{
			State:    StateFailed,
			Label:    fmt.Sprintf("Failed: %s • Last success: %s • %s", *src.LastError, ago, due),
			Severity: SeverityError,
		}
	}

	if untilDue > 0 {
		return Info{
			State:    StateScheduled,
			Label:    fmt.Sprintf("Last scraped: %s • %s", ago, due),
			Severity: SeveritySuccess,
		}
	}

	return Info{
		State:    StateOverdue,
		Label:    fmt.Sprintf("Last scraped: %s • %s", ago, due),
		Severity: SeverityError,
	}
}

// FormatInterval renders d using its two largest whole units among
// days, hours, minutes and seconds, e.g. "2d 3h" or "9h 20m". A
// duration under one second renders as "now".
func FormatInterval(d time.Duration) string {
	units := []struct {
		suffix string
		size   time.Duration
	}{
		{"d", 24 * time.Hour},
		{"h", time.Hour},
		{"m", time.Minute},
		{"s", time.Second},
	}

	var parts []string
	for _, u := range units {
		if d >= u.size && len(parts) < 2 {
			n := d / u.size
			parts = append(parts, fmt.Sprintf("%d%s", n, u.suffix))
			d -= n * u.size
		}
	}
	if len(parts) == 0 {
		return "now"
	}
	return strings.Join(parts, " ")
}
