package domain

import (
	"sort"
	"time"
)

// Event is an occurrence the extraction pipeline distilled for a
// topic, with provenance records pointing back at the pages it was
// extracted from.
type Event struct {
	ID              int              `json:"id"`
	TopicID         int              `json:"topic_id"`
	Title           string           `json:"title"`
	Description     string           `json:"description,omitempty"`
	EventDate       *time.Time       `json:"event_date"`
	Location        string           `json:"location,omitempty"`
	Significance    float64          `json:"significance"`
	ExtractedEvents []ExtractedEvent `json:"extracted_events,omitempty"`
}

// ExtractedEvent is one provenance record contributing to an Event.
// Multiple extraction passes against the same URL may produce several
// records for the same event.
type ExtractedEvent struct {
	ID          int        `json:"id"`
	SourceURL   string     `json:"source_url"`
	Title       string     `json:"title,omitempty"`
	Snippet     string     `json:"snippet,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// Citations returns the event's provenance records deduplicated by
// source URL, keeping the first-seen record per URL.
func (e Event) Citations() []ExtractedEvent {
	seen := make(map[string]bool, len(e.ExtractedEvents))
	var out []ExtractedEvent
	for _, ee := range e.ExtractedEvents {
		if seen[ee.SourceURL] {
			continue
		}
		seen[ee.SourceURL] = true
		out = append(out, ee)
	}
	return out
}

// SortEvents orders events for display: significance descending, then
// event date ascending, undated events last.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Significance != events[j].Significance {
			return events[i].Significance > events[j].Significance
		}
		di, dj := events[i].EventDate, events[j].EventDate
		switch {
		case di == nil && dj == nil:
			return false
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return di.Before(*dj)
		}
	})
}
