package cache

import (
	"time"

	"github.com/Convl/tomorrows-news/internal/domain"
)

// Staleness windows per partition. A value younger than its window is
// served without revalidation.
const (
	TopicsTTL  = 5 * time.Minute
	TopicTTL   = 5 * time.Minute
	SourcesTTL = 30 * time.Second
	SourceTTL  = 30 * time.Second
	EventsTTL  = 30 * time.Second
)

// Poll intervals for the sources partition. While a crawl is running
// the backend flips fields within seconds, so polling tightens; once
// everything settles it backs off.
const (
	ActivePollInterval = 3 * time.Second
	IdlePollInterval   = 5 * time.Minute
	EventsPollInterval = 30 * time.Second
)

// PollInterval maps the current cache contents to the next poll
// delay: short while any source is being scraped, long otherwise.
// Re-evaluated after every fetch rather than baked into a timer.
func PollInterval(sources []domain.ScrapingSource) time.Duration {
	for _, src := range sources {
		if src.CurrentlyScraping {
			return ActivePollInterval
		}
	}
	return IdlePollInterval
}
