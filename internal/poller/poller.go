// Package poller keeps the cache warm for whichever topic the user is
// looking at. Sources are polled on an adaptive cadence that tightens
// while a crawl is running, events on a fixed one, and the delay is
// re-evaluated after every fetch instead of being baked into a ticker.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Convl/tomorrows-news/internal/cache"
	"github.com/Convl/tomorrows-news/internal/domain"
)

// Lister is the read side of the backend API. *api.Client satisfies it.
type Lister interface {
	ListTopics(ctx context.Context) ([]domain.Topic, error)
	ListSources(ctx context.Context, topicID int) ([]domain.ScrapingSource, error)
	ListEvents(ctx context.Context, topicID int) ([]domain.Event, error)
}

// Poller refreshes the focused topic's partitions in the background.
// Focus follows the UI via SetTopic; a focus change triggers an
// immediate refresh rather than waiting out the current delay.
type Poller struct {
	api      Lister
	store    *cache.Store
	logger   *slog.Logger
	onUpdate func()

	mu         sync.Mutex
	topicID    int
	lastEvents time.Time

	kick chan struct{}
}

// New creates a poller. onUpdate, if non-nil, fires after every poll
// that may have changed the cache, so the UI can redraw.
func New(api Lister, store *cache.Store, logger *slog.Logger, onUpdate func()) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		api:      api,
		store:    store,
		logger:   logger,
		onUpdate: onUpdate,
		kick:     make(chan struct{}, 1),
	}
}

// SetTopic changes which topic is kept fresh. Zero means no topic is
// focused and the poller idles. The change takes effect immediately.
func (p *Poller) SetTopic(id int) {
	p.mu.Lock()
	changed := p.topicID != id
	p.topicID = id
	if changed {
		// Force the next events poll too; the old timestamp belongs
		// to another topic.
		p.lastEvents = time.Time{}
	}
	p.mu.Unlock()

	if changed {
		select {
		case p.kick <- struct{}{}:
		default:
		}
	}
}

// Run polls until ctx is cancelled. Each cycle fetches the focused
// topic's sources (and, on its own cadence, events), then sleeps for
// however long the fresh cache contents say is appropriate.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("poller started")
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopped")
			return ctx.Err()
		case <-p.kick:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		case <-timer.C:
		}

		delay := p.poll(ctx)
		timer.Reset(delay)
	}
}

// poll runs one refresh cycle and returns the delay until the next.
func (p *Poller) poll(ctx context.Context) time.Duration {
	p.mu.Lock()
	topicID := p.topicID
	eventsDue := time.Since(p.lastEvents) >= cache.EventsPollInterval
	p.mu.Unlock()

	if topicID == 0 {
		return cache.IdlePollInterval
	}

	// Topic list refreshes lazily within its own window; this is a
	// cheap no-op while it is still fresh.
	if _, err := cache.Fetch(ctx, p.store, cache.TopicsKey(), cache.TopicsTTL, p.api.ListTopics); err != nil && ctx.Err() == nil {
		p.logger.Debug("topics poll failed", "error", err)
	}

	// Sources are always refetched: the poll cadence is the staleness
	// control here, not the cache window.
	sources, err := cache.Fetch(ctx, p.store, cache.SourcesKey(topicID), 0, func(ctx context.Context) ([]domain.ScrapingSource, error) {
		return p.api.ListSources(ctx, topicID)
	})
	if err != nil && ctx.Err() == nil {
		p.logger.Debug("sources poll failed", "topic_id", topicID, "error", err)
	}

	if eventsDue {
		if _, err := cache.Fetch(ctx, p.store, cache.EventsKey(topicID), 0, func(ctx context.Context) ([]domain.Event, error) {
			return p.api.ListEvents(ctx, topicID)
		}); err != nil && ctx.Err() == nil {
			p.logger.Debug("events poll failed", "topic_id", topicID, "error", err)
		}
		p.mu.Lock()
		p.lastEvents = time.Now()
		p.mu.Unlock()
	}

	if p.onUpdate != nil {
		p.onUpdate()
	}

	delay := cache.PollInterval(sources)
	if remaining := p.eventsRemaining(); remaining < delay {
		delay = remaining
	}
	return delay
}

// eventsRemaining reports how long until the next events poll is due.
func (p *Poller) eventsRemaining() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	remaining := cache.EventsPollInterval - time.Since(p.lastEvents)
	if remaining < time.Second {
		remaining = time.Second
	}
	return remaining
}
