package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Convl/tomorrows-news/internal/cache"
	"github.com/Convl/tomorrows-news/internal/domain"
	"github.com/Convl/tomorrows-news/pkg/api"
)

// ErrScrapeInFlight rejects a trigger while the cached source already
// shows a running crawl; the backend allows only one in-flight crawl
// per source.
var ErrScrapeInFlight = errors.New("a crawl is already running for this source")

// SourceManager orchestrates scraping-source mutations for one topic.
type SourceManager struct {
	mu      sync.Mutex
	api     SourceAPI
	store   *cache.Store
	history *History
	logger  *slog.Logger
	topicID int

	dialog  DialogKind
	target  *domain.ScrapingSource
	errMsg  string
	pending int
}

// NewSourceManager wires a controller for the sources of one topic.
func NewSourceManager(client SourceAPI, store *cache.Store, history *History, topicID int, logger *slog.Logger) *SourceManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &SourceManager{api: client, store: store, history: history, topicID: topicID, logger: logger}
}

// TopicID returns the topic this controller operates on.
func (m *SourceManager) TopicID() int { return m.topicID }

// OpenCreate opens the create dialog with no target.
func (m *SourceManager) OpenCreate() { m.open(DialogCreate, nil) }

// OpenEdit opens the edit dialog for src.
func (m *SourceManager) OpenEdit(src domain.ScrapingSource) { m.open(DialogEdit, &src) }

// OpenDelete opens the delete confirmation for src.
func (m *SourceManager) OpenDelete(src domain.ScrapingSource) { m.open(DialogDelete, &src) }

func (m *SourceManager) open(kind DialogKind, target *domain.ScrapingSource) {
	m.mu.Lock()
	alreadyOpen := m.dialog != DialogNone
	m.dialog = kind
	m.target = target
	m.errMsg = ""
	m.mu.Unlock()

	if m.history != nil && !alreadyOpen {
		m.history.Push(m.historyID(), m.closeFromHistory)
	}
}

// Close dismisses the dialog explicitly, removing its history entry.
func (m *SourceManager) Close() {
	if m.history != nil {
		m.history.Remove(m.historyID())
	}
	m.closeFromHistory()
}

func (m *SourceManager) closeFromHistory() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dialog = DialogNone
	m.target = nil
	m.errMsg = ""
}

func (m *SourceManager) historyID() string {
	return fmt.Sprintf("dialog/source/%d", m.topicID)
}

// Dialog returns the open dialog kind.
func (m *SourceManager) Dialog() DialogKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dialog
}

// Target returns the entity the open dialog acts on, nil for create.
func (m *SourceManager) Target() *domain.ScrapingSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.target
}

// Err returns the current error string, "" when none.
func (m *SourceManager) Err() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errMsg
}

// Pending reports whether any mutation is in flight.
func (m *SourceManager) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending > 0
}

// Save creates or updates a source. The create payload always carries
// the owning topic id. Success merges the server's version into the
// cache and closes the dialog; failure leaves the cache untouched and
// keeps the dialog open with the normalized error.
func (m *SourceManager) Save(ctx context.Context, draft domain.SourceDraft) (domain.ScrapingSource, error) {
	m.begin()
	defer m.finish()

	target := m.Target()
	action := "create"
	if target != nil {
		action = "update"
	}

	draft.TopicID = m.topicID
	if err := draft.Validate(); err != nil {
		m.fail(action, err)
		return domain.ScrapingSource{}, err
	}

	var (
		src domain.ScrapingSource
		err error
	)
	if target == nil {
		src, err = m.api.CreateSource(ctx, draft)
	} else {
		src, err = m.api.UpdateSource(ctx, target.ID, draft)
	}
	if err != nil {
		m.fail(action, err)
		return domain.ScrapingSource{}, err
	}

	cache.UpsertSource(m.store, src)
	m.store.Invalidate(cache.SourcesKey(src.TopicID))
	m.logger.Info("source saved", "source_id", src.ID, "topic_id", src.TopicID, "action", action)
	m.Close()
	return src, nil
}

// Delete removes the targeted source and its cache entries.
func (m *SourceManager) Delete(ctx context.Context) error {
	m.begin()
	defer m.finish()

	target := m.Target()
	if target == nil {
		return nil
	}

	if err := m.api.DeleteSource(ctx, target.ID); err != nil {
		m.fail("delete", err)
		return err
	}

	cache.RemoveSource(m.store, m.topicID, target.ID)
	m.logger.Info("source deleted", "source_id", target.ID, "topic_id", m.topicID)
	m.Close()
	return nil
}

// TriggerNow asks the backend to crawl a source immediately. The crawl
// start is not confirmed synchronously, so the cached source is
// flipped to currently_scraping before the call and the prior
// snapshot is restored verbatim if the call fails. On success nothing
// more happens here: the real flip back arrives via push or poll.
func (m *SourceManager) TriggerNow(ctx context.Context, sourceID int) error {
	m.begin()
	defer m.finish()

	sourcesKey := cache.SourcesKey(m.topicID)
	sourceKey := cache.SourceKey(m.topicID, sourceID)

	snapshot, _, hadList := cache.Read[[]domain.ScrapingSource](m.store, sourcesKey)
	for _, src := range snapshot {
		if src.ID == sourceID && src.CurrentlyScraping {
			return m.rejectInFlight(sourceID)
		}
	}
	snapshotByID, _, hadByID := cache.Read[domain.ScrapingSource](m.store, sourceKey)
	if hadByID && snapshotByID.CurrentlyScraping {
		return m.rejectInFlight(sourceID)
	}

	scraping := true
	cache.ApplySourcePatch(m.store, m.topicID, domain.SourcePatch{ID: sourceID, CurrentlyScraping: &scraping})

	if err := m.api.TriggerScrape(ctx, sourceID); err != nil {
		// Roll the optimistic flip back to the exact prior state
		// before surfacing anything.
		if hadList {
			cache.Patch(m.store, sourcesKey, func([]domain.ScrapingSource, bool) []domain.ScrapingSource {
				return snapshot
			})
		}
		if hadByID {
			cache.Patch(m.store, sourceKey, func(domain.ScrapingSource, bool) domain.ScrapingSource {
				return snapshotByID
			})
		}
		if !errors.Is(err, api.ErrUnauthorized) {
			m.mu.Lock()
			m.errMsg = fmt.Sprintf("Failed to trigger scrape\n%s", api.FormatError(err))
			m.mu.Unlock()
		}
		m.logger.Warn("trigger scrape failed", "source_id", sourceID, "error", err)
		return err
	}

	m.logger.Info("scrape triggered", "source_id", sourceID, "topic_id", m.topicID)
	return nil
}

// rejectInFlight surfaces a local trigger rejection; without this the
// keypress would be swallowed silently since no request ever leaves.
func (m *SourceManager) rejectInFlight(sourceID int) error {
	m.mu.Lock()
	m.errMsg = "A crawl is already running for this source"
	m.mu.Unlock()
	m.logger.Debug("trigger scrape rejected, crawl in flight", "source_id", sourceID)
	return ErrScrapeInFlight
}

func (m *SourceManager) begin() {
	m.mu.Lock()
	m.pending++
	m.errMsg = ""
	m.mu.Unlock()
}

func (m *SourceManager) finish() {
	m.mu.Lock()
	m.pending--
	m.mu.Unlock()
}

func (m *SourceManager) fail(action string, err error) {
	// Authorization failure is handled globally by the client (token
	// purge + hook); the dialog never shows it as a field error.
	if !errors.Is(err, api.ErrUnauthorized) {
		m.mu.Lock()
		m.errMsg = fmt.Sprintf("Failed to %s source\n%s", action, api.FormatError(err))
		m.mu.Unlock()
	}
	m.logger.Warn("source mutation failed", "action", action, "error", err)
}
