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

// TopicManager orchestrates topic mutations: one dialog at a time, one
// current error string, and cache maintenance on success.
type TopicManager struct {
	mu      sync.Mutex
	api     TopicAPI
	store   *cache.Store
	history *History
	logger  *slog.Logger

	dialog  DialogKind
	target  *domain.Topic
	errMsg  string
	pending int
}

// NewTopicManager wires a controller to the API, the cache and the
// navigation history.
func NewTopicManager(client TopicAPI, store *cache.Store, history *History, logger *slog.Logger) *TopicManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &TopicManager{api: client, store: store, history: history, logger: logger}
}

// OpenCreate opens the create dialog with no target.
func (m *TopicManager) OpenCreate() { m.open(DialogCreate, nil) }

// OpenEdit opens the edit dialog for topic.
func (m *TopicManager) OpenEdit(topic domain.Topic) { m.open(DialogEdit, &topic) }

// OpenDelete opens the delete confirmation for topic.
func (m *TopicManager) OpenDelete(topic domain.Topic) { m.open(DialogDelete, &topic) }

func (m *TopicManager) open(kind DialogKind, target *domain.Topic) {
	m.mu.Lock()
	alreadyOpen := m.dialog != DialogNone
	m.dialog = kind
	m.target = target
	m.errMsg = ""
	m.mu.Unlock()

	// Opening always pushes history, but never twice for one dialog.
	if m.history != nil && !alreadyOpen {
		m.history.Push(m.historyID(), m.closeFromHistory)
	}
}

// Close dismisses the dialog explicitly, removing its history entry.
func (m *TopicManager) Close() {
	if m.history != nil {
		m.history.Remove(m.historyID())
	}
	m.closeFromHistory()
}

// closeFromHistory is the single terminal transition; History calls it
// when a back gesture pops the dialog's entry.
func (m *TopicManager) closeFromHistory() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dialog = DialogNone
	m.target = nil
	m.errMsg = ""
}

func (m *TopicManager) historyID() string { return "dialog/topic" }

// Dialog returns the open dialog kind.
func (m *TopicManager) Dialog() DialogKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dialog
}

// Target returns the entity the open dialog acts on, nil for create.
func (m *TopicManager) Target() *domain.Topic {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.target
}

// Err returns the current error string, "" when none.
func (m *TopicManager) Err() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errMsg
}

// Pending reports whether any mutation is in flight.
func (m *TopicManager) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending > 0
}

// Save creates the topic when the dialog has no target, else updates
// the target. On success the result is merged into the cache and the
// dialog closes; on failure the cache is untouched, the dialog stays
// open and Err carries the normalized message.
func (m *TopicManager) Save(ctx context.Context, draft domain.TopicDraft) (domain.Topic, error) {
	m.begin()
	defer m.finish()

	target := m.Target()
	action := "create"
	if target != nil {
		action = "update"
	}

	if err := draft.Validate(); err != nil {
		m.fail(action, err)
		return domain.Topic{}, err
	}

	var (
		topic domain.Topic
		err   error
	)
	if target == nil {
		topic, err = m.api.CreateTopic(ctx, draft)
	} else {
		topic, err = m.api.UpdateTopic(ctx, target.ID, draft)
	}
	if err != nil {
		m.fail(action, err)
		return domain.Topic{}, err
	}

	cache.UpsertTopic(m.store, topic)
	m.store.Invalidate(cache.TopicsKey())
	m.logger.Info("topic saved", "topic_id", topic.ID, "action", action)
	m.Close()
	return topic, nil
}

// Delete removes the targeted topic. On success every cache entry the
// topic owned is evicted; navigating away from the deleted topic is
// the UI's responsibility.
func (m *TopicManager) Delete(ctx context.Context) error {
	m.begin()
	defer m.finish()

	target := m.Target()
	if target == nil {
		return nil
	}

	if err := m.api.DeleteTopic(ctx, target.ID); err != nil {
		m.fail("delete", err)
		return err
	}

	cache.RemoveTopic(m.store, target.ID)
	m.logger.Info("topic deleted", "topic_id", target.ID)
	m.Close()
	return nil
}

func (m *TopicManager) begin() {
	m.mu.Lock()
	m.pending++
	m.errMsg = ""
	m.mu.Unlock()
}

func (m *TopicManager) finish() {
	m.mu.Lock()
	m.pending--
	m.mu.Unlock()
}

func (m *TopicManager) fail(action string, err error) {
	// Authorization failure is handled globally by the client (token
	// purge + hook); the dialog never shows it as a field error.
	if !errors.Is(err, api.ErrUnauthorized) {
		m.mu.Lock()
		m.errMsg = fmt.Sprintf("Failed to %s topic\n%s", action, api.FormatError(err))
		m.mu.Unlock()
	}
	m.logger.Warn("topic mutation failed", "action", action, "error", err)
}
