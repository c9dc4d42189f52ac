// Package snapshot persists cache partitions to a local sqlite file so
// a restart paints the last known state immediately instead of an
// empty screen. Restored entries are marked stale, so everything still
// revalidates against the backend on first use.
package snapshot

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Convl/tomorrows-news/internal/cache"
	"github.com/Convl/tomorrows-news/internal/domain"
)

// Store is the on-disk snapshot of the in-memory cache.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates or opens the snapshot database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating snapshot dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot db: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, logger: logger}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			kind      TEXT NOT NULL,
			parent_id INTEGER NOT NULL DEFAULT 0,
			payload   TEXT NOT NULL,
			saved_at  DATETIME NOT NULL,
			PRIMARY KEY (kind, parent_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("initializing snapshot schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Capture writes the cache's list partitions to disk: the topic list
// plus the sources and events of every cached topic. Partitions of
// topics that no longer exist are dropped.
func (s *Store) Capture(store *cache.Store) error {
	topics, _, ok := cache.Read[[]domain.Topic](store, cache.TopicsKey())
	if !ok {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM snapshots`); err != nil {
		return fmt.Errorf("clearing snapshots: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO snapshots (kind, parent_id, payload, saved_at)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	save := func(kind cache.Kind, parentID int, value any) error {
		payload, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encoding %s snapshot: %w", kind, err)
		}
		_, err = stmt.Exec(string(kind), parentID, string(payload), now)
		return err
	}

	if err := save(cache.KindTopics, 0, topics); err != nil {
		return err
	}
	for _, topic := range topics {
		if sources, _, ok := cache.Read[[]domain.ScrapingSource](store, cache.SourcesKey(topic.ID)); ok {
			if err := save(cache.KindSources, topic.ID, sources); err != nil {
				return err
			}
		}
		if events, _, ok := cache.Read[[]domain.Event](store, cache.EventsKey(topic.ID)); ok {
			if err := save(cache.KindEvents, topic.ID, events); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// Restore seeds the cache from disk. Every restored partition is
// invalidated immediately: it renders, but the next fetch goes to the
// backend regardless of how recently it was saved.
func (s *Store) Restore(store *cache.Store) error {
	rows, err := s.db.Query(`SELECT kind, parent_id, payload FROM snapshots`)
	if err != nil {
		return fmt.Errorf("reading snapshots: %w", err)
	}
	defer rows.Close()

	restored := 0
	for rows.Next() {
		var (
			kind     string
			parentID int
			payload  string
		)
		if err := rows.Scan(&kind, &parentID, &payload); err != nil {
			return fmt.Errorf("scanning snapshot: %w", err)
		}

		key, ok := s.seed(store, cache.Kind(kind), parentID, []byte(payload))
		if !ok {
			s.logger.Debug("skipping unusable snapshot row", "kind", kind, "parent_id", parentID)
			continue
		}
		store.Invalidate(key)
		restored++
	}
	if restored > 0 {
		s.logger.Info("restored cache snapshot", "partitions", restored)
	}
	return rows.Err()
}

// seed decodes one row into its typed partition.
func (s *Store) seed(store *cache.Store, kind cache.Kind, parentID int, payload []byte) (cache.Key, bool) {
	switch kind {
	case cache.KindTopics:
		var topics []domain.Topic
		if json.Unmarshal(payload, &topics) != nil {
			return cache.Key{}, false
		}
		key := cache.TopicsKey()
		cache.Patch(store, key, func([]domain.Topic, bool) []domain.Topic { return topics })
		return key, true
	case cache.KindSources:
		var sources []domain.ScrapingSource
		if json.Unmarshal(payload, &sources) != nil || parentID == 0 {
			return cache.Key{}, false
		}
		key := cache.SourcesKey(parentID)
		cache.Patch(store, key, func([]domain.ScrapingSource, bool) []domain.ScrapingSource { return sources })
		return key, true
	case cache.KindEvents:
		var events []domain.Event
		if json.Unmarshal(payload, &events) != nil || parentID == 0 {
			return cache.Key{}, false
		}
		key := cache.EventsKey(parentID)
		cache.Patch(store, key, func([]domain.Event, bool) []domain.Event { return events })
		return key, true
	default:
		return cache.Key{}, false
	}
}
