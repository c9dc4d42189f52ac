// Package stream maintains the push channel: one long-lived
// server-sent-event connection per authenticated session whose
// envelopes are applied as targeted cache patches, without refetching.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Convl/tomorrows-news/internal/cache"
	"github.com/Convl/tomorrows-news/internal/domain"
	"github.com/Convl/tomorrows-news/pkg/api"
)

// Opener opens the authenticated SSE connection. *api.Client
// satisfies it.
type Opener interface {
	OpenStream(ctx context.Context) (*http.Response, error)
}

// Synchronizer owns the session's push connection. It reconnects with
// exponential backoff on transport failure and stops permanently on
// an authorization failure, since the session is dead until the user
// logs in again.
type Synchronizer struct {
	opener  Opener
	store   *cache.Store
	logger  *slog.Logger
	backoff *api.RetryPolicy
}

// NewSynchronizer wires the push channel to the cache.
func NewSynchronizer(opener Opener, store *cache.Store, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{
		opener:  opener,
		store:   store,
		logger:  logger,
		backoff: api.DefaultRetryPolicy(),
	}
}

// Run connects and applies envelopes until ctx is cancelled or the
// session dies. Cancelling ctx aborts the in-flight request, so no
// orphaned connection keeps mutating a cache nobody observes.
func (s *Synchronizer) Run(ctx context.Context) error {
	attempt := 0
	for {
		resp, err := s.opener.OpenStream(ctx)
		switch {
		case errors.Is(err, api.ErrUnauthorized):
			s.logger.Warn("push channel unauthorized, giving up until re-login")
			return err
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			attempt++
			delay := s.backoff.CalculateBackoff(attempt)
			s.logger.Debug("push channel connect failed", "attempt", attempt, "backoff", delay, "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			continue
		}

		// Cancelled between Do returning and here: the connection is
		// open and must not leak.
		if ctx.Err() != nil {
			_ = resp.Body.Close()
			return ctx.Err()
		}

		attempt = 0
		s.logger.Info("push channel connected")
		err = readEvents(resp.Body, s.dispatch)
		_ = resp.Body.Close()

		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Debug("push channel dropped, reconnecting", "error", err)
	}
}

// dispatch applies one envelope to the cache. Malformed data is
// ignored so one bad message never tears down the connection.
func (s *Synchronizer) dispatch(data []byte) {
	if len(data) == 0 {
		return
	}

	env, err := decodeEnvelope(data)
	if err != nil {
		s.logger.Debug("ignoring unparseable push message", "error", err)
		return
	}

	switch env.Type {
	case typeScrapingUpdate:
		patch, err := domain.DecodeSourcePatch(env.Payload)
		if err != nil || patch.ID == 0 {
			s.logger.Debug("ignoring malformed scraping_update", "error", err)
			return
		}
		cache.ApplySourcePatch(s.store, int(env.TopicID), patch)
		s.logger.Debug("applied scraping update", "source_id", patch.ID, "topic_id", int(env.TopicID))

	case typeEventUpdate:
		var event domain.Event
		if err := json.Unmarshal(env.Payload, &event); err != nil || event.ID == 0 {
			s.logger.Debug("ignoring malformed event_update", "error", err)
			return
		}
		if event.TopicID == 0 {
			event.TopicID = int(env.TopicID)
		}
		cache.UpsertEvent(s.store, event)
		s.logger.Debug("applied event update", "event_id", event.ID, "topic_id", event.TopicID)

	default:
		s.logger.Debug("ignoring unknown push message type", "type", env.Type)
	}
}
