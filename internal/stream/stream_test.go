package stream

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Convl/tomorrows-news/internal/cache"
	"github.com/Convl/tomorrows-news/internal/domain"
	"github.com/Convl/tomorrows-news/pkg/api"
)

func seededStore(t *testing.T) *cache.Store {
	t.Helper()
	store := cache.NewStore(nil)
	cache.UpsertSource(store, domain.ScrapingSource{
		ID:                7,
		TopicID:           1,
		Name:              "src",
		CurrentlyScraping: true,
	})
	return store
}

func TestDispatchScrapingUpdate(t *testing.T) {
	store := seededStore(t)
	s := NewSynchronizer(nil, store, nil)

	s.dispatch([]byte(`{"type":"scraping_update","topic_id":1,"payload":{"id":7,"currently_scraping":false,"last_scraped_at":"2024-01-01T00:00:00Z"}}`))

	sources, _, ok := cache.Read[[]domain.ScrapingSource](store, cache.SourcesKey(1))
	require.True(t, ok)
	assert.False(t, sources[0].CurrentlyScraping)
	require.NotNil(t, sources[0].LastScrapedAt)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), sources[0].LastScrapedAt.UTC())
	assert.Equal(t, "src", sources[0].Name, "fields absent from the payload stay unchanged")
}

func TestDispatchIdempotent(t *testing.T) {
	store := seededStore(t)
	s := NewSynchronizer(nil, store, nil)
	envelope := []byte(`{"type":"scraping_update","topic_id":1,"payload":{"id":7,"currently_scraping":false}}`)

	s.dispatch(envelope)
	once, _, _ := cache.Read[[]domain.ScrapingSource](store, cache.SourcesKey(1))
	s.dispatch(envelope)
	twice, _, _ := cache.Read[[]domain.ScrapingSource](store, cache.SourcesKey(1))

	assert.Equal(t, once, twice)
}

func TestDispatchEventUpdate(t *testing.T) {
	store := cache.NewStore(nil)
	cache.UpsertEvent(store, domain.Event{ID: 1, TopicID: 3, Title: "existing"})
	s := NewSynchronizer(nil, store, nil)

	s.dispatch([]byte(`{"type":"event_update","topic_id":3,"payload":{"id":2,"title":"fresh"}}`))
	s.dispatch([]byte(`{"type":"event_update","topic_id":3,"payload":{"id":1,"title":"revised"}}`))

	events, _, ok := cache.Read[[]domain.Event](store, cache.EventsKey(3))
	require.True(t, ok)
	require.Len(t, events, 2)
	assert.Equal(t, "fresh", events[0].Title, "new events prepend")
	assert.Equal(t, "revised", events[1].Title, "known events merge by identity")
	assert.Equal(t, 3, events[1].TopicID, "topic id backfilled from the envelope")
}

func TestDispatchIgnoresGarbage(t *testing.T) {
	store := seededStore(t)
	s := NewSynchronizer(nil, store, nil)
	before, _, _ := cache.Read[[]domain.ScrapingSource](store, cache.SourcesKey(1))

	s.dispatch(nil)
	s.dispatch([]byte(`not json`))
	s.dispatch([]byte(`{"type":"unknown_tag","topic_id":1,"payload":{"id":7}}`))
	s.dispatch([]byte(`{"type":"scraping_update","topic_id":1,"payload":"nope"}`))
	s.dispatch([]byte(`{"type":"scraping_update","topic_id":1,"payload":{}}`))

	after, _, _ := cache.Read[[]domain.ScrapingSource](store, cache.SourcesKey(1))
	assert.Equal(t, before, after, "garbage must neither patch the cache nor panic")
}

func TestRunAppliesStreamThenStopsOnUnauthorized(t *testing.T) {
	var connections atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stream-sse" {
			http.NotFound(w, r)
			return
		}
		if connections.Add(1) > 1 {
			// The token died between connections.
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "data: {\"type\":\"scraping_update\",\"topic_id\":1,\"payload\":{\"id\":7,\"currently_scraping\":false}}\n\n")
	}))
	t.Cleanup(server.Close)

	tokens := api.NewTokenStore(filepath.Join(t.TempDir(), "credentials.yaml"))
	require.NoError(t, tokens.Save("tok"))
	client := api.NewClient(api.Config{BaseURL: server.URL}, tokens)

	store := seededStore(t)
	s := NewSynchronizer(client, store, nil)
	s.backoff.InitialBackoff = time.Millisecond

	err := s.Run(context.Background())
	assert.ErrorIs(t, err, api.ErrUnauthorized, "a 401 terminates retries for good")
	assert.Equal(t, int32(2), connections.Load())

	sources, _, ok := cache.Read[[]domain.ScrapingSource](store, cache.SourcesKey(1))
	require.True(t, ok)
	assert.False(t, sources[0].CurrentlyScraping, "the envelope from the first connection was applied")

	stored, err := tokens.Load()
	require.NoError(t, err)
	assert.Empty(t, stored, "the dead token was purged")
}

func TestRunStopsOnCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		// Hold the connection open until the client goes away.
		<-r.Context().Done()
	}))
	t.Cleanup(server.Close)

	tokens := api.NewTokenStore(filepath.Join(t.TempDir(), "credentials.yaml"))
	require.NoError(t, tokens.Save("tok"))
	client := api.NewClient(api.Config{BaseURL: server.URL}, tokens)

	s := NewSynchronizer(client, cache.NewStore(nil), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}

func TestRunRetriesTransportFailure(t *testing.T) {
	var calls atomic.Int32
	opener := openerFunc(func(ctx context.Context) (*http.Response, error) {
		if calls.Add(1) == 1 {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, api.ErrUnauthorized
	})

	s := NewSynchronizer(opener, cache.NewStore(nil), nil)
	s.backoff.InitialBackoff = time.Millisecond

	err := s.Run(context.Background())
	assert.ErrorIs(t, err, api.ErrUnauthorized)
	assert.Equal(t, int32(2), calls.Load(), "transport failure retries, authorization failure ends it")
}

type openerFunc func(ctx context.Context) (*http.Response, error)

func (f openerFunc) OpenStream(ctx context.Context) (*http.Response, error) { return f(ctx) }

type closeRecorder struct {
	closed chan struct{}
}

func (c closeRecorder) Read([]byte) (int, error) { return 0, io.EOF }
func (c closeRecorder) Close() error             { close(c.closed); return nil }

func TestRunClosesBodyWhenCancelledAtConnect(t *testing.T) {
	closed := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	opener := openerFunc(func(context.Context) (*http.Response, error) {
		// Cancel lands between the connect returning and Run observing
		// it; the open connection must still be torn down.
		cancel()
		return &http.Response{StatusCode: http.StatusOK, Body: closeRecorder{closed: closed}}, nil
	})

	s := NewSynchronizer(opener, cache.NewStore(nil), nil)
	err := s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	select {
	case <-closed:
	default:
		t.Fatal("response body leaked after cancellation")
	}
}
