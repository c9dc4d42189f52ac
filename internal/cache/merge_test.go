package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Convl/tomorrows-news/internal/domain"
)

func seedSources(s *Store, sources ...domain.ScrapingSource) {
	Patch(s, SourcesKey(1), func([]domain.ScrapingSource, bool) []domain.ScrapingSource {
		return sources
	})
}

func readSources(t *testing.T, s *Store) []domain.ScrapingSource {
	t.Helper()
	sources, _, ok := Read[[]domain.ScrapingSource](s, SourcesKey(1))
	require.True(t, ok)
	return sources
}

func TestUpsertTopic(t *testing.T) {
	s := NewStore(nil)

	UpsertTopic(s, domain.Topic{ID: 1, Name: "old"})
	UpsertTopic(s, domain.Topic{ID: 2, Name: "other"})
	UpsertTopic(s, domain.Topic{ID: 1, Name: "new"})

	topics, _, ok := Read[[]domain.Topic](s, TopicsKey())
	require.True(t, ok)
	require.Len(t, topics, 2)
	assert.Equal(t, "new", topics[0].Name)

	topic, _, ok := Read[domain.Topic](s, TopicKey(1))
	require.True(t, ok)
	assert.Equal(t, "new", topic.Name)
}

func TestRemoveTopicCascades(t *testing.T) {
	s := NewStore(nil)
	UpsertTopic(s, domain.Topic{ID: 1})
	UpsertTopic(s, domain.Topic{ID: 2})
	seedSources(s, domain.ScrapingSource{ID: 10, TopicID: 1})
	UpsertEvent(s, domain.Event{ID: 100, TopicID: 1})

	RemoveTopic(s, 1)

	topics, _, _ := Read[[]domain.Topic](s, TopicsKey())
	require.Len(t, topics, 1)
	assert.Equal(t, 2, topics[0].ID)

	for _, key := range []Key{TopicKey(1), SourcesKey(1), EventsKey(1)} {
		_, _, ok := s.Read(key)
		assert.False(t, ok, "expected %s evicted", key)
	}
}

func TestApplySourcePatchMergesPresentFieldsOnly(t *testing.T) {
	s := NewStore(nil)
	failure := "timeout"
	seedSources(s,
		domain.ScrapingSource{ID: 7, TopicID: 1, Name: "keepme", CurrentlyScraping: true, LastError: &failure},
		domain.ScrapingSource{ID: 8, TopicID: 1, Name: "untouched"},
	)

	payload := []byte(`{"id":7,"currently_scraping":false,"last_scraped_at":"2024-01-01T00:00:00Z","last_error":null}`)
	patch, err := domain.DecodeSourcePatch(payload)
	require.NoError(t, err)

	ApplySourcePatch(s, 1, patch)

	sources := readSources(t, s)
	assert.False(t, sources[0].CurrentlyScraping)
	require.NotNil(t, sources[0].LastScrapedAt)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), sources[0].LastScrapedAt.UTC())
	assert.Nil(t, sources[0].LastError, "explicit null clears the error")
	assert.Equal(t, "keepme", sources[0].Name, "fields the patch does not carry stay put")
	assert.Equal(t, "untouched", sources[1].Name)
}

func TestApplySourcePatchIdempotent(t *testing.T) {
	s := NewStore(nil)
	seedSources(s, domain.ScrapingSource{ID: 7, TopicID: 1, CurrentlyScraping: true})

	patch, err := domain.DecodeSourcePatch([]byte(`{"id":7,"currently_scraping":false}`))
	require.NoError(t, err)

	ApplySourcePatch(s, 1, patch)
	once := readSources(t, s)

	ApplySourcePatch(s, 1, patch)
	twice := readSources(t, s)

	assert.Equal(t, once, twice)
}

func TestApplySourcePatchOrderingTolerance(t *testing.T) {
	// A poll snapshot taken before patch A was sent, interleaved in any
	// order with patches A and B, must converge to the same state as
	// long as each patch only writes the fields it carries.
	base := domain.ScrapingSource{ID: 7, TopicID: 1, Name: "src", CurrentlyScraping: true}

	patchA, err := domain.DecodeSourcePatch([]byte(`{"id":7,"currently_scraping":false}`))
	require.NoError(t, err)
	patchB, err := domain.DecodeSourcePatch([]byte(`{"id":7,"last_scraped_at":"2024-01-01T00:00:00Z"}`))
	require.NoError(t, err)

	apply := func(order ...func(*Store)) []domain.ScrapingSource {
		s := NewStore(nil)
		seedSources(s, base)
		for _, step := range order {
			step(s)
		}
		return readSources(t, s)
	}

	a := func(s *Store) { ApplySourcePatch(s, 1, patchA) }
	b := func(s *Store) { ApplySourcePatch(s, 1, patchB) }

	assert.Equal(t, apply(a, b), apply(b, a))
}

func TestApplySourcePatchIgnoresUncachedTopic(t *testing.T) {
	s := NewStore(nil)

	patch, err := domain.DecodeSourcePatch([]byte(`{"id":7,"currently_scraping":false}`))
	require.NoError(t, err)
	ApplySourcePatch(s, 99, patch)

	assert.Equal(t, 0, s.Len(), "patching an untracked topic must not create entries")
}

func TestUpsertEventPrependsNewMergesExisting(t *testing.T) {
	s := NewStore(nil)

	UpsertEvent(s, domain.Event{ID: 1, TopicID: 1, Title: "first"})
	UpsertEvent(s, domain.Event{ID: 2, TopicID: 1, Title: "second"})

	events, _, ok := Read[[]domain.Event](s, EventsKey(1))
	require.True(t, ok)
	require.Len(t, events, 2)
	assert.Equal(t, "second", events[0].Title, "new events prepend")

	UpsertEvent(s, domain.Event{ID: 1, TopicID: 1, Title: "first, revised"})
	events, _, _ = Read[[]domain.Event](s, EventsKey(1))
	require.Len(t, events, 2)
	assert.Equal(t, "first, revised", events[1].Title, "existing events merge in place")
}

func TestRemoveSource(t *testing.T) {
	s := NewStore(nil)
	UpsertSource(s, domain.ScrapingSource{ID: 10, TopicID: 1})
	UpsertSource(s, domain.ScrapingSource{ID: 11, TopicID: 1})

	RemoveSource(s, 1, 10)

	sources := readSources(t, s)
	require.Len(t, sources, 1)
	assert.Equal(t, 11, sources[0].ID)

	_, _, ok := s.Read(SourceKey(1, 10))
	assert.False(t, ok)
}
