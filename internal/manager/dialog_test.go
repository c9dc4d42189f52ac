package manager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Convl/tomorrows-news/internal/cache"
	"github.com/Convl/tomorrows-news/internal/domain"
)

func TestOpenPushesHistoryOnce(t *testing.T) {
	history := &History{}
	m := NewTopicManager(&fakeTopicAPI{}, cache.NewStore(nil), history, nil)

	m.OpenCreate()
	assert.Equal(t, DialogCreate, m.Dialog())
	assert.Equal(t, 1, history.Depth())

	// Switching variants while open must not stack a second entry.
	m.OpenEdit(domain.Topic{ID: 1})
	assert.Equal(t, DialogEdit, m.Dialog())
	assert.Equal(t, 1, history.Depth())
}

func TestBackIsAuthoritativeClose(t *testing.T) {
	history := &History{}
	m := NewTopicManager(&fakeTopicAPI{}, cache.NewStore(nil), history, nil)

	m.OpenDelete(domain.Topic{ID: 3})
	require.Equal(t, DialogDelete, m.Dialog())

	assert.True(t, history.Back())
	assert.Equal(t, DialogNone, m.Dialog())
	assert.Nil(t, m.Target())
	assert.Equal(t, 0, history.Depth())

	// Nothing left to pop: back now means leave the view.
	assert.False(t, history.Back())
}

func TestExplicitCloseRemovesEntryWithoutReclosing(t *testing.T) {
	history := &History{}
	m := NewTopicManager(&fakeTopicAPI{}, cache.NewStore(nil), history, nil)

	m.OpenCreate()
	m.Close()

	assert.Equal(t, DialogNone, m.Dialog())
	assert.Equal(t, 0, history.Depth())
	assert.False(t, history.Back(), "the closed dialog's entry must be gone")
}

func TestHistoryInterleavedDialogs(t *testing.T) {
	history := &History{}
	store := cache.NewStore(nil)
	topics := NewTopicManager(&fakeTopicAPI{}, store, history, nil)
	sources := NewSourceManager(&fakeSourceAPI{}, store, history, 1, nil)

	topics.OpenCreate()
	sources.OpenCreate()
	require.Equal(t, 2, history.Depth())

	// Back closes the most recently opened dialog first.
	require.True(t, history.Back())
	assert.Equal(t, DialogNone, sources.Dialog())
	assert.Equal(t, DialogCreate, topics.Dialog())

	require.True(t, history.Back())
	assert.Equal(t, DialogNone, topics.Dialog())
}
