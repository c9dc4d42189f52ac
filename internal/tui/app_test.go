package tui

import (
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Convl/tomorrows-news/internal/cache"
	"github.com/Convl/tomorrows-news/internal/domain"
	"github.com/Convl/tomorrows-news/internal/manager"
	"github.com/Convl/tomorrows-news/internal/status"
	"github.com/Convl/tomorrows-news/pkg/api"
)

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func newTestApp() *App {
	store := cache.NewStore(nil)
	history := &manager.History{}
	app := NewApp(Opts{
		Store:   store,
		History: history,
		Topics:  manager.NewTopicManager(nil, store, history, nil),
	})
	cache.UpsertTopic(store, domain.Topic{ID: 1, Name: "ai", IsActive: true})
	cache.UpsertTopic(store, domain.Topic{ID: 2, Name: "space", IsActive: true})
	return app
}

func TestCursorStaysInBounds(t *testing.T) {
	app := newTestApp()

	app.moveCursor(-1)
	assert.Equal(t, 0, app.topicCursor)
	app.moveCursor(1)
	assert.Equal(t, 1, app.topicCursor)
	app.moveCursor(1)
	assert.Equal(t, 1, app.topicCursor, "cursor pins at the last item")
}

func TestOpenCreatePushesHistory(t *testing.T) {
	app := newTestApp()

	app.Update(keyRune('n'))

	assert.Equal(t, manager.DialogCreate, app.topicMgr.Dialog())
	assert.NotNil(t, app.topicForm)
	assert.Equal(t, 1, app.history.Depth())
}

func TestEscapeClosesDialogThroughHistory(t *testing.T) {
	app := newTestApp()
	app.Update(keyRune('n'))

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, manager.DialogNone, app.topicMgr.Dialog())
	assert.Nil(t, app.topicForm)
	assert.Zero(t, app.history.Depth(), "back popped the dialog's entry")
}

func TestEditPrefillsForm(t *testing.T) {
	app := newTestApp()
	app.topicCursor = 1

	app.Update(keyRune('e'))

	require.NotNil(t, app.topicForm)
	assert.Equal(t, "space", app.topicForm.Draft().Name)
	assert.Equal(t, manager.DialogEdit, app.topicMgr.Dialog())
}

func TestSelectTopicFocusesSources(t *testing.T) {
	app := newTestApp()

	cmd := app.selectTopic()

	assert.NotNil(t, cmd)
	assert.Equal(t, 1, app.selectedTopic)
	assert.Equal(t, paneSources, app.focus)
}

func TestTopicDeletedDeselects(t *testing.T) {
	app := newTestApp()
	app.selectedTopic = 2
	app.focus = paneEvents

	app.Update(topicDeletedMsg{topicID: 2})

	assert.Zero(t, app.selectedTopic)
	assert.Equal(t, paneTopics, app.focus)
}

func TestEventsRenderInDisplayOrder(t *testing.T) {
	app := newTestApp()
	app.selectedTopic = 1
	cache.UpsertEvent(app.store, domain.Event{ID: 1, TopicID: 1, Title: "minor", Significance: 0.2})
	cache.UpsertEvent(app.store, domain.Event{ID: 2, TopicID: 1, Title: "major", Significance: 0.9})

	events := app.events()
	require.Len(t, events, 2)
	assert.Equal(t, "major", events[0].Title)
}

func TestBackgroundAuthFailureFlipsSessionBanner(t *testing.T) {
	app := newTestApp()

	app.Update(dataLoadedMsg{err: fmt.Errorf("list topics: %w", api.ErrUnauthorized)})
	assert.True(t, app.sessionDead, "a 401 from a background fetch flips the session banner")

	app = newTestApp()
	app.Update(mutationDoneMsg{err: api.ErrNoToken})
	assert.True(t, app.sessionDead, "starting without a stored token reads as a dead session")
}

func TestSeverityDotFallsBackToNeutral(t *testing.T) {
	assert.Equal(t, severityDot(status.SeverityNeutral), severityDot(status.Severity("bogus")))
}

func TestClampWrap(t *testing.T) {
	assert.Equal(t, 2, clampWrap(-1, 3))
	assert.Equal(t, 0, clampWrap(3, 3))
	assert.Equal(t, 0, clampWrap(0, 0))
}
