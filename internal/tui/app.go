// Package tui is the terminal dashboard: a topic sidebar, the selected
// topic's sources with live scheduling status, and its extracted
// events. All data comes from the shared cache; the poller and the
// push channel repaint it from the outside via Program.Send.
package tui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Convl/tomorrows-news/internal/cache"
	"github.com/Convl/tomorrows-news/internal/domain"
	"github.com/Convl/tomorrows-news/internal/manager"
	"github.com/Convl/tomorrows-news/internal/poller"
	"github.com/Convl/tomorrows-news/internal/status"
	"github.com/Convl/tomorrows-news/pkg/api"
)

type pane int

const (
	paneTopics pane = iota
	paneSources
	paneEvents
)

const requestTimeout = 15 * time.Second

// Opts holds all collaborators for launching the dashboard.
type Opts struct {
	Client  *api.Client
	Store   *cache.Store
	History *manager.History
	Topics  *manager.TopicManager
	Poller  *poller.Poller
	Logger  *slog.Logger
}

// App is the Bubble Tea model for the dashboard.
type App struct {
	client     *api.Client
	store      *cache.Store
	history    *manager.History
	topicMgr   *manager.TopicManager
	sourceMgrs map[int]*manager.SourceManager
	poller     *poller.Poller
	logger     *slog.Logger

	width  int
	height int
	focus  pane

	topicCursor  int
	sourceCursor int
	eventCursor  int

	// selectedTopic is the focused topic id, zero when none.
	selectedTopic int

	now         time.Time
	sessionDead bool

	topicForm  *topicForm
	sourceForm *sourceForm
}

// NewApp creates the dashboard model.
func NewApp(opts Opts) *App {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		client:     opts.Client,
		store:      opts.Store,
		history:    opts.History,
		topicMgr:   opts.Topics,
		sourceMgrs: make(map[int]*manager.SourceManager),
		poller:     opts.Poller,
		logger:     logger,
		now:        time.Now(),
	}
}

// AttachPoller wires the background poller in after the program is
// built; the poller's wakeup callback needs the program, which needs
// the model first.
func (a *App) AttachPoller(p *poller.Poller) { a.poller = p }

// sourceMgr returns the mutation controller for one topic's sources,
// creating it on first use.
func (a *App) sourceMgr(topicID int) *manager.SourceManager {
	if m, ok := a.sourceMgrs[topicID]; ok {
		return m
	}
	m := manager.NewSourceManager(a.client, a.store, a.history, topicID, a.logger)
	a.sourceMgrs[topicID] = m
	return m
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.loadTopicsCmd(), tickCmd())
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tickMsg:
		a.now = time.Now()
		return a, tickCmd()

	case CacheUpdatedMsg:
		a.clampCursors()
		return a, nil

	case SessionDeadMsg:
		a.sessionDead = true
		return a, nil

	case mutationDoneMsg:
		a.noteError(msg.err)
		if a.topicMgr.Dialog() == manager.DialogNone {
			a.topicForm = nil
		}
		if a.selectedTopic != 0 && a.sourceMgr(a.selectedTopic).Dialog() == manager.DialogNone {
			a.sourceForm = nil
		}
		a.clampCursors()
		return a, nil

	case topicDeletedMsg:
		a.topicForm = nil
		delete(a.sourceMgrs, msg.topicID)
		if a.selectedTopic == msg.topicID {
			a.selectedTopic = 0
			a.focus = paneTopics
			if a.poller != nil {
				a.poller.SetTopic(0)
			}
		}
		a.clampCursors()
		return a, nil

	case dataLoadedMsg:
		a.noteError(msg.err)
		a.clampCursors()
		return a, nil

	case tea.KeyMsg:
		if a.dialogOpen() {
			return a.updateDialog(msg)
		}
		return a.updateBrowse(msg)
	}

	return a, a.passToForm(msg)
}

// noteError flips the session banner when a background operation died
// on authorization. Everything else already surfaces through the
// managers' error strings.
func (a *App) noteError(err error) {
	if errors.Is(err, api.ErrUnauthorized) || errors.Is(err, api.ErrNoToken) {
		a.sessionDead = true
	}
}

// passToForm forwards non-key messages (cursor blinks) to whichever
// form is open.
func (a *App) passToForm(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if a.topicForm != nil {
		*a.topicForm, cmd = a.topicForm.Update(msg)
	} else if a.sourceForm != nil {
		*a.sourceForm, cmd = a.sourceForm.Update(msg)
	}
	return cmd
}

func (a *App) dialogOpen() bool {
	if a.topicMgr.Dialog() != manager.DialogNone {
		return true
	}
	return a.selectedTopic != 0 && a.sourceMgr(a.selectedTopic).Dialog() != manager.DialogNone
}

// updateDialog routes keys into the open dialog. Escape is the back
// gesture and closes through the navigation history, which is the same
// path an explicit cancel takes.
func (a *App) updateDialog(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit
	case "esc":
		a.history.Back()
		a.topicForm = nil
		a.sourceForm = nil
		return a, nil
	case "enter":
		return a, a.submitDialog()
	}

	return a, a.passToForm(tea.Msg(msg))
}

// submitDialog runs the open dialog's operation in the background.
func (a *App) submitDialog() tea.Cmd {
	if kind := a.topicMgr.Dialog(); kind != manager.DialogNone {
		if kind == manager.DialogDelete {
			return a.deleteTopicCmd()
		}
		if a.topicForm != nil {
			return a.saveTopicCmd(a.topicForm.Draft())
		}
		return nil
	}

	mgr := a.sourceMgr(a.selectedTopic)
	if kind := mgr.Dialog(); kind != manager.DialogNone {
		if kind == manager.DialogDelete {
			return a.deleteSourceCmd(mgr)
		}
		if a.sourceForm != nil {
			return a.saveSourceCmd(mgr, a.sourceForm.Draft())
		}
	}
	return nil
}

// updateBrowse handles keys while no dialog is open.
func (a *App) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit

	case "esc":
		// Back first unwinds any history; with nothing stacked it
		// returns to the topic list.
		if !a.history.Back() && a.focus != paneTopics {
			a.focus = paneTopics
		}
		return a, nil

	case "tab":
		a.focus = (a.focus + 1) % 3
		return a, nil

	case "up", "k":
		a.moveCursor(-1)
		return a, nil

	case "down", "j":
		a.moveCursor(1)
		return a, nil

	case "enter":
		if a.focus == paneTopics {
			return a, a.selectTopic()
		}
		return a, nil

	case "n":
		return a.openCreate()

	case "e":
		return a.openEdit()

	case "d":
		return a.openDelete()

	case "s":
		if a.focus == paneSources {
			if src, ok := a.sourceUnderCursor(); ok {
				return a, a.triggerScrapeCmd(a.sourceMgr(a.selectedTopic), src.ID)
			}
		}
		return a, nil

	case "r":
		return a, a.refreshCmd()
	}

	return a, nil
}

func (a *App) openCreate() (tea.Model, tea.Cmd) {
	switch a.focus {
	case paneTopics:
		a.topicMgr.OpenCreate()
		form := newTopicForm(nil)
		a.topicForm = &form
	case paneSources:
		if a.selectedTopic != 0 {
			a.sourceMgr(a.selectedTopic).OpenCreate()
			form := newSourceForm(nil)
			a.sourceForm = &form
		}
	}
	return a, nil
}

func (a *App) openEdit() (tea.Model, tea.Cmd) {
	switch a.focus {
	case paneTopics:
		if topic, ok := a.topicUnderCursor(); ok {
			a.topicMgr.OpenEdit(topic)
			form := newTopicForm(&topic)
			a.topicForm = &form
		}
	case paneSources:
		if src, ok := a.sourceUnderCursor(); ok {
			a.sourceMgr(a.selectedTopic).OpenEdit(src)
			form := newSourceForm(&src)
			a.sourceForm = &form
		}
	}
	return a, nil
}

func (a *App) openDelete() (tea.Model, tea.Cmd) {
	switch a.focus {
	case paneTopics:
		if topic, ok := a.topicUnderCursor(); ok {
			a.topicMgr.OpenDelete(topic)
		}
	case paneSources:
		if src, ok := a.sourceUnderCursor(); ok {
			a.sourceMgr(a.selectedTopic).OpenDelete(src)
		}
	}
	return a, nil
}

// selectTopic focuses the topic under the cursor: the poller follows
// it and both topic-scoped partitions load.
func (a *App) selectTopic() tea.Cmd {
	topic, ok := a.topicUnderCursor()
	if !ok {
		return nil
	}
	a.selectedTopic = topic.ID
	a.sourceCursor = 0
	a.eventCursor = 0
	a.focus = paneSources
	if a.poller != nil {
		a.poller.SetTopic(topic.ID)
	}
	return tea.Batch(a.loadSourcesCmd(topic.ID), a.loadEventsCmd(topic.ID))
}

func (a *App) moveCursor(delta int) {
	switch a.focus {
	case paneTopics:
		a.topicCursor = clampIndex(a.topicCursor+delta, len(a.topics()))
	case paneSources:
		a.sourceCursor = clampIndex(a.sourceCursor+delta, len(a.sources()))
	case paneEvents:
		a.eventCursor = clampIndex(a.eventCursor+delta, len(a.events()))
	}
}

func (a *App) clampCursors() {
	a.topicCursor = clampIndex(a.topicCursor, len(a.topics()))
	a.sourceCursor = clampIndex(a.sourceCursor, len(a.sources()))
	a.eventCursor = clampIndex(a.eventCursor, len(a.events()))
}

// topics reads the cached topic list.
func (a *App) topics() []domain.Topic {
	topics, _, _ := cache.Read[[]domain.Topic](a.store, cache.TopicsKey())
	return topics
}

// sources reads the selected topic's cached sources.
func (a *App) sources() []domain.ScrapingSource {
	if a.selectedTopic == 0 {
		return nil
	}
	sources, _, _ := cache.Read[[]domain.ScrapingSource](a.store, cache.SourcesKey(a.selectedTopic))
	return sources
}

// events reads the selected topic's cached events in display order.
func (a *App) events() []domain.Event {
	if a.selectedTopic == 0 {
		return nil
	}
	events, _, _ := cache.Read[[]domain.Event](a.store, cache.EventsKey(a.selectedTopic))
	sorted := append([]domain.Event(nil), events...)
	domain.SortEvents(sorted)
	return sorted
}

func (a *App) topicUnderCursor() (domain.Topic, bool) {
	topics := a.topics()
	if a.topicCursor >= len(topics) {
		return domain.Topic{}, false
	}
	return topics[a.topicCursor], true
}

func (a *App) sourceUnderCursor() (domain.ScrapingSource, bool) {
	sources := a.sources()
	if a.selectedTopic == 0 || a.sourceCursor >= len(sources) {
		return domain.ScrapingSource{}, false
	}
	return sources[a.sourceCursor], true
}

// statusFor derives the displayed scheduling state of one source.
func (a *App) statusFor(src domain.ScrapingSource) status.Info {
	return status.Derive(src, a.now)
}

func tickCmd() tea.Cmd {
	return tea.Tick(status.RederiveInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

func (a *App) loadTopicsCmd() tea.Cmd {
	store, client := a.store, a.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_, err := cache.Fetch(ctx, store, cache.TopicsKey(), cache.TopicsTTL, client.ListTopics)
		return dataLoadedMsg{err: err}
	}
}

func (a *App) loadSourcesCmd(topicID int) tea.Cmd {
	store, client := a.store, a.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_, err := cache.Fetch(ctx, store, cache.SourcesKey(topicID), cache.SourcesTTL, func(ctx context.Context) ([]domain.ScrapingSource, error) {
			return client.ListSources(ctx, topicID)
		})
		return dataLoadedMsg{err: err}
	}
}

func (a *App) loadEventsCmd(topicID int) tea.Cmd {
	store, client := a.store, a.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_, err := cache.Fetch(ctx, store, cache.EventsKey(topicID), cache.EventsTTL, func(ctx context.Context) ([]domain.Event, error) {
			return client.ListEvents(ctx, topicID)
		})
		return dataLoadedMsg{err: err}
	}
}

// refreshCmd invalidates the visible partitions and refetches them.
func (a *App) refreshCmd() tea.Cmd {
	a.store.Invalidate(cache.TopicsKey())
	cmds := []tea.Cmd{a.loadTopicsCmd()}
	if a.selectedTopic != 0 {
		a.store.Invalidate(cache.SourcesKey(a.selectedTopic))
		a.store.Invalidate(cache.EventsKey(a.selectedTopic))
		cmds = append(cmds, a.loadSourcesCmd(a.selectedTopic), a.loadEventsCmd(a.selectedTopic))
	}
	return tea.Batch(cmds...)
}

func (a *App) saveTopicCmd(draft domain.TopicDraft) tea.Cmd {
	mgr := a.topicMgr
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_, err := mgr.Save(ctx, draft)
		return mutationDoneMsg{err: err}
	}
}

func (a *App) deleteTopicCmd() tea.Cmd {
	mgr := a.topicMgr
	deleted := mgr.Target()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := mgr.Delete(ctx)
		if err == nil && deleted != nil {
			return topicDeletedMsg{topicID: deleted.ID}
		}
		return mutationDoneMsg{err: err}
	}
}

func (a *App) saveSourceCmd(mgr *manager.SourceManager, draft domain.SourceDraft) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_, err := mgr.Save(ctx, draft)
		return mutationDoneMsg{err: err}
	}
}

func (a *App) deleteSourceCmd(mgr *manager.SourceManager) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return mutationDoneMsg{err: mgr.Delete(ctx)}
	}
}

func (a *App) triggerScrapeCmd(mgr *manager.SourceManager, sourceID int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return mutationDoneMsg{err: mgr.TriggerNow(ctx, sourceID)}
	}
}

func clampIndex(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}
