package tui

// CacheUpdatedMsg is sent from outside the program (poller wakeups,
// push-channel patches) whenever the cache may have changed and the
// screen should repaint.
type CacheUpdatedMsg struct{}

// SessionDeadMsg is sent when the push channel stops permanently on an
// authorization failure; the app tells the user to log in again.
type SessionDeadMsg struct{}

// tickMsg re-derives source statuses on a wall clock. The labels decay
// with time even when no entity changes.
type tickMsg struct{}

// mutationDoneMsg reports a finished manager operation. The manager
// already holds any error text; err is only used to decide whether to
// reload.
type mutationDoneMsg struct {
	err error
}

// topicDeletedMsg reports a completed topic delete so the view can
// navigate away from the dead topic.
type topicDeletedMsg struct {
	topicID int
}

// dataLoadedMsg reports a finished background fetch for one partition.
type dataLoadedMsg struct {
	err error
}
