// Package manager holds the per-entity mutation controllers: they own
// dialog state, run create/update/delete/trigger operations against
// the API, apply the results to the cache and surface a single error
// string for the open dialog.
package manager

import "sync"

// DialogKind is the modal a controller currently has open. The kinds
// are mutually exclusive; DialogNone is the single terminal state.
type DialogKind int

// Dialog states.
const (
	DialogNone DialogKind = iota
	DialogCreate
	DialogEdit
	DialogDelete
)

func (k DialogKind) String() string {
	switch k {
	case DialogCreate:
		return "create"
	case DialogEdit:
		return "edit"
	case DialogDelete:
		return "delete"
	default:
		return "closed"
	}
}

// History is the navigation stack dialogs bind their lifetime to.
// Opening a dialog pushes a synthetic entry; the entry leaving the
// stack is the authoritative close signal. A back gesture (Back) and
// an explicit close button are two transitions into the same closed
// state, so a dialog dismissed via back never lingers and a dialog
// closed explicitly never double-pops.
type History struct {
	mu    sync.Mutex
	stack []historyEntry
}

type historyEntry struct {
	id      string
	onClose func()
}

// Push records a synthetic entry whose removal closes the owning
// dialog.
func (h *History) Push(id string, onClose func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stack = append(h.stack, historyEntry{id: id, onClose: onClose})
}

// Back pops the newest entry and runs its close callback, making the
// back gesture a universal cancel. It reports false when there is
// nothing to pop, meaning back should leave the current view instead.
func (h *History) Back() bool {
	h.mu.Lock()
	if len(h.stack) == 0 {
		h.mu.Unlock()
		return false
	}
	top := h.stack[len(h.stack)-1]
	h.stack = h.stack[:len(h.stack)-1]
	h.mu.Unlock()

	if top.onClose != nil {
		top.onClose()
	}
	return true
}

// Remove drops an entry without running its callback; the owner is
// already closing and must not be closed twice.
func (h *History) Remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := len(h.stack) - 1; i >= 0; i-- {
		if h.stack[i].id == id {
			h.stack = append(h.stack[:i], h.stack[i+1:]...)
			return
		}
	}
}

// Depth reports the number of live entries.
func (h *History) Depth() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.stack)
}
