package content

import (
	"context"
	"sync"
	"time"

	"studio/api/internal/block"
)

// Autosaver debounces document saves for one editing session: a change
// notification restarts the timer, so only the last change within the window
// is persisted. Stop cancels any pending timer so nothing writes after the
// session is torn down.
type Autosaver struct {
	store     *Store
	contentID string
	delay     time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending *block.Document
	stopped bool
}

func NewAutosaver(store *Store, contentID string, delay time.Duration) *Autosaver {
	return &Autosaver{store: store, contentID: contentID, delay: delay}
}

// Notify records the latest document and restarts the debounce window.
func (a *Autosaver) Notify(doc block.Document) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	clone := doc.Clone()
	a.pending = &clone
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.delay, a.fire)
}

func (a *Autosaver) fire() {
	a.mu.Lock()
	if a.stopped || a.pending == nil {
		a.mu.Unlock()
		return
	}
	doc := *a.pending
	a.pending = nil
	a.mu.Unlock()

	_ = a.store.UpdateDocument(context.Background(), a.contentID, doc)
}

// Flush persists any pending document immediately.
func (a *Autosaver) Flush(ctx context.Context) {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	doc := a.pending
	a.pending = nil
	a.mu.Unlock()

	if doc != nil {
		_ = a.store.UpdateDocument(ctx, a.contentID, *doc)
	}
}

// Stop cancels the pending timer without saving. The autosaver accepts no
// further notifications.
func (a *Autosaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.pending = nil
}
