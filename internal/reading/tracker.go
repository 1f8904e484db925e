// Package reading persists the reading position of open books.
//
// Positions are monotonic-forward: a write only happens when the new
// position is strictly greater than the last recorded one, so a
// late-arriving smaller scroll offset can never erase further-along
// progress. Writes are debounced; rapid successive updates coalesce into a
// single persisted write after a quiescence window.
package reading

import (
	"log"
	"sync"
	"time"
)

// DefaultDebounceWindow is the quiescence window before a position write
// is persisted.
const DefaultDebounceWindow = 300 * time.Millisecond

// PositionStore persists the last read position for a book.
type PositionStore interface {
	UpdatePosition(id string, position int64) error
}

// Tracker debounces and persists reading positions per book id.
type Tracker struct {
	store  PositionStore
	window time.Duration

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	highWater int64 // highest position seen, persisted or pending
	persisted int64
	pending   bool
	timer     *time.Timer
}

// NewTracker creates a tracker writing through to store after window of
// quiescence. A non-positive window falls back to DefaultDebounceWindow.
func NewTracker(store PositionStore, window time.Duration) *Tracker {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Tracker{
		store:   store,
		window:  window,
		entries: make(map[string]*entry),
	}
}

// Seed initializes tracking for a book from its persisted position and
// returns that position.
func (t *Tracker) Seed(id string, persisted int64) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[id]
	if !ok {
		e = &entry{}
		t.entries[id] = e
	}
	if persisted > e.highWater {
		e.highWater = persisted
	}
	if persisted > e.persisted {
		e.persisted = persisted
	}
	return e.highWater
}

// Record accepts a new position for a book. Positions that do not advance
// past the highest recorded one are dropped. Accepted positions are
// persisted after the debounce window elapses without a newer one.
func (t *Tracker) Record(id string, position int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[id]
	if !ok {
		e = &entry{}
		t.entries[id] = e
	}
	if position <= e.highWater {
		return
	}
	e.highWater = position
	e.pending = true

	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(t.window, func() {
		t.flushOne(id)
	})
}

// Position returns the highest recorded position for a book, persisted or
// pending.
func (t *Tracker) Position(id string) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[id]; ok {
		return e.highWater
	}
	return 0
}

// Flush persists all pending positions immediately. Called on shutdown and
// when a reading session closes.
func (t *Tracker) Flush() {
	t.mu.Lock()
	ids := make([]string, 0, len(t.entries))
	for id, e := range t.entries {
		if e.pending {
			ids = append(ids, id)
		}
		if e.timer != nil {
			e.timer.Stop()
			e.timer = nil
		}
	}
	t.mu.Unlock()

	for _, id := range ids {
		t.flushOne(id)
	}
}

// Forget drops tracking state for a book, e.g. after catalog deletion.
func (t *Tracker) Forget(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[id]; ok && e.timer != nil {
		e.timer.Stop()
	}
	delete(t.entries, id)
}

func (t *Tracker) flushOne(id string) {
	t.mu.Lock()
	e, ok := t.entries[id]
	if !ok || !e.pending || e.highWater <= e.persisted {
		if ok {
			e.pending = false
		}
		t.mu.Unlock()
		return
	}
	position := e.highWater
	t.mu.Unlock()

	if err := t.store.UpdatePosition(id, position); err != nil {
		log.Printf("Failed to persist reading position for %s: %v", id, err)
		return
	}

	t.mu.Lock()
	if e, ok := t.entries[id]; ok {
		if position > e.persisted {
			e.persisted = position
		}
		if e.highWater <= e.persisted {
			e.pending = false
		}
	}
	t.mu.Unlock()
}
