package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/shelf/internal/entities"
)

type fakeOpener struct {
	mu        sync.Mutex
	book      *entities.Book
	content   string
	openErr   error
	positions []int64
}

func (f *fakeOpener) Open(id string) (*entities.Book, string, error) {
	if f.openErr != nil {
		return nil, "", f.openErr
	}
	return f.book, f.content, nil
}

func (f *fakeOpener) RecordPosition(id string, position int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.positions = append(f.positions, position)
}

func (f *fakeOpener) recorded() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.positions...)
}

func waitForPhase(t *testing.T, s *Session, phase Phase) State {
	t.Helper()
	var state State
	require.Eventually(t, func() bool {
		state = s.State()
		return state.Phase == phase
	}, time.Second, time.Millisecond)
	return state
}

func TestSession_LoadReachesReady(t *testing.T) {
	opener := &fakeOpener{
		book:    &entities.Book{ID: "a1", Title: "T", LastReadPosition: 12},
		content: "some decoded book content",
	}
	s := New("a1", opener)
	defer s.Close()

	s.Load()
	state := waitForPhase(t, s, PhaseReady)

	assert.Equal(t, "some decoded book content", state.Content)
	assert.Equal(t, int64(12), state.Position)
}

func TestSession_LoadFailureReachesError(t *testing.T) {
	opener := &fakeOpener{openErr: errors.New("book is not downloaded")}
	s := New("a1", opener)
	defer s.Close()

	s.Load()
	state := waitForPhase(t, s, PhaseError)

	assert.Contains(t, state.Err, "not downloaded")
}

func TestSession_UpdatePosition(t *testing.T) {
	opener := &fakeOpener{book: &entities.Book{ID: "a1"}, content: "0123456789"}
	s := New("a1", opener)
	defer s.Close()

	s.Load()
	waitForPhase(t, s, PhaseReady)

	s.UpdatePosition(5)
	require.Eventually(t, func() bool {
		return s.State().Position == 5
	}, time.Second, time.Millisecond)

	// Smaller offsets never move the snapshot backwards.
	s.UpdatePosition(2)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int64(5), s.State().Position)

	// Every update is still routed to the tracker, which enforces
	// persistence monotonicity itself.
	assert.Equal(t, []int64{5, 2}, opener.recorded())
}

func TestSession_UpdatePositionIgnoredBeforeReady(t *testing.T) {
	opener := &fakeOpener{openErr: errors.New("nope")}
	s := New("a1", opener)
	defer s.Close()

	s.Load()
	waitForPhase(t, s, PhaseError)

	s.UpdatePosition(10)
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, opener.recorded())
}

func TestSession_Progress(t *testing.T) {
	opener := &fakeOpener{book: &entities.Book{ID: "a1"}, content: "0123456789"}
	s := New("a1", opener)
	defer s.Close()

	assert.Equal(t, 0.0, s.Progress())

	s.Load()
	waitForPhase(t, s, PhaseReady)

	s.UpdatePosition(5)
	require.Eventually(t, func() bool {
		return s.Progress() == 0.5
	}, time.Second, time.Millisecond)

	s.UpdatePosition(100)
	require.Eventually(t, func() bool {
		return s.Progress() == 1.0
	}, time.Second, time.Millisecond)
}

func TestSession_CloseStopsCommandLoop(t *testing.T) {
	opener := &fakeOpener{book: &entities.Book{ID: "a1"}, content: "x"}
	s := New("a1", opener)

	s.Close()

	// Commands after close are dropped, not deadlocked.
	s.UpdatePosition(3)
	assert.Empty(t, opener.recorded())
}
