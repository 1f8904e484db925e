// Package session runs a per-book reading session as an explicit finite
// state machine: commands go in through a queue, state snapshots come out.
// All session state lives on a single goroutine, independent of any UI.
package session

import (
	"sync"

	"github.com/mrlokans/shelf/internal/entities"
)

// Phase is the lifecycle state of a reading session.
type Phase string

const (
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseError   Phase = "error"
	PhaseClosed  Phase = "closed"
)

// State is an immutable snapshot of a reading session.
type State struct {
	Phase    Phase
	Book     *entities.Book
	Content  string
	Position int64
	Err      string
}

// Opener loads a book and its decoded content. Implemented by the library
// service.
type Opener interface {
	Open(id string) (*entities.Book, string, error)
	RecordPosition(id string, position int64)
}

type command interface{ isCommand() }

type loadCmd struct{}
type updatePositionCmd struct{ position int64 }
type closeCmd struct{}

func (loadCmd) isCommand()           {}
func (updatePositionCmd) isCommand() {}
func (closeCmd) isCommand()          {}

// Session drives one book's reading lifecycle.
type Session struct {
	bookID string
	opener Opener

	commands chan command
	done     chan struct{}

	mu    sync.RWMutex
	state State
}

// New creates a session for the given book and starts its command loop.
// Issue Load() to begin loading content.
func New(bookID string, opener Opener) *Session {
	s := &Session{
		bookID:   bookID,
		opener:   opener,
		commands: make(chan command, 16),
		done:     make(chan struct{}),
		state:    State{Phase: PhaseLoading},
	}
	go s.run()
	return s
}

// State returns the current snapshot.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Load asks the session to (re)load the book's content.
func (s *Session) Load() {
	s.send(loadCmd{})
}

// UpdatePosition reports a new scroll/char offset into the decoded text.
func (s *Session) UpdatePosition(position int64) {
	s.send(updatePositionCmd{position: position})
}

// Close shuts the session down. Pending position updates are already
// routed through the tracker, which survives the session.
func (s *Session) Close() {
	s.send(closeCmd{})
	<-s.done
}

// Progress returns how far through the content the reader is, in [0, 1].
func (s *Session) Progress() float64 {
	state := s.State()
	if state.Phase != PhaseReady || len(state.Content) == 0 {
		return 0
	}
	p := float64(state.Position) / float64(len(state.Content))
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

func (s *Session) send(cmd command) {
	select {
	case s.commands <- cmd:
	case <-s.done:
	}
}

func (s *Session) run() {
	defer close(s.done)
	for cmd := range s.commands {
		switch c := cmd.(type) {
		case loadCmd:
			s.load()
		case updatePositionCmd:
			s.updatePosition(c.position)
		case closeCmd:
			return
		}
	}
}

func (s *Session) load() {
	s.setState(State{Phase: PhaseLoading})

	book, content, err := s.opener.Open(s.bookID)
	if err != nil {
		s.setState(State{Phase: PhaseError, Err: err.Error()})
		return
	}

	s.setState(State{
		Phase:    PhaseReady,
		Book:     book,
		Content:  content,
		Position: book.LastReadPosition,
	})
}

func (s *Session) updatePosition(position int64) {
	s.mu.Lock()
	if s.state.Phase != PhaseReady {
		s.mu.Unlock()
		return
	}
	if position > s.state.Position {
		s.state.Position = position
	}
	s.mu.Unlock()

	s.opener.RecordPosition(s.bookID, position)
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}
