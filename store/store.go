// Package store owns the session, calendar and UI state and is the single
// place where reducers run.
package store

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mycelian/calendar-sync/state/calendar"
	"github.com/mycelian/calendar-sync/state/session"
	"github.com/mycelian/calendar-sync/state/ui"
)

// State is a point-in-time snapshot of the whole store.
type State struct {
	Session  session.State
	Calendar calendar.State
	UI       ui.State
}

// Listener receives the snapshot produced by each dispatch.
type Listener func(State)

// Store serializes reducer application. It is safe for concurrent use.
type Store struct {
	mu    sync.Mutex
	state State

	// held for a whole dispatch so listeners see snapshots in order
	notifyMu  sync.Mutex
	listeners map[int]Listener
	nextID    int

	log zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for ignored actions.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New returns a store holding the initial state of every slice.
func New(opts ...Option) *Store {
	s := &Store{
		state: State{
			Session:  session.InitialState(),
			Calendar: calendar.InitialState(),
			UI:       ui.InitialState(),
		},
		listeners: make(map[int]Listener),
		log:       log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispatch routes action to the reducer of its family and notifies
// listeners. Listeners may read the store but must not call Dispatch.
func (s *Store) Dispatch(action any) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	switch a := action.(type) {
	case session.Action:
		s.state.Session = session.Reduce(s.state.Session, a)
	case calendar.Action:
		s.state.Calendar = calendar.Reduce(s.state.Calendar, a)
	case ui.Action:
		s.state.UI = ui.Reduce(s.state.UI, a)
	default:
		s.mu.Unlock()
		s.log.Warn().Str("action", fmt.Sprintf("%T", action)).Msg("store: ignoring unknown action")
		return
	}
	snap := s.snapshotLocked()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	s.log.Debug().Str("action", fmt.Sprintf("%T", action)).
		Str("status", string(snap.Session.Status)).
		Int("events", len(snap.Calendar.Events)).
		Msg("store: dispatched")
	for _, l := range listeners {
		l(snap)
	}
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// State returns a snapshot of every slice.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Session returns the session slice.
func (s *Store) Session() session.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Session
}

// Calendar returns a copy of the calendar slice.
func (s *Store) Calendar() calendar.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Calendar.Clone()
}

// UI returns the UI slice.
func (s *Store) UI() ui.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.UI
}

func (s *Store) snapshotLocked() State {
	return State{
		Session:  s.state.Session,
		Calendar: s.state.Calendar.Clone(),
		UI:       s.state.UI,
	}
}
