// Package calendar holds the local copy of the user's events and the
// pure reducer that applies confirmed changes to it.
package calendar

import (
	"time"

	"github.com/mycelian/calendar-sync/state/session"
)

// Event is one calendar entry. An empty ID marks a draft that the backend
// has not stored yet.
type Event struct {
	ID    string
	Title string
	Notes string
	Start time.Time
	End   time.Time
	User  session.User
}

// IsDraft reports whether e has no server id.
func (e Event) IsDraft() bool { return e.ID == "" }

// State is the calendar slice of the store.
//
// Events are unique by ID and keep insertion order. ActiveEvent is a copy
// and never aliases an element of Events.
type State struct {
	IsLoadingEvents bool
	Events          []Event
	ActiveEvent     *Event
}

// InitialState is the state before the first successful load.
func InitialState() State {
	return State{IsLoadingEvents: true, Events: []Event{}}
}

// HasEventSelected reports whether an event is active.
func (s State) HasEventSelected() bool { return s.ActiveEvent != nil }

// FindByID returns a copy of the event with the given id.
func (s State) FindByID(id string) (Event, bool) {
	if i := indexOf(s.Events, id); i >= 0 {
		return s.Events[i], true
	}
	return Event{}, false
}

// Clone returns a copy that shares no memory with s.
func (s State) Clone() State {
	out := State{IsLoadingEvents: s.IsLoadingEvents, Events: append([]Event(nil), s.Events...)}
	if out.Events == nil {
		out.Events = []Event{}
	}
	if s.ActiveEvent != nil {
		ev := *s.ActiveEvent
		out.ActiveEvent = &ev
	}
	return out
}

// Action is a calendar transition. The set is closed.
type Action interface{ calendarAction() }

// OnSetActiveEvent selects an event (existing or draft).
type OnSetActiveEvent struct{ Event Event }

// OnAddNewEvent appends an event the backend just created.
type OnAddNewEvent struct{ Event Event }

// OnUpdateEvent replaces the stored copy of an event.
type OnUpdateEvent struct{ Event Event }

// OnDeleteEvent removes the active event.
type OnDeleteEvent struct{}

// OnLoadEvents merges a server listing into the collection.
type OnLoadEvents struct{ Events []Event }

// OnLogoutCalendar resets the collection for the next user.
type OnLogoutCalendar struct{}

func (OnSetActiveEvent) calendarAction() {}
func (OnAddNewEvent) calendarAction()    {}
func (OnUpdateEvent) calendarAction()    {}
func (OnDeleteEvent) calendarAction()    {}
func (OnLoadEvents) calendarAction()     {}
func (OnLogoutCalendar) calendarAction() {}

// Reduce applies a to s. The input is never modified; the result owns
// its own backing array.
func Reduce(s State, a Action) State {
	next := s.Clone()

	switch act := a.(type) {
	case OnSetActiveEvent:
		ev := act.Event
		next.ActiveEvent = &ev

	case OnAddNewEvent:
		if i := indexOf(next.Events, act.Event.ID); act.Event.ID != "" && i >= 0 {
			next.Events[i] = act.Event
		} else {
			next.Events = append(next.Events, act.Event)
		}
		next.ActiveEvent = nil

	case OnUpdateEvent:
		if i := indexOf(next.Events, act.Event.ID); act.Event.ID != "" && i >= 0 {
			next.Events[i] = act.Event
		}

	case OnDeleteEvent:
		if s.ActiveEvent == nil {
			return s
		}
		if id := next.ActiveEvent.ID; id != "" {
			kept := next.Events[:0]
			for _, ev := range next.Events {
				if ev.ID != id {
					kept = append(kept, ev)
				}
			}
			next.Events = kept
		}
		next.ActiveEvent = nil

	case OnLoadEvents:
		for _, ev := range act.Events {
			if indexOf(next.Events, ev.ID) < 0 {
				next.Events = append(next.Events, ev)
			}
		}
		next.IsLoadingEvents = false

	case OnLogoutCalendar:
		return InitialState()
	}
	return next
}

func indexOf(events []Event, id string) int {
	for i := range events {
		if events[i].ID == id {
			return i
		}
	}
	return -1
}
