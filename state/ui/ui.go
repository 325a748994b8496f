// Package ui holds presentation flags that are not tied to a session.
package ui

// State is the UI slice of the store.
type State struct {
	IsDateModalOpen bool
}

// InitialState has every modal closed.
func InitialState() State { return State{} }

// Action is a UI transition. The set is closed.
type Action interface{ uiAction() }

type (
	OnOpenDateModal   struct{}
	OnCloseDateModal  struct{}
	OnToggleDateModal struct{}
)

func (OnOpenDateModal) uiAction()   {}
func (OnCloseDateModal) uiAction()  {}
func (OnToggleDateModal) uiAction() {}

// Reduce applies a to s.
func Reduce(s State, a Action) State {
	switch a.(type) {
	case OnOpenDateModal:
		s.IsDateModalOpen = true
	case OnCloseDateModal:
		s.IsDateModalOpen = false
	case OnToggleDateModal:
		s.IsDateModalOpen = !s.IsDateModalOpen
	}
	return s
}
