package controller

import (
	"github.com/mycelian/calendar-sync/state/ui"
	"github.com/mycelian/calendar-sync/store"
)

// UIController drives the date-modal flag.
type UIController struct {
	store *store.Store
}

// NewUIController wires a UI controller.
func NewUIController(st *store.Store) *UIController {
	return &UIController{store: st}
}

func (c *UIController) OpenDateModal()   { c.store.Dispatch(ui.OnOpenDateModal{}) }
func (c *UIController) CloseDateModal()  { c.store.Dispatch(ui.OnCloseDateModal{}) }
func (c *UIController) ToggleDateModal() { c.store.Dispatch(ui.OnToggleDateModal{}) }

// IsDateModalOpen reports the modal flag.
func (c *UIController) IsDateModalOpen() bool { return c.store.UI().IsDateModalOpen }
