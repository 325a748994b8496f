package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/mycelian/calendar-sync/client"
	"github.com/mycelian/calendar-sync/internal/eventdate"
	"github.com/mycelian/calendar-sync/notify"
	"github.com/mycelian/calendar-sync/state/calendar"
	"github.com/mycelian/calendar-sync/state/session"
	"github.com/mycelian/calendar-sync/store"
)

// draftKey is the executor key shared by all creates.
const draftKey = "draft"

// CalendarController keeps the event collection in step with the backend.
type CalendarController struct {
	store *store.Store
	api   EventsAPI
	opts  options
}

// NewCalendarController wires a calendar controller.
func NewCalendarController(st *store.Store, api EventsAPI, opts ...Option) *CalendarController {
	return &CalendarController{store: st, api: api, opts: buildOptions(opts)}
}

// Events returns a copy of the loaded events.
func (c *CalendarController) Events() []calendar.Event { return c.store.Calendar().Events }

// ActiveEvent returns a copy of the selected event, or nil.
func (c *CalendarController) ActiveEvent() *calendar.Event { return c.store.Calendar().ActiveEvent }

// HasEventSelected reports whether an event is selected.
func (c *CalendarController) HasEventSelected() bool { return c.store.Calendar().HasEventSelected() }

// IsLoadingEvents reports whether no listing has been applied yet.
func (c *CalendarController) IsLoadingEvents() bool { return c.store.Calendar().IsLoadingEvents }

// SetActiveEvent selects ev without contacting the backend.
func (c *CalendarController) SetActiveEvent(ev calendar.Event) {
	c.store.Dispatch(calendar.OnSetActiveEvent{Event: ev})
}

// StartSavingEvent updates ev when it has an id and creates it otherwise.
// The store only changes once the backend confirms.
func (c *CalendarController) StartSavingEvent(ctx context.Context, ev calendar.Event) error {
	key := ev.ID
	if ev.IsDraft() {
		key = draftKey
	}
	l := c.opts.log.With().Str("event_id", ev.ID).Logger()

	err := c.api.Mutate(ctx, key, func(ctx context.Context) error {
		ev.User = c.store.Session().User
		if !ev.IsDraft() {
			if _, err := c.api.UpdateEvent(ctx, toPayload(ev)); err != nil {
				return err
			}
			c.store.Dispatch(calendar.OnUpdateEvent{Event: ev})
			return nil
		}

		created, err := c.api.CreateEvent(ctx, toPayload(ev))
		if err != nil {
			return err
		}
		ev.ID = created.ID
		c.store.Dispatch(calendar.OnAddNewEvent{Event: ev})
		return nil
	})
	if err != nil {
		l.Warn().Err(err).Msg("save event failed")
		c.opts.notifier.Notify(ctx, notify.Notification{
			Level: notify.Error,
			Title: titleSaveFailed,
			Text:  client.ServerMessage(err),
		})
		return err
	}
	l.Debug().Str("id", ev.ID).Msg("event saved")
	return nil
}

// StartDeletingEvent deletes the active event. Without a persisted active
// event it does nothing.
func (c *CalendarController) StartDeletingEvent(ctx context.Context) error {
	active := c.store.Calendar().ActiveEvent
	if active == nil || active.IsDraft() {
		return nil
	}
	target := *active
	l := c.opts.log.With().Str("event_id", target.ID).Logger()

	err := c.api.Mutate(ctx, target.ID, func(ctx context.Context) error {
		if err := c.api.DeleteEvent(ctx, target.ID); err != nil {
			return err
		}
		// The selection may have moved while the request was in flight.
		if cur := c.store.Calendar().ActiveEvent; cur == nil || cur.ID != target.ID {
			c.store.Dispatch(calendar.OnSetActiveEvent{Event: target})
		}
		c.store.Dispatch(calendar.OnDeleteEvent{})
		return nil
	})
	if err != nil {
		l.Warn().Err(err).Msg("delete event failed")
		c.opts.notifier.Notify(ctx, notify.Notification{
			Level: notify.Error,
			Title: titleDeleteFailed,
			Text:  client.ServerMessage(err),
		})
		return err
	}
	c.opts.notifier.Notify(ctx, notify.Notification{Level: notify.Success, Title: titleDeleted})
	return nil
}

// StartLoadingEvents fetches the listing and merges it into the store.
// Transient failures are retried; all failures leave the store untouched.
func (c *CalendarController) StartLoadingEvents(ctx context.Context) error {
	var payloads []client.EventPayload
	op := func() error {
		var err error
		payloads, err = c.api.ListEvents(ctx)
		if err != nil && !client.IsRecoverable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.opts.loadBackoff
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.opts.loadRetries)), ctx)
	notifyRetry := func(err error, wait time.Duration) {
		c.opts.log.Debug().Err(err).Dur("wait", wait).Msg("retrying event listing")
	}

	if err := backoff.RetryNotify(op, policy, notifyRetry); err != nil {
		c.opts.log.Warn().Err(err).Msg("load events failed")
		return err
	}

	events := make([]calendar.Event, 0, len(payloads))
	for _, p := range payloads {
		ev, err := fromPayload(p)
		if err != nil {
			c.opts.log.Warn().Err(err).Str("event_id", p.ID).Msg("skipping event with unreadable dates")
			continue
		}
		events = append(events, ev)
	}
	c.store.Dispatch(calendar.OnLoadEvents{Events: events})
	c.opts.log.Debug().Int("count", len(events)).Msg("events loaded")
	return nil
}

func toPayload(ev calendar.Event) client.EventPayload {
	p := client.EventPayload{
		ID:    ev.ID,
		Title: ev.Title,
		Notes: ev.Notes,
		Start: eventdate.Format(ev.Start),
		End:   eventdate.Format(ev.End),
	}
	if !ev.User.IsZero() {
		p.User = &client.EventUser{ID: ev.User.UID, Name: ev.User.Name}
	}
	return p
}

func fromPayload(p client.EventPayload) (calendar.Event, error) {
	start, err := eventdate.Parse(p.Start)
	if err != nil {
		return calendar.Event{}, fmt.Errorf("start: %w", err)
	}
	end, err := eventdate.Parse(p.End)
	if err != nil {
		return calendar.Event{}, fmt.Errorf("end: %w", err)
	}
	ev := calendar.Event{ID: p.ID, Title: p.Title, Notes: p.Notes, Start: start, End: end}
	if p.User != nil {
		ev.User = session.User{UID: p.User.ID, Name: p.User.Name}
	}
	return ev, nil
}
