package api

import (
	"context"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/mycelian/calendar-sync/client/internal/types"
)

type listResult types.ListEventsResponse

// A list without an eventos array is as unusable as ok:false.
func (r *listResult) accepted() bool { return r.Ok && r.Eventos != nil }

type eventResult types.EventResponse

func (r *eventResult) accepted() bool { return r.Ok && r.Evento != nil }

// PUT answers may omit the stored copy; the caller keeps its own.
type updateResult types.EventResponse

func (r *updateResult) accepted() bool { return r.Ok }

type okResult types.OkResponse

func (r *okResult) accepted() bool { return r.Ok }

// ListEvents fetches every event visible to the current token.
func ListEvents(ctx context.Context, rc *resty.Client) ([]types.EventPayload, error) {
	var out listResult
	if err := send(ctx, rc.R(), http.MethodGet, "/events", "list_events", &out); err != nil {
		return nil, err
	}
	return out.Eventos, nil
}

// CreateEvent posts a draft and returns the stored event with its id.
func CreateEvent(ctx context.Context, rc *resty.Client, ev types.EventPayload) (*types.EventPayload, error) {
	ev.ID = ""
	var out eventResult
	if err := send(ctx, rc.R().SetBody(ev), http.MethodPost, "/events", "create_event", &out); err != nil {
		return nil, err
	}
	return out.Evento, nil
}

// UpdateEvent replaces the event with id ev.ID.
func UpdateEvent(ctx context.Context, rc *resty.Client, ev types.EventPayload) (*types.EventPayload, error) {
	var out updateResult
	req := rc.R().SetPathParam("id", ev.ID).SetBody(ev)
	if err := send(ctx, req, http.MethodPut, "/events/{id}", "update_event", &out); err != nil {
		return nil, err
	}
	return out.Evento, nil
}

// DeleteEvent removes the event with the given id.
func DeleteEvent(ctx context.Context, rc *resty.Client, id string) error {
	var out okResult
	req := rc.R().SetPathParam("id", id)
	return send(ctx, req, http.MethodDelete, "/events/{id}", "delete_event", &out)
}
