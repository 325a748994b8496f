package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ------------------------------
// Event wire types
// ------------------------------

// EventPayload is an event as the backend sends and receives it. Dates
// stay ISO-8601 strings here and are parsed by the caller.
type EventPayload struct {
	ID    string     `json:"id,omitempty"`
	Title string     `json:"title"`
	Notes string     `json:"notes"`
	Start string     `json:"start"`
	End   string     `json:"end"`
	User  *EventUser `json:"user,omitempty"`
}

// EventUser is the owner of an event. The backend sends either a populated
// {_id, name} object or the bare id string.
type EventUser struct {
	ID   string `json:"_id"`
	Name string `json:"name,omitempty"`
}

// UnmarshalJSON accepts both the object and the bare-string form.
func (u *EventUser) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*u = EventUser{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*u = EventUser{ID: id}
		return nil
	}
	var obj struct {
		ID   string `json:"_id"`
		UID  string `json:"uid"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("event user: %w", err)
	}
	id := obj.ID
	if id == "" {
		id = obj.UID
	}
	*u = EventUser{ID: id, Name: obj.Name}
	return nil
}

// ListEventsResponse is returned by GET /events. Eventos is nil when the
// field was absent.
type ListEventsResponse struct {
	Ok      bool           `json:"ok"`
	Eventos []EventPayload `json:"eventos"`
	Msg     string         `json:"msg,omitempty"`
}

// EventResponse is returned by POST and PUT /events.
type EventResponse struct {
	Ok     bool          `json:"ok"`
	Evento *EventPayload `json:"evento,omitempty"`
	Msg    string        `json:"msg,omitempty"`
}

// OkResponse is returned by DELETE /events/{id}.
type OkResponse struct {
	Ok  bool   `json:"ok"`
	Msg string `json:"msg,omitempty"`
}
