package client

import "github.com/mycelian/calendar-sync/client/internal/types"

// Public type aliases so SDK consumers can import only the client package.
type (
	// Requests
	LoginRequest    = types.LoginRequest
	RegisterRequest = types.RegisterRequest

	// Wire entities
	EventPayload = types.EventPayload
	EventUser    = types.EventUser

	// Responses
	AuthResponse       = types.AuthResponse
	ErrorResponse      = types.ErrorResponse
	FieldError         = types.FieldError
	ListEventsResponse = types.ListEventsResponse
	EventResponse      = types.EventResponse
	OkResponse         = types.OkResponse
)
