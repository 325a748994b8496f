// Package controller reconciles the local store with the calendar REST
// API. Controllers are the only code that calls the HTTP client or writes
// durable storage; reducers only ever see confirmed outcomes.
//
// Every network operation blocks until the request settles and dispatches
// afterwards. Returned errors are informational: by the time a method
// returns, the store is already in its final state.
package controller

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mycelian/calendar-sync/client"
	"github.com/mycelian/calendar-sync/notify"
)

// User-facing literals.
const (
	msgBadCredentials   = "Credenciales incorrectas"
	msgRegisterFallback = "--"

	titleSaveFailed   = "Error al guardar"
	titleDeleted      = "Evento eliminado correctamente"
	titleDeleteFailed = "Error al eliminar evento"
)

// AuthAPI is the part of the REST client the session controller needs.
type AuthAPI interface {
	Login(ctx context.Context, req client.LoginRequest) (*client.AuthResponse, error)
	Register(ctx context.Context, req client.RegisterRequest) (*client.AuthResponse, error)
	Renew(ctx context.Context) (*client.AuthResponse, error)
	// Flush waits for event mutations already submitted.
	Flush(ctx context.Context) error
}

// EventsAPI is the part of the REST client the calendar controller needs.
type EventsAPI interface {
	ListEvents(ctx context.Context) ([]client.EventPayload, error)
	CreateEvent(ctx context.Context, ev client.EventPayload) (*client.EventPayload, error)
	UpdateEvent(ctx context.Context, ev client.EventPayload) (*client.EventPayload, error)
	DeleteEvent(ctx context.Context, id string) error
	// Mutate runs fn so that calls sharing key never overlap.
	Mutate(ctx context.Context, key string, fn func(context.Context) error) error
}

type options struct {
	log         zerolog.Logger
	now         func() time.Time
	notifier    notify.Port
	loadRetries int
	loadBackoff time.Duration
}

func defaultOptions() options {
	return options{
		log:         log.Logger,
		now:         time.Now,
		notifier:    notify.Discard,
		loadRetries: 2,
		loadBackoff: 200 * time.Millisecond,
	}
}

// Option configures a controller.
type Option func(*options)

// WithLogger sets the controller logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithClock overrides time.Now, used for token-init-date.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithNotifier sets where save/delete outcomes are reported.
func WithNotifier(p notify.Port) Option {
	return func(o *options) {
		if p != nil {
			o.notifier = p
		}
	}
}

// WithLoadRetry bounds how often a transient list failure is retried.
func WithLoadRetry(retries int, backoff time.Duration) Option {
	return func(o *options) {
		if retries >= 0 {
			o.loadRetries = retries
		}
		if backoff > 0 {
			o.loadBackoff = backoff
		}
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
