package controller

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mycelian/calendar-sync/client"
	"github.com/mycelian/calendar-sync/internal/devserver"
	"github.com/mycelian/calendar-sync/notify"
	"github.com/mycelian/calendar-sync/state/session"
	"github.com/mycelian/calendar-sync/storage"
	"github.com/mycelian/calendar-sync/store"
)

var fixedNow = time.Date(2022, 9, 22, 12, 0, 0, 0, time.UTC)

type env struct {
	ts       *httptest.Server
	dev      *devserver.Server
	store    *store.Store
	storage  *storage.Memory
	api      *client.Client
	notes    *notify.Recorder
	session  *SessionController
	calendar *CalendarController
	ui       *UIController
	requests *int64
}

// newEnv runs the controllers against an in-memory backend.
func newEnv(t *testing.T) *env {
	t.Helper()
	nop := zerolog.Nop()
	dev, err := devserver.New(devserver.Config{Secret: []byte("controller-test"), BcryptCost: bcrypt.MinCost, Logger: &nop})
	require.NoError(t, err)
	e := newEnvWithHandler(t, dev.Handler())
	e.dev = dev
	return e
}

// newEnvWithHandler runs the controllers against h, counting requests.
func newEnvWithHandler(t *testing.T, h http.Handler) *env {
	t.Helper()
	var n int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&n, 1)
		h.ServeHTTP(w, r)
	}))
	t.Cleanup(ts.Close)

	nop := zerolog.Nop()
	mem := storage.NewMemory()
	api, err := client.New(ts.URL+"/api", client.WithLogger(nop), client.WithTokenSource(storage.TokenSource(mem)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = api.Close() })

	st := store.New(store.WithLogger(nop))
	notes := &notify.Recorder{}
	opts := []Option{WithLogger(nop), WithClock(func() time.Time { return fixedNow }), WithNotifier(notes), WithLoadRetry(2, time.Millisecond)}

	return &env{
		ts:       ts,
		store:    st,
		storage:  mem,
		api:      api,
		notes:    notes,
		session:  NewSessionController(st, api, mem, opts...),
		calendar: NewCalendarController(st, api, opts...),
		ui:       NewUIController(st),
		requests: &n,
	}
}

func (e *env) requestCount() int64 { return atomic.LoadInt64(e.requests) }

func (e *env) seedUser(t *testing.T, name, email, password string) {
	t.Helper()
	require.NotNil(t, e.dev, "seedUser needs the dev backend")
	require.NoError(t, e.dev.Apply(devserver.Seed{Users: []devserver.SeedUser{{Name: name, Email: email, Password: password}}}))
}

// signIn puts a user in the session without talking to the backend.
func (e *env) signIn(uid, name string) {
	e.store.Dispatch(session.OnLogin{User: session.User{UID: uid, Name: name}})
}

func writeBody(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
