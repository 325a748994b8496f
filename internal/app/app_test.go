package app

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mycelian/calendar-sync/controller"
	"github.com/mycelian/calendar-sync/internal/config"
	"github.com/mycelian/calendar-sync/internal/devserver"
	"github.com/mycelian/calendar-sync/notify"
	"github.com/mycelian/calendar-sync/state/session"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	nop := zerolog.Nop()
	dev, err := devserver.New(devserver.Config{Secret: []byte("app-test"), BcryptCost: bcrypt.MinCost, Logger: &nop})
	require.NoError(t, err)
	require.NoError(t, dev.Apply(devserver.Seed{
		Users: []devserver.SeedUser{{Name: "Fernando", Email: "test@google.com", Password: "123456"}},
		Events: []devserver.SeedEvent{{
			Owner: "test@google.com",
			Title: "Cumpleaños",
			Start: "2022-09-22T13:30:00.000Z",
			End:   "2022-09-22T15:30:00.000Z",
		}},
	}))
	ts := httptest.NewServer(dev.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func testConfig(url, path string) *config.Config {
	return &config.Config{
		APIURL:        url + "/api",
		HTTPTimeout:   5 * time.Second,
		StorageDriver: config.DriverSQLite,
		StoragePath:   path,
		LogLevel:      "info",
		LogFormat:     "console",
		LoadRetries:   1,
		LoadBackoff:   time.Millisecond,
	}
}

func TestSessionSurvivesRestart(t *testing.T) {
	ts := newBackend(t)
	cfg := testConfig(ts.URL, filepath.Join(t.TempDir(), "session.db"))
	ctx := context.Background()

	first, err := New(cfg, zerolog.Nop(), notify.Discard)
	require.NoError(t, err)
	require.NoError(t, first.Session.StartLogin(ctx, controller.Credentials{Email: "test@google.com", Password: "123456"}))
	require.NoError(t, first.Close())

	second, err := New(cfg, zerolog.Nop(), notify.Discard)
	require.NoError(t, err)
	defer second.Close()

	assert.Equal(t, session.StatusChecking, second.Session.Status())
	second.Session.CheckAuthToken(ctx)
	require.Equal(t, session.StatusAuthenticated, second.Session.Status())
	assert.Equal(t, "Fernando", second.Session.User().Name)

	require.NoError(t, second.Calendar.StartLoadingEvents(ctx))
	require.Len(t, second.Calendar.Events(), 1)
	assert.Equal(t, "Cumpleaños", second.Calendar.Events()[0].Title)
}

func TestNew_BadStorage(t *testing.T) {
	cfg := testConfig("http://localhost:1", "")
	cfg.StorageDriver = "floppy"

	_, err := New(cfg, zerolog.Nop(), nil)
	assert.Error(t, err)
}
