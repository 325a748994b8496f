// Package app assembles the calendar client from configuration: storage,
// REST client, store and the three controllers.
package app

import (
	"github.com/rs/zerolog"

	"github.com/mycelian/calendar-sync/client"
	"github.com/mycelian/calendar-sync/controller"
	"github.com/mycelian/calendar-sync/internal/config"
	"github.com/mycelian/calendar-sync/notify"
	"github.com/mycelian/calendar-sync/storage"
	"github.com/mycelian/calendar-sync/store"
)

// App owns every long-lived component. Close releases them.
type App struct {
	Config  *config.Config
	Store   *store.Store
	Storage storage.Storage
	Client  *client.Client

	Session  *controller.SessionController
	Calendar *controller.CalendarController
	UI       *controller.UIController
}

// New builds an App. notifier may be nil.
func New(cfg *config.Config, log zerolog.Logger, notifier notify.Port) (*App, error) {
	if notifier == nil {
		notifier = notify.LogPort{Logger: log}
	}
	log.Debug().Object("config", cfg).Msg("building app")

	st, err := storage.Open(storage.Options{
		Driver:     cfg.StorageDriver,
		Path:       cfg.StoragePath,
		Passphrase: cfg.StoragePassphrase,
	})
	if err != nil {
		log.Error().Stack().Err(err).Str("driver", cfg.StorageDriver).Msg("storage unavailable")
		return nil, err
	}

	opts := []client.Option{
		client.WithLogger(log),
		client.WithHTTPTimeout(cfg.HTTPTimeout),
		client.WithTokenSource(storage.TokenSource(st)),
	}
	if cfg.Debug {
		opts = append(opts, client.WithDebugLogging(true))
	}
	c, err := client.New(cfg.APIURL, opts...)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	s := store.New(store.WithLogger(log))
	copts := []controller.Option{
		controller.WithLogger(log),
		controller.WithNotifier(notifier),
		controller.WithLoadRetry(cfg.LoadRetries, cfg.LoadBackoff),
	}
	return &App{
		Config:   cfg,
		Store:    s,
		Storage:  st,
		Client:   c,
		Session:  controller.NewSessionController(s, c, st, copts...),
		Calendar: controller.NewCalendarController(s, c, copts...),
		UI:       controller.NewUIController(s),
	}, nil
}

// Close stops the client executor and closes storage.
func (a *App) Close() error {
	cerr := a.Client.Close()
	serr := a.Storage.Close()
	if cerr != nil {
		return cerr
	}
	return serr
}
