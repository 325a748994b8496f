package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mycelian/calendar-sync/internal/devserver"
	"github.com/mycelian/calendar-sync/internal/logger"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("calendar-devserver exited with error")
		os.Exit(1)
	}
}

// NewRootCmd constructs the root command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	var (
		addr, prefix, secret, seedPath string
		logLevel, logFormat            string
		tokenTTL                       time.Duration
	)

	cmd := &cobra.Command{
		Use:          "calendar-devserver",
		Short:        "In-memory calendar backend for local development",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := logger.Init("calendar-devserver", logLevel, logFormat)
			if err != nil {
				return err
			}

			srv, err := devserver.New(devserver.Config{
				Prefix:   prefix,
				Secret:   []byte(secret),
				TokenTTL: tokenTTL,
				Logger:   &l,
			})
			if err != nil {
				return err
			}
			if seedPath != "" {
				seed, err := devserver.LoadSeed(seedPath)
				if err != nil {
					return err
				}
				if err := srv.Apply(seed); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			httpSrv := &http.Server{
				Addr:              addr,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
				BaseContext:       func(net.Listener) context.Context { return ctx },
			}
			errCh := make(chan error, 1)
			go func() {
				l.Info().Str("addr", addr).Str("prefix", srv.Prefix()).Msg("calendar-devserver listening")
				if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case <-ctx.Done():
				l.Info().Msg("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return httpSrv.Shutdown(shutdownCtx)
			case err := <-errCh:
				return err
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", envOr("DEVSERVER_ADDR", ":4000"), "Listen address")
	cmd.Flags().StringVar(&prefix, "prefix", "/api", "Route prefix")
	cmd.Flags().StringVar(&secret, "secret", envOr("DEVSERVER_SECRET", "dev-secret-change-me"), "HMAC secret for issued tokens")
	cmd.Flags().StringVar(&seedPath, "seed", "", "YAML file with users and events to preload")
	cmd.Flags().DurationVar(&tokenTTL, "token-ttl", 2*time.Hour, "Lifetime of issued tokens")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level")
	cmd.Flags().StringVar(&logFormat, "log-format", "console", "Log format (console|json)")
	return cmd
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
