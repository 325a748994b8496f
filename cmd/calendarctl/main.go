package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mycelian/calendar-sync/internal/app"
	"github.com/mycelian/calendar-sync/internal/config"
	"github.com/mycelian/calendar-sync/internal/logger"
	"github.com/mycelian/calendar-sync/notify"
)

const commandTimeout = 30 * time.Second

type rootFlags struct {
	apiURL        string
	storageDriver string
	storagePath   string
	debug         bool
}

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	f := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:           "calendarctl",
		Short:         "Command-line client for the calendar backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&f.apiURL, "api-url", "", "API root, overrides CALENDAR_API_URL")
	rootCmd.PersistentFlags().StringVar(&f.storageDriver, "storage-driver", "", "Session storage driver (memory|file|sqlite)")
	rootCmd.PersistentFlags().StringVar(&f.storagePath, "storage-path", "", "Session storage location")
	rootCmd.PersistentFlags().BoolVarP(&f.debug, "debug", "d", false, "Enable verbose debug output")

	rootCmd.AddCommand(newLoginCmd(f))
	rootCmd.AddCommand(newRegisterCmd(f))
	rootCmd.AddCommand(newLogoutCmd(f))
	rootCmd.AddCommand(newStatusCmd(f))
	rootCmd.AddCommand(newEventsCmd(f))
	return rootCmd
}

// loadConfig layers the command-line flags over the environment.
func (f *rootFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}
	if f.apiURL != "" {
		cfg.APIURL = f.apiURL
	}
	if f.storageDriver != "" && f.storageDriver != cfg.StorageDriver {
		cfg.StorageDriver = f.storageDriver
		if f.storagePath == "" && os.Getenv("CALENDAR_STORAGE_PATH") == "" {
			cfg.StoragePath = ""
		}
	}
	if f.storagePath != "" {
		cfg.StoragePath = f.storagePath
	}
	if f.debug {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}
	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// run builds an App for one command and tears it down afterwards.
// Notifications are printed to the command output.
func (f *rootFlags) run(cmd *cobra.Command, fn func(ctx context.Context, a *app.App, out io.Writer) error) error {
	cfg, err := f.loadConfig()
	if err != nil {
		return err
	}
	l, err := logger.Init("calendarctl", cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printer := notify.Func(func(_ context.Context, n notify.Notification) {
		if n.Text != "" {
			fmt.Fprintf(out, "[%s] %s: %s\n", n.Level, n.Title, n.Text)
			return
		}
		fmt.Fprintf(out, "[%s] %s\n", n.Level, n.Title)
	})

	a, err := app.New(cfg, l, printer)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			l.Warn().Err(err).Msg("close failed")
		}
	}()

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()
	return fn(ctx, a, out)
}
