package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mycelian/calendar-sync/controller"
	"github.com/mycelian/calendar-sync/internal/app"
	"github.com/mycelian/calendar-sync/state/session"
	"github.com/mycelian/calendar-sync/storage"
)

var errNotSignedIn = errors.New("not signed in; run calendarctl login")

func newLoginCmd(f *rootFlags) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.run(cmd, func(ctx context.Context, a *app.App, out io.Writer) error {
				err := a.Session.StartLogin(ctx, controller.Credentials{Email: email, Password: password})
				return reportAuth(a, out, err)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email (required)")
	cmd.Flags().StringVar(&password, "password", "", "Account password (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newRegisterCmd(f *rootFlags) *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.run(cmd, func(ctx context.Context, a *app.App, out io.Writer) error {
				err := a.Session.StartRegister(ctx, controller.NewUser{Name: name, Email: email, Password: password})
				return reportAuth(a, out, err)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name (required)")
	cmd.Flags().StringVar(&email, "email", "", "Account email (required)")
	cmd.Flags().StringVar(&password, "password", "", "Account password (required)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func reportAuth(a *app.App, out io.Writer, err error) error {
	if err != nil {
		msg := a.Session.ErrorMessage()
		a.Session.ClearErrorMessage()
		if msg == "" {
			return fmt.Errorf("authentication failed: %w", err)
		}
		return fmt.Errorf("authentication failed: %s", msg)
	}
	u := a.Session.User()
	fmt.Fprintf(out, "Signed in as %s (%s)\n", u.Name, u.UID)
	return nil
}

func newLogoutCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.run(cmd, func(ctx context.Context, a *app.App, out io.Writer) error {
				a.Session.StartLogout(ctx)
				fmt.Fprintln(out, "Signed out")
				return nil
			})
		},
	}
}

func newStatusCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Validate the stored session with the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.run(cmd, func(ctx context.Context, a *app.App, out io.Writer) error {
				a.Session.CheckAuthToken(ctx)
				if a.Session.Status() != session.StatusAuthenticated {
					fmt.Fprintln(out, "Not signed in")
					return nil
				}
				u := a.Session.User()
				fmt.Fprintf(out, "Signed in as %s (%s)\n", u.Name, u.UID)
				if at, ok, err := storage.TokenInitDate(ctx, a.Storage); err == nil && ok {
					fmt.Fprintf(out, "Token issued %s\n", at.Local().Format(time.RFC1123))
				}
				return nil
			})
		},
	}
}

// requireSession resumes the stored session or fails.
func requireSession(ctx context.Context, a *app.App) error {
	a.Session.CheckAuthToken(ctx)
	if a.Session.Status() != session.StatusAuthenticated {
		return errNotSignedIn
	}
	return nil
}
