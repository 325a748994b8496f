package controller

import (
	"context"

	"github.com/mycelian/calendar-sync/client"
	"github.com/mycelian/calendar-sync/state/calendar"
	"github.com/mycelian/calendar-sync/state/session"
	"github.com/mycelian/calendar-sync/storage"
	"github.com/mycelian/calendar-sync/store"
)

// Credentials are what StartLogin sends.
type Credentials struct {
	Email    string
	Password string
}

// NewUser is what StartRegister sends.
type NewUser struct {
	Name     string
	Email    string
	Password string
}

// SessionController signs users in and out and keeps the durable token in
// step with the session state.
type SessionController struct {
	store   *store.Store
	api     AuthAPI
	storage storage.Storage
	opts    options
}

// NewSessionController wires a session controller.
func NewSessionController(st *store.Store, api AuthAPI, s storage.Storage, opts ...Option) *SessionController {
	return &SessionController{store: st, api: api, storage: s, opts: buildOptions(opts)}
}

// Status returns the current authentication phase.
func (c *SessionController) Status() session.Status { return c.store.Session().Status }

// User returns the signed-in user, or the zero User.
func (c *SessionController) User() session.User { return c.store.Session().User }

// ErrorMessage returns the last auth failure message, "" when none.
func (c *SessionController) ErrorMessage() string { return c.store.Session().ErrorMessage }

// StartLogin authenticates with email and password.
func (c *SessionController) StartLogin(ctx context.Context, cred Credentials) error {
	c.store.Dispatch(session.OnChecking{})
	resp, err := c.api.Login(ctx, client.LoginRequest{Email: cred.Email, Password: cred.Password})
	return c.finishAuth(ctx, "login", resp, err, msgBadCredentials)
}

// StartRegister creates an account and signs it in.
func (c *SessionController) StartRegister(ctx context.Context, u NewUser) error {
	c.store.Dispatch(session.OnChecking{})
	resp, err := c.api.Register(ctx, client.RegisterRequest{Name: u.Name, Email: u.Email, Password: u.Password})
	return c.finishAuth(ctx, "register", resp, err, msgRegisterFallback)
}

func (c *SessionController) finishAuth(ctx context.Context, op string, resp *client.AuthResponse, err error, fallback string) error {
	l := c.opts.log.With().Str("op", op).Logger()
	if err != nil {
		msg := client.ServerMessage(err)
		if msg == "" {
			msg = fallback
		}
		l.Info().Err(err).Str("message", msg).Msg("authentication failed")
		c.store.Dispatch(session.OnLogout{ErrorMessage: msg})
		return err
	}
	if err := storage.SaveToken(ctx, c.storage, resp.Token, c.opts.now()); err != nil {
		l.Error().Stack().Err(err).Msg("could not persist token")
		_ = storage.ClearToken(ctx, c.storage)
		c.store.Dispatch(session.OnLogout{})
		return err
	}
	c.store.Dispatch(session.OnLogin{User: session.User{UID: resp.UID, Name: resp.Name}})
	l.Debug().Str("uid", resp.UID).Msg("authenticated")
	return nil
}

// StartLogout forgets the token and wipes session and calendar state.
// Saves and deletes still in flight land before the wipe.
func (c *SessionController) StartLogout(ctx context.Context) {
	if err := c.api.Flush(ctx); err != nil {
		c.opts.log.Warn().Err(err).Msg("pending event mutations not settled before logout")
	}
	if err := storage.ClearToken(ctx, c.storage); err != nil {
		c.opts.log.Warn().Err(err).Msg("could not clear stored token")
	}
	c.store.Dispatch(session.OnLogout{})
	c.store.Dispatch(calendar.OnLogoutCalendar{})
}

// CheckAuthToken resumes a session from the stored token. Every failure
// ends silently in not-authenticated.
func (c *SessionController) CheckAuthToken(ctx context.Context) {
	tok, ok, err := c.storage.Get(ctx, storage.KeyToken)
	if err != nil {
		c.opts.log.Warn().Err(err).Msg("could not read stored token")
	}
	if err != nil || !ok || tok == "" {
		c.store.Dispatch(session.OnLogout{})
		return
	}

	resp, err := c.api.Renew(ctx)
	if err == nil {
		err = storage.SaveToken(ctx, c.storage, resp.Token, c.opts.now())
	}
	if err != nil {
		c.opts.log.Debug().Err(err).Msg("stored token rejected")
		if cerr := storage.ClearToken(ctx, c.storage); cerr != nil {
			c.opts.log.Warn().Err(cerr).Msg("could not clear stored token")
		}
		c.store.Dispatch(session.OnLogout{})
		return
	}
	c.store.Dispatch(session.OnLogin{User: session.User{UID: resp.UID, Name: resp.Name}})
}

// ClearErrorMessage drops the last auth failure message once shown.
func (c *SessionController) ClearErrorMessage() {
	c.store.Dispatch(session.ClearErrorMessage{})
}
