package api

import (
	"context"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/mycelian/calendar-sync/client/internal/types"
)

type authResult types.AuthResponse

func (r *authResult) accepted() bool { return r.Ok }

// Login exchanges credentials for a session token.
func Login(ctx context.Context, rc *resty.Client, req types.LoginRequest) (*types.AuthResponse, error) {
	var out authResult
	if err := send(ctx, rc.R().SetBody(req), http.MethodPost, "/auth", "login", &out); err != nil {
		return nil, err
	}
	res := types.AuthResponse(out)
	return &res, nil
}

// Register creates an account and returns its first session token.
func Register(ctx context.Context, rc *resty.Client, req types.RegisterRequest) (*types.AuthResponse, error) {
	var out authResult
	if err := send(ctx, rc.R().SetBody(req), http.MethodPost, "/auth/new", "register", &out); err != nil {
		return nil, err
	}
	res := types.AuthResponse(out)
	return &res, nil
}

// Renew trades the token carried by the transport for a fresh one.
func Renew(ctx context.Context, rc *resty.Client) (*types.AuthResponse, error) {
	var out authResult
	if err := send(ctx, rc.R(), http.MethodGet, "/auth/renew", "renew", &out); err != nil {
		return nil, err
	}
	res := types.AuthResponse(out)
	return &res, nil
}
