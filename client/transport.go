package client

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"
)

// TokenHeader carries the session token on every request.
const TokenHeader = "x-token"

// TokenSource yields the current session token. An empty token means
// "send no header".
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

// Token implements TokenSource.
func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

// Token implements TokenSource.
func (s StaticToken) Token(context.Context) (string, error) { return string(s), nil }

// tokenTransport wraps an http.RoundTripper and adds the x-token header
// when a token is available.
type tokenTransport struct {
	base   http.RoundTripper
	tokens TokenSource
	log    zerolog.Logger
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.tokens == nil {
		return t.base.RoundTrip(req)
	}
	tok, err := t.tokens.Token(req.Context())
	if err != nil {
		t.log.Warn().Err(err).Msg("token source failed, sending request without x-token")
		return t.base.RoundTrip(req)
	}
	if tok == "" {
		return t.base.RoundTrip(req)
	}
	// Clone so the caller's request is left untouched
	cloned := req.Clone(req.Context())
	cloned.Header.Set(TokenHeader, tok)
	return t.base.RoundTrip(cloned)
}
