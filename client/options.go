package client

// Functional options that configure the Client during construction.

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/mycelian/calendar-sync/client/internal/shardqueue"
)

// Option configures a Client during construction in New.
//
// Options are applied before the x-token transport is installed, so
// transport-related options (like debug logging) end up underneath it.
type Option func(*Client) error

// WithHTTPTimeout sets the underlying http.Client Timeout used by the SDK.
//
// Prefer per-request context deadlines where possible; this timeout is a
// coarse safety net for a single HTTP request. The value must be greater
// than zero.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("http timeout must be > 0")
		}
		c.http.Timeout = d
		return nil
	}
}

// WithDebugLogging wraps the client's transport so each request/response is
// logged when enabled is true. Dumps include the x-token header; do not
// enable in production.
func WithDebugLogging(enabled bool) Option {
	return func(c *Client) error {
		if enabled {
			if _, already := c.http.Transport.(*debugTransport); already {
				return nil
			}
			c.http.Transport = &debugTransport{base: transportOrDefault(c.http.Transport), log: c.log}
		}
		return nil
	}
}

// WithHTTPClient replaces the underlying *http.Client. Its transport becomes
// the innermost layer of the chain.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return errors.New("http client cannot be nil")
		}
		c.http = hc
		return nil
	}
}

// WithLogger sends the SDK's own log lines to l instead of the global
// zerolog logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) error {
		c.log = l
		return nil
	}
}

// WithTokenSource sets where the x-token header value comes from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) error {
		c.tokens = ts
		return nil
	}
}

// WithExecutorConfig overrides the SQ_* environment configuration of the
// mutation executor.
func WithExecutorConfig(cfg shardqueue.Config) Option {
	return func(c *Client) error {
		c.execCfg = &cfg
		return nil
	}
}

func transportOrDefault(rt http.RoundTripper) http.RoundTripper {
	if rt == nil {
		return http.DefaultTransport
	}
	return rt
}
