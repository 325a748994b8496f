// Package client is the SDK for the calendar REST backend. It owns the
// HTTP transport chain (x-token injection, optional debug dumps), maps
// failures to classified errors and serializes event mutations per id.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mycelian/calendar-sync/client/internal/api"
	"github.com/mycelian/calendar-sync/client/internal/shardqueue"
)

// --------------------------------------------------------------------
// Client core
// --------------------------------------------------------------------

type Client struct {
	baseURL string
	http    *http.Client
	rest    *resty.Client
	exec    executor
	tokens  TokenSource
	log     zerolog.Logger

	execCfg *shardqueue.Config

	closedOnce uint32 // ensures Close is idempotent
}

// New constructs a Client for the API rooted at baseURL
// (for example http://localhost:4000/api).
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("baseURL cannot be empty")
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid baseURL %q", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log.Logger,
	}

	// Auto-enable debug via env variable without changing code.
	if debugLoggingRequested() {
		opts = append(opts, WithDebugLogging(true))
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if dt, ok := c.http.Transport.(*debugTransport); ok {
		dt.log = c.log
	}
	if c.exec == nil {
		c.exec = newDefaultExecutor(c.execCfg, c.log)
	}

	c.wrapTransportWithToken()

	c.rest = resty.NewWithClient(c.http).
		SetBaseURL(c.baseURL).
		SetHeader("Content-Type", "application/json").
		SetLogger(restyLogger{log: c.log})

	return c, nil
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// wrapTransportWithToken installs the x-token transport on top of whatever
// the options configured.
func (c *Client) wrapTransportWithToken() {
	baseTransport := c.http.Transport
	if baseTransport == nil {
		baseTransport = http.DefaultTransport
	}
	c.http.Transport = &tokenTransport{
		base:   baseTransport,
		tokens: c.tokens,
		log:    c.log,
	}
}

// Close stops the mutation executor. Safe to call multiple times.
func (c *Client) Close() error {
	if !atomic.CompareAndSwapUint32(&c.closedOnce, 0, 1) {
		return nil
	}
	if c.exec != nil {
		c.exec.Stop()
	}
	return nil
}

// newDefaultExecutor builds the shardqueue executor from SQ_* variables
// unless WithExecutorConfig supplied a config. The executor logs to l when
// the config names no logger.
func newDefaultExecutor(cfg *shardqueue.Config, l zerolog.Logger) *shardqueue.ShardExecutor {
	var use shardqueue.Config
	if cfg != nil {
		use = *cfg
	} else {
		loaded, err := shardqueue.LoadConfig()
		if err != nil {
			loaded = shardqueue.Config{Shards: 4, QueueSize: 64, MaxAttempts: 1}
		}
		use = loaded
	}
	if use.Logger == nil {
		use.Logger = &l
	}
	return shardqueue.NewShardExecutor(use)
}

// --------------------------------------------------------------------
// Auth operations - delegated to internal/api
// --------------------------------------------------------------------

// Login exchanges credentials for a token (POST /auth).
func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	return api.Login(ctx, c.rest, req)
}

// Register creates an account (POST /auth/new).
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	return api.Register(ctx, c.rest, req)
}

// Renew refreshes the stored token (GET /auth/renew).
func (c *Client) Renew(ctx context.Context) (*AuthResponse, error) {
	return api.Renew(ctx, c.rest)
}

// --------------------------------------------------------------------
// Event operations - delegated to internal/api
// --------------------------------------------------------------------

// ListEvents returns every event (GET /events).
func (c *Client) ListEvents(ctx context.Context) ([]EventPayload, error) {
	return api.ListEvents(ctx, c.rest)
}

// CreateEvent stores a draft and returns it with its server id.
func (c *Client) CreateEvent(ctx context.Context, ev EventPayload) (*EventPayload, error) {
	return api.CreateEvent(ctx, c.rest, ev)
}

// UpdateEvent replaces the event identified by ev.ID.
func (c *Client) UpdateEvent(ctx context.Context, ev EventPayload) (*EventPayload, error) {
	if ev.ID == "" {
		return nil, errors.New("update event: empty id")
	}
	return api.UpdateEvent(ctx, c.rest, ev)
}

// DeleteEvent removes the event with the given id.
func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("delete event: empty id")
	}
	return api.DeleteEvent(ctx, c.rest, id)
}

// --------------------------------------------------------------------
// Mutation serialization
// --------------------------------------------------------------------

// Mutate runs fn on the executor shard owning key and waits for it. Calls
// sharing a key run one at a time in submission order.
func (c *Client) Mutate(ctx context.Context, key string, fn func(context.Context) error) error {
	if atomic.LoadUint32(&c.closedOnce) == 1 {
		return ErrClosed
	}
	err := c.exec.Do(ctx, key, shardqueue.JobFunc(fn))
	switch {
	case err == nil:
		mutationsTotal.WithLabelValues("ok").Inc()
		return nil
	case errors.Is(err, shardqueue.ErrQueueFull):
		mutationsTotal.WithLabelValues("back_pressure").Inc()
		return fmt.Errorf("%w: %v", ErrBackPressure, err)
	case errors.Is(err, shardqueue.ErrExecutorClosed):
		return ErrClosed
	default:
		mutationsTotal.WithLabelValues("error").Inc()
		return err
	}
}

// Flush waits until every mutation submitted before the call has finished.
// After Close there is nothing left to wait for.
func (c *Client) Flush(ctx context.Context) error {
	if atomic.LoadUint32(&c.closedOnce) == 1 {
		return nil
	}
	err := c.exec.Flush(ctx)
	if errors.Is(err, shardqueue.ErrExecutorClosed) {
		return nil
	}
	return err
}
