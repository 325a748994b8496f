// Package storage persists the session token across process restarts.
//
// Three drivers are available: an in-process map, an AES-GCM encrypted
// file and a SQLite key/value table. All are safe for concurrent use.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Durable keys written by the session controller.
const (
	KeyToken         = "token"
	KeyTokenInitDate = "token-init-date"
)

var (
	// ErrClosed is returned by every method after Close.
	ErrClosed = errors.New("storage: closed")
	// ErrDecrypt means the file driver could not open its blob, usually
	// because of a wrong passphrase.
	ErrDecrypt = errors.New("storage: cannot decrypt session file")
)

// Storage is a string key/value store.
type Storage interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Remove deletes keys; missing keys are ignored.
	Remove(ctx context.Context, keys ...string) error
	Close() error
}

// Driver names accepted by Open.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Options selects and configures a driver.
type Options struct {
	Driver     string
	Path       string
	Passphrase string
}

// Open returns the driver named by opts.Driver.
func Open(opts Options) (Storage, error) {
	switch opts.Driver {
	case DriverMemory, "":
		return NewMemory(), nil
	case DriverFile:
		return OpenFile(opts.Path, opts.Passphrase)
	case DriverSQLite:
		return OpenSQLite(opts.Path)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", opts.Driver)
	}
}

// SaveToken stores token together with its issue time in unix millis.
func SaveToken(ctx context.Context, s Storage, token string, at time.Time) error {
	if err := s.Set(ctx, KeyToken, token); err != nil {
		return err
	}
	if err := s.Set(ctx, KeyTokenInitDate, strconv.FormatInt(at.UnixMilli(), 10)); err != nil {
		// never leave a token without its timestamp
		_ = s.Remove(ctx, KeyToken)
		return err
	}
	return nil
}

// ClearToken removes both token keys.
func ClearToken(ctx context.Context, s Storage) error {
	return s.Remove(ctx, KeyToken, KeyTokenInitDate)
}

// TokenInitDate returns when the stored token was saved.
func TokenInitDate(ctx context.Context, s Storage) (time.Time, bool, error) {
	raw, ok, err := s.Get(ctx, KeyTokenInitDate)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("storage: bad %s %q: %w", KeyTokenInitDate, raw, err)
	}
	return time.UnixMilli(ms), true, nil
}

// Tokens reads the stored token for the HTTP client.
type Tokens struct{ S Storage }

// TokenSource adapts s to the client's token source interface.
func TokenSource(s Storage) Tokens { return Tokens{S: s} }

// Token returns the stored token or "".
func (t Tokens) Token(ctx context.Context) (string, error) {
	tok, _, err := t.S.Get(ctx, KeyToken)
	return tok, err
}
