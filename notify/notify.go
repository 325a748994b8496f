// Package notify is the side channel controllers use to tell the user
// about finished mutations. It never touches store state.
package notify

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Level is the severity shown to the user.
type Level string

const (
	Success Level = "success"
	Error   Level = "error"
	Info    Level = "info"
)

// Notification is one user-facing message.
type Notification struct {
	Level Level
	Title string
	Text  string
}

// Port receives notifications. Implementations must not block for long.
type Port interface {
	Notify(ctx context.Context, n Notification)
}

// Func adapts a function to Port.
type Func func(ctx context.Context, n Notification)

// Notify implements Port.
func (f Func) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Discard drops everything.
var Discard Port = Func(func(context.Context, Notification) {})

// LogPort writes notifications to a zerolog logger.
type LogPort struct {
	Logger zerolog.Logger
}

// Notify implements Port.
func (p LogPort) Notify(_ context.Context, n Notification) {
	ev := p.Logger.Info()
	if n.Level == Error {
		ev = p.Logger.Warn()
	}
	ev.Str("level_ui", string(n.Level)).Str("title", n.Title).Str("text", n.Text).Msg("notification")
}

// Recorder keeps notifications in memory.
type Recorder struct {
	mu   sync.Mutex
	seen []Notification
}

// Notify implements Port.
func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	r.seen = append(r.seen, n)
	r.mu.Unlock()
}

// All returns a copy of everything recorded so far.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.seen...)
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.seen) == 0 {
		return Notification{}, false
	}
	return r.seen[len(r.seen)-1], true
}

// Reset forgets everything.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.seen = nil
	r.mu.Unlock()
}
