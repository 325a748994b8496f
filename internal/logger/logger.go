// Package logger configures zerolog for the calendar binaries.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	zpkgerrors "github.com/rs/zerolog/pkgerrors"
)

// Formats accepted by New.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// New returns a logger writing to w at the given level. Console output has
// no colour and a second-resolution timestamp. Call sites should use
// .Stack() on error events to include stacks.
func New(w io.Writer, service, level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.Nop(), fmt.Errorf("unknown log level %q", level)
	}
	installStackMarshalers()

	var out io.Writer
	switch strings.ToLower(format) {
	case "", FormatConsole:
		out = zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: "2006-01-02 15:04:05"}
	case FormatJSON:
		out = w
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q", format)
	}

	ctx := zerolog.New(out).Level(lvl).With().Timestamp()
	if service != "" {
		ctx = ctx.Str("service", service)
	}
	return ctx.Logger(), nil
}

// Init builds a stderr logger and installs it as log.Logger.
func Init(service, level, format string) (zerolog.Logger, error) {
	l, err := New(os.Stderr, service, level, format)
	if err != nil {
		return l, err
	}
	log.Logger = l
	return l, nil
}

// installStackMarshalers makes .Stack() work for both pkg/errors values and
// plain errors.
func installStackMarshalers() {
	type stackTracer interface{ StackTrace() pkgerrors.StackTrace }
	zerolog.ErrorStackMarshaler = func(err error) interface{} {
		if _, ok := err.(stackTracer); !ok {
			err = pkgerrors.WithStack(err)
		}
		return zpkgerrors.MarshalStack(err)
	}
}
