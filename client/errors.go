package client

import (
	"errors"

	clienterrors "github.com/mycelian/calendar-sync/client/internal/errors"
)

// ErrBackPressure is returned when the client's internal shard queue is full.
var ErrBackPressure = errors.New("back-pressure (queue full)")

// ErrClosed is returned by Mutate after Close.
var ErrClosed = errors.New("client closed")

// IsBackPressure reports whether err is a back-pressure error.
func IsBackPressure(err error) bool { return errors.Is(err, ErrBackPressure) }

// ClassifiedError is the error type every endpoint failure unwraps to.
type ClassifiedError = clienterrors.ClassifiedError

// ServerMessage returns the backend's "msg" for a failed call, or "".
func ServerMessage(err error) string { return clienterrors.ServerMessage(err) }

// IsNetwork reports a transport-level failure (no HTTP response).
func IsNetwork(err error) bool { return clienterrors.IsKind(err, clienterrors.KindNetwork) }

// IsAuth reports a 401/403 answer.
func IsAuth(err error) bool { return clienterrors.IsKind(err, clienterrors.KindAuth) }

// IsNotFound reports a 404 answer.
func IsNotFound(err error) bool { return clienterrors.IsKind(err, clienterrors.KindNotFound) }

// IsRecoverable reports whether retrying err may succeed.
func IsRecoverable(err error) bool {
	_, ok := clienterrors.As(err)
	return ok && !clienterrors.IsIrrecoverable(err)
}
