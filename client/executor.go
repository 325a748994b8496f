package client

import (
	"context"

	"github.com/mycelian/calendar-sync/client/internal/shardqueue"
)

// executor abstracts the sharded job runner behind Mutate.
type executor interface {
	Do(context.Context, string, shardqueue.Job) error
	Flush(context.Context) error
	Stop()
}
