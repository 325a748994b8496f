package shardqueue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// A job whose context is cancelled while queued is skipped and the handler sees ctx.Err.
func TestWorker_SkipsRunForCanceledJob(t *testing.T) {
	var handlerCalls int32
	cfg := Config{Shards: 1, QueueSize: 2}
	cfg.ErrorHandler = func(error) { atomic.AddInt32(&handlerCalls, 1) }

	ex := NewShardExecutor(cfg)
	defer ex.Stop()

	blockCtx, unblock := context.WithCancel(context.Background())
	started := make(chan struct{})
	if err := submit(ex, context.Background(), "k", JobFunc(func(context.Context) error {
		close(started)
		<-blockCtx.Done()
		return nil
	})); err != nil {
		t.Fatalf("submit blocking job: %v", err)
	}
	<-started

	var ran int32
	jobCtx, cancelJob := context.WithCancel(context.Background())
	if err := submit(ex, jobCtx, "k", JobFunc(func(context.Context) error {
		atomic.StoreInt32(&ran, 1)
		return nil
	})); err != nil {
		t.Fatalf("submit second job: %v", err)
	}
	cancelJob()
	unblock()

	if err := ex.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if atomic.LoadInt32(&ran) == 1 {
		t.Fatal("job Run should not have been called for canceled context")
	}
	if atomic.LoadInt32(&handlerCalls) == 0 {
		t.Fatal("expected error handler to be invoked for canceled job")
	}
}

func TestEnqueue_ContextCanceledWhileWaiting(t *testing.T) {
	ex := NewShardExecutor(Config{Shards: 1, QueueSize: 1})
	defer ex.Stop()

	blockCtx, cancelBlock := context.WithCancel(context.Background())
	defer cancelBlock()
	started := make(chan struct{})
	_ = submit(ex, context.Background(), "k", JobFunc(func(context.Context) error {
		close(started)
		<-blockCtx.Done()
		return nil
	}))
	<-started
	_ = submit(ex, context.Background(), "k", noopJob{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := submit(ex, ctx, "k", noopJob{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// A caller that gives up after its job started still gets the job's outcome.
func TestDo_CancelAfterStartWaitsForOutcome(t *testing.T) {
	ex := NewShardExecutor(Config{Shards: 1, QueueSize: 2})
	defer ex.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	var committed int32
	err := ex.Do(ctx, "evt-1", JobFunc(func(context.Context) error {
		cancel()
		time.Sleep(5 * time.Millisecond)
		atomic.StoreInt32(&committed, 1)
		return nil
	}))
	if err != nil {
		t.Fatalf("expected the job's nil outcome, got %v", err)
	}
	if atomic.LoadInt32(&committed) != 1 {
		t.Fatal("Do returned before the job finished")
	}
}

// A caller that gives up while its job is queued gets ctx.Err and the job never runs.
func TestDo_CancelWhileQueuedSkipsJob(t *testing.T) {
	ex := NewShardExecutor(Config{Shards: 1, QueueSize: 2})
	defer ex.Stop()

	release := make(chan struct{})
	started := make(chan struct{})
	if err := submit(ex, context.Background(), "k", JobFunc(func(context.Context) error {
		close(started)
		<-release
		return nil
	})); err != nil {
		t.Fatalf("submit blocking job: %v", err)
	}
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	var ran int32
	done := make(chan error, 1)
	go func() {
		done <- ex.Do(ctx, "k", JobFunc(func(context.Context) error {
			atomic.StoreInt32(&ran, 1)
			return nil
		}))
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Do did not return after cancel")
	}

	close(release)
	if err := ex.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if atomic.LoadInt32(&ran) == 1 {
		t.Fatal("abandoned job ran")
	}
}
