// Package shardqueue provides a lightweight sharded work-queue that guarantees
// FIFO order *per key* while allowing parallelism across shards.
//
// The calendar controllers key event mutations by event id, so two saves or
// deletes of the same event never overlap on the wire.
package shardqueue

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	clienterrors "github.com/mycelian/calendar-sync/client/internal/errors"
)

type queuedJob struct {
	ctx     context.Context
	key     string
	job     Job
	result  chan<- error  // optional, buffered(1)
	started chan struct{} // optional, closed when a worker takes the job
}

// ShardExecutor executes Jobs on worker goroutines partitioned by a stable hash
// of the key. FIFO ordering is preserved within a shard; jobs with different
// keys may run in parallel.
type ShardExecutor struct {
	cfg    Config
	log    zerolog.Logger
	queues []chan queuedJob // len == cfg.Shards

	done   chan struct{} // closed in Stop()
	closed uint32        // 0 → running, 1 → closed

	wg sync.WaitGroup
}

// NewShardExecutor constructs the executor and starts its shard workers.
func NewShardExecutor(cfg Config) *ShardExecutor {
	if cfg.Shards <= 0 {
		cfg.Shards = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.EnqueueTimeout <= 0 {
		cfg.EnqueueTimeout = 100 * time.Millisecond
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 100 * time.Millisecond
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 5 * time.Second
	}

	p := &ShardExecutor{
		cfg:    cfg,
		log:    log.Logger,
		queues: make([]chan queuedJob, cfg.Shards),
		done:   make(chan struct{}),
	}
	if cfg.Logger != nil {
		p.log = *cfg.Logger
	}
	for i := 0; i < cfg.Shards; i++ {
		ch := make(chan queuedJob, cfg.QueueSize)
		p.queues[i] = ch
		p.wg.Add(1)
		go p.runWorker(i, ch)
	}
	return p
}

// Do enqueues job and blocks until it has run (including retries), returning
// the job's final error. A panic inside the job is reported as *PanicError.
//
// Cancelling ctx abandons the job only while it is still queued. Once a
// worker has taken it, Do waits for its outcome: the job may already have
// committed, and it observes ctx itself.
func (p *ShardExecutor) Do(ctx context.Context, key string, job Job) error {
	result := make(chan error, 1)
	started := make(chan struct{})
	qj := queuedJob{ctx: ctx, key: key, job: job, result: result, started: started}
	if err := p.enqueue(p.shardFor(key), qj); err != nil {
		return err
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
	}
	select {
	case <-started:
		return <-result
	default:
		// The worker checks ctx before running, so the job will be skipped.
		return ctx.Err()
	}
}

// Flush waits until every job enqueued before the call has finished, on
// all shards.
func (p *ShardExecutor) Flush(ctx context.Context) error {
	noop := JobFunc(func(context.Context) error { return nil })
	results := make([]chan error, 0, len(p.queues))
	for shard := range p.queues {
		res := make(chan error, 1)
		if err := p.enqueue(shard, queuedJob{ctx: ctx, job: noop, result: res}); err != nil {
			return err
		}
		results = append(results, res)
	}
	for _, res := range results {
		select {
		case err := <-res:
			if err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Stop signals every worker to finish draining its current queue, waits for
// them to terminate, and then returns. It is idempotent and safe for
// concurrent use.
func (p *ShardExecutor) Stop() {
	if !atomic.CompareAndSwapUint32(&p.closed, 0, 1) {
		return
	}
	p.log.Debug().Int("shards", p.cfg.Shards).Msg("shardqueue: stopping executor")
	close(p.done)
	p.wg.Wait()
	p.log.Debug().Msg("shardqueue: executor stopped, all queues drained")
}

// Close lets ShardExecutor satisfy io.Closer.
func (p *ShardExecutor) Close() error {
	p.Stop()
	return nil
}

// ------------------------- internals -------------------------

func (p *ShardExecutor) enqueue(shard int, qj queuedJob) error {
	// Stop() may have set the flag without closing p.done yet.
	if atomic.LoadUint32(&p.closed) == 1 {
		return ErrExecutorClosed
	}
	select {
	case <-p.done:
		return ErrExecutorClosed
	default:
	}

	ch := p.queues[shard]

	timer := time.NewTimer(p.cfg.EnqueueTimeout)
	defer timer.Stop()

	select {
	case ch <- qj:
		submissionsTotal.WithLabelValues(labelFor(shard)).Inc()
		return nil

	case <-p.done:
		return ErrExecutorClosed

	case <-qj.ctx.Done():
		return qj.ctx.Err()

	case <-timer.C:
		queueFullTotal.WithLabelValues(labelFor(shard)).Inc()
		return &QueueFullError{
			Shard:    shard,
			Length:   len(ch),
			Capacity: cap(ch),
		}
	}
}

func (p *ShardExecutor) runWorker(idx int, ch <-chan queuedJob) {
	defer p.wg.Done()

	label := labelFor(idx)

	for {
		select {
		case qj := <-ch:
			markStarted(qj)
			if qj.job == nil {
				reply(qj, ErrNilJob)
				continue
			}
			// A cancelled job must not stall the shard.
			if err := qj.ctx.Err(); err != nil {
				p.safeHandleError(err)
				reply(qj, err)
			} else if stopped := p.runWithRetry(qj, label); stopped {
				p.drain(idx, ch, label)
				return
			}
			queueDepth.WithLabelValues(label).Set(float64(len(ch)))

		case <-p.done:
			p.drain(idx, ch, label)
			return
		}
	}
}

// drain runs what is left in ch once, after Stop.
func (p *ShardExecutor) drain(idx int, ch <-chan queuedJob, label string) {
	drained := 0
	for {
		select {
		case qj := <-ch:
			markStarted(qj)
			switch {
			case qj.job == nil:
				reply(qj, ErrNilJob)
			case qj.ctx.Err() != nil:
				reply(qj, qj.ctx.Err())
			default:
				reply(qj, p.runOnce(qj, label))
				drained++
			}
		default:
			if drained > 0 {
				p.log.Debug().Int("worker", idx).Int("drained", drained).Msg("shardqueue: drained remaining jobs")
			}
			queueDepth.WithLabelValues(label).Set(0)
			return
		}
	}
}

// runWithRetry runs qj until it succeeds, fails irrecoverably or exhausts
// MaxAttempts. It reports true when the executor stopped mid-backoff.
func (p *ShardExecutor) runWithRetry(qj queuedJob, label string) bool {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.cfg.BaseBackoff
	exp.Multiplier = 2
	exp.MaxInterval = p.cfg.MaxInterval
	exp.Reset()

	for attempt := 1; ; attempt++ {
		err := p.runOnce(qj, label)
		if err == nil {
			reply(qj, nil)
			return false
		}
		if clienterrors.IsIrrecoverable(err) || attempt >= p.cfg.MaxAttempts {
			p.safeHandleError(err)
			reply(qj, err)
			return false
		}

		select {
		case <-time.After(exp.NextBackOff()):
		case <-p.done:
			reply(qj, ErrExecutorClosed)
			return true
		case <-qj.ctx.Done():
			p.safeHandleError(qj.ctx.Err())
			reply(qj, qj.ctx.Err())
			return false
		}
	}
}

// runOnce shields the worker from panicking jobs.
func (p *ShardExecutor) runOnce(qj queuedJob, label string) (err error) {
	start := time.Now()
	defer func() {
		runDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
		if r := recover(); r != nil {
			p.log.Error().Str("key", qj.key).Interface("panic", r).Msg("shardqueue: job panic")
			err = &PanicError{Key: qj.key, Value: r}
		}
	}()
	return qj.job.Run(qj.ctx)
}

func markStarted(qj queuedJob) {
	if qj.started != nil {
		close(qj.started)
	}
}

func reply(qj queuedJob, err error) {
	if qj.result != nil {
		qj.result <- err
	}
}

func (p *ShardExecutor) safeHandleError(err error) {
	if err == nil || p.cfg.ErrorHandler == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Interface("panic", r).Msg("shardqueue: error handler panic")
		}
	}()
	p.cfg.ErrorHandler(err)
}

func (p *ShardExecutor) shardFor(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(p.cfg.Shards))
}
