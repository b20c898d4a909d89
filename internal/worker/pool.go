// Package worker provides a bounded goroutine pool used to dispatch
// per-query resolution work without letting one burst of client traffic
// spawn an unbounded number of goroutines.
package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
)

var (
	// ErrPoolClosed indicates the pool has been shut down.
	ErrPoolClosed = errors.New("worker pool closed")

	// ErrQueueFull indicates the job queue is full.
	ErrQueueFull = errors.New("job queue is full")
)

// Job represents a unit of work to be executed.
type Job interface {
	Execute(ctx context.Context) error
}

// JobFunc is a function that implements Job.
type JobFunc func(ctx context.Context) error

func (f JobFunc) Execute(ctx context.Context) error {
	return f(ctx)
}

// Config holds worker pool configuration.
type Config struct {
	// Number of workers (default: runtime.NumCPU() * 4)
	Workers int

	// Job queue size (default: Workers * 100)
	QueueSize int

	// PanicHandler is called, if set, when a job panics. The worker
	// goroutine is not lost — it keeps serving the queue.
	PanicHandler func(interface{})
}

// jobWrapper pairs a job with the context its caller submitted it under,
// so a worker executes it with the caller's cancellation and deadline
// rather than the pool's own lifetime context.
type jobWrapper struct {
	job Job
	ctx context.Context
}

// Pool is a bounded worker pool that prevents goroutine exhaustion.
type Pool struct {
	workers int
	queue   chan *jobWrapper
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	closed  atomic.Bool

	panicHandler func(interface{})
}

// NewPool creates a worker pool and starts its workers.
func NewPool(cfg Config) *Pool {
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU() * 4
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = cfg.Workers * 100
	}

	ctx, cancel := context.WithCancel(context.Background())

	p := &Pool{
		workers:      cfg.Workers,
		queue:        make(chan *jobWrapper, cfg.QueueSize),
		ctx:          ctx,
		cancel:       cancel,
		panicHandler: cfg.PanicHandler,
	}

	p.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go p.worker()
	}

	return p
}

// worker is the main worker goroutine.
func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return

		case wrapper, ok := <-p.queue:
			if !ok {
				return
			}
			p.executeJob(wrapper)
		}
	}
}

// executeJob runs a job with panic recovery, so a single bad job can't
// take its worker goroutine down with it.
func (p *Pool) executeJob(wrapper *jobWrapper) {
	defer func() {
		if r := recover(); r != nil && p.panicHandler != nil {
			p.panicHandler(r)
		}
	}()

	wrapper.job.Execute(wrapper.ctx)
}

// SubmitAsync queues job for execution without waiting for it to
// complete. If the queue is full the job is dropped and ErrQueueFull is
// returned, leaving the caller free to count or log the drop.
func (p *Pool) SubmitAsync(ctx context.Context, job Job) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}

	select {
	case p.queue <- &jobWrapper{job: job, ctx: ctx}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting new jobs and waits for in-flight jobs to finish.
func (p *Pool) Close() error {
	if p.closed.Swap(true) {
		return ErrPoolClosed
	}

	close(p.queue)
	p.wg.Wait()
	p.cancel()

	return nil
}
