package refresh

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job asks for one cache group to be rebuilt.
type Job struct {
	Kind string
}

// Refresher runs jobs on a fixed pool of workers. A kind already queued or
// running is not queued twice, and jobs are dropped when the queue is full.
type Refresher struct {
	ch      chan Job
	inFly   sync.Map // kind -> struct{}
	wg      sync.WaitGroup
	timeout time.Duration
	Do      func(ctx context.Context, j Job) error
	log     *slog.Logger
}

func New(capacity, workerCount int, timeout time.Duration, log *slog.Logger, do func(ctx context.Context, j Job) error) *Refresher {
	if capacity <= 0 {
		capacity = 256
	}
	if workerCount <= 0 {
		workerCount = 2
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	r := &Refresher{ch: make(chan Job, capacity), timeout: timeout, Do: do, log: log}
	for i := 0; i < workerCount; i++ {
		r.wg.Add(1)
		go r.worker()
	}
	return r
}

// Enqueue reports whether the job was accepted. A duplicate of a pending
// job counts as accepted.
func (r *Refresher) Enqueue(j Job) bool {
	if _, exists := r.inFly.LoadOrStore(j.Kind, struct{}{}); exists {
		return true
	}
	select {
	case r.ch <- j:
		return true
	default:
		r.inFly.Delete(j.Kind)
		r.log.Warn("refresh queue full, dropping job", "kind", j.Kind)
		return false
	}
}

// Close stops accepting jobs and waits for the workers to drain the queue.
func (r *Refresher) Close() {
	close(r.ch)
	r.wg.Wait()
}

func (r *Refresher) worker() {
	defer r.wg.Done()
	for j := range r.ch {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		func() {
			defer func() {
				r.inFly.Delete(j.Kind)
				cancel()
			}()
			if r.Do == nil {
				return
			}
			start := time.Now()
			if err := r.Do(ctx, j); err != nil {
				r.log.Error("refresh failed", "kind", j.Kind, "err", err)
				return
			}
			r.log.Info("refresh done", "kind", j.Kind, "took", time.Since(start))
		}()
	}
}
