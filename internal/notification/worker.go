package notification

import (
	"context"
	"errors"
	"log"
	"sync"
)

// ErrPoolStopped is returned by Submit once the pool has been stopped.
var ErrPoolStopped = errors.New("notification worker pool stopped")

// Job asks for one message to be delivered to a set of users.
type Job struct {
	UserIDs []int64
	Message string
}

// Notifier fans a message out to several users.
type Notifier interface {
	NotifyMany(ctx context.Context, userIDs []int64, message string) error
}

// WorkerPool runs notification jobs in the background on a fixed number of
// workers. Stopping the pool cancels the context of jobs in flight and drops
// whatever is still queued.
type WorkerPool struct {
	size     int
	jobs     chan Job
	notifier Notifier

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	start  sync.Once
}

// NewWorkerPool creates a new worker pool. queueSize bounds how many jobs may
// wait for a worker before Submit blocks.
func NewWorkerPool(size, queueSize int, notifier Notifier) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		size:     size,
		jobs:     make(chan Job, queueSize),
		notifier: notifier,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the worker goroutines. Cancelling ctx stops the pool just
// like Stop does, without waiting for the workers. Start is a no-op after the
// first call.
func (wp *WorkerPool) Start(ctx context.Context) {
	wp.start.Do(func() {
		context.AfterFunc(ctx, wp.cancel)
		wp.wg.Add(wp.size)
		for i := 0; i < wp.size; i++ {
			go wp.worker(i)
		}
	})
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()
	for {
		if wp.ctx.Err() != nil {
			return
		}
		select {
		case job := <-wp.jobs:
			wp.run(id, job)
		case <-wp.ctx.Done():
			return
		}
	}
}

func (wp *WorkerPool) run(id int, job Job) {
	if err := wp.notifier.NotifyMany(wp.ctx, job.UserIDs, job.Message); err != nil {
		log.Printf("Worker %d: notification job for %d users failed: %v", id, len(job.UserIDs), err)
	}
}

// Submit queues a job. It blocks while the queue is full, until ctx is done
// or the pool stops.
func (wp *WorkerPool) Submit(ctx context.Context, job Job) error {
	if wp.ctx.Err() != nil {
		return ErrPoolStopped
	}
	select {
	case wp.jobs <- job:
		return nil
	case <-wp.ctx.Done():
		return ErrPoolStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop cancels running jobs, waits for the workers to exit and discards any
// jobs still queued.
func (wp *WorkerPool) Stop() {
	wp.cancel()
	wp.wg.Wait()

	dropped := 0
	for {
		select {
		case <-wp.jobs:
			dropped++
		default:
			if dropped > 0 {
				log.Printf("Notification worker pool stopped; dropped %d queued jobs", dropped)
			}
			return
		}
	}
}
