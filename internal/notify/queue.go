package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/eshen7/frc-marketplace/internal/config"
	"github.com/eshen7/frc-marketplace/pkg/log"
)

// Queue is a bounded in-process work queue consumed by retry-capable
// workers. It decouples the synchronous delivery path from the side
// channel: exhausted retries log and drop, they never re-enter the
// submission path.
type Queue struct {
	jobs        chan *Job
	sender      Sender
	workers     int
	maxAttempts int
	backoff     time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

func NewQueue(cfg config.NotifyConfig, sender Sender) *Queue {
	size := cfg.QueueSize
	if size <= 0 {
		size = 1024
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = time.Second
	}
	return &Queue{
		jobs:        make(chan *Job, size),
		sender:      sender,
		workers:     workers,
		maxAttempts: attempts,
		backoff:     backoff,
	}
}

// Start launches the worker pool.
func (q *Queue) Start(ctx context.Context) {
	ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
}

// Enqueue queues a notification job. Non-blocking: if the queue is full
// the job is dropped and logged. Marshal failures are likewise logged and
// swallowed so the caller's delivery path cannot be affected.
func (q *Queue) Enqueue(kind string, payload interface{}) {
	l := log.L()

	data, err := json.Marshal(payload)
	if err != nil {
		l.Error().Err(err).Str(log.FieldEventKind, kind).Msg("failed to marshal notification payload")
		return
	}

	select {
	case q.jobs <- &Job{Kind: kind, Payload: data}:
	default:
		l.Warn().Str(log.FieldEventKind, kind).Msg("notification queue full, dropping job")
	}
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-q.jobs:
			if !ok {
				return
			}
			q.process(ctx, job)
		}
	}
}

// process attempts delivery with quadratic backoff between attempts
// (1x, 4x, 9x the base). Exhausting all attempts drops the job.
func (q *Queue) process(ctx context.Context, job *Job) {
	l := log.L()

	var lastErr error
	for attempt := 1; attempt <= q.maxAttempts; attempt++ {
		if attempt > 1 {
			delay := time.Duration(attempt-1) * time.Duration(attempt-1) * q.backoff
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
		}

		if lastErr = q.sender.Send(ctx, job); lastErr == nil {
			return
		}
		l.Warn().Err(lastErr).
			Str(log.FieldEventKind, job.Kind).
			Int("attempt", attempt).
			Msg("notification send failed")
	}

	l.Error().Err(lastErr).
		Str(log.FieldEventKind, job.Kind).
		Int("attempts", q.maxAttempts).
		Msg("notification dropped after exhausting retries")
}

// Close stops the workers and the sender. Jobs still queued are discarded.
func (q *Queue) Close() error {
	q.once.Do(func() {
		if q.cancel != nil {
			q.cancel()
		}
		q.wg.Wait()
	})
	return q.sender.Close()
}
