package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/eshen7/frc-marketplace/internal/config"
)

type scriptedSender struct {
	mu       sync.Mutex
	failures int // fail this many sends before succeeding
	attempts int
	sent     []*Job
	done     chan struct{}
}

func newScriptedSender(failures int) *scriptedSender {
	return &scriptedSender{failures: failures, done: make(chan struct{}, 16)}
}

func (s *scriptedSender) Send(ctx context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	if s.attempts <= s.failures {
		s.done <- struct{}{}
		return errors.New("send failed")
	}
	s.sent = append(s.sent, job)
	s.done <- struct{}{}
	return nil
}

func (s *scriptedSender) Close() error { return nil }

func (s *scriptedSender) stats() (attempts, delivered int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts, len(s.sent)
}

func queueConfig() config.NotifyConfig {
	return config.NotifyConfig{
		QueueSize:    8,
		Workers:      1,
		MaxAttempts:  3,
		RetryBackoff: time.Millisecond,
	}
}

func waitAttempts(t *testing.T, sender *scriptedSender, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-sender.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for attempt %d of %d", i+1, n)
		}
	}
}

func TestQueue_DeliversJob(t *testing.T) {
	req := require.New(t)
	sender := newScriptedSender(0)
	q := NewQueue(queueConfig(), sender)
	q.Start(context.Background())
	defer q.Close()

	q.Enqueue(KindChatEmail, &ChatEmailPayload{ToEmail: "team200@example.com", MessageID: "x1"})
	waitAttempts(t, sender, 1)

	attempts, delivered := sender.stats()
	req.Equal(1, attempts)
	req.Equal(1, delivered)
}

func TestQueue_RetriesThenSucceeds(t *testing.T) {
	req := require.New(t)
	sender := newScriptedSender(2)
	q := NewQueue(queueConfig(), sender)
	q.Start(context.Background())
	defer q.Close()

	q.Enqueue(KindChatEmail, &ChatEmailPayload{MessageID: "x1"})
	waitAttempts(t, sender, 3)

	attempts, delivered := sender.stats()
	req.Equal(3, attempts)
	req.Equal(1, delivered)
}

func TestQueue_DropsAfterExhaustingRetries(t *testing.T) {
	req := require.New(t)
	sender := newScriptedSender(10)
	q := NewQueue(queueConfig(), sender)
	q.Start(context.Background())
	defer q.Close()

	q.Enqueue(KindChatEmail, &ChatEmailPayload{MessageID: "x1"})
	waitAttempts(t, sender, 3)

	// Give the worker a beat to prove it stops at max attempts.
	time.Sleep(50 * time.Millisecond)
	attempts, delivered := sender.stats()
	req.Equal(3, attempts)
	req.Equal(0, delivered)
}

func TestQueue_EnqueueNeverBlocksWhenFull(t *testing.T) {
	req := require.New(t)
	sender := newScriptedSender(0)
	cfg := queueConfig()
	cfg.QueueSize = 2
	q := NewQueue(cfg, sender)
	// Workers intentionally not started: the queue fills up.

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			q.Enqueue(KindChatEmail, &ChatEmailPayload{MessageID: "x"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("Enqueue blocked on a full queue")
	}
}

func TestQueue_EnqueueSwallowsMarshalFailure(t *testing.T) {
	sender := newScriptedSender(0)
	q := NewQueue(queueConfig(), sender)

	// Channels cannot marshal; the job is logged and dropped, never an error.
	q.Enqueue(KindChatEmail, make(chan int))
}
