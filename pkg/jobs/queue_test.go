package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type completions struct {
	mu   sync.Mutex
	errs []error
	done chan struct{}
	want int
}

func newCompletions(want int) *completions {
	return &completions{done: make(chan struct{}), want: want}
}

func (c *completions) hook(job Job, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, err)
	if len(c.errs) == c.want {
		close(c.done)
	}
}

func (c *completions) wait(t *testing.T) {
	t.Helper()
	select {
	case <-c.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for jobs")
	}
}

func TestQueueDispatchesByType(t *testing.T) {
	seen := newCompletions(1)
	q := NewQueue("test", QueueConfig{Workers: 2, OnComplete: seen.hook})
	var payload interface{}
	q.Register("apply-defaults", func(ctx context.Context, job Job) error {
		payload = job.Payload
		return nil
	})
	q.Start(context.Background())
	defer q.Stop()

	job := NewJob("apply-defaults", "ITEM-1")
	require.NotEmpty(t, job.ID)
	require.NoError(t, q.Enqueue(job))
	seen.wait(t)
	assert.Equal(t, "ITEM-1", payload)
	assert.NoError(t, seen.errs[0])
}

func TestQueueRetriesFailures(t *testing.T) {
	seen := newCompletions(3)
	q := NewQueue("test", QueueConfig{MaxRetries: 2, RetryDelay: time.Millisecond, OnComplete: seen.hook})
	attempts := 0
	q.Register("flaky", func(ctx context.Context, job Job) error {
		attempts++
		if job.Attempt < 2 {
			return errors.New("not yet")
		}
		return nil
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(NewJob("flaky", nil)))
	seen.wait(t)
	assert.Equal(t, 3, attempts)
	assert.Error(t, seen.errs[0])
	assert.NoError(t, seen.errs[2])
}

func TestQueueRecoversPanics(t *testing.T) {
	seen := newCompletions(1)
	q := NewQueue("test", QueueConfig{OnComplete: seen.hook})
	q.Register("boom", func(ctx context.Context, job Job) error { panic("bad") })
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(NewJob("boom", nil)))
	seen.wait(t)
	assert.ErrorContains(t, seen.errs[0], "panicked")
}

func TestQueueEnqueueErrors(t *testing.T) {
	q := NewQueue("test", QueueConfig{})
	q.Register("known", func(ctx context.Context, job Job) error { return nil })

	assert.ErrorIs(t, q.Enqueue(NewJob("unknown", nil)), ErrUnknownType)
	assert.Error(t, q.Enqueue(NewJob("known", nil)), "not started")

	q.Start(context.Background())
	q.Stop()
	assert.Error(t, q.Enqueue(NewJob("known", nil)))
}
