package workflow

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Queue admits one relay call at a time
type Queue struct {
	sem *semaphore.Weighted
}

func NewQueue() *Queue {
	return &Queue{sem: semaphore.NewWeighted(1)}
}

// Do waits for the slot, runs fn and releases the slot. It returns ctx.Err()
// without running fn if ctx is done first.
func (q *Queue) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := q.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer q.sem.Release(1)
	return fn(ctx)
}
