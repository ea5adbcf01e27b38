package threading

import (
	"context"
	"math"

	"golang.org/x/sync/semaphore"
)

// semaphoreMax is the maximum number of units a Semaphore can hold.
const semaphoreMax = math.MaxInt32

// Semaphore is a counting semaphore starting with no units.
//
// It is built on a weighted semaphore of size semaphoreMax, which is
// drained on creation. Posting gives back weight, waiting acquires it.
type Semaphore = *sema

type sema struct {
	name     string
	weighted *semaphore.Weighted
}

func NewSemaphore(names ...string) Semaphore {
	s := &sema{
		name:     ElementName("semaphore", names...),
		weighted: semaphore.NewWeighted(semaphoreMax),
	}
	if !s.weighted.TryAcquire(semaphoreMax) {
		violation(s.name, "cannot drain fresh semaphore")
	}
	return s
}

func (s *sema) Name() string {
	return s.name
}

// Post adds n units to the semaphore.
func (s *sema) Post(n int) {
	if n < 0 {
		violation(s.name, "negative post count %d", n)
	}
	if n > 0 {
		s.weighted.Release(int64(n))
	}
}

// Wait blocks until a unit is available and consumes it.
func (s *sema) Wait() {
	if err := s.weighted.Acquire(context.Background(), 1); err != nil {
		violation(s.name, "wait failed: %s", err)
	}
}

// WaitContext blocks until a unit is available or the context is done.
// On failure the context error is returned and no unit is consumed.
func (s *sema) WaitContext(ctx context.Context) error {
	return s.weighted.Acquire(ctx, 1)
}

// TryWait consumes a unit, if one is available without blocking.
func (s *sema) TryWait() bool {
	return s.weighted.TryAcquire(1)
}
