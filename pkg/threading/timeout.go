package threading

import (
	"context"
	"time"
)

// Deadline returns the absolute point in time d from now.
func Deadline(d time.Duration) time.Time {
	return time.Now().Add(d)
}

// Remaining returns the time left until the deadline. It is never
// negative: a deadline in the past yields zero.
func Remaining(deadline time.Time) time.Duration {
	if r := time.Until(deadline); r > 0 {
		return r
	}
	return 0
}

// Expired reports whether the deadline has passed.
func Expired(deadline time.Time) bool {
	return Remaining(deadline) == 0
}

func deadlineContext(deadline time.Time) (context.Context, context.CancelFunc) {
	return context.WithDeadline(context.Background(), deadline)
}
