package threading

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"gopkg.in/errgo.v1"

	"github.com/martinhanzik/allegro5/pkg/logging"
)

// maxWaitersGone is the number of gone waiters a waiter reconciles
// on its own, if no signal does it before.
const maxWaitersGone = math.MaxInt32 / 2

// Cond is a condition variable built from a counting semaphore, two
// locks and three counters (the gate algorithm 8a/9 of Terekhov and
// Thomas, without the spurious wakeup prevention).
//
// Waiters register under blockLock and block on the release queue.
// A signal closes the gate by taking blockLock and keeps it closed until
// the last waiter of the released batch has consumed its release. Timed
// out waiters are not removed from the blocked count directly, they are
// counted as gone and folded in by the next signal that closes the gate.
//
// As with sync.Cond, Wait is called with the external lock held and
// returns with it held again. Waiters must check their condition in a
// loop: a spurious wakeup is possible, and a timed wait may report a
// wakeup even though its deadline passed if a signal raced with the
// expiry.
type Cond = *cond

// CondStats is a snapshot of the bookkeeping counters of a Cond.
type CondStats struct {
	// Blocked is the number of waiters registered and not yet released.
	Blocked int
	// Gone is the number of timed out waiters not yet reconciled.
	Gone int
	// ToUnblock is the number of released waiters which have not yet
	// consumed their release.
	ToUnblock int
}

type cond struct {
	name string

	// blockLock is held while the gate is closed. It may be released
	// by a different goroutine than the one which acquired it.
	blockLock sync.Mutex
	// unblockLock serializes the counter updates.
	unblockLock sync.Mutex

	releaseQueue Semaphore

	// waitersBlocked is written under blockLock, but a signal compares
	// it holding only unblockLock. The stale value there is tolerated by
	// the algorithm, so it is atomic instead of guarded.
	waitersBlocked   atomic.Int64
	waitersGone      int64
	waitersToUnblock int64

	threshold int64
	destroyed atomic.Bool
}

func NewCond(names ...string) Cond {
	name := ElementName("condition", names...)
	return &cond{
		name:         name,
		releaseQueue: NewSemaphore(name),
		threshold:    maxWaitersGone,
	}
}

func (c *cond) Name() string {
	return c.name
}

// Wait unlocks m, blocks until the condition is signaled and locks m
// again before returning.
func (c *cond) Wait(m sync.Locker) {
	c.check("wait")
	err := c.wait(m, func() error {
		return c.releaseQueue.WaitContext(context.Background())
	})
	if err != nil {
		panic(errgo.Notef(err, "%s: wait failed", c.name))
	}
}

// TimedWait is like Wait, but gives up at the given absolute deadline.
// It returns true, if the deadline passed before the waiter was
// released. A deadline which already passed results in an immediate,
// fully accounted attempt to consume a pending release.
func (c *cond) TimedWait(m sync.Locker, deadline time.Time) bool {
	c.check("timed wait")

	var block func() error
	if Expired(deadline) {
		block = func() error {
			if c.releaseQueue.TryWait() {
				return nil
			}
			return context.DeadlineExceeded
		}
	} else {
		block = func() error {
			ctx, cancel := deadlineContext(deadline)
			defer cancel()
			return c.releaseQueue.WaitContext(ctx)
		}
	}

	err := c.wait(m, block)
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.DeadlineExceeded):
		return true
	default:
		panic(errgo.Notef(err, "%s: timed wait failed", c.name))
	}
}

// WaitContext is like Wait, but gives up when the context is done.
// A canceled waiter is accounted like a timed out one. The context
// error is returned in this case.
func (c *cond) WaitContext(ctx context.Context, m sync.Locker) error {
	c.check("wait")
	return c.wait(m, func() error {
		return c.releaseQueue.WaitContext(ctx)
	})
}

func (c *cond) wait(m sync.Locker, block func() error) error {
	c.blockLock.Lock()
	c.waitersBlocked.Add(1)
	c.blockLock.Unlock()

	m.Unlock()
	err := block()

	c.unblockLock.Lock()
	signalsWasLeft := c.waitersToUnblock
	if signalsWasLeft != 0 {
		c.waitersToUnblock--
	} else {
		// timed out, canceled or spurious release
		c.waitersGone++
		if c.waitersGone >= c.threshold {
			c.blockLock.Lock()
			c.waitersBlocked.Add(-c.waitersGone)
			c.blockLock.Unlock()
			logging.Debugf("%s: reconciled %d gone waiters", c.name, c.waitersGone)
			c.waitersGone = 0
		}
	}
	c.unblockLock.Unlock()

	if signalsWasLeft == 1 {
		// last one of the batch: open the gate
		c.blockLock.Unlock()
	}

	m.Lock()
	return err
}

// Signal wakes one waiter, if there is any.
func (c *cond) Signal() {
	c.signal(false)
}

// Broadcast wakes all waiters blocked at the time of the call.
func (c *cond) Broadcast() {
	c.signal(true)
}

func (c *cond) signal(all bool) {
	c.check("signal")

	var signalsToIssue int64

	c.unblockLock.Lock()
	switch {
	case c.waitersToUnblock != 0:
		// the gate is closed
		if c.waitersBlocked.Load() == 0 {
			c.unblockLock.Unlock()
			return
		}
		if all {
			signalsToIssue = c.waitersBlocked.Swap(0)
			c.waitersToUnblock += signalsToIssue
		} else {
			signalsToIssue = 1
			c.waitersToUnblock++
			c.waitersBlocked.Add(-1)
		}
	case c.waitersBlocked.Load() > c.waitersGone:
		// close the gate
		c.blockLock.Lock()
		if c.waitersGone != 0 {
			c.waitersBlocked.Add(-c.waitersGone)
			c.waitersGone = 0
		}
		if all {
			signalsToIssue = c.waitersBlocked.Swap(0)
			c.waitersToUnblock = signalsToIssue
		} else {
			signalsToIssue = 1
			c.waitersToUnblock = 1
			c.waitersBlocked.Add(-1)
		}
	default:
		c.unblockLock.Unlock()
		return
	}
	c.unblockLock.Unlock()

	c.releaseQueue.Post(int(signalsToIssue))
}

// Snapshot returns the counters as they are. Timed out waiters stay
// counted as blocked and gone until a signal reconciles them.
func (c *cond) Snapshot() CondStats {
	c.unblockLock.Lock()
	defer c.unblockLock.Unlock()
	return c.stats()
}

// Reconcile folds the gone waiters into the blocked count, the same way
// a signal closing the gate does it, and returns the counters
// afterwards. It modifies the counters only if the gate is open.
func (c *cond) Reconcile() CondStats {
	c.unblockLock.Lock()
	defer c.unblockLock.Unlock()

	if c.waitersToUnblock != 0 {
		// gate closed, waiters cannot register
		return c.stats()
	}

	c.blockLock.Lock()
	defer c.blockLock.Unlock()
	if c.waitersGone != 0 {
		c.waitersBlocked.Add(-c.waitersGone)
		logging.Debugf("%s: reconciled %d gone waiters", c.name, c.waitersGone)
		c.waitersGone = 0
	}
	return c.stats()
}

func (c *cond) stats() CondStats {
	return CondStats{
		Blocked:   int(c.waitersBlocked.Load()),
		Gone:      int(c.waitersGone),
		ToUnblock: int(c.waitersToUnblock),
	}
}

// Destroy releases the condition. No goroutine may wait on it anymore.
func (c *cond) Destroy() {
	if c.destroyed.Load() {
		violation(c.name, "destroying destroyed condition")
	}
	s := c.Reconcile()
	if s.Blocked != 0 || s.ToUnblock != 0 {
		violation(c.name, "destroying condition with %d blocked and %d released waiters", s.Blocked, s.ToUnblock)
	}
	c.destroyed.Store(true)
}

func (c *cond) check(op string) {
	if c.destroyed.Load() {
		violation(c.name, "%s on destroyed condition", op)
	}
}
