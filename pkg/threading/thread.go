package threading

import (
	"sync/atomic"

	"gopkg.in/tomb.v2"
)

// ThreadProc is the procedure run by a Thread. It gets the Thread
// itself, to be able to observe stop requests, and the argument passed
// on creation.
type ThreadProc func(t Thread, arg interface{})

// Thread runs a ThreadProc on its own goroutine.
// Stopping is cooperative: Join requests the stop and waits for the
// procedure to return, the procedure has to poll ShouldStop (or
// select on Dying) to return early.
type Thread = *thread

type thread struct {
	name string
	lock Mutex

	shouldStop bool
	joined     atomic.Bool

	tomb tomb.Tomb
}

// NewThread creates and starts a thread executing proc(thread, arg).
func NewThread(proc ThreadProc, arg interface{}, names ...string) Thread {
	name := ElementName("thread", names...)
	if proc == nil {
		violation(name, "no procedure")
	}
	t := &thread{
		name: name,
		lock: NewMutex(name),
	}
	t.tomb.Go(func() error {
		proc(t, arg)
		return nil
	})
	return t
}

func (t *thread) Name() string {
	return t.name
}

// ShouldStop reports whether a stop has been requested by Join.
func (t *thread) ShouldStop() bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.shouldStop
}

// Dying is closed when a stop has been requested or the procedure
// has returned.
func (t *thread) Dying() <-chan struct{} {
	return t.tomb.Dying()
}

// Done is closed when the procedure has returned.
func (t *thread) Done() <-chan struct{} {
	return t.tomb.Dead()
}

func (t *thread) IsDone() bool {
	select {
	case <-t.tomb.Dead():
		return true
	default:
		return false
	}
}

// Join requests the thread to stop, waits for its procedure to return
// and releases the thread. A thread can be joined only once.
func (t *thread) Join() {
	if t.joined.Swap(true) {
		violation(t.name, "thread joined twice")
	}
	t.lock.Lock()
	t.shouldStop = true
	t.lock.Unlock()

	t.tomb.Kill(nil)
	t.tomb.Wait()
	t.lock.Destroy()
}
