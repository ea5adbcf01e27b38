package threading

import (
	"time"

	"gopkg.in/errgo.v1"
)

var (
	ErrClosed  = errgo.New("already closed")
	ErrTimeout = errgo.New("timeout")
)

// Channel supports communication among goroutines
// by sending and receiving messages.
// It has a defined capacity to buffer sent messages.
// Once this capacity is exceeded any further Channel.Send
// operation is blocked until a message is received by
// a Channel.Receive operation.
// Closing a channel wakes up all blocked senders and receivers.
// Buffered messages can still be received after closing.
type Channel[T any] interface {
	Send(T) error
	TrySend(T) (bool, error)
	Receive() (T, error)
	ReceiveTimed(deadline time.Time) (T, error)
	Len() int
	Close() error
}

type channel[T any] struct {
	lock     Mutex
	send     Cond
	receive  Cond
	capacity int
	size     int
	first    int
	buffer   []T

	closed bool
}

func NewChannel[T any](capacity int, names ...string) Channel[T] {
	if capacity < 1 {
		capacity = 1
	}
	name := ElementName("channel", names...)
	return &channel[T]{
		lock:     NewMutex(name),
		send:     NewCond(name, "send"),
		receive:  NewCond(name, "receive"),
		capacity: capacity,
		buffer:   make([]T, capacity),
	}
}

func (c *channel[T]) Send(t T) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	for c.size >= c.capacity && !c.closed {
		c.send.Wait(c.lock)
	}
	if c.closed {
		return ErrClosed
	}
	c.put(t)
	return nil
}

func (c *channel[T]) put(t T) {
	c.buffer[(c.first+c.size)%c.capacity] = t
	c.size++
	c.receive.Signal()
}

// TrySend sends a message if there is room in the buffer.
// It never blocks.
func (c *channel[T]) TrySend(t T) (bool, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.closed {
		return false, ErrClosed
	}
	if c.size >= c.capacity {
		return false, nil
	}
	c.put(t)
	return true, nil
}

func (c *channel[T]) Receive() (T, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	for c.size == 0 {
		if c.closed {
			var zero T
			return zero, ErrClosed
		}
		c.receive.Wait(c.lock)
	}
	return c.take(), nil
}

func (c *channel[T]) ReceiveTimed(deadline time.Time) (T, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	for c.size == 0 {
		var zero T
		if c.closed {
			return zero, ErrClosed
		}
		if c.receive.TimedWait(c.lock, deadline) && c.size == 0 {
			if c.closed {
				return zero, ErrClosed
			}
			return zero, ErrTimeout
		}
	}
	return c.take(), nil
}

func (c *channel[T]) take() T {
	var zero T

	t := c.buffer[c.first]
	c.buffer[c.first] = zero
	c.size--
	c.first = (c.first + 1) % c.capacity
	c.send.Signal()
	return t
}

func (c *channel[T]) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.size
}

func (c *channel[T]) Close() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.closed {
		return ErrClosed
	}
	c.closed = true
	c.send.Broadcast()
	c.receive.Broadcast()
	return nil
}
