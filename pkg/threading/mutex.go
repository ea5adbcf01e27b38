package threading

import (
	"sync"
	"sync/atomic"
)

// Mutex is an exclusive lock. It is created initialized by NewMutex
// or NewRecursiveMutex and may be used until Destroy is called.
// Using a destroyed Mutex is a contract violation and panics.
//
// A non-recursive Mutex is not bound to a goroutine: it may be
// unlocked by another goroutine than the one which locked it.
// A recursive Mutex may be locked again by its owner and must be
// unlocked by the owner the same number of times.
type Mutex = *mutex

var _ sync.Locker = (Mutex)(nil)

type mutex struct {
	lock sync.Mutex
	name string

	initialized atomic.Bool
	recursive   bool

	owner atomic.Int64
	count int
}

func NewMutex(names ...string) Mutex {
	return newMutex(false, names...)
}

func NewRecursiveMutex(names ...string) Mutex {
	return newMutex(true, names...)
}

func newMutex(recursive bool, names ...string) Mutex {
	m := &mutex{
		name:      ElementName("mutex", names...),
		recursive: recursive,
	}
	m.initialized.Store(true)
	return m
}

func (m *mutex) Name() string {
	return m.name
}

func (m *mutex) IsRecursive() bool {
	return m.recursive
}

func (m *mutex) Lock() {
	m.check("lock")
	if !m.recursive {
		m.lock.Lock()
		return
	}
	id := goroutineID()
	if m.owner.Load() == id {
		m.count++
		return
	}
	m.lock.Lock()
	m.owner.Store(id)
	m.count = 1
}

func (m *mutex) Unlock() {
	m.check("unlock")
	if !m.recursive {
		m.lock.Unlock()
		return
	}
	if m.owner.Load() != goroutineID() {
		violation(m.name, "unlock of recursive mutex by non-owner")
	}
	m.count--
	if m.count == 0 {
		m.owner.Store(0)
		m.lock.Unlock()
	}
}

// Destroy releases the mutex. It must not be held.
func (m *mutex) Destroy() {
	if !m.initialized.Load() {
		violation(m.name, "destroying uninitialized mutex")
	}
	if !m.lock.TryLock() {
		violation(m.name, "destroying held mutex")
	}
	m.initialized.Store(false)
	m.lock.Unlock()
}

func (m *mutex) check(op string) {
	if !m.initialized.Load() {
		violation(m.name, "%s on uninitialized mutex", op)
	}
}
