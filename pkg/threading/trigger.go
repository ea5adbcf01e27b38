package threading

import (
	"time"

	"gopkg.in/errgo.v1"
)

var ErrArmed = errgo.New("trigger already armed")

type TriggerAction func(Trigger)

type Dependency interface {
	RegisterAction(TriggerAction)
}

// Trigger is an object which can be used to synchronize
// goroutines. Goroutines can wait for a Trigger to reach
// the triggered state, meaning:
// - the trigger is armed
// - all dependencies have been fired
// - the Trigger.Trigger() method is called
// Registered actions are executed once, when the triggered state
// is reached, and a Trigger may itself be a dependency of other
// Triggers.
type Trigger interface {
	Dependency

	DependOn(...Dependency) error
	Arm()
	Trigger()

	IsTriggered() bool

	Wait()
	TimedWait(deadline time.Time) bool
}

// NewTrigger creates a generic unarmed Trigger.
func NewTrigger(names ...string) Trigger {
	name := ElementName("trigger", names...)
	return &trigger{
		lock: NewMutex(name),
		cond: NewCond(name),
	}
}

// NewArmedTrigger creates an already armed Trigger configured with
// a set of dependencies and a TriggerAction.
func NewArmedTrigger(a TriggerAction, deps ...Dependency) Trigger {
	t := NewTrigger()
	t.DependOn(deps...)
	t.RegisterAction(a)
	t.Arm()
	return t
}

// NewDependencyTrigger creates an armed Trigger, which triggers
// when all dependencies have been fired.
func NewDependencyTrigger(a TriggerAction, deps ...Dependency) Trigger {
	t := NewArmedTrigger(a, deps...)
	t.Trigger()
	return t
}

type trigger struct {
	lock Mutex
	cond Cond

	actions []TriggerAction

	armed        bool
	triggered    bool
	fired        bool
	dependencies int
}

func (t *trigger) Arm() {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.armed = true
	t.fire()
}

func (t *trigger) Trigger() {
	t.lock.Lock()
	defer t.lock.Unlock()

	if !t.triggered {
		t.triggered = true
		t.fire()
	}
}

func (t *trigger) fire() {
	if t.fired || !t.isTriggered() {
		return
	}
	t.fired = true
	actions := t.actions
	t.actions = nil
	for _, a := range actions {
		a(t)
	}
	t.cond.Broadcast()
}

func (t *trigger) RegisterAction(a TriggerAction) {
	if a == nil {
		return
	}
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.fired {
		a(t)
	} else {
		t.actions = append(t.actions, a)
	}
}

func (t *trigger) depTriggered(Trigger) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.dependencies--
	t.fire()
}

func (t *trigger) DependOn(deps ...Dependency) error {
	t.lock.Lock()
	if t.armed {
		t.lock.Unlock()
		return ErrArmed
	}
	t.dependencies += len(deps)
	t.lock.Unlock()

	// dependencies may fire synchronously
	for _, d := range deps {
		d.RegisterAction(t.depTriggered)
	}
	return nil
}

func (t *trigger) IsTriggered() bool {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.fired
}

func (t *trigger) isTriggered() bool {
	return t.triggered && t.armed && t.dependencies == 0
}

// Wait waits for the trigger to reach the triggered state, meaning
// - it must be armed
// - it must be triggered
// - all dependencies must have fired.
func (t *trigger) Wait() {
	t.lock.Lock()
	defer t.lock.Unlock()

	for !t.fired {
		t.cond.Wait(t.lock)
	}
}

// TimedWait is like Wait, but gives up at the deadline. It returns true,
// if the trigger did not reach the triggered state in time.
func (t *trigger) TimedWait(deadline time.Time) bool {
	t.lock.Lock()
	defer t.lock.Unlock()

	for !t.fired {
		if t.cond.TimedWait(t.lock, deadline) && !t.fired {
			return true
		}
	}
	return false
}
