package threading

type TaskFunction[R any] func(Thread) (R, error)

type AnyTask interface {
	Dependency
	Start()
	DependsOn(deps ...Dependency) error
	IsSkipped() bool
	IsDone() bool
	Status() error
}

// A Task is the execution of a TaskFunction on its own Thread. The
// execution is started once the task is started and all its
// dependencies, given by Triggers or other Tasks, have fired.
// Additionally, a task provides a result provided by the TaskFunction,
// which consists of an object of the given type parameter and an error.
// If dependencies are again tasks, the tasks must have succeeded without
// error to finally start the current task. If a dependent task fails,
// the current task is skipped, which can be checked with the method
// AnyTask.IsSkipped(). The status is then the error of the failed
// dependency.
type Task[R any] interface {
	AnyTask
	Wait() (R, error)
}

type task[R any] struct {
	lock    Mutex
	name    string
	trigger Trigger
	done    Trigger
	deps    []AnyTask
	thread  Thread
	skipped bool
	result  R
	err     error
}

func NewTask[R any](f TaskFunction[R], names ...string) Task[R] {
	name := ElementName("task", names...)
	t := &task[R]{
		lock:    NewMutex(name),
		name:    name,
		trigger: NewTrigger(name, "start"),
		done:    NewArmedTrigger(nil),
	}
	t.trigger.RegisterAction(func(Trigger) { t.start(f) })
	return t
}

func (t *task[R]) Start() {
	t.trigger.Arm()
	t.trigger.Trigger()
}

func (t *task[R]) IsSkipped() bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.skipped
}

func (t *task[R]) IsDone() bool {
	return t.done.IsTriggered()
}

func (t *task[R]) Status() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.err
}

// Wait waits for the task to be finished or skipped and returns its
// result. The first Wait joins the thread the task has been run on.
func (t *task[R]) Wait() (R, error) {
	t.done.Wait()

	t.lock.Lock()
	thread := t.thread
	t.thread = nil
	r, err := t.result, t.err
	t.lock.Unlock()

	if thread != nil {
		thread.Join()
	}
	return r, err
}

func (t *task[R]) start(f TaskFunction[R]) {
	t.lock.Lock()
	var err error
	for _, d := range t.deps {
		if err = d.Status(); err != nil {
			break
		}
	}
	if err != nil {
		t.err = err
		t.skipped = true
		t.lock.Unlock()
		t.done.Trigger()
		return
	}
	t.thread = NewThread(t.run, f, t.name)
	t.lock.Unlock()
}

func (t *task[R]) run(thread Thread, arg interface{}) {
	r, err := arg.(TaskFunction[R])(thread)

	t.lock.Lock()
	t.err = err
	t.result = r
	t.lock.Unlock()
	t.done.Trigger()
}

func (t *task[R]) RegisterAction(a TriggerAction) {
	t.done.RegisterAction(a)
}

func (t *task[R]) DependsOn(deps ...Dependency) error {
	if err := t.trigger.DependOn(deps...); err != nil {
		return err
	}

	t.lock.Lock()
	defer t.lock.Unlock()
	for _, d := range deps {
		if a, ok := d.(AnyTask); ok {
			t.deps = append(t.deps, a)
		}
	}
	return nil
}
