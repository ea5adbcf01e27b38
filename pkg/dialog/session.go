package dialog

import (
	"gopkg.in/errgo.v1"

	"github.com/martinhanzik/allegro5/pkg/logging"
	"github.com/martinhanzik/allegro5/pkg/threading"
)

// requestQueueSize is the number of requests buffered for the
// toolkit thread.
const requestQueueSize = 16

type request func()

// dialog is the state shared by all kinds of dialogs. It is guarded
// by the lock of the session showing the dialog.
type dialog struct {
	active bool
}

// Session owns a Toolkit. The toolkit is initialized and its thread
// is started with the first dialog shown. When the last shown dialog
// is closed the thread is joined and the toolkit is shut down again.
type Session struct {
	toolkit Toolkit

	lock    threading.Mutex
	cond    threading.Cond
	counter int

	requests threading.Channel[request]
	thread   threading.Thread
	// stopping is the toolkit thread being shut down
	stopping threading.Thread
}

func NewSession(tk Toolkit) *Session {
	return &Session{
		toolkit: tk,
		lock:    threading.NewMutex("dialog"),
		cond:    threading.NewCond("dialog"),
	}
}

// Active returns the number of dialogs currently shown.
func (s *Session) Active() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.counter
}

// start registers a dialog and starts the toolkit if it is the first one.
func (s *Session) start(d *dialog) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	// a new toolkit must not be started before the old one is down
	for s.stopping != nil {
		s.cond.Wait(s.lock)
	}
	s.counter++
	if s.counter == 1 {
		if err := s.toolkit.Init(); err != nil {
			s.counter--
			logging.Logf("dialog: toolkit init failed: %s", err)
			return errgo.WithCausef(err, ErrToolkitInit, "cannot start toolkit")
		}
		s.requests = threading.NewChannel[request](requestQueueSize, "dialog", "requests")
		s.thread = threading.NewThread(loop, s.requests, "dialog", "toolkit")
		logging.Logf("dialog: toolkit started")
	}
	d.active = true
	return nil
}

// wait blocks until the dialog is inactive again and unregisters it.
// The last dialog stops the toolkit.
func (s *Session) wait(d *dialog) {
	s.lock.Lock()
	for d.active {
		s.cond.Wait(s.lock)
	}

	s.counter--
	if s.counter != 0 {
		s.lock.Unlock()
		return
	}
	requests, thread := s.requests, s.thread
	s.requests = nil
	s.thread = nil
	s.stopping = thread
	s.lock.Unlock()

	requests.Close()
	thread.Join()
	s.toolkit.Shutdown()
	logging.Logf("dialog: toolkit stopped")

	s.lock.Lock()
	s.stopping = nil
	s.cond.Broadcast()
	s.lock.Unlock()
}

func (s *Session) setInactive(d *dialog) {
	s.lock.Lock()
	defer s.lock.Unlock()

	d.active = false
	s.cond.Broadcast()
}

// submit hands a request to the toolkit thread. It may only be called
// while a dialog of the session is active.
func (s *Session) submit(r request) error {
	s.lock.Lock()
	requests := s.requests
	s.lock.Unlock()

	if requests == nil {
		return ErrClosed
	}
	return requests.Send(r)
}

// show runs a blocking dialog on the toolkit thread and waits until it
// is finished.
func (s *Session) show(d *dialog, run func()) error {
	if err := s.start(d); err != nil {
		return err
	}
	err := s.submit(func() {
		defer s.setInactive(d)
		run()
	})
	if err != nil {
		s.setInactive(d)
	}
	s.wait(d)
	return err
}

func loop(t threading.Thread, arg interface{}) {
	requests := arg.(threading.Channel[request])
	for !t.ShouldStop() {
		r, err := requests.Receive()
		if err != nil {
			return
		}
		r()
	}
}

// ShowFileChooser shows the file chooser and blocks until it is closed.
// It reports whether paths have been selected.
func (s *Session) ShowFileChooser(fc *FileChooser) (bool, error) {
	var err error
	serr := s.show(&fc.dialog, func() {
		logging.Debugf("dialog: file chooser %q", fc.Title)
		fc.paths, err = s.toolkit.FileChooser(fc)
	})
	if serr != nil {
		return false, serr
	}
	if err != nil {
		return false, errgo.Notef(err, "file chooser %q", fc.Title)
	}
	return len(fc.paths) > 0, nil
}

// ShowMessageBox shows the message box and blocks until it is closed.
// It returns the pressed button, 0 if the box was just closed.
func (s *Session) ShowMessageBox(mb *MessageBox) (int, error) {
	var result int
	var err error
	serr := s.show(&mb.dialog, func() {
		logging.Debugf("dialog: message box %q", mb.Title)
		result, err = s.toolkit.MessageBox(mb)
	})
	if serr != nil {
		return ResultClosed, serr
	}
	if err != nil {
		return ResultClosed, errgo.Notef(err, "message box %q", mb.Title)
	}
	return result, nil
}
