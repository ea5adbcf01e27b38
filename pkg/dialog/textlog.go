package dialog

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/errgo.v1"

	"github.com/martinhanzik/allegro5/pkg/logging"
	"github.com/martinhanzik/allegro5/pkg/threading"
)

type TextLogFlags int

const (
	// TextLogNoClose prevents the user from closing the window.
	TextLogNoClose TextLogFlags = 1 << iota
	TextLogMonospace
)

// flushDelay is the time appended text is collected before it is
// passed to the window.
const flushDelay = 100 * time.Millisecond

const eventQueueSize = 8

// CloseEvent is emitted if the user asks to close a text log window.
// KeyPress is true, if the request was made with the escape key.
type CloseEvent struct {
	TextLog   *TextLog
	Timestamp time.Time
	KeyPress  bool
}

// TextLog is a window showing appended text. The window stays open
// until Close is called; close requests of the user are only reported
// as CloseEvent.
type TextLog struct {
	dialog

	Title string
	Flags TextLogFlags

	session *Session
	thread  threading.Thread
	events  threading.Channel[CloseEvent]

	// guards the fields below
	lock threading.Mutex
	cond threading.Cond

	done        bool
	closing     bool
	closed      bool
	err         error
	window      TextLogWindow
	pending     strings.Builder
	havePending bool
}

// OpenTextLog opens a text log window. It returns after the window
// has been created by the toolkit.
func (s *Session) OpenTextLog(title string, flags TextLogFlags) (*TextLog, error) {
	tl := &TextLog{
		Title:   title,
		Flags:   flags,
		session: s,
		events:  threading.NewChannel[CloseEvent](eventQueueSize, "textlog", title),
		lock:    threading.NewMutex("textlog", title),
		cond:    threading.NewCond("textlog", title),
	}

	tl.lock.Lock()
	tl.thread = threading.NewThread(tl.run, nil, "textlog", title)
	for !tl.done {
		tl.cond.Wait(tl.lock)
	}
	err := tl.err
	tl.lock.Unlock()

	if err != nil {
		tl.thread.Join()
		tl.events.Close()
		return nil, err
	}
	return tl, nil
}

func (tl *TextLog) Is(flag TextLogFlags) bool {
	return tl.Flags&flag != 0
}

// Events returns the channel close requests are reported on. It is
// closed after the window has been closed.
func (tl *TextLog) Events() threading.Channel[CloseEvent] {
	return tl.events
}

func (tl *TextLog) run(threading.Thread, interface{}) {
	err := tl.session.start(&tl.dialog)
	if err != nil {
		tl.ready(nil, err)
		return
	}

	err = tl.session.submit(func() {
		w, err := tl.session.toolkit.TextLog(tl)
		if err != nil {
			err = errgo.NoteMask(err, fmt.Sprintf("text log %q", tl.Title), errgo.Any)
			tl.session.setInactive(&tl.dialog)
		}
		tl.ready(w, err)
	})
	if err != nil {
		tl.session.setInactive(&tl.dialog)
		tl.ready(nil, err)
	}

	// keep running until the text log is closed
	tl.session.wait(&tl.dialog)

	tl.lock.Lock()
	tl.closed = true
	tl.cond.Broadcast()
	tl.lock.Unlock()
	logging.Debugf("dialog: text log %q closed", tl.Title)
}

func (tl *TextLog) ready(w TextLogWindow, err error) {
	tl.lock.Lock()
	defer tl.lock.Unlock()

	tl.window = w
	tl.err = err
	tl.done = true
	tl.cond.Broadcast()
}

// Append adds text to the window. The text is passed to the window
// delayed, so that subsequent appends are shown together.
func (tl *TextLog) Append(text string) error {
	tl.lock.Lock()
	defer tl.lock.Unlock()

	if tl.closing || tl.closed {
		return ErrClosed
	}
	tl.pending.WriteString(text)
	if !tl.havePending {
		tl.havePending = true
		time.AfterFunc(flushDelay, func() {
			if err := tl.session.submit(tl.flush); err != nil {
				tl.flush()
			}
		})
	}
	return nil
}

func (tl *TextLog) Appendf(format string, args ...interface{}) error {
	return tl.Append(fmt.Sprintf(format, args...))
}

// Write makes a TextLog an io.Writer.
func (tl *TextLog) Write(p []byte) (int, error) {
	if err := tl.Append(string(p)); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (tl *TextLog) flush() {
	tl.lock.Lock()
	defer tl.lock.Unlock()

	if tl.window != nil && !tl.closed {
		tl.window.Append(tl.pending.String())
	}
	tl.pending.Reset()
	tl.havePending = false
	tl.cond.Broadcast()
}

// RequestClose is used by toolkits to report a close request of the
// user. It is ignored for text logs with TextLogNoClose.
func (tl *TextLog) RequestClose(keypress bool) {
	if tl.Is(TextLogNoClose) {
		return
	}
	tl.events.TrySend(CloseEvent{
		TextLog:   tl,
		Timestamp: time.Now(),
		KeyPress:  keypress,
	})
}

// Close waits for pending text to be shown and closes the window.
// It blocks until the window is gone.
func (tl *TextLog) Close() error {
	tl.lock.Lock()
	for tl.havePending {
		tl.cond.Wait(tl.lock)
	}
	if tl.closing || tl.closed {
		tl.lock.Unlock()
		return ErrClosed
	}
	tl.closing = true
	window := tl.window
	tl.lock.Unlock()

	err := tl.session.submit(func() {
		window.Destroy()
		tl.session.setInactive(&tl.dialog)
	})
	if err != nil {
		return err
	}

	tl.lock.Lock()
	for !tl.closed {
		tl.cond.Wait(tl.lock)
	}
	tl.lock.Unlock()

	tl.thread.Join()
	tl.events.Close()
	return nil
}
