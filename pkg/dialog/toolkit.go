package dialog

// Toolkit is the GUI toolkit used by a Session. All methods are called
// on the session's toolkit thread.
//
// FileChooser and MessageBox block until the dialog is closed.
// Cancelling a dialog is not an error: FileChooser returns no paths and
// MessageBox returns 0.
type Toolkit interface {
	// Init prepares the toolkit. It is called whenever the toolkit
	// thread is started.
	Init() error
	FileChooser(fc *FileChooser) ([]string, error)
	MessageBox(mb *MessageBox) (int, error)
	// TextLog creates and shows the window for a text log. Close
	// requests of the user are reported with TextLog.RequestClose.
	TextLog(tl *TextLog) (TextLogWindow, error)
	// Shutdown is called after the toolkit thread has finished.
	Shutdown()
}

// TextLogWindow is a text log window created by a Toolkit.
// Its methods are called on the toolkit thread.
type TextLogWindow interface {
	Append(text string)
	Destroy()
}
