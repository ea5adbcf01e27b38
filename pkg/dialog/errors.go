package dialog

import (
	"gopkg.in/errgo.v1"
)

var (
	// ErrToolkitInit is the cause of errors returned if the
	// toolkit could not be initialized.
	ErrToolkitInit = errgo.New("toolkit failed to initialize")
	// ErrNotSupported is returned by toolkits for dialog variants
	// they cannot show.
	ErrNotSupported = errgo.New("not supported by toolkit")
	// ErrClosed is returned for operations on a closed text log.
	ErrClosed = errgo.New("text log closed")
)
