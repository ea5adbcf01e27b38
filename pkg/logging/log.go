package logging

import (
	"fmt"
	"sync/atomic"
)

// Logger is the output side of a *log.Logger. Any type offering this
// method can be plugged in, so the log package is not imported here.
type Logger interface {
	Output(calldepth int, s string) error
}

type holder struct {
	logger Logger
}

var (
	globalLogger atomic.Pointer[holder]
	globalDebug  atomic.Bool
)

// SetLogger specifies the logger log messages are sent to.
// A nil logger disables logging.
func SetLogger(logger Logger) {
	if logger == nil {
		globalLogger.Store(nil)
		return
	}
	globalLogger.Store(&holder{logger})
}

// SetDebug enables the delivery of debug messages to the logger.  Only
// meaningful if a logger is also set.
func SetDebug(debug bool) {
	globalDebug.Store(debug)
}

// IsDebug reports whether debug messages are delivered.
func IsDebug() bool {
	return globalDebug.Load() && globalLogger.Load() != nil
}

func output(s string) {
	if h := globalLogger.Load(); h != nil {
		h.logger.Output(3, s)
	}
}

func Log(v ...interface{}) {
	output(fmt.Sprint(v...))
}

func Logf(format string, v ...interface{}) {
	output(fmt.Sprintf(format, v...))
}

func Debug(v ...interface{}) {
	if globalDebug.Load() {
		output(fmt.Sprint(v...))
	}
}

func Debugf(format string, v ...interface{}) {
	if globalDebug.Load() {
		output(fmt.Sprintf(format, v...))
	}
}
