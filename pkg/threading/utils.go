package threading

import (
	"runtime"
	"strings"

	"gopkg.in/errgo.v1"
)

// ElementName composes the name of a synchronization element from its
// type and optional name parts.
func ElementName(typ string, names ...string) string {
	name := strings.Join(names, ":")
	if len(name) > 0 {
		return typ + ":" + name
	}
	return typ
}

// violation reports a programming contract violation. There is no
// recovery for those, so it panics.
func violation(element string, format string, args ...interface{}) {
	panic(errgo.Newf(element+": "+format, args...))
}

// goroutineID extracts the id of the calling goroutine from the
// first line of its stack trace ("goroutine 123 [running]:...").
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return parseGID(buf[:n])
}

func parseGID(buf []byte) int64 {
	const prefix = "goroutine "

	if len(buf) < len(prefix) || string(buf[:len(prefix)]) != prefix {
		return 0
	}
	var gid int64
	for _, c := range buf[len(prefix):] {
		if c < '0' || c > '9' {
			break
		}
		gid = gid*10 + int64(c-'0')
	}
	return gid
}
