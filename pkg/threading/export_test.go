package threading

// SetReconcileThreshold lowers the number of gone waiters a waiter
// reconciles on its own.
func SetReconcileThreshold(c Cond, n int) {
	c.threshold = int64(n)
}

var (
	ParseGID    = parseGID
	GoroutineID = goroutineID
)
