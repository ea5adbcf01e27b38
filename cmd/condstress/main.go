// Command condstress exercises a condition variable with waiters using
// random timeouts and signalers mixing signals and broadcasts. It
// reports the number of wakeups and timeouts and fails if the
// bookkeeping of the condition is not balanced afterwards.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/martinhanzik/allegro5/internal/config"
	"github.com/martinhanzik/allegro5/pkg/logging"
)

var defaults = map[string]interface{}{
	"waiters":     8,
	"signalers":   3,
	"rounds":      1000,
	"broadcast":   0.25,
	"timeout.min": 100 * time.Microsecond,
	"timeout.max": 2 * time.Millisecond,
	"pause":       200 * time.Microsecond,
	"seed":        1,
	"debug":       false,
}

func main() {
	var s Settings
	fs := flag.NewFlagSet("condstress", flag.ExitOnError)
	if _, err := config.Load("condstress", defaults, fs, os.Args[1:], &s); err != nil {
		fmt.Fprintf(os.Stderr, "condstress: %s\n", err)
		os.Exit(2)
	}

	logging.SetLogger(log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds))
	logging.SetDebug(s.Debug)

	r, err := Run(s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "condstress: %s\n", err)
		os.Exit(1)
	}
	fmt.Printf("%d waits: %d wakeups, %d timeouts in %s\n", r.Wakeups+r.Timeouts, r.Wakeups, r.Timeouts, r.Duration)
}
