package main

import (
	"fmt"
	"math/rand"
	"time"

	"gopkg.in/errgo.v1"

	"github.com/martinhanzik/allegro5/pkg/logging"
	"github.com/martinhanzik/allegro5/pkg/threading"
)

type Settings struct {
	Waiters   int     `koanf:"waiters"`
	Signalers int     `koanf:"signalers"`
	Rounds    int     `koanf:"rounds"`
	Broadcast float64 `koanf:"broadcast"`
	Timeout   struct {
		Min time.Duration `koanf:"min"`
		Max time.Duration `koanf:"max"`
	} `koanf:"timeout"`
	Pause time.Duration `koanf:"pause"`
	Seed  int64         `koanf:"seed"`
	Debug bool          `koanf:"debug"`
}

func (s *Settings) validate() error {
	switch {
	case s.Waiters < 1:
		return errgo.Newf("at least one waiter required")
	case s.Signalers < 0:
		return errgo.Newf("invalid number of signalers %d", s.Signalers)
	case s.Rounds < 0:
		return errgo.Newf("invalid number of rounds %d", s.Rounds)
	case s.Broadcast < 0 || s.Broadcast > 1:
		return errgo.Newf("broadcast ratio %g not in [0,1]", s.Broadcast)
	case s.Timeout.Min < 0 || s.Timeout.Max < s.Timeout.Min:
		return errgo.Newf("invalid timeout range %s to %s", s.Timeout.Min, s.Timeout.Max)
	}
	return nil
}

type Result struct {
	Wakeups  int
	Timeouts int
	Stats    threading.CondStats
	Duration time.Duration
}

type counts struct {
	wakeups  int
	timeouts int
}

// Run starts all waiters at once with a trigger and lets the signalers
// run until the last waiter is done.
func Run(s Settings) (*Result, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	lock := threading.NewMutex("stress")
	cond := threading.NewCond("stress")
	start := threading.NewTrigger("stress", "start")
	start.Arm()

	var waiters []threading.Task[counts]
	for i := 0; i < s.Waiters; i++ {
		r := rand.New(rand.NewSource(s.Seed + int64(i)))
		t := threading.NewTask(func(t threading.Thread) (counts, error) {
			return wait(t, s, r, lock, cond), nil
		}, "waiter", fmt.Sprint(i))
		if err := t.DependsOn(start); err != nil {
			return nil, err
		}
		t.Start()
		waiters = append(waiters, t)
	}
	finished := threading.NewDependencyTrigger(nil, asDependencies(waiters)...)

	var signalers []threading.Thread
	for i := 0; i < s.Signalers; i++ {
		r := rand.New(rand.NewSource(-s.Seed - int64(i)))
		signalers = append(signalers, threading.NewThread(func(t threading.Thread, _ interface{}) {
			start.Wait()
			signal(t, s, r, cond)
		}, nil, "signaler", fmt.Sprint(i)))
	}

	begin := time.Now()
	start.Trigger()
	finished.Wait()
	for _, t := range signalers {
		t.Join()
	}

	result := &Result{Duration: time.Since(begin)}
	for _, t := range waiters {
		c, err := t.Wait()
		if err != nil {
			return nil, err
		}
		result.Wakeups += c.wakeups
		result.Timeouts += c.timeouts
	}
	result.Stats = cond.Reconcile()
	logging.Logf("condstress: %+v", result.Stats)
	if result.Stats != (threading.CondStats{}) {
		return result, errgo.Newf("unbalanced condition: %+v", result.Stats)
	}
	cond.Destroy()
	lock.Destroy()
	return result, nil
}

func asDependencies(tasks []threading.Task[counts]) []threading.Dependency {
	deps := make([]threading.Dependency, len(tasks))
	for i, t := range tasks {
		deps[i] = t
	}
	return deps
}

func wait(t threading.Thread, s Settings, r *rand.Rand, lock threading.Mutex, cond threading.Cond) counts {
	var c counts
	for i := 0; i < s.Rounds && !t.ShouldStop(); i++ {
		d := s.Timeout.Min
		if s.Timeout.Max > s.Timeout.Min {
			d += time.Duration(r.Int63n(int64(s.Timeout.Max - s.Timeout.Min)))
		}
		lock.Lock()
		if cond.TimedWait(lock, threading.Deadline(d)) {
			c.timeouts++
		} else {
			c.wakeups++
		}
		lock.Unlock()
	}
	logging.Debugf("%s: %d wakeups, %d timeouts", t.Name(), c.wakeups, c.timeouts)
	return c
}

func signal(t threading.Thread, s Settings, r *rand.Rand, cond threading.Cond) {
	for !t.ShouldStop() {
		if r.Float64() < s.Broadcast {
			cond.Broadcast()
		} else {
			cond.Signal()
		}
		if s.Pause > 0 {
			time.Sleep(time.Duration(r.Int63n(int64(s.Pause))))
		}
	}
}
