package threading_test

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/martinhanzik/allegro5/pkg/threading"
)

var _ = Describe("condition", func() {
	var lock threading.Mutex
	var cond threading.Cond

	BeforeEach(func() {
		lock = threading.NewMutex("cond")
		cond = threading.NewCond("cond")
	})

	blocked := func() int {
		return cond.Reconcile().Blocked
	}

	// waiter waits once and increments the counter afterwards.
	waiter := func(woken *int, done *sync.WaitGroup) {
		done.Add(1)
		go func() {
			defer done.Done()
			lock.Lock()
			cond.Wait(lock)
			*woken++
			lock.Unlock()
		}()
	}

	woken := func(cnt *int) func() int {
		return func() int {
			lock.Lock()
			defer lock.Unlock()
			return *cnt
		}
	}

	It("wakes all waiters on broadcast", func() {
		counter := 0
		entered := 0
		released := false

		var wg sync.WaitGroup
		for i := 0; i < 3; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				lock.Lock()
				entered++
				for !released {
					cond.Wait(lock)
				}
				counter++
				lock.Unlock()
			}()
		}
		Eventually(woken(&entered)).Should(Equal(3))
		Eventually(blocked).Should(Equal(3))

		lock.Lock()
		released = true
		cond.Broadcast()
		lock.Unlock()

		wg.Wait()
		Expect(counter).To(Equal(3))
		Expect(cond.Reconcile()).To(Equal(threading.CondStats{}))
	})

	It("wakes exactly the blocked waiters on broadcast", func() {
		cnt := 0
		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			waiter(&cnt, &wg)
		}
		Eventually(blocked).Should(Equal(5))

		cond.Broadcast()
		Eventually(woken(&cnt)).Should(Equal(5))
		wg.Wait()

		// nothing left for late arrivals
		lock.Lock()
		Expect(cond.TimedWait(lock, threading.Deadline(50*time.Millisecond))).To(BeTrue())
		lock.Unlock()
		Expect(cond.Reconcile()).To(Equal(threading.CondStats{}))
	})

	It("wakes one waiter on signal", func() {
		cnt := 0
		var wg sync.WaitGroup
		for i := 0; i < 3; i++ {
			waiter(&cnt, &wg)
		}
		Eventually(blocked).Should(Equal(3))

		cond.Signal()
		Eventually(woken(&cnt)).Should(Equal(1))
		Consistently(woken(&cnt), 100*time.Millisecond).Should(Equal(1))
		Expect(cond.Reconcile().Blocked).To(Equal(2))

		cond.Signal()
		Eventually(woken(&cnt)).Should(Equal(2))
		cond.Broadcast()
		Eventually(woken(&cnt)).Should(Equal(3))
		wg.Wait()
	})

	It("does not bank a signal without waiters", func() {
		cond.Signal()
		cond.Broadcast()
		Expect(cond.Reconcile()).To(Equal(threading.CondStats{}))

		lock.Lock()
		Expect(cond.TimedWait(lock, threading.Deadline(50*time.Millisecond))).To(BeTrue())
		lock.Unlock()
	})

	It("pairs serialized waits and signals", func() {
		cnt := 0
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			waiter(&cnt, &wg)
			Eventually(blocked).Should(Equal(1))
			cond.Signal()
			Eventually(woken(&cnt)).Should(Equal(i + 1))
			Expect(cond.Reconcile().ToUnblock).To(Equal(0))
		}
		wg.Wait()
		Expect(cnt).To(Equal(50))
		Expect(cond.Reconcile()).To(Equal(threading.CondStats{}))
	})

	It("passes the lock back and forth", func() {
		turn := 0
		const rounds = 200

		var wg sync.WaitGroup
		for p := 0; p < 2; p++ {
			wg.Add(1)
			go func(me int) {
				defer wg.Done()
				for i := 0; i < rounds; i++ {
					lock.Lock()
					for turn%2 != me {
						cond.Wait(lock)
					}
					turn++
					cond.Signal()
					lock.Unlock()
				}
			}(p)
		}
		wg.Wait()
		Expect(turn).To(Equal(2 * rounds))
	})

	Context("timeout", func() {
		It("times out without signal", func() {
			lock.Lock()
			start := time.Now()
			timedout := cond.TimedWait(lock, threading.Deadline(50*time.Millisecond))
			elapsed := time.Since(start)
			lock.Unlock()

			Expect(timedout).To(BeTrue())
			Expect(elapsed).To(BeNumerically(">=", 50*time.Millisecond))
			Expect(elapsed).To(BeNumerically("<", 150*time.Millisecond))
			Expect(cond.Reconcile()).To(Equal(threading.CondStats{}))
		})

		It("handles a deadline in the past", func() {
			lock.Lock()
			Expect(cond.TimedWait(lock, time.Now().Add(-time.Hour))).To(BeTrue())
			Expect(cond.TimedWait(lock, time.Now())).To(BeTrue())
			lock.Unlock()
			Expect(cond.Reconcile()).To(Equal(threading.CondStats{}))

			cnt := 0
			var wg sync.WaitGroup
			waiter(&cnt, &wg)
			Eventually(blocked).Should(Equal(1))
			cond.Signal()
			Eventually(woken(&cnt)).Should(Equal(1))
			wg.Wait()
			Expect(cond.Reconcile()).To(Equal(threading.CondStats{}))
		})

		It("is woken before the deadline", func() {
			result := make(chan bool, 1)
			go func() {
				lock.Lock()
				defer lock.Unlock()
				result <- cond.TimedWait(lock, threading.Deadline(10*time.Second))
			}()
			Eventually(blocked).Should(Equal(1))
			cond.Signal()
			Eventually(result).Should(Receive(BeFalse()))
		})

		It("accounts a timed out waiter for later signals", func() {
			lock.Lock()
			Expect(cond.TimedWait(lock, threading.Deadline(10*time.Millisecond))).To(BeTrue())
			lock.Unlock()
			Expect(cond.Snapshot()).To(Equal(threading.CondStats{Blocked: 1, Gone: 1}))

			// the gone waiter must not absorb the signal
			cnt := 0
			var wg sync.WaitGroup
			waiter(&cnt, &wg)
			Eventually(blocked).Should(Equal(1))
			cond.Signal()
			Eventually(woken(&cnt)).Should(Equal(1))
			wg.Wait()
		})

		It("cancels a wait with the context", func() {
			ctx, cancel := context.WithCancel(context.Background())
			result := make(chan error, 1)
			go func() {
				lock.Lock()
				defer lock.Unlock()
				result <- cond.WaitContext(ctx, lock)
			}()
			Eventually(blocked).Should(Equal(1))
			cancel()
			Eventually(result).Should(Receive(MatchError(context.Canceled)))
			Expect(cond.Reconcile()).To(Equal(threading.CondStats{}))
		})
	})

	Context("stress", func() {
		stress := func(waiters, signalers, rounds int) {
			var stop atomic.Bool
			var signals sync.WaitGroup
			for i := 0; i < signalers; i++ {
				signals.Add(1)
				go func(seed int64) {
					defer signals.Done()
					r := rand.New(rand.NewSource(seed))
					for !stop.Load() {
						if r.Intn(4) == 0 {
							cond.Broadcast()
						} else {
							cond.Signal()
						}
						time.Sleep(time.Duration(r.Intn(200)) * time.Microsecond)
					}
				}(int64(i))
			}

			var waits sync.WaitGroup
			var timeouts atomic.Int64
			for i := 0; i < waiters; i++ {
				waits.Add(1)
				go func(seed int64) {
					defer waits.Done()
					r := rand.New(rand.NewSource(seed))
					for j := 0; j < rounds; j++ {
						lock.Lock()
						if cond.TimedWait(lock, threading.Deadline(time.Duration(r.Intn(2000))*time.Microsecond)) {
							timeouts.Add(1)
						}
						lock.Unlock()
					}
				}(int64(1000 + i))
			}

			waits.Wait()
			stop.Store(true)
			signals.Wait()

			fmt.Fprintf(GinkgoWriter, "%d timeouts\n", timeouts.Load())
			Expect(cond.Reconcile()).To(Equal(threading.CondStats{}))
		}

		It("signals while waiters register and time out", func() {
			var stop atomic.Bool
			done := make(chan struct{})
			go func() {
				defer close(done)
				for !stop.Load() {
					cond.Signal()
				}
			}()

			for i := 0; i < 200; i++ {
				lock.Lock()
				cond.TimedWait(lock, threading.Deadline(100*time.Microsecond))
				lock.Unlock()
			}
			stop.Store(true)
			<-done
			Expect(cond.Reconcile()).To(Equal(threading.CondStats{}))
		})

		It("keeps the counters consistent", func() {
			stress(8, 3, 200)
		})

		It("reconciles gone waiters on the waiter side", func() {
			threading.SetReconcileThreshold(cond, 3)
			stress(8, 1, 200)
		})

		It("reconciles timeouts without any signal", func() {
			threading.SetReconcileThreshold(cond, 4)
			for i := 0; i < 10; i++ {
				lock.Lock()
				Expect(cond.TimedWait(lock, threading.Deadline(time.Millisecond))).To(BeTrue())
				lock.Unlock()
			}
			Expect(cond.Reconcile()).To(Equal(threading.CondStats{}))
		})
	})

	Context("lifecycle", func() {
		It("cannot be used after destroy", func() {
			cond.Destroy()
			Expect(cond.Signal).To(PanicWith(MatchError(ContainSubstring("destroyed condition"))))
			Expect(cond.Destroy).To(Panic())
			lock.Lock()
			Expect(func() { cond.Wait(lock) }).To(Panic())
			lock.Unlock()
		})

		It("must not be destroyed with waiters", func() {
			cnt := 0
			var wg sync.WaitGroup
			waiter(&cnt, &wg)
			Eventually(blocked).Should(Equal(1))
			Expect(cond.Destroy).To(PanicWith(MatchError(ContainSubstring("1 blocked"))))
			cond.Signal()
			wg.Wait()
			cond.Destroy()
		})
	})
})
