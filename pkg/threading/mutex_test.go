package threading_test

import (
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/martinhanzik/allegro5/pkg/threading"
)

func locking(name string, prog *Stepper, lock threading.Mutex) threading.ThreadProc {
	return func(threading.Thread, interface{}) {
		for step := range prog.stepper {
			prog.result.Add(step, name, "start")
			switch step {
			case LOCK:
				lock.Lock()
				prog.result.Add(step, name)
			case UNLOCK:
				lock.Unlock()
				prog.result.Add(step, name)
			}
		}
	}
}

var _ = Describe("mutex", func() {
	It("handles sequence", func() {
		results := &LockResults{}
		lock := threading.NewMutex("sequence")

		s1 := NewStepper(results)
		s2 := NewStepper(results)
		t1 := threading.NewThread(locking("test1", s1, lock), nil, "test1")
		t2 := threading.NewThread(locking("test2", s2, lock), nil, "test2")

		s1.Step(LOCK)
		Eventually(results.Len).Should(Equal(2))
		s2.Step(LOCK)
		Eventually(results.Len).Should(Equal(3))
		Consistently(results.Len, 100*time.Millisecond).Should(Equal(3))
		s1.Step(UNLOCK)
		Eventually(results.Len).Should(Equal(6))
		s2.Step(UNLOCK)
		Eventually(results.Len).Should(Equal(8))

		s1.Finish()
		s2.Finish()
		t1.Join()
		t2.Join()

		list := results.List()
		Expect(list[:3]).To(Equal([]string{
			LOCK.S("test1"),
			LOCK.R("test1"),
			LOCK.S("test2"),
		}))
		Expect(list[3:6]).To(ConsistOf(
			UNLOCK.S("test1"),
			UNLOCK.R("test1"),
			LOCK.R("test2"),
		))
		Expect(list[3]).To(Equal(UNLOCK.S("test1")))
		Expect(list[6:]).To(Equal([]string{
			UNLOCK.S("test2"),
			UNLOCK.R("test2"),
		}))
	})

	It("excludes concurrent holders", func() {
		lock := threading.NewMutex()
		counter := 0
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 1000; j++ {
					lock.Lock()
					counter++
					lock.Unlock()
				}
			}()
		}
		wg.Wait()
		Expect(counter).To(Equal(10000))
	})

	It("may be unlocked by another goroutine", func() {
		lock := threading.NewMutex()
		lock.Lock()
		done := make(chan struct{})
		go func() {
			lock.Unlock()
			close(done)
		}()
		Eventually(done).Should(BeClosed())
		lock.Lock()
		lock.Unlock()
	})

	Context("recursive", func() {
		It("can be locked again by the owner", func() {
			lock := threading.NewRecursiveMutex("rec")
			Expect(lock.IsRecursive()).To(BeTrue())
			lock.Lock()
			lock.Lock()
			lock.Unlock()

			acquired := make(chan struct{})
			go func() {
				lock.Lock()
				close(acquired)
				lock.Unlock()
			}()
			Consistently(acquired, 50*time.Millisecond).ShouldNot(BeClosed())
			lock.Unlock()
			Eventually(acquired).Should(BeClosed())
			lock.Destroy()
		})

		It("rejects unlock by non-owner", func() {
			lock := threading.NewRecursiveMutex("rec")
			lock.Lock()
			failed := make(chan interface{}, 1)
			go func() {
				defer func() { failed <- recover() }()
				lock.Unlock()
			}()
			Eventually(failed).Should(Receive(MatchError(ContainSubstring("non-owner"))))
			lock.Unlock()
		})
	})

	Context("lifecycle", func() {
		It("can be destroyed once", func() {
			lock := threading.NewMutex("life")
			lock.Destroy()
			Expect(lock.Destroy).To(PanicWith(MatchError("mutex:life: destroying uninitialized mutex")))
		})

		It("must not be destroyed while held", func() {
			lock := threading.NewMutex("life")
			lock.Lock()
			Expect(lock.Destroy).To(PanicWith(MatchError(ContainSubstring("held mutex"))))
			lock.Unlock()
			lock.Destroy()
		})

		It("must not be used after destroy", func() {
			lock := threading.NewMutex("life")
			lock.Destroy()
			Expect(lock.Lock).To(Panic())
			Expect(lock.Unlock).To(Panic())
		})
	})
})
