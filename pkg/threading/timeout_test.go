package threading_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/martinhanzik/allegro5/pkg/threading"
)

var _ = Describe("deadlines", func() {
	It("computes the remaining time", func() {
		d := threading.Deadline(time.Hour)
		Expect(threading.Remaining(d)).To(BeNumerically("~", time.Hour, time.Minute))
		Expect(threading.Expired(d)).To(BeFalse())
	})

	It("never gets negative", func() {
		d := time.Now().Add(-time.Hour)
		Expect(threading.Remaining(d)).To(Equal(time.Duration(0)))
		Expect(threading.Expired(d)).To(BeTrue())
		Expect(threading.Expired(time.Time{})).To(BeTrue())
	})
})
