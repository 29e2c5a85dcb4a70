package semaphore_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"

	"github.com/qxcheng/dispatch-once/pkg/semaphore"
)

func mustNew(value int64) *semaphore.Semaphore {
	s, err := semaphore.New(value)
	Expect(err).NotTo(HaveOccurred())
	return s
}

var _ = Describe("Semaphore", func() {
	It("rejects a negative initial value", func() {
		s, err := semaphore.New(-1)
		Expect(s).To(BeNil())
		Expect(errors.Is(err, semaphore.ErrNegativeValue)).To(BeTrue())
		Expect(errors.Cause(err)).To(Equal(semaphore.ErrNegativeValue))
	})

	It("hands out its initial value without blocking", func() {
		s := mustNew(2)
		Expect(s.Wait(semaphore.Now)).To(BeTrue())
		Expect(s.Wait(semaphore.Now)).To(BeTrue())
		Expect(s.Wait(semaphore.Now)).To(BeFalse())
		Expect(s.Value()).To(BeZero())
	})

	It("reports whether Signal woke anybody", func() {
		s := mustNew(0)
		Expect(s.Signal()).To(BeFalse())
		Expect(s.Value()).To(BeEquivalentTo(1))
		Expect(s.Wait(semaphore.Forever)).To(BeTrue())
	})

	It("blocks a waiter on a zero semaphore until signalled", func() {
		s := mustNew(0)
		done := make(chan bool, 1)
		go func() { done <- s.Wait(semaphore.Forever) }()

		Eventually(s.Value).Should(BeEquivalentTo(-1))
		Consistently(done, 20*time.Millisecond).ShouldNot(Receive())
		Expect(s.Signal()).To(BeTrue())
		Eventually(done).Should(Receive(BeTrue()))
		Expect(s.Value()).To(BeZero())
	})

	It("wakes waiters in FIFO order", func() {
		s := mustNew(0)
		woken := make(chan int, 3)
		for i := 0; i < 3; i++ {
			i := i
			go func() {
				s.Wait(semaphore.Forever)
				woken <- i
			}()
			Eventually(s.Value).Should(BeEquivalentTo(-(i + 1)))
		}
		for i := 0; i < 3; i++ {
			Expect(s.Signal()).To(BeTrue())
			Eventually(woken).Should(Receive(Equal(i)))
		}
	})

	Context("with a timeout", func() {
		It("gives up and restores the count", func() {
			s := mustNew(0)
			start := time.Now()
			Expect(s.Wait(20 * time.Millisecond)).To(BeFalse())
			Expect(time.Since(start)).To(BeNumerically(">=", 20*time.Millisecond))
			Expect(s.Value()).To(BeZero())
			Expect(s.Signal()).To(BeFalse())
		})

		It("skips a waiter that timed out", func() {
			s := mustNew(0)
			first := make(chan bool, 1)
			second := make(chan bool, 1)
			go func() { first <- s.Wait(30 * time.Millisecond) }()
			Eventually(s.Value).Should(BeEquivalentTo(-1))
			go func() { second <- s.Wait(semaphore.Forever) }()
			Eventually(s.Value).Should(BeEquivalentTo(-2))

			Eventually(first).Should(Receive(BeFalse()))
			Expect(s.Value()).To(BeEquivalentTo(-1))
			Expect(s.Signal()).To(BeTrue())
			Eventually(second).Should(Receive(BeTrue()))
		})
	})

	Context("with a context", func() {
		It("returns the context error when cancelled", func() {
			s := mustNew(0)
			ctx, cancel := context.WithCancel(context.Background())
			errc := make(chan error, 1)
			go func() { errc <- s.WaitContext(ctx) }()
			Eventually(s.Value).Should(BeEquivalentTo(-1))
			cancel()

			var err error
			Eventually(errc).Should(Receive(&err))
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			Expect(s.Value()).To(BeZero())
		})

		It("succeeds when a permit is available", func() {
			s := mustNew(1)
			Expect(s.WaitContext(context.Background())).To(Succeed())
		})
	})
})
