package tmutex

import (
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"golang.org/x/sync/errgroup"
)

func TestTryLock(t *testing.T) {
	g := NewWithT(t)

	var m Mutex
	m.Init()
	g.Expect(m.TryLock()).To(BeTrue())
	g.Expect(m.TryLock()).To(BeFalse())
	m.Unlock()
	g.Expect(m.TryLock()).To(BeTrue())
	m.Unlock()
}

func TestLockBlocksUntilUnlock(t *testing.T) {
	g := NewWithT(t)

	var m Mutex
	m.Init()
	m.Lock()
	acquired := make(chan struct{})
	go func() {
		m.Lock()
		close(acquired)
		m.Unlock()
	}()
	g.Consistently(acquired, 20*time.Millisecond).ShouldNot(BeClosed())
	m.Unlock()
	g.Eventually(acquired).Should(BeClosed())
}

func TestMutualExclusion(t *testing.T) {
	g := NewWithT(t)

	var m Mutex
	m.Init()
	counter := 0
	var eg errgroup.Group
	for i := 0; i < 50; i++ {
		eg.Go(func() error {
			for j := 0; j < 1000; j++ {
				m.Lock()
				counter++
				m.Unlock()
			}
			return nil
		})
	}
	g.Expect(eg.Wait()).To(Succeed())
	g.Expect(counter).To(Equal(50 * 1000))
}

func TestUnlockOfUnlockedPanics(t *testing.T) {
	g := NewWithT(t)

	var m Mutex
	m.Init()
	g.Expect(m.Unlock).To(PanicWith("tmutex: unlock of unlocked mutex"))
}
