// Package semaphore implements a counting semaphore whose waiters are
// released in FIFO order and may give up after a timeout.
//
// A semaphore created with a value of zero lets two goroutines reconcile the
// completion of an event. A positive value manages a finite pool of
// resources of that size.
package semaphore

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/qxcheng/dispatch-once/pkg/ilist"
	"github.com/qxcheng/dispatch-once/pkg/tmutex"
)

const (
	// Now makes Wait poll without blocking.
	Now time.Duration = 0
	// Forever makes Wait block until signalled.
	Forever time.Duration = -1
)

// ErrNegativeValue is returned by New for a negative initial value.
var ErrNegativeValue = errors.New("semaphore: negative initial value")

type waiter struct {
	ilist.Entry
	ch chan struct{}
}

// Semaphore is a counting semaphore. A negative value is the number of
// goroutines blocked in Wait.
type Semaphore struct {
	mu      tmutex.Mutex
	value   int64
	waiters ilist.List // of *waiter, oldest first
}

// New creates a semaphore with the given initial value.
func New(value int64) (*Semaphore, error) {
	if value < 0 {
		return nil, errors.Wrapf(ErrNegativeValue, "value %d", value)
	}
	s := &Semaphore{value: value}
	s.mu.Init()
	return s, nil
}

// Wait decrements the semaphore. If the result is negative it waits, behind
// any earlier waiter, for a Signal or for timeout to elapse. It returns false
// if the timeout occurred.
func (s *Semaphore) Wait(timeout time.Duration) bool {
	switch {
	case timeout == Now:
		return s.acquire(nil, true)
	case timeout < 0:
		return s.acquire(nil, false)
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.acquire(ctx.Done(), false)
}

// WaitContext is Wait bounded by ctx instead of a timeout.
func (s *Semaphore) WaitContext(ctx context.Context) error {
	if s.acquire(ctx.Done(), false) {
		return nil
	}
	return errors.Wrap(ctx.Err(), "semaphore wait")
}

func (s *Semaphore) acquire(done <-chan struct{}, poll bool) bool {
	s.mu.Lock()
	s.value--
	if s.value >= 0 {
		s.mu.Unlock()
		return true
	}
	if poll {
		s.value++
		s.mu.Unlock()
		return false
	}
	w := &waiter{ch: make(chan struct{}, 1)}
	s.waiters.PushBack(w)
	s.mu.Unlock()

	select {
	case <-w.ch:
		return true
	case <-done:
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-w.ch:
		// Signal picked us before we got the lock back.
		return true
	default:
	}
	s.waiters.Remove(w)
	s.value++
	return false
}

// Signal increments the semaphore. If a goroutine is waiting, the oldest
// one is woken and Signal returns true.
func (s *Semaphore) Signal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value++
	if s.value > 0 {
		return false
	}
	w := s.waiters.Front().(*waiter)
	s.waiters.Remove(w)
	w.ch <- struct{}{}
	return true
}

// Value returns the current count.
func (s *Semaphore) Value() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}
