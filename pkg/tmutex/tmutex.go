// Package tmutex provides a mutex that supports TryLock in addition to Lock
// and Unlock.
package tmutex

import "sync/atomic"

const (
	unlocked  = 0
	locked    = 1
	contended = 2 // locked, and someone may be parked on ch
)

// Mutex is a mutual exclusion primitive that implements TryLock in addition
// to Lock and Unlock. Init must be called before first use.
type Mutex struct {
	v  atomic.Int32
	ch chan struct{}
}

// Init prepares m for use. It must not be called on a mutex in use.
func (m *Mutex) Init() {
	m.v.Store(unlocked)
	m.ch = make(chan struct{}, 1)
}

// Lock locks m, blocking until it is available.
func (m *Mutex) Lock() {
	if m.v.CompareAndSwap(unlocked, locked) {
		return
	}

	// 标记为有竞争，Unlock 时需要唤醒等待者
	for m.v.Swap(contended) != unlocked {
		<-m.ch
	}
}

// TryLock locks m if it is free and reports whether it did.
func (m *Mutex) TryLock() bool {
	if m.v.Load() != unlocked {
		return false
	}
	return m.v.CompareAndSwap(unlocked, locked)
}

// Unlock unlocks m. Unlocking an unlocked mutex panics.
func (m *Mutex) Unlock() {
	switch m.v.Swap(unlocked) {
	case unlocked:
		panic("tmutex: unlock of unlocked mutex")
	case contended:
		select {
		case m.ch <- struct{}{}:
		default:
		}
	}
}
