// Package tsema provides per-waiter blocking handles that are recycled
// through a pool. A handle is owned by one goroutine for one wait cycle:
// it is taken with Get, blocked on with Wait, woken by exactly one Signal
// from another goroutine and handed back with Put.
package tsema

import (
	"sync"
	"sync/atomic"
)

// Handle parks exactly one goroutine until another goroutine signals it.
type Handle interface {
	Wait()
	Signal()
}

// Pool hands out handles. Get returns a handle with no pending signal.
type Pool interface {
	Get() Handle
	Put(Handle)
}

// Sema is the Handle implementation used by the pools in this package.
type Sema struct {
	ch chan struct{}
}

// New returns a Sema with no pending signal.
func New() *Sema {
	return &Sema{ch: make(chan struct{}, 1)}
}

// Wait blocks until Signal is called.
func (s *Sema) Wait() {
	<-s.ch
}

// Signal wakes the goroutine blocked in Wait, or lets the next Wait return
// immediately if nobody is blocked yet. It never blocks.
func (s *Sema) Signal() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// drain discards a signal nobody waited for.
func (s *Sema) drain() {
	select {
	case <-s.ch:
	default:
	}
}

// Default is the pool used when the caller does not supply one.
var Default Pool = NewPool()

type pool struct {
	p sync.Pool
}

// NewPool returns a Pool of *Sema backed by sync.Pool.
func NewPool() Pool {
	return &pool{p: sync.Pool{New: func() interface{} { return New() }}}
}

func (p *pool) Get() Handle {
	return p.p.Get().(*Sema)
}

func (p *pool) Put(h Handle) {
	s, ok := h.(*Sema)
	if !ok {
		return
	}
	// 丢弃多余的信号，保证下一个持有者从干净状态开始
	s.drain()
	p.p.Put(s)
}

// Counting wraps a Pool and counts handle traffic.
type Counting struct {
	Pool Pool

	gets atomic.Int64
	puts atomic.Int64
}

// NewCounting returns a Counting pool in front of p. A nil p means Default.
func NewCounting(p Pool) *Counting {
	if p == nil {
		p = Default
	}
	return &Counting{Pool: p}
}

func (c *Counting) Get() Handle {
	c.gets.Add(1)
	return c.Pool.Get()
}

func (c *Counting) Put(h Handle) {
	c.puts.Add(1)
	c.Pool.Put(h)
}

// Gets returns the number of handles taken so far.
func (c *Counting) Gets() int64 { return c.gets.Load() }

// Puts returns the number of handles returned so far.
func (c *Counting) Puts() int64 { return c.puts.Load() }

// Outstanding is Gets minus Puts.
func (c *Counting) Outstanding() int64 { return c.Gets() - c.Puts() }
