package once

import (
	"sync/atomic"
)

// Guard is the shared state word every caller of Do contends on. The zero
// value is unstarted. A Guard must not be copied after first use and covers
// exactly one once episode.
//
// The word holds one of:
//   nil                  -- unstarted.
//   &done                -- the action completed, terminal.
//   node with failure    -- the action did not complete, terminal.
//   otherwise            -- in progress; the most recently queued waiter,
//                           or the claimant's own sentinel if nobody queued.
type Guard struct {
	_ noCopy

	state atomic.Pointer[waiter]
}

// done marks a completed guard. Its address is distinct from every node.
var done waiter

// barrier is only ever written by fullBarrier.
var barrier atomic.Uint64

// fullBarrier issues a sequentially consistent read-modify-write, the
// strongest ordering the Go memory model offers. It separates the last store
// of the guarded action from the publishing swap.
func fullBarrier() {
	barrier.Add(1)
}

type enqueueResult int

const (
	linked enqueueResult = iota
	alreadyDone
	raced
)

func terminal(w *waiter) bool {
	return w == &done || (w != nil && w.failure != nil)
}

// claim moves the guard from unstarted to in progress, with sentinel as the
// tail of the waiter chain. Exactly one caller per episode wins.
func (g *Guard) claim(sentinel *waiter) bool {
	return g.state.CompareAndSwap(nil, sentinel)
}

// enqueue prepends w to the waiter chain, provided cur is still its head.
// The link to the older waiter is written only after the CAS succeeded; wake
// spins until it shows up.
func (g *Guard) enqueue(cur, w *waiter) enqueueResult {
	if terminal(cur) {
		return alreadyDone
	}
	if !g.state.CompareAndSwap(cur, w) {
		return raced
	}
	w.next.Store(cur)
	return linked
}

// publish stores the terminal state and returns the head of the waiter chain
// that was built while the action ran.
func (g *Guard) publish(final *waiter) *waiter {
	fullBarrier()
	return g.state.Swap(final)
}

// Done reports whether the guarded action has completed.
func (g *Guard) Done() bool {
	return g.state.Load() == &done
}

// Err returns the failure recorded by a poisoned guard, nil otherwise.
func (g *Guard) Err() error {
	if w := g.state.Load(); w != nil && w != &done && w.failure != nil {
		return w.failure
	}
	return nil
}

// noCopy may be embedded into structs which must not be copied
// after the first use. See go vet -copylocks.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
