package once

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/qxcheng/dispatch-once/pkg/tsema"
)

// activeSpin is how many times wake polls a missing link before yielding.
const activeSpin = 30

// waiter is one entry of the chain that forms while the action runs. The
// chain is a LIFO stack: a new waiter becomes the head and points at the
// previous head, so the claimant's sentinel is always the last node.
//
// A node belongs to the goroutine that queued it. The claimant reads next
// and sema during the wake walk and never touches the node after that.
type waiter struct {
	next atomic.Pointer[waiter]
	sema tsema.Handle

	// failure is set only on the terminal node of a poisoned guard.
	failure *PanicError
}

// Go would move a waiter that is stored in the guard to the heap, so nodes
// are recycled instead of living on the caller's stack.
var nodes = sync.Pool{New: func() interface{} { return new(waiter) }}

func getNode() *waiter {
	return nodes.Get().(*waiter)
}

func putNode(w *waiter) {
	w.next.Store(nil)
	w.sema = nil
	nodes.Put(w)
}

// awaitNext returns w.next, spinning while its owner has linked w into the
// chain but has not written the link yet.
func (w *waiter) awaitNext() *waiter {
	for i := 0; ; i++ {
		if next := w.next.Load(); next != nil {
			return next
		}
		if i >= activeSpin {
			runtime.Gosched()
		}
	}
}

// wake signals every waiter from head down to, but excluding, tail. Since the
// chain is LIFO the newest arrival is woken first. It returns the number of
// waiters signalled.
func wake(head, tail *waiter) int {
	n := 0
	for cur := head; cur != tail; n++ {
		next := cur.awaitNext()
		s := cur.sema
		// cur may be recycled by its owner as soon as it is signalled.
		cur = next
		s.Signal()
	}
	return n
}
