package once

import (
	"fmt"
	"runtime/debug"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/qxcheng/dispatch-once/pkg/tsema"
)

// ErrPoisoned is the cause of every PanicError: the guarded action panicked
// or exited its goroutine, and will never be run again.
var ErrPoisoned = errors.New("once: guarded action did not complete")

// PanicError is raised by Do on a guard whose action did not return
// normally. Value is what the action panicked with, nil for runtime.Goexit.
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	if e.Value == nil {
		return ErrPoisoned.Error() + ": runtime.Goexit called"
	}
	return fmt.Sprintf("%s: panic: %v", ErrPoisoned.Error(), e.Value)
}

func (e *PanicError) Unwrap() error { return ErrPoisoned }

func (e *PanicError) Cause() error { return ErrPoisoned }

// Do calls f if and only if Do is being called for the first time on g.
// Every caller returns after f has returned.
func (g *Guard) Do(f func()) {
	if g.state.Load() == &done {
		return
	}
	g.doSlow(tsema.Default, f)
}

// DoFunc is Do for a function taking an opaque context argument.
func (g *Guard) DoFunc(ctx interface{}, fn func(interface{})) {
	if g.state.Load() == &done {
		return
	}
	g.doSlow(tsema.Default, func() { fn(ctx) })
}

// DoWith is DoFunc with the pool blocked callers borrow their handles from.
func (g *Guard) DoWith(p tsema.Pool, ctx interface{}, fn func(interface{})) {
	if g.state.Load() == &done {
		return
	}
	g.doSlow(p, func() { fn(ctx) })
}

// doSlow must not let f escape, or every call to Do would allocate the
// caller's closure even on a done guard.
func (g *Guard) doSlow(p tsema.Pool, f func()) {
	for {
		cur := g.state.Load()
		if cur == nil {
			tail := getNode()
			if g.claim(tail) {
				g.execute(tail, f)
				return
			}
			putNode(tail)
			continue
		}
		if terminal(cur) {
			g.settle()
			return
		}

		w := getNode()
		w.sema = p.Get()
		r := g.enqueue(cur, w)
		if r == linked {
			// 阻塞直到执行者唤醒
			w.sema.Wait()
		}
		p.Put(w.sema)
		putNode(w)

		if r != raced {
			g.settle()
			return
		}
	}
}

// settle is called once the guard is terminal. It raises the recorded
// failure of a poisoned guard.
func (g *Guard) settle() {
	if err := g.Err(); err != nil {
		panic(err)
	}
}

// execute runs the action on the claiming goroutine, publishes the outcome
// and wakes everyone who queued behind tail meanwhile.
func (g *Guard) execute(tail *waiter, f func()) {
	normal := false
	defer func() {
		if normal {
			return
		}
		r := recover()
		failure := &PanicError{Value: r, Stack: debug.Stack()}
		n := wake(g.publish(&waiter{failure: failure}), tail)
		putNode(tail)
		klog.ErrorS(failure, "Guard poisoned", "woken", n)
		if r != nil {
			panic(r)
		}
	}()

	f()
	normal = true

	n := wake(g.publish(&done), tail)
	putNode(tail)
	if n > 0 {
		klog.V(6).InfoS("Guarded action completed", "woken", n)
	}
}
