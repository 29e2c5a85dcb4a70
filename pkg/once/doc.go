// Package once runs an action exactly once across any number of racing
// goroutines, and releases every caller only after the action's effects are
// visible.
//
// Once the action has completed, Do costs a single atomic load. While it is
// still running, late callers push themselves onto a lock-free chain hanging
// off the guard and block on a handle borrowed from a tsema.Pool. The
// goroutine that ran the action publishes completion and then walks the
// chain, waking the most recent arrival first.
//
// Calling Do on the same guard from inside its own action deadlocks.
package once
