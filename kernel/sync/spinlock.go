// Package sync provides the kernel's synchronization primitives. Grounded
// on the teacher's kernel/sync.Spinlock; that version spun on an
// arch-specific busy-wait primitive written in assembly, which this port
// replaces with sync/atomic directly since MiniOS is single-core (there is
// no second hart that could be spinning concurrently) and the kernel
// itself never blocks inside a critical section. The type is kept,
// non-reentrant semantics and all, so that adding SMP later is a matter of
// reintroducing the arch busy-wait, not of re-auditing every caller.
package sync

import "sync/atomic"

// Spinlock is a lock where a caller trying to acquire it busy-waits until
// the lock becomes available. Re-acquiring a lock already held by the
// current caller deadlocks, exactly as in the teacher's version.
type Spinlock struct {
	state uint32
}

// Acquire blocks until the lock can be acquired.
func (l *Spinlock) Acquire() {
	for !atomic.CompareAndSwapUint32(&l.state, 0, 1) {
	}
}

// TryToAcquire attempts to acquire the lock without blocking.
func (l *Spinlock) TryToAcquire() bool {
	return atomic.CompareAndSwapUint32(&l.state, 0, 1)
}

// Release relinquishes a held lock. Calling Release while the lock is free
// has no effect.
func (l *Spinlock) Release() {
	atomic.StoreUint32(&l.state, 0)
}
