package scheduler

import "sync/atomic"

// Guard serializes runs of one job. A run that finds the guard held is
// skipped entirely rather than queued; the long run keeps going.
type Guard struct {
	running atomic.Bool
}

// TryRun executes fn if no other run holds the guard. Returns false when the
// run was skipped.
func (g *Guard) TryRun(fn func()) bool {
	if !g.running.CompareAndSwap(false, true) {
		return false
	}
	defer g.running.Store(false)
	fn()
	return true
}

func (g *Guard) Busy() bool {
	return g.running.Load()
}
