package backendauth

import "sync/atomic"

// AtomicGuard holds the active Guard and lets a reload replace it without
// locking the request path.
type AtomicGuard struct {
	current atomic.Pointer[Guard]
}

// NewAtomicGuard creates a holder seeded with g.
func NewAtomicGuard(g *Guard) *AtomicGuard {
	a := &AtomicGuard{}
	a.current.Store(g)
	return a
}

// Load returns the active guard.
func (a *AtomicGuard) Load() *Guard {
	return a.current.Load()
}

// Swap installs g and returns the previous guard. A nil g is ignored.
func (a *AtomicGuard) Swap(g *Guard) *Guard {
	if g == nil {
		return a.current.Load()
	}
	return a.current.Swap(g)
}

// Evaluate delegates to the active guard.
func (a *AtomicGuard) Evaluate(req Request) Decision {
	return a.current.Load().Evaluate(req)
}

// Ensure AtomicGuard implements Evaluator.
var _ Evaluator = (*AtomicGuard)(nil)
