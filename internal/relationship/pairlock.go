package relationship

import "sync"

// pairLocker serializes operations per unordered user pair. Crossed requests
// and double-submits race on the same pair of users, so every
// read-check-write sequence runs under the mutex for the sorted (low, high)
// pair. Mutexes are created on demand and kept for the process lifetime; the
// set of pairs touched by one deployment is small enough not to bother with
// eviction.
type pairLocker struct {
	mu    sync.Mutex
	locks map[[2]uint]*sync.Mutex
}

func newPairLocker() *pairLocker {
	return &pairLocker{locks: make(map[[2]uint]*sync.Mutex)}
}

// Lock acquires the mutex for the unordered pair (a, b) and returns the
// unlock function.
func (p *pairLocker) Lock(a, b uint) func() {
	key := pairKey(a, b)

	p.mu.Lock()
	m, ok := p.locks[key]
	if !ok {
		m = &sync.Mutex{}
		p.locks[key] = m
	}
	p.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func pairKey(a, b uint) [2]uint {
	if a > b {
		a, b = b, a
	}
	return [2]uint{a, b}
}
