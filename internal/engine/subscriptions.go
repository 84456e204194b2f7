package engine

import "sync"

// refCounter tracks how many strategy instances depend on each shared
// (symbol, interval) channel.
type refCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func newRefCounter() *refCounter {
	return &refCounter{counts: make(map[string]int)}
}

// acquire increments the count for key and reports whether this was the
// first reference.
func (r *refCounter) acquire(key string) (first bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[key]++
	return r.counts[key] == 1
}

// release decrements the count for key and reports whether this was the last
// reference. Releasing an untracked key is a no-op.
func (r *refCounter) release(key string) (last bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.counts[key]
	if !ok {
		return false
	}
	if n <= 1 {
		delete(r.counts, key)
		return true
	}
	r.counts[key] = n - 1
	return false
}

// count returns the current reference count for key
func (r *refCounter) count(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[key]
}
