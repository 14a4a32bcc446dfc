package bot

import "sync"

// keyedMutex serializes booking attempts per (counselor, date, slot) so the
// availability re-check and the hold write cannot interleave for the same
// slot. The lock is process-local: multiple processes sharing one ledger
// still need a ledger-side uniqueness check.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
