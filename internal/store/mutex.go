package store

import (
	"fmt"
	"sync"
)

// keyedMutex serializes work per resource key (bed, department, equipment).
// Mutexes are created on first use and kept for the process lifetime; the
// key space is bounded by the hospital's bed and department counts.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// lock acquires the mutex for the given resource and returns its unlock.
func (k *keyedMutex) lock(kind string, id int64) func() {
	key := fmt.Sprintf("%s/%d", kind, id)

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
