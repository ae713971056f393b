// Package lock provides per-key mutual exclusion.
package lock

import (
	"sync"
	"sync/atomic"
)

// Keyed hands out one mutex per key. Mutexes are created on first use and
// kept for the life of the process; concurrent first use of a key always
// resolves to a single mutex.
type Keyed[K comparable] struct {
	locks sync.Map // K -> *sync.Mutex
	n     atomic.Int64
}

func NewKeyed[K comparable]() *Keyed[K] {
	return &Keyed[K]{}
}

func (k *Keyed[K]) mutex(key K) *sync.Mutex {
	if v, ok := k.locks.Load(key); ok {
		return v.(*sync.Mutex)
	}
	v, loaded := k.locks.LoadOrStore(key, &sync.Mutex{})
	if !loaded {
		k.n.Add(1)
	}
	return v.(*sync.Mutex)
}

// Lock blocks until key's mutex is held and returns the guard that releases it.
func (k *Keyed[K]) Lock(key K) *Guard {
	mu := k.mutex(key)
	mu.Lock()
	return &Guard{mu: mu}
}

// Do runs fn while holding key's mutex. The mutex is released however fn exits.
func (k *Keyed[K]) Do(key K, fn func() error) error {
	g := k.Lock(key)
	defer g.Unlock()
	return fn()
}

// Len is the number of keys that have ever been locked.
func (k *Keyed[K]) Len() int {
	return int(k.n.Load())
}

// Guard is a held key lock.
type Guard struct {
	mu   *sync.Mutex
	once sync.Once
}

// Unlock releases the lock. Calls after the first are no-ops.
func (g *Guard) Unlock() {
	g.once.Do(g.mu.Unlock)
}
