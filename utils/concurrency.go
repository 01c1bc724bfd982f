package utils

import "sync"

// KeyedLock serializes work per string key. The punish engine uses it to
// run one scoring invocation per user at a time, so two concurrent
// punishments cannot both read the same stage or decayed-points total
// before either writes.
type KeyedLock struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedLock() *KeyedLock {
	return &KeyedLock{locks: make(map[string]*entry)}
}

// Lock acquires the lock for key and returns the matching unlock func.
// Entries are dropped once the last holder releases, so the map does not
// grow with the user population.
func (k *KeyedLock) Lock(key string) (unlock func()) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
