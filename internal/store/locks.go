package store

import (
	"fmt"
	"sync"
)

// KeyedLocks hands out one mutex per entity key, so mutations to the same
// entity serialize while different entities proceed in parallel.
// Locks are never released from the map; the key space is bounded by the
// number of live entities.
type KeyedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewKeyedLocks() *KeyedLocks {
	return &KeyedLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *KeyedLocks) get(key string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	return m
}

// Lock acquires the mutex for key and returns its unlock func.
func (l *KeyedLocks) Lock(key string) func() {
	m := l.get(key)
	m.Lock()
	return m.Unlock
}

// Key builds an entity lock key; one namespace per serialization domain
// (event, playlist, sessiontrack, playerauthor).
func Key(namespace string, id int64) string {
	return fmt.Sprintf("%s:%d", namespace, id)
}
