package runtime

import (
	"slices"
	"sort"
	"sync"
)

// entityLock is a refcounted mutex, removed from the table once idle so the
// table stays proportional to contended entities, not to all entities ever
// touched.
type entityLock struct {
	mu   sync.Mutex
	refs int
}

// EntityLocks provides per-entity mutual exclusion. Every mutating operation
// holds the lock of each entity it reads, modifies, persists and broadcasts,
// so concurrent operations on the same entity apply in arrival order while
// disjoint entities proceed in parallel.
type EntityLocks struct {
	mu    sync.Mutex
	locks map[string]*entityLock
}

func NewEntityLocks() *EntityLocks {
	return &EntityLocks{locks: make(map[string]*entityLock)}
}

// Lock acquires the locks for all given ids and returns the matching unlock.
// Ids are acquired in sorted order, so callers locking a (user, channel)
// pair can never deadlock against each other. Duplicate ids collapse to one
// acquisition: ids come from client requests, and locking the same entity
// twice would block forever on its own mutex.
func (l *EntityLocks) Lock(ids ...string) (unlock func()) {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)
	sorted = slices.Compact(sorted)

	acquired := make([]*entityLock, 0, len(sorted))
	for _, id := range sorted {
		acquired = append(acquired, l.acquire(id))
	}
	for _, e := range acquired {
		e.mu.Lock()
	}

	return func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			acquired[i].mu.Unlock()
		}
		for _, id := range sorted {
			l.release(id)
		}
	}
}

func (l *EntityLocks) acquire(id string) *entityLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.locks[id]
	if !ok {
		e = &entityLock{}
		l.locks[id] = e
	}
	e.refs++
	return e
}

func (l *EntityLocks) release(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.locks[id]
	if !ok {
		return
	}
	e.refs--
	if e.refs == 0 {
		delete(l.locks, id)
	}
}
