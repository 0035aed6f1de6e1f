package services

import (
	"sync"
)

// screenLocks serializes placement changes per screen. Entries are reference
// counted and dropped once no caller holds or waits for them.
type screenLocks struct {
	mu    sync.Mutex
	locks map[string]*screenLock
}

type screenLock struct {
	mu   sync.Mutex
	refs int
}

func newScreenLocks() *screenLocks {
	return &screenLocks{locks: make(map[string]*screenLock)}
}

// with runs fn while holding screenID's lock
func (l *screenLocks) with(screenID string, fn func() error) error {
	l.mu.Lock()
	lock, ok := l.locks[screenID]
	if !ok {
		lock = &screenLock{}
		l.locks[screenID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()
	defer func() {
		lock.mu.Unlock()
		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, screenID)
		}
		l.mu.Unlock()
	}()

	return fn()
}
