package service

import (
	"sync"
)

// PlanLock serializes membership-mutating work per plan. Two simultaneous
// joins on the same plan must observe each other's quantities; joins on
// unrelated plans proceed in parallel.
type PlanLock struct {
	mu    sync.Mutex
	locks map[string]*planEntry
}

type planEntry struct {
	mu   sync.Mutex
	refs int
}

func NewPlanLock() *PlanLock {
	return &PlanLock{locks: make(map[string]*planEntry)}
}

// Lock acquires the mutex for planID and returns the matching unlock.
// Entries are reference counted so the map does not grow with every plan
// ever touched.
func (l *PlanLock) Lock(planID string) func() {
	l.mu.Lock()
	entry, ok := l.locks[planID]
	if !ok {
		entry = &planEntry{}
		l.locks[planID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, planID)
		}
		l.mu.Unlock()
	}
}
