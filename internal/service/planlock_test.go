package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlanLockSerializesSamePlan(t *testing.T) {
	l := NewPlanLock()

	var counter, max int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("plan_a")
			defer unlock()

			mu.Lock()
			counter++
			if counter > max {
				max = counter
			}
			mu.Unlock()

			mu.Lock()
			counter--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, max, "only one holder per plan at a time")
}

func TestPlanLockEntriesAreReleased(t *testing.T) {
	l := NewPlanLock()

	unlockA := l.Lock("plan_a")
	unlockB := l.Lock("plan_b")
	unlockA()
	unlockB()

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Empty(t, l.locks, "released entries must not accumulate")
}
