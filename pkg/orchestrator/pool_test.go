package orchestrator

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunBoundedRunsEveryTaskToCompletion(t *testing.T) {
	tasks := make([]MachineTask[int], 5)
	for i := range tasks {
		i := i
		tasks[i] = func(ctx context.Context) int { return i * i }
	}
	results := RunBounded(context.Background(), 2, tasks)
	assert.Equal(t, []int{0, 1, 4, 9, 16}, results)
}

func TestRunBoundedSingleFailureDoesNotCancelSiblings(t *testing.T) {
	var ran int32
	tasks := []MachineTask[error]{
		func(ctx context.Context) error {
			atomic.AddInt32(&ran, 1)
			return assert.AnError
		},
		func(ctx context.Context) error {
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&ran, 1)
			return nil
		},
	}
	results := RunBounded(context.Background(), 2, tasks)
	assert.Error(t, results[0])
	assert.NoError(t, results[1])
	assert.EqualValues(t, 2, atomic.LoadInt32(&ran))
}

func TestRunBoundedRespectsLimit(t *testing.T) {
	var inFlight, maxSeen int32
	tasks := make([]MachineTask[struct{}], 10)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) struct{} {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				cur := atomic.LoadInt32(&maxSeen)
				if n <= cur || atomic.CompareAndSwapInt32(&maxSeen, cur, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return struct{}{}
		}
	}
	RunBounded(context.Background(), 3, tasks)
	assert.LessOrEqual(t, int(atomic.LoadInt32(&maxSeen)), 3)
}

func TestConcurrencyForCapsAtEight(t *testing.T) {
	assert.EqualValues(t, 8, concurrencyFor(20))
	assert.EqualValues(t, 3, concurrencyFor(3))
	assert.EqualValues(t, 1, concurrencyFor(0))
}
