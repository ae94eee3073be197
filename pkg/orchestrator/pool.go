package orchestrator

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// maxConcurrencyCap is the hard ceiling from spec §5 ("default: number of
// machines, cap 8").
const maxConcurrencyCap = 8

// concurrencyFor returns the default per-run concurrency: min(machineCount, 8).
func concurrencyFor(machineCount int) int64 {
	if machineCount <= 0 {
		return 1
	}
	if machineCount > maxConcurrencyCap {
		return maxConcurrencyCap
	}
	return int64(machineCount)
}

// MachineTask runs one machine's work and returns its result.
type MachineTask[T any] func(ctx context.Context) T

// RunBounded runs every task in tasks with at most limit concurrently
// in-flight, and always runs every task to completion — a single task's
// failure (signalled by the caller inside T) never cancels its siblings
// (spec §4.10: "the orchestrator continues with other machines"). Only ctx
// cancellation stops further tasks from starting.
func RunBounded[T any](ctx context.Context, limit int64, tasks []MachineTask[T]) []T {
	results := make([]T, len(tasks))
	if len(tasks) == 0 {
		return results
	}

	sem := semaphore.NewWeighted(limit)
	var wg sync.WaitGroup
	for i, task := range tasks {
		if err := sem.Acquire(ctx, 1); err != nil {
			// ctx was cancelled before this task could start; its result
			// stays at T's zero value.
			continue
		}
		wg.Add(1)
		go func(i int, task MachineTask[T]) {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = task(ctx)
		}(i, task)
	}
	wg.Wait()
	return results
}
