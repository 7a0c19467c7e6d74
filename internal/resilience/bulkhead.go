package resilience

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// Bulkhead is a bounded admission pool for one class of work. Separate
// pools for I/O-bound and CPU-bound work keep a backlog in one class
// from starving the other.
type Bulkhead struct {
	name string
	sem  *semaphore.Weighted
	size int
}

// NewBulkhead creates a pool admitting up to size concurrent tasks
func NewBulkhead(name string, size int) *Bulkhead {
	if size <= 0 {
		size = 1
	}
	return &Bulkhead{
		name: name,
		sem:  semaphore.NewWeighted(int64(size)),
		size: size,
	}
}

// Run executes fn once a slot is acquired, or returns the context error
// if the deadline expires while waiting
func (b *Bulkhead) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer b.sem.Release(1)
	return fn(ctx)
}

// TryRun executes fn only if a slot is free right now; the boolean
// reports whether fn ran
func (b *Bulkhead) TryRun(ctx context.Context, fn func(ctx context.Context) error) (bool, error) {
	if !b.sem.TryAcquire(1) {
		return false, nil
	}
	defer b.sem.Release(1)
	return true, fn(ctx)
}

// Size returns the pool capacity
func (b *Bulkhead) Size() int {
	return b.size
}

// Bulkheads bundles the two pools every request passes through
type Bulkheads struct {
	IO  *Bulkhead
	CPU *Bulkhead
}

// NewBulkheads sizes the CPU pool to the available cores when cpuSize
// is zero
func NewBulkheads(ioSize, cpuSize int) *Bulkheads {
	if cpuSize <= 0 {
		cpuSize = runtime.NumCPU()
	}
	return &Bulkheads{
		IO:  NewBulkhead("io", ioSize),
		CPU: NewBulkhead("cpu", cpuSize),
	}
}
