package transcoding

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Pool bounds how many blocking conversions run at once so a burst of
// slow uploads cannot pile up unbounded subprocesses.
type Pool struct {
	sem     *semaphore.Weighted
	size    int64
	running atomic.Int64
}

func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		sem:  semaphore.NewWeighted(int64(size)),
		size: int64(size),
	}
}

// Do waits for a free slot (or ctx) then runs job
func (p *Pool) Do(ctx context.Context, job func(ctx context.Context) error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("gave up waiting for a conversion slot; %w", err)
	}
	defer p.sem.Release(1)

	p.running.Add(1)
	defer p.running.Add(-1)

	return job(ctx)
}

// Running returns the number of jobs currently holding a slot
func (p *Pool) Running() int {
	return int(p.running.Load())
}

func (p *Pool) Size() int {
	return int(p.size)
}
