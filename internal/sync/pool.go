package sync

import (
	"context"
	stdsync "sync"

	"golang.org/x/sync/semaphore"

	"vossync/internal/shared/goroutine"
	"vossync/internal/shared/logger"
)

// WorkerPool bounds concurrent sync jobs globally and serializes jobs that
// target the same instance, so one slow upstream never sees overlapping
// pulls from us.
type WorkerPool struct {
	sem *semaphore.Weighted
	log logger.Interface

	mu        stdsync.Mutex
	instances map[uint]*stdsync.Mutex
	wg        stdsync.WaitGroup
}

// NewWorkerPool creates a pool with the given global concurrency bound.
func NewWorkerPool(size int, log logger.Interface) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	return &WorkerPool{
		sem:       semaphore.NewWeighted(int64(size)),
		log:       log,
		instances: make(map[uint]*stdsync.Mutex),
	}
}

func (p *WorkerPool) instanceLock(instanceID uint) *stdsync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.instances[instanceID]
	if !ok {
		l = &stdsync.Mutex{}
		p.instances[instanceID] = l
	}
	return l
}

// Run executes fn after acquiring a global slot and the instance lock,
// blocking the caller until the job finishes. A cancelled context drops
// the job before it acquires a slot.
func (p *WorkerPool) Run(ctx context.Context, instanceID uint, name string, fn func(ctx context.Context) error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		p.log.Debugw("sync job dropped", "job", name, "reason", err)
		return err
	}
	defer p.sem.Release(1)

	lock := p.instanceLock(instanceID)
	lock.Lock()
	defer lock.Unlock()

	if err := fn(ctx); err != nil {
		p.log.Errorw("sync job failed", "job", name, "instance_id", instanceID, "error", err)
		return err
	}
	return nil
}

// Submit runs fn on the pool without blocking the caller.
func (p *WorkerPool) Submit(ctx context.Context, instanceID uint, name string, fn func(ctx context.Context) error) {
	p.wg.Add(1)
	goroutine.SafeGo(p.log, name, func() {
		defer p.wg.Done()
		_ = p.Run(ctx, instanceID, name, fn)
	})
}

// Wait blocks until every submitted job has finished.
func (p *WorkerPool) Wait() {
	p.wg.Wait()
}
