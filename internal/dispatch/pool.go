package dispatch

import (
	"sync"

	"go.uber.org/zap"
)

// Pool is a bounded worker pool for fire-and-forget dispatch jobs, so
// neither the ingestion hot path nor the scheduler tick blocks on delivery
// and goroutine growth stays bounded under load.
type Pool struct {
	jobs   chan func()
	wg     sync.WaitGroup
	logger *zap.Logger
}

func NewPool(workers, queueSize int, logger *zap.Logger) *Pool {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 64
	}

	p := &Pool{
		jobs:   make(chan func(), queueSize),
		logger: logger,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Submit enqueues a job without blocking. A full queue drops the job and
// reports false; routine notifications are best effort.
func (p *Pool) Submit(job func()) bool {
	select {
	case p.jobs <- job:
		return true
	default:
		p.logger.Warn("Dispatch queue full, dropping job")
		return false
	}
}

// Shutdown stops accepting jobs and waits for in-flight ones to finish.
func (p *Pool) Shutdown() {
	close(p.jobs)
	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		job()
	}
}
