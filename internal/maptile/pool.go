package maptile

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Faultbox/regiontile/internal/logger"
)

// Pool errors.
var (
	ErrQueueFull  = errors.New("maptile: tile queue full")
	ErrPoolClosed = errors.New("maptile: tile pool closed")
)

// DefaultQueue is the queue length used when none is configured.
const DefaultQueue = 16

// Job is one unit of queued tile work.
type Job func()

// Pool runs tile jobs on a fixed set of background workers so callers never
// wait on a render. Queued jobs always run to completion.
type Pool struct {
	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once
	mu   sync.RWMutex

	closed atomic.Bool
	done   atomic.Int64
	log    *zap.Logger
}

// NewPool starts workers goroutines with room for queue waiting jobs.
// Non-positive values select one worker and DefaultQueue.
func NewPool(workers, queue int) *Pool {
	workers = max(workers, 1)
	if queue <= 0 {
		queue = DefaultQueue
	}
	p := &Pool{
		ch:  make(chan Job, queue),
		log: logger.Named("maptile"),
	}
	p.wg.Add(workers)
	for range workers {
		go func() {
			defer p.wg.Done()
			p.loop()
		}()
	}
	return p
}

func (p *Pool) loop() {
	for job := range p.ch {
		p.run(job)
	}
}

func (p *Pool) run(job Job) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("tile job panicked", zap.Error(fmt.Errorf("%v", r)))
		}
		p.done.Add(1)
	}()
	job()
}

// Submit queues a job without blocking.
func (p *Pool) Submit(job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed.Load() {
		return ErrPoolClosed
	}
	select {
	case p.ch <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Completed returns the number of jobs that have finished.
func (p *Pool) Completed() int64 {
	return p.done.Load()
}

// Close stops accepting jobs and waits for queued ones to finish.
func (p *Pool) Close() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed.Store(true)
		close(p.ch)
		p.mu.Unlock()
	})
	p.wg.Wait()
}
