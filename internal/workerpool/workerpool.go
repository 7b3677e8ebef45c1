// Package workerpool is the default collab.Executor: a fixed-size pool of
// goroutines draining a shared task queue, generalizing the
// goroutine-per-connection pattern the teacher's mirage.Service.Serve uses
// for accepted connections to per-task dispatch (spec §5: request and
// reply decoding/delivery run on a worker separate from the dispatcher
// goroutine so one slow handler cannot stall frame processing).
package workerpool

import (
	"context"
	"sync"

	"github.com/relaygrid/wiremux/internal/collab"
)

type queuedTask struct {
	ctx  context.Context
	task collab.Task
}

// Pool runs submitted tasks on a bounded set of worker goroutines.
type Pool struct {
	tasks chan queuedTask
	wg    sync.WaitGroup
	once  sync.Once
	done  chan struct{}
}

// New starts workers goroutines, each pulling from a shared task queue of
// depth queueDepth.
func New(workers, queueDepth int) *Pool {
	p := &Pool{
		tasks: make(chan queuedTask, queueDepth),
		done:  make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

func (p *Pool) run() {
	defer p.wg.Done()
	for {
		select {
		case qt, ok := <-p.tasks:
			if !ok {
				return
			}
			qt.task.Run(qt.ctx)
		case <-p.done:
			return
		}
	}
}

// Execute enqueues task for a worker goroutine. If the queue is full it
// spawns a dedicated goroutine rather than blocking the caller — the
// dispatcher goroutine must never block on Execute (spec §5).
func (p *Pool) Execute(ctx context.Context, task collab.Task) {
	select {
	case p.tasks <- queuedTask{ctx: ctx, task: task}:
	default:
		go task.Run(ctx)
	}
}

// Close stops the workers and waits for the tasks they are running to
// finish. Queued-but-not-yet-started tasks are abandoned. Execute does not
// check whether the pool is closed: a task submitted after Close is queued
// and never run, or, when the queue is full, run on its own goroutine.
func (p *Pool) Close() {
	p.once.Do(func() { close(p.done) })
	p.wg.Wait()
}
