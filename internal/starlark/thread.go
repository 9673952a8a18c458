package starlark

import "go.starlark.net/starlark"

// maxFormulaSteps bounds a single formula evaluation. Formulas are single
// expressions, so anything near this limit is a runaway comprehension.
const maxFormulaSteps = 100_000

// ThreadPool hands out Starlark threads to concurrent formula evaluations.
// A run evaluates each custom KPI once per facility on the engine's worker
// goroutines, so idle threads are kept in a buffered channel.
type ThreadPool struct {
	idle chan *starlark.Thread
}

// NewThreadPool creates a pool that keeps at most size idle threads.
// A size of zero or less keeps four.
func NewThreadPool(size int) *ThreadPool {
	if size <= 0 {
		size = 4
	}
	return &ThreadPool{idle: make(chan *starlark.Thread, size)}
}

// Acquire returns an idle thread or a new one, named after the KPI being
// evaluated so errors point at it.
func (p *ThreadPool) Acquire(kpiID string) *starlark.Thread {
	select {
	case thread := <-p.idle:
		thread.Name = kpiID
		return thread
	default:
	}
	thread := &starlark.Thread{
		Name:  kpiID,
		Print: func(*starlark.Thread, string) {},
	}
	thread.SetMaxExecutionSteps(maxFormulaSteps)
	return thread
}

// Release resets the thread's step budget and keeps it for reuse. Threads
// beyond the pool size are dropped.
func (p *ThreadPool) Release(thread *starlark.Thread) {
	thread.Name = ""
	thread.Steps = 0
	select {
	case p.idle <- thread:
	default:
	}
}

// Idle returns the number of threads waiting for reuse.
func (p *ThreadPool) Idle() int {
	return len(p.idle)
}
