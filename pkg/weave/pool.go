package weave

import (
	"runtime"
	"sync"
)

// pool is a fixed-size worker pool for the parallel rope build phase.
// Each submitted task owns its rope path and writes into its own
// pre-sized result slot, so no locking is needed beyond the join.
type pool struct {
	tasks chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

// newPool starts size workers. If size is zero or negative, GOMAXPROCS
// workers are used.
func newPool(size int) *pool {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
		if size <= 0 {
			size = 1
		}
	}
	p := &pool{tasks: make(chan func(), size*2)}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.worker()
	}
	return p
}

func (p *pool) worker() {
	defer p.wg.Done()
	for fn := range p.tasks {
		if fn != nil {
			fn()
		}
	}
}

// submit enqueues a task. Blocks when the queue is full.
func (p *pool) submit(fn func()) {
	p.tasks <- fn
}

// stop closes the queue and waits for all in-flight tasks to finish.
// This is the join barrier before result aggregation.
func (p *pool) stop() {
	p.once.Do(func() {
		close(p.tasks)
		p.wg.Wait()
	})
}
