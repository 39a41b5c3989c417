package labtex

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/alitto/pond"
)

// taskPool runs independent tasks on a pond worker pool. A task that fails
// panics with its error; the panic handler keeps the first one for Wait.
type taskPool struct {
	pool *pond.WorkerPool
	mu   sync.Mutex
	err  error
}

func newPool(workers int) *taskPool {
	if workers < 1 {
		workers = 1
	}
	p := &taskPool{}
	panicHandler := func(v interface{}) {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.err != nil {
			return
		}
		if err, ok := v.(error); ok {
			p.err = err
		} else {
			p.err = fmt.Errorf("task panicked: %v", v)
		}
		log.Printf("[!] Task failed: %v", p.err)
	}
	p.pool = pond.New(workers, 1000, pond.MinWorkers(workers), pond.PanicHandler(panicHandler))
	return p
}

func (p *taskPool) Submit(task func() error) {
	p.pool.Submit(func() {
		if err := task(); err != nil {
			panic(err)
		}
	})
}

// Wait stops the pool once every submitted task has finished.
func (p *taskPool) Wait() error {
	p.pool.StopAndWait()
	if p.pool.FailedTasks() == 0 {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err == nil {
		return errors.New("worker task failed")
	}
	return p.err
}

// parallel calls fn(i) for every i in [0, n) on a fresh pool.
func parallel(workers, n int, fn func(i int) error) error {
	p := newPool(workers)
	for i := 0; i < n; i++ {
		i := i
		p.Submit(func() error {
			return fn(i)
		})
	}
	return p.Wait()
}
