package world

import (
	"runtime"
	"sync"
)

// parallelThreshold is the minimum creature count to use the pool.
// Below this, a single goroutine is faster.
const parallelThreshold = 256

// workChunk is a range of tiles for one worker.
type workChunk struct {
	start, end int
	fn         func(start, end int)
}

// pool is a persistent set of workers for the execute phase. Workers only
// compute; results are applied by the caller in tile order, so runs stay
// deterministic.
type pool struct {
	numWorkers int

	workChan chan workChunk
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func newPool(workers int) *pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := &pool{
		numWorkers: workers,
		workChan:   make(chan workChunk, 4*workers),
		doneChan:   make(chan struct{}, 4*workers),
		stopChan:   make(chan struct{}),
	}
	for range workers {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopChan:
			return
		case chunk := <-p.workChan:
			chunk.fn(chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

// run splits [0, n) into chunks and blocks until fn has covered all of them.
// Chunks are smaller than n/workers so uneven tiles balance out.
func (p *pool) run(n int, fn func(start, end int)) {
	if n == 0 {
		return
	}
	chunks := 4 * p.numWorkers
	size := (n + chunks - 1) / chunks
	dispatched := 0
	for start := 0; start < n; start += size {
		end := min(start+size, n)
		p.workChan <- workChunk{start: start, end: end, fn: fn}
		dispatched++
	}
	for range dispatched {
		<-p.doneChan
	}
}

func (p *pool) stop() {
	close(p.stopChan)
	p.wg.Wait()
}
