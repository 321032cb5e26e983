package gpu

import (
	"runtime"
	"sync"
)

// parallelThreshold is the minimum element count to split a dispatch across workers.
// Below this, running inline is faster than the channel round trips.
const parallelThreshold = 256

// workChunk represents a range of elements for a worker to process.
type workChunk struct {
	start, end int
	fn         func(start, end int)
}

// workerPool holds the persistent goroutines that execute kernel dispatches.
// It is driven by a single goroutine (the device queue), so dispatches never overlap.
type workerPool struct {
	numWorkers int

	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool
}

func newWorkerPool(numWorkers int) *workerPool {
	if numWorkers < 1 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	return &workerPool{numWorkers: numWorkers}
}

// start launches the worker goroutines.
func (p *workerPool) start() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// stop signals all workers to exit and waits for them.
func (p *workerPool) stop() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

func (p *workerPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			chunk.fn(chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

// dispatch runs fn over [0, n) and returns once every chunk has completed.
// At most numWorkers chunks are in flight, which keeps both channels from filling.
func (p *workerPool) dispatch(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if n < parallelThreshold || p.numWorkers == 1 || !p.running {
		fn(0, n)
		return
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers

	chunksDispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		p.workChan <- workChunk{start: start, end: end, fn: fn}
		chunksDispatched++
	}

	for i := 0; i < chunksDispatched; i++ {
		<-p.doneChan
	}
}
