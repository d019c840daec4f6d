package mcl

import (
	"runtime"
	"sync"
)

// parallelThreshold is the minimum particle count to use the worker pool.
// Below this, running inline is faster than the channel round trips.
const parallelThreshold = 256

// chunk is a contiguous range of particles. Each chunk has a fixed id so it
// always draws from the same random stream, whichever worker runs it.
type chunk struct {
	id         int
	start, end int
}

type task struct {
	c  chunk
	fn func(chunk)
}

// workerPool runs chunked work on persistent goroutines.
type workerPool struct {
	numWorkers int

	workChan chan task      // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool
}

func newWorkerPool(numWorkers int) *workerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	return &workerPool{numWorkers: numWorkers}
}

func (p *workerPool) start() {
	if p.running {
		return
	}
	p.workChan = make(chan task, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

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
		case t, ok := <-p.workChan:
			if !ok {
				return
			}
			t.fn(t.c)
			p.doneChan <- struct{}{}
		}
	}
}

// run applies fn to every chunk and returns when all are done. Small jobs
// and single-worker pools run inline in chunk order.
func (p *workerPool) run(n int, chunks []chunk, fn func(chunk)) {
	if n < parallelThreshold || p.numWorkers == 1 {
		for _, c := range chunks {
			fn(c)
		}
		return
	}
	p.start()

	// Dispatch from a separate goroutine so a full work channel cannot
	// block against unread completions.
	go func() {
		for _, c := range chunks {
			p.workChan <- task{c: c, fn: fn}
		}
	}()
	for range chunks {
		<-p.doneChan
	}
}

// splitChunks divides n items into k near-equal ranges, skipping empties.
func splitChunks(n, k int) []chunk {
	if k <= 0 {
		k = 1
	}
	size := (n + k - 1) / k
	chunks := make([]chunk, 0, k)
	for id := 0; id < k; id++ {
		start := id * size
		end := min(start+size, n)
		if start >= end {
			break
		}
		chunks = append(chunks, chunk{id: id, start: start, end: end})
	}
	return chunks
}
