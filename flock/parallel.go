package flock

import "sync"

// parallelThreshold is the minimum active count to use the worker pool.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 1024

// workerScratch holds per-worker counters.
type workerScratch struct {
	degenerate int
}

// workChunk represents a range of entities for a worker to process.
type workChunk struct {
	start, end int
}

// parallelState holds resources for parallel interaction.
// Workers read headings from frozen, a copy taken before dispatch, so results
// do not depend on chunk scheduling.
type parallelState struct {
	frozen     []float32
	scratches  []workerScratch
	numWorkers int

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

func newParallelState(numWorkers, population int) *parallelState {
	return &parallelState{
		numWorkers: numWorkers,
		scratches:  make([]workerScratch, numWorkers),
		frozen:     make([]float32, 3*population),
	}
}

// startWorkers launches persistent worker goroutines.
func (p *parallelState) startWorkers(s *Simulation) {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(s, i)
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *parallelState) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *parallelState) worker(s *Simulation, workerID int) {
	defer p.wg.Done()
	scratch := &p.scratches[workerID]

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			scratch.degenerate += s.interactRange(chunk.start, chunk.end, p.frozen, s.state.Directions)
			p.doneChan <- struct{}{}
		}
	}
}

// interactParallel splits interact across the pool and blocks until every chunk is done.
func (s *Simulation) interactParallel(n int) int {
	p := s.parallel
	copy(p.frozen[:3*n], s.state.Directions[:3*n])

	if !p.running {
		p.startWorkers(s)
	}
	for i := range p.scratches {
		p.scratches[i].degenerate = 0
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

		p.workChan <- workChunk{start: start, end: end}
		chunksDispatched++
	}

	// Barrier: move must not start until every heading is written
	for i := 0; i < chunksDispatched; i++ {
		<-p.doneChan
	}

	degenerate := 0
	for i := range p.scratches {
		degenerate += p.scratches[i].degenerate
	}
	return degenerate
}
