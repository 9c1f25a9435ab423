package game

import (
	"runtime"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// parallelThreshold is the minimum agent count to steer in parallel.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 64

// steerSnapshot captures the read-only state one agent needs to steer.
type steerSnapshot struct {
	agent    *agentState
	pos      mgl64.Vec3
	grounded bool
}

// steerIntent is the steering output applied after the parallel phase.
type steerIntent struct {
	vel  mgl64.Vec3
	jump bool
	ok   bool
}

// workChunk represents a range of snapshots for a worker to process.
type workChunk struct {
	start, end int
}

// parallelState holds resources for parallel path steering. Each navigator is
// owned by one agent and the nav grid is read-only during a tick, so chunks
// never share mutable state.
type parallelState struct {
	snapshots  []steerSnapshot
	intents    []steerIntent
	numWorkers int

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool
}

func newParallelState() *parallelState {
	return &parallelState{
		numWorkers: runtime.GOMAXPROCS(0),
		snapshots:  make([]steerSnapshot, 0, 64),
		intents:    make([]steerIntent, 0, 64),
	}
}

// startWorkers launches persistent worker goroutines.
func (p *parallelState) startWorkers() {
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
func (p *parallelState) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			p.computeChunk(chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

func (p *parallelState) computeChunk(start, end int) {
	for i := start; i < end; i++ {
		s := &p.snapshots[i]
		vel, jump, ok := s.agent.nav.Steer(s.pos, s.grounded)
		p.intents[i] = steerIntent{vel: vel, jump: jump, ok: ok}
	}
}

// computeParallel dispatches work to the worker pool and waits for it.
func (p *parallelState) computeParallel(n int) {
	if !p.running {
		p.startWorkers()
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers
	dispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}
		p.workChan <- workChunk{start: start, end: end}
		dispatched++
	}
	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}
}

// updateSteer converts each agent's active path into a horizontal velocity.
// Agents without a path keep whatever velocity the controller set.
func (g *Game) updateSteer() {
	p := g.parallel

	// Phase A: snapshot ECS state (single-threaded)
	p.snapshots = p.snapshots[:0]
	for _, a := range g.agents {
		p.snapshots = append(p.snapshots, steerSnapshot{
			agent:    a,
			pos:      a.body.Position(),
			grounded: a.body.IsGrounded(),
		})
	}
	n := len(p.snapshots)
	if n == 0 {
		return
	}
	if cap(p.intents) < n {
		p.intents = make([]steerIntent, n)
	}
	p.intents = p.intents[:n]

	// Phase B: compute
	if n < parallelThreshold {
		p.computeChunk(0, n)
	} else {
		p.computeParallel(n)
	}

	// Phase C: apply intents in agent order
	for i, s := range p.snapshots {
		in := p.intents[i]
		if !in.ok {
			continue
		}
		v := s.agent.body.Velocity()
		s.agent.body.SetVelocity(mgl64.Vec3{in.vel.X(), v.Y(), in.vel.Z()})
		if in.jump {
			s.agent.body.TriggerJump()
		}
	}
}
