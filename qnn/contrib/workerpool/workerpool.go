// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package workerpool provides a persistent worker pool for running
// independent inferences in parallel. Kernels themselves are synchronous;
// parallelism lives above them, one scratch arena per worker slot.
//
// Usage:
//
//	pool := workerpool.New(runtime.GOMAXPROCS(0))
//	defer pool.Close()
//
//	arenas := make([]*qnn.Arena, pool.NumWorkers())
//	pool.ParallelForSlots(len(inputs), func(slot, i int) {
//	    run(inputs[i], arenas[slot])
//	})
package workerpool

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Executor runs index ranges in parallel. *Pool implements it; a nil *Pool
// runs everything on the calling goroutine.
type Executor interface {
	NumWorkers() int
	ParallelFor(n int, fn func(start, end int))
	ParallelForSlots(n int, fn func(slot, i int))
}

var _ Executor = (*Pool)(nil)

// Pool is a set of goroutines spawned once and reused across calls.
type Pool struct {
	numWorkers int
	workC      chan workItem
	closeOnce  sync.Once
	closed     atomic.Bool
}

type workItem struct {
	fn      func()
	barrier *sync.WaitGroup
}

// New spawns numWorkers workers. If numWorkers <= 0, uses GOMAXPROCS.
func New(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	p := &Pool{
		numWorkers: numWorkers,
		workC:      make(chan workItem, numWorkers*2),
	}
	for range numWorkers {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	for item := range p.workC {
		item.fn()
		item.barrier.Done()
	}
}

// NumWorkers returns the number of workers, and so the number of distinct
// slots ParallelForSlots can hand out. A nil pool has one.
func (p *Pool) NumWorkers() int {
	if p == nil {
		return 1
	}
	return p.numWorkers
}

// Close stops the workers after pending work completes. Calling Close more
// than once is safe; a closed pool runs work sequentially.
func (p *Pool) Close() {
	if p == nil {
		return
	}
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.workC)
	})
}

// workers returns how many goroutines to use for n items, or 1 when the
// work must run on the caller.
func (p *Pool) workers(n int) int {
	if p == nil || p.closed.Load() {
		return 1
	}
	return min(p.numWorkers, n)
}

// ParallelFor splits [0, n) into one contiguous range per worker and blocks
// until all ranges are done.
func (p *Pool) ParallelFor(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	workers := p.workers(n)
	if workers == 1 {
		fn(0, n)
		return
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for i := range workers {
		start := i * chunk
		if start >= n {
			break
		}
		end := min(start+chunk, n)
		wg.Add(1)
		p.workC <- workItem{fn: func() { fn(start, end) }, barrier: &wg}
	}
	wg.Wait()
}

// ParallelForSlots calls fn for every index in [0, n), handing out indices
// by atomic work stealing. slot identifies the job running fn and lies in
// [0, NumWorkers()); no two concurrent calls share a slot, so per-slot
// state such as a scratch arena needs no locking.
func (p *Pool) ParallelForSlots(n int, fn func(slot, i int)) {
	if n <= 0 {
		return
	}
	workers := p.workers(n)
	if workers == 1 {
		for i := range n {
			fn(0, i)
		}
		return
	}

	var next atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for slot := range workers {
		p.workC <- workItem{
			fn: func() {
				for {
					i := int(next.Add(1)) - 1
					if i >= n {
						return
					}
					fn(slot, i)
				}
			},
			barrier: &wg,
		}
	}
	wg.Wait()
}
