// Copyright 2026 The LUCI Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package executor

import (
	"context"
	"sync"

	"go.chromium.org/luci/common/logging"
)

// Pool is a fixed-size pool of worker goroutines draining an unbounded
// queue of scheduled functions.
//
// Schedule never blocks, which lets it be called from inside a clock's
// critical section (including with interrupts masked on a simulated CPU).
// The cost is an unbounded queue: a caller scheduling faster than its
// workers drain will grow it without backpressure, the same trade a
// kernel's deferred-work queue makes.
type Pool struct {
	ctx context.Context

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []func()
	closing bool
	closed  bool

	wg sync.WaitGroup
}

var _ Executor = (*Pool)(nil)

// NewPool returns a running Pool with the given number of workers.
//
// workers values below 1 are treated as 1. The context is used for logging
// only.
func NewPool(ctx context.Context, workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{ctx: ctx}
	p.cond = sync.NewCond(&p.mu)
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	logging.Debugf(ctx, "executor: pool started with %d workers", workers)
	return p
}

// Schedule appends fn to the work queue without blocking.
//
// While Close is draining, Schedule remains legal from within queued
// functions (the scheduling worker is still alive to run the new entry);
// once Close has returned, Schedule panics.
func (p *Pool) Schedule(fn func()) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		panic("executor: Schedule on a closed Pool")
	}
	p.queue = append(p.queue, fn)
	p.mu.Unlock()
	p.cond.Signal()
}

// Close waits for the queue to drain, then stops all workers. Scheduling
// after Close panics.
//
// Functions scheduled by already-queued functions are still honored; Close
// returns only once the queue stays empty.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closing = true
	p.mu.Unlock()
	p.cond.Broadcast()
	p.wg.Wait()
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	logging.Debugf(p.ctx, "executor: pool closed")
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closing {
			p.cond.Wait()
		}
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		fn := p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()
		fn()
	}
}
