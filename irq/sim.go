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

package irq

import (
	"context"
	"sync"
	"sync/atomic"

	"go.chromium.org/luci/common/logging"
)

// Sim is a Controller simulating a single CPU's interrupt-enable flag.
//
// Disable/Restore maintain a nesting depth on that simulated CPU; deferred
// work queued via QueueWork is drained by a dedicated goroutine standing in
// for the kernel's bottom-half worker. The Interrupt method runs a function
// as if it were a hardware interrupt handler: with interrupts masked for its
// whole duration.
//
// Sim models one CPU, so the "current flow of control" is whichever
// goroutine most recently called Disable. That is sufficient for clocks,
// whose critical sections are short and never yield.
type Sim struct {
	ctx context.Context

	depth atomic.Int32

	mu      sync.Mutex
	cond    *sync.Cond
	work    []func()
	closing bool
	done    chan struct{}
}

var _ Controller = (*Sim)(nil)

// NewSim returns a running Sim. The context is used for logging only.
func NewSim(ctx context.Context) *Sim {
	s := &Sim{
		ctx:  ctx,
		done: make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	go s.drain()
	return s
}

// Disable masks interrupts on the simulated CPU, returning the prior
// nesting depth.
func (s *Sim) Disable() State {
	return State(s.depth.Add(1) - 1)
}

// Restore reinstates the nesting depth returned by the matching Disable.
// Unmasking fully wakes the bottom-half worker if work accumulated while
// the CPU was masked.
func (s *Sim) Restore(st State) {
	s.depth.Store(int32(st))
	if st == 0 {
		s.mu.Lock()
		if len(s.work) > 0 {
			s.cond.Signal()
		}
		s.mu.Unlock()
	}
}

// InInterrupt reports whether the simulated CPU currently has interrupts
// masked.
func (s *Sim) InInterrupt() bool {
	return s.depth.Load() > 0
}

// QueueWork appends fn to the deferred-work queue without blocking.
func (s *Sim) QueueWork(fn func()) {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		panic("irq: QueueWork on a closed Sim")
	}
	s.work = append(s.work, fn)
	s.mu.Unlock()
	s.cond.Signal()
}

// Interrupt invokes fn as a simulated hardware interrupt handler.
func (s *Sim) Interrupt(fn func()) {
	st := s.Disable()
	defer s.Restore(st)
	fn()
}

// Close drains any remaining deferred work and stops the worker. Queueing
// work after Close panics.
func (s *Sim) Close() {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closing = true
	s.mu.Unlock()
	s.cond.Signal()
	<-s.done
	logging.Debugf(s.ctx, "irq: simulated controller closed")
}

func (s *Sim) drain() {
	defer close(s.done)
	for {
		s.mu.Lock()
		// Bottom halves do not run while the CPU is masked; Restore wakes
		// us when the mask drops to zero with work pending.
		for (len(s.work) == 0 || s.depth.Load() > 0) && !s.closing {
			s.cond.Wait()
		}
		if len(s.work) == 0 {
			s.mu.Unlock()
			return
		}
		fn := s.work[0]
		s.work = s.work[1:]
		s.mu.Unlock()
		fn()
	}
}
