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

package ktime

import (
	"sync"
	"sync/atomic"

	"go.chromium.org/ktime/irq"
	"go.chromium.org/ktime/timeval"
)

// recordingExecutor collects scheduled functions so tests decide exactly
// when deferred invocations run.
type recordingExecutor struct {
	mu    sync.Mutex
	tasks []func()
}

func (e *recordingExecutor) Schedule(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tasks = append(e.tasks, fn)
}

func (e *recordingExecutor) pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tasks)
}

// runOne pops and runs the oldest task, reporting whether there was one.
func (e *recordingExecutor) runOne() bool {
	e.mu.Lock()
	if len(e.tasks) == 0 {
		e.mu.Unlock()
		return false
	}
	fn := e.tasks[0]
	e.tasks = e.tasks[1:]
	e.mu.Unlock()
	fn()
	return true
}

// runAll drains the task list, including tasks scheduled while draining,
// and returns how many ran.
func (e *recordingExecutor) runAll() int {
	n := 0
	for e.runOne() {
		n++
	}
	return n
}

// fakeIRQ is a hand-driven interrupt controller: tests decide when the
// deferred work runs.
type fakeIRQ struct {
	depth atomic.Int32

	mu   sync.Mutex
	work []func()
}

func (f *fakeIRQ) Disable() irq.State {
	return irq.State(f.depth.Add(1) - 1)
}

func (f *fakeIRQ) Restore(st irq.State) {
	f.depth.Store(int32(st))
}

func (f *fakeIRQ) InInterrupt() bool {
	return f.depth.Load() > 0
}

func (f *fakeIRQ) QueueWork(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.work = append(f.work, fn)
}

func (f *fakeIRQ) pendingWork() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.work)
}

// runWork drains the deferred-work queue in thread context and returns how
// many entries ran.
func (f *fakeIRQ) runWork() int {
	n := 0
	for {
		f.mu.Lock()
		if len(f.work) == 0 {
			f.mu.Unlock()
			return n
		}
		fn := f.work[0]
		f.work = f.work[1:]
		f.mu.Unlock()
		fn()
		n++
	}
}

// interrupt runs fn as a simulated interrupt handler.
func (f *fakeIRQ) interrupt(fn func()) {
	st := f.Disable()
	defer f.Restore(st)
	fn()
}

// delayDeltas snapshots the stored per-node deltas of the delay queue.
func delayDeltas(c *Clock) []timeval.Value {
	var out []timeval.Value
	c.lk.do(func() {
		for t := c.delayHead; t != nil; t = t.next {
			out = append(out, t.when)
		}
	})
	return out
}

// remainingDelays snapshots the cumulative remaining delay of every node
// on the delay queue, i.e. the from-head delta sums.
func remainingDelays(c *Clock) []timeval.Value {
	var out []timeval.Value
	c.lk.do(func() {
		sum := timeval.Value{}
		for t := c.delayHead; t != nil; t = t.next {
			sum = sum.Add(t.when)
			out = append(out, sum)
		}
	})
	return out
}

// absDeadlines snapshots the deadlines on the absolute queue, in order.
func absDeadlines(c *Clock) []timeval.Value {
	var out []timeval.Value
	c.lk.do(func() {
		for t := c.absHead; t != nil; t = t.next {
			out = append(out, t.when)
		}
	})
	return out
}

func armed(c *Clock, t *Timer) bool {
	var ok bool
	c.lk.do(func() { ok = t.flags&flagActive != 0 })
	return ok
}

func firing(c *Clock, t *Timer) bool {
	var ok bool
	c.lk.do(func() { ok = t.flags&(flagFiring|flagDeferred) != 0 })
	return ok
}
