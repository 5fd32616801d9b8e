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
	"runtime"
	"sync"

	"go.chromium.org/ktime/irq"
)

// locker is the clock's lock-discipline strategy, fixed at construction.
//
// do runs fn inside the clock's critical section. wait blocks the calling
// thread until cond (evaluated inside the critical section) holds; notify
// wakes waiters after a state change and must be called inside do.
type locker interface {
	do(fn func())
	wait(cond func() bool)
	notify()
}

// mutexLocker is the thread-safe strategy: a conventional mutex, with a
// condition variable for cancellation waits.
type mutexLocker struct {
	mu   sync.Mutex
	cond *sync.Cond
}

func newMutexLocker() *mutexLocker {
	l := &mutexLocker{}
	l.cond = sync.NewCond(&l.mu)
	return l
}

func (l *mutexLocker) do(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn()
}

func (l *mutexLocker) wait(cond func() bool) {
	l.mu.Lock()
	for !cond() {
		l.cond.Wait()
	}
	l.mu.Unlock()
}

func (l *mutexLocker) notify() {
	l.cond.Broadcast()
}

// irqLocker is the interrupt-safe strategy: critical sections run with
// interrupts masked, so they nest under an interrupt handler without
// deadlocking against the flow the handler preempted.
//
// On a real single CPU the mask alone is the exclusion. A simulated mask
// does not stop other goroutines, so the strategy pairs it with a plain
// mutex held only for the critical section's (short, non-blocking)
// duration; a goroutine standing in for an interrupt handler simply waits
// its turn instead of spinning forever against a preempted lock holder.
// There is still no blockable wait primitive in this mode, so wait is a
// yield-spin.
type irqLocker struct {
	ctl irq.Controller
	mu  sync.Mutex
}

func (l *irqLocker) do(fn func()) {
	st := l.ctl.Disable()
	defer l.ctl.Restore(st)
	l.mu.Lock()
	defer l.mu.Unlock()
	fn()
}

func (l *irqLocker) wait(cond func() bool) {
	for {
		ok := false
		l.do(func() { ok = cond() })
		if ok {
			return
		}
		runtime.Gosched()
	}
}

func (l *irqLocker) notify() {}
