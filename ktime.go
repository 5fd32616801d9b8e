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
	"go.chromium.org/ktime/timeval"
)

// Flags control how a Timer is armed and dispatched.
type Flags uint32

const (
	// Absolute arms the timer with an absolute deadline on the clock's
	// timeline instead of a delay relative to registration.
	Absolute Flags = 1 << iota

	// IRQSafe marks the callback as safe to invoke synchronously from
	// whatever context triggers the clock, including a hardware interrupt
	// handler with interrupts masked.
	//
	// An IRQSafe callback runs inside the clock's critical section. It must
	// not block. It may read the clock's time (Now, Time, Advancement,
	// Resolution are lock-free) and its own overrun count, but must not arm,
	// cancel, attach, or detach timers, nor advance or close the clock.
	IRQSafe

	// MayFree tells the clock the callback may release or reuse the
	// timer's storage: after invoking the callback the clock never touches
	// the timer again. MayFree timers must be one-shot and IRQSafe (the
	// deferred dispatch paths need post-callback bookkeeping).
	MayFree

	// Internal state bits. These share the Flags space so a Timer carries
	// exactly one flag word, but they are never accepted from callers.

	// flagActive: linked into the delay or absolute queue.
	flagActive
	// flagFiring: a callback invocation is outstanding (queued on the
	// deferred list, handed to the executor, or running).
	flagFiring
	// flagDeferred: linked into the clock's interrupt-deferred list.
	flagDeferred

	userFlags = Absolute | IRQSafe | MayFree
)

// Spec describes when a Timer fires, itimerspec style.
type Spec struct {
	// Value is the initial expiration: a delay relative to registration,
	// or an absolute deadline if the timer is armed with Absolute.
	Value timeval.Value

	// Interval, if non-zero, re-arms the timer after every firing.
	Interval timeval.Value
}

// Callback is invoked when a Timer fires.
//
// data is the opaque value supplied to Timer.Set. During the invocation,
// t.Overrun reports how many firings were coalesced while the previous
// invocation of this callback was still outstanding.
type Callback func(c *Clock, t *Timer, data any)
