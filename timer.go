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

// Timer is one schedulable callback registration.
//
// The zero Timer is valid and inert. Timers are caller-owned: the Clock
// links them into its queues in place and never copies or retains them
// beyond those links, so an armed Timer's storage must stay put and alive
// until Cancel (or TryCancel returning true) and Detach.
type Timer struct {
	clock *Clock

	// Queue linkage. when holds the delta from the predecessor while on
	// the delay queue, and the absolute deadline while on the absolute
	// queue; this duality is what makes the head's dueness an O(1) check.
	prev, next   *Timer
	deferredNext *Timer
	when         timeval.Value
	interval     timeval.Value

	flags Flags
	cb    Callback
	data  any

	// overrun accumulates firings coalesced while an invocation was
	// outstanding; reported is the count exposed to the current
	// invocation.
	overrun  int
	reported int
}

// Attach binds the timer to a clock without arming it. Attaching an
// already-attached timer to the same clock is a no-op; to a different
// clock, a contract violation.
func (t *Timer) Attach(c *Clock) {
	if c == nil {
		panic("ktime: Attach to a nil Clock")
	}
	c.lk.do(func() {
		if c.closed {
			panic("ktime: Attach to a closed Clock")
		}
		if t.clock == c {
			return
		}
		if t.clock != nil {
			panic("ktime: timer is attached to another clock")
		}
		t.clock = c
		c.attached++
	})
}

// Detach unbinds an idle timer from its clock. The timer must not be armed
// or firing; Cancel first.
func (t *Timer) Detach() {
	c := t.clock
	if c == nil {
		return
	}
	c.lk.do(func() {
		if t.flags&(flagActive|flagFiring|flagDeferred) != 0 {
			panic("ktime: Detach of an armed or firing timer")
		}
		t.clock = nil
		c.attached--
	})
}

// Set arms the timer: cancel-then-register in one critical section.
//
// s.Value is a relative delay, or an absolute deadline if f contains
// Absolute. A non-zero s.Interval re-arms the timer after each firing.
// The timer must be attached.
//
// An absolute timer whose deadline is already past does not fire inside
// Set; it fires on the next Advance or SetTime.
func (t *Timer) Set(s Spec, f Flags, cb Callback, data any) {
	c := t.clock
	if c == nil {
		panic("ktime: Set on a detached timer")
	}
	if f&^userFlags != 0 {
		panic("ktime: Set with non-user flags")
	}
	if cb == nil {
		panic("ktime: Set with a nil callback")
	}
	if f&MayFree != 0 {
		if !s.Interval.Norm().IsZero() {
			panic("ktime: a MayFree timer cannot be periodic")
		}
		if f&IRQSafe == 0 {
			panic("ktime: MayFree requires IRQSafe")
		}
	}
	c.lk.do(func() {
		if t.flags&flagActive != 0 {
			c.unlinkLocked(t)
		}
		t.flags = (t.flags &^ userFlags) | f
		t.interval = s.Interval.Norm()
		t.cb = cb
		t.data = data
		t.when = s.Value.Norm()
		if f&Absolute != 0 {
			c.registerAbsoluteLocked(t)
		} else {
			c.registerDelayLocked(t)
		}
	})
}

// Cancel disarms the timer and waits until no invocation of its callback
// remains in flight. After Cancel returns, the callback will not start
// again and is not running; the timer's storage may be reused (after
// Detach).
//
// Cancel is idempotent and legal on a never-armed timer. It must not be
// called from the timer's own callback.
func (t *Timer) Cancel() {
	c := t.clock
	if c == nil {
		return
	}
	c.lk.do(func() {
		if t.flags&flagActive != 0 {
			c.unlinkLocked(t)
		}
	})
	// An in-flight firing (deferred, queued to the executor, or running)
	// finishes on its own; there is no way to revoke it, only to outwait
	// it. The interrupt-safe strategy spins here, the thread-safe one
	// blocks on a condition variable.
	c.lk.wait(func() bool {
		return t.flags&(flagFiring|flagDeferred) == 0
	})
}

// TryCancel disarms the timer if possible without blocking.
//
// It returns true only if the timer was armed and no callback invocation
// was outstanding, i.e. the caller now holds a fully quiesced timer.
func (t *Timer) TryCancel() bool {
	c := t.clock
	if c == nil {
		return false
	}
	ok := false
	c.lk.do(func() {
		if t.flags&flagActive == 0 {
			return
		}
		c.unlinkLocked(t)
		ok = t.flags&(flagFiring|flagDeferred) == 0
	})
	return ok
}

// Overrun returns the number of firings coalesced into the current
// callback invocation: how many times the timer came due while the
// previous invocation was still outstanding.
//
// Only meaningful from inside the callback.
func (t *Timer) Overrun() int {
	return t.reported
}
