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
	"go.chromium.org/luci/common/logging"
)

// dispatchLocked routes a just-dequeued due timer to its callback.
//
// The policy, in order:
//
//   - IRQSafe timers run synchronously, right here, inside the critical
//     section, whatever the context.
//   - A timer whose previous invocation is still outstanding coalesces:
//     bump the overrun count, invoke nothing.
//   - In interrupt context, the timer joins the clock's deferred list,
//     drained by the interrupt controller's deferred-work queue.
//   - In thread context, the invocation is handed to the Executor.
//
// On every path, a periodic timer is re-armed before dispatchLocked
// returns, so the timer keeps ticking even while a slow callback drains.
func (c *Clock) dispatchLocked(t *Timer) {
	if t.flags&IRQSafe != 0 {
		if t.flags&MayFree != 0 {
			// The callback may release the timer: invoke and never touch
			// t again. MayFree implies one-shot, so there is no re-arm to
			// skip.
			t.reported = 0
			t.cb(c, t, t.data)
			return
		}
		t.reported = 0
		t.cb(c, t, t.data)
		c.rearmLocked(t)
		return
	}

	if t.flags&flagFiring != 0 {
		// Never two concurrent invocations of one timer's callback. The
		// missed firing is surfaced to the next invocation as a count.
		t.overrun++
		c.rearmLocked(t)
		return
	}

	t.flags |= flagFiring
	t.reported = 0
	// c.fromIRQ was captured by the trigger entry point before it masked
	// interrupts; asking the controller here would always report interrupt
	// context on an interrupt-safe clock.
	if c.fromIRQ {
		t.flags |= flagDeferred
		t.deferredNext = nil
		if c.deferredTail == nil {
			c.deferredHead = t
		} else {
			c.deferredTail.deferredNext = t
		}
		c.deferredTail = t
		if !c.drainScheduled {
			c.drainScheduled = true
			c.ops.Interrupts.QueueWork(c.drainDeferred)
		}
	} else {
		c.ops.Executor.Schedule(func() { c.runFiring(t) })
	}
	c.rearmLocked(t)
}

// rearmLocked re-registers a periodic timer after a firing: the deadline
// moves by one interval for absolute timers, the delay resets to the
// interval for delay timers. Re-registration inside a trigger loop means a
// timer whose interval is shorter than the time being accounted will fire
// again in the same loop; that is unthrottled on purpose.
func (c *Clock) rearmLocked(t *Timer) {
	if t.interval.IsZero() {
		return
	}
	if t.flags&Absolute != 0 {
		t.when = t.when.Add(t.interval)
		c.registerAbsoluteLocked(t)
	} else {
		t.when = t.interval
		c.registerDelayLocked(t)
	}
}

// drainDeferred runs on the interrupt controller's deferred-work queue,
// outside interrupt context. It pops and fires deferred timers until the
// list stays empty; only then does it allow itself to be scheduled again.
func (c *Clock) drainDeferred() {
	for {
		var t *Timer
		c.lk.do(func() {
			t = c.deferredHead
			if t == nil {
				c.drainScheduled = false
				return
			}
			c.deferredHead = t.deferredNext
			if c.deferredHead == nil {
				c.deferredTail = nil
			}
			t.deferredNext = nil
			t.flags &^= flagDeferred
		})
		if t == nil {
			return
		}
		c.runFiring(t)
	}
}

// runFiring performs one outstanding callback invocation in thread
// context: the callback itself outside the critical section, then the
// completion bookkeeping inside it.
func (c *Clock) runFiring(t *Timer) {
	var cb Callback
	var data any
	var coalesced int
	c.lk.do(func() {
		cb = t.cb
		data = t.data
		coalesced = t.reported
	})
	if coalesced > 0 {
		logging.Debugf(c.ctx, "ktime: timer running with %d coalesced overruns", coalesced)
	}
	cb(c, t, data)
	c.lk.do(func() {
		if t.overrun > 0 {
			// More firings landed while this invocation ran. Surface the
			// count to exactly one make-up invocation instead of an
			// invocation per missed tick.
			t.reported = t.overrun
			t.overrun = 0
			c.ops.Executor.Schedule(func() { c.runFiring(t) })
			return
		}
		t.reported = 0
		t.flags &^= flagFiring
		c.lk.notify()
	})
}
