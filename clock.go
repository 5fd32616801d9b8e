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
	"context"
	"fmt"
	"sync/atomic"

	"go.chromium.org/luci/common/logging"

	"go.chromium.org/ktime/timeval"
)

// timeState is the clock's published time, swapped atomically as a unit so
// readers never take the clock's lock. Writers mutate a copy inside the
// critical section and publish it with a single store.
type timeState struct {
	now      timeval.Value
	advanced timeval.Value
	res      timeval.Value
}

// Clock is a named time source: it owns a current time, an advisory
// resolution, and the queues of Timers armed against it.
//
// Construct one with New. All methods are safe for the concurrency model
// the clock was built with (see Options.CallableFromInterrupt).
type Clock struct {
	ctx context.Context
	lk  locker
	ops Options

	state atomic.Pointer[timeState]

	delayHead, delayTail *Timer
	absHead, absTail     *Timer

	deferredHead, deferredTail *Timer
	drainScheduled             bool

	// fromIRQ records, for the duration of one trigger critical section,
	// whether the caller entered from interrupt context. It is captured
	// before the lock is taken: on an interrupt-safe clock the critical
	// section itself masks interrupts, so asking the controller from inside
	// it would always say yes.
	fromIRQ bool

	attached int
	closed   bool
}

// New returns a Clock configured by opts. The context is used for logging
// only.
func New(ctx context.Context, opts Options) (*Clock, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}
	c := &Clock{
		ctx: ctx,
		ops: opts,
	}
	c.state.Store(&timeState{now: opts.StartTime, res: opts.Resolution})
	if opts.CallableFromInterrupt {
		c.lk = &irqLocker{ctl: opts.Interrupts}
	} else {
		c.lk = newMutexLocker()
	}
	logging.Debugf(ctx, "ktime: new clock (interrupt-safe=%v, resolution=%s)",
		opts.CallableFromInterrupt, opts.Resolution)
	return c, nil
}

// Now returns the clock's current time.
//
// Now never takes the clock's lock, so it is safe from anywhere, including
// inside an IRQSafe timer callback and from interrupt context.
func (c *Clock) Now() timeval.Value {
	return c.state.Load().now
}

// Resolution returns the clock's advisory granularity. Lock-free, like Now.
func (c *Clock) Resolution() timeval.Value {
	return c.state.Load().res
}

// Time returns the clock's current time and resolution as one consistent
// snapshot. Lock-free, like Now.
func (c *Clock) Time() (now, res timeval.Value) {
	st := c.state.Load()
	return st.now, st.res
}

// Advancement returns the cumulative time advanced since construction.
//
// Unlike Now, this is immune to SetTime jumps, so it measures elapsed time
// across e.g. a settimeofday-style reset. Lock-free, like Now.
func (c *Clock) Advancement() timeval.Value {
	return c.state.Load().advanced
}

// inInterrupt reports whether the calling flow of control is an interrupt
// handler. Must be evaluated before entering any critical section.
func (c *Clock) inInterrupt() bool {
	return c.ops.Interrupts != nil && c.ops.Interrupts.InInterrupt()
}

// SetTime overwrites the clock's time, and its resolution if res is
// non-zero.
//
// A jump forward may make previously-future absolute timers due; they fire
// before SetTime returns (subject to the usual dispatch rules). Delay
// timers are unaffected: their remaining delay is relative, not a point on
// the timeline.
func (c *Clock) SetTime(now, res timeval.Value) {
	fromIRQ := c.inInterrupt()
	c.lk.do(func() {
		c.fromIRQ = fromIRQ
		st := *c.state.Load()
		st.now = now.Norm()
		if !res.IsZero() {
			st.res = res.Norm()
		}
		c.state.Store(&st)
		c.triggerAbsoluteLocked()
	})
}

// Advance moves the clock forward by d, firing every timer that comes due.
//
// d must not be negative. For a hardware-driven clock, the tick handler
// calls Advance with the elapsed tick; for a virtual clock, whoever owns
// the timeline calls it.
func (c *Clock) Advance(d timeval.Value) {
	d = d.Norm()
	if d.IsNeg() {
		panic(fmt.Sprintf("ktime: Advance by negative duration %s", d))
	}
	fromIRQ := c.inInterrupt()
	c.lk.do(func() {
		c.fromIRQ = fromIRQ
		st := *c.state.Load()
		st.now = st.now.Add(d)
		st.advanced = st.advanced.Add(d)
		c.state.Store(&st)
		// Delay queue first, then absolute; callers must not rely on any
		// cross-queue ordering beyond each queue being sorted.
		c.triggerDelayLocked(d)
		c.triggerAbsoluteLocked()
	})
}

// Close marks the clock unusable.
//
// Every Timer must be cancelled and detached first; closing with live
// attachments is a contract violation and panics, since the clock would be
// left holding references into caller storage it can no longer police.
func (c *Clock) Close() {
	c.lk.do(func() {
		if c.closed {
			panic("ktime: Close of a closed Clock")
		}
		if c.attached != 0 {
			panic(fmt.Sprintf("ktime: Close with %d timers still attached", c.attached))
		}
		c.closed = true
	})
	logging.Debugf(c.ctx, "ktime: clock closed")
}
