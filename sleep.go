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

	"go.chromium.org/ktime/timeval"
)

// SleepDelay blocks the calling goroutine until d of clock time has been
// advanced, or ctx is cancelled, whichever comes first.
//
// It returns the portion of d that had not yet elapsed when the sleep
// ended: zero for a completed sleep, positive if woken early. A caller
// interrupted mid-sleep passes the remainder straight back in to retry.
func (c *Clock) SleepDelay(ctx context.Context, d timeval.Value) timeval.Value {
	d = d.Norm()
	if d.IsNeg() || d.IsZero() {
		return timeval.Value{}
	}

	start := c.Advancement()
	woke := make(chan struct{})

	var t Timer
	t.Attach(c)
	// IRQSafe so the wake happens synchronously inside the trigger that
	// makes the timer due; closing a channel is safe from any context.
	t.Set(Spec{Value: d}, IRQSafe, func(*Clock, *Timer, any) { close(woke) }, nil)

	select {
	case <-woke:
	case <-ctx.Done():
	}

	t.Cancel()
	t.Detach()

	elapsed := c.Advancement().Sub(start)
	remain := d.Sub(elapsed)
	if remain.IsNeg() {
		return timeval.Value{}
	}
	return remain
}

// SleepUntil blocks the calling goroutine until the clock reaches
// deadline, or ctx is cancelled, whichever comes first.
//
// It returns how far short of deadline the clock was when the sleep ended:
// zero if the deadline was reached, positive if woken early.
//
// The deadline is a point on the clock's timeline, so a SetTime jump past
// it also ends the sleep.
func (c *Clock) SleepUntil(ctx context.Context, deadline timeval.Value) timeval.Value {
	deadline = deadline.Norm()
	if deadline.LessEq(c.Now()) {
		return timeval.Value{}
	}

	woke := make(chan struct{})

	var t Timer
	t.Attach(c)
	t.Set(Spec{Value: deadline}, Absolute|IRQSafe, func(*Clock, *Timer, any) { close(woke) }, nil)

	select {
	case <-woke:
	case <-ctx.Done():
	}

	t.Cancel()
	t.Detach()

	remain := deadline.Sub(c.Now())
	if remain.IsNeg() {
		return timeval.Value{}
	}
	return remain
}
