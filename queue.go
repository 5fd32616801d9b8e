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

// The delay queue is a delta list: t.when holds only the delay beyond the
// predecessor node, so the sum of deltas from the head through any node is
// that node's remaining delay. The absolute queue is sorted by deadline,
// t.when holding the deadline itself. Ties in both queues resolve
// first-registered-first-fired.

// registerDelayLocked splices t into the delay queue. t.when holds the
// requested relative delay on entry and the node's delta on exit.
func (c *Clock) registerDelayLocked(t *Timer) {
	if t.flags&flagActive != 0 {
		panic("ktime: registering an armed timer")
	}
	remain := t.when
	if remain.IsNeg() {
		remain = timeval.Value{}
	}
	n := c.delayHead
	for n != nil && n.when.LessEq(remain) {
		remain = remain.Sub(n.when)
		n = n.next
	}
	t.when = remain
	c.spliceBefore(&c.delayHead, &c.delayTail, n, t)
	if n != nil {
		// Preserve the from-head sum to every later node.
		n.when = n.when.Sub(remain)
	}
	t.flags |= flagActive
}

// registerAbsoluteLocked splices t into the absolute queue; t.when holds
// the deadline throughout.
func (c *Clock) registerAbsoluteLocked(t *Timer) {
	if t.flags&flagActive != 0 {
		panic("ktime: registering an armed timer")
	}
	n := c.absHead
	for n != nil && n.when.LessEq(t.when) {
		n = n.next
	}
	c.spliceBefore(&c.absHead, &c.absTail, n, t)
	t.flags |= flagActive
}

// unlinkLocked removes an armed timer from whichever queue holds it,
// without dispatching it. For a delay timer, the node's delta folds back
// into its successor so later remaining delays are unchanged.
func (c *Clock) unlinkLocked(t *Timer) {
	if t.flags&flagActive == 0 {
		panic("ktime: unlinking an inactive timer")
	}
	if t.flags&Absolute != 0 {
		c.removeFrom(&c.absHead, &c.absTail, t)
	} else {
		if t.next != nil {
			t.next.when = t.next.when.Add(t.when)
		}
		c.removeFrom(&c.delayHead, &c.delayTail, t)
	}
	t.flags &^= flagActive
}

// triggerDelayLocked fires every delay timer due within elapsed, and
// charges the remainder against the new head.
func (c *Clock) triggerDelayLocked(elapsed timeval.Value) {
	for c.delayHead != nil && c.delayHead.when.LessEq(elapsed) {
		t := c.delayHead
		// The head's delta is consumed from elapsed, not folded into the
		// successor: the successor's remaining delay really did shrink.
		elapsed = elapsed.Sub(t.when)
		c.removeFrom(&c.delayHead, &c.delayTail, t)
		t.flags &^= flagActive
		c.dispatchLocked(t)
	}
	if c.delayHead != nil {
		c.delayHead.when = c.delayHead.when.Sub(elapsed)
	}
}

// triggerAbsoluteLocked fires every absolute timer whose deadline is at or
// before the clock's current time.
func (c *Clock) triggerAbsoluteLocked() {
	now := c.state.Load().now
	for c.absHead != nil && c.absHead.when.LessEq(now) {
		t := c.absHead
		c.removeFrom(&c.absHead, &c.absTail, t)
		t.flags &^= flagActive
		c.dispatchLocked(t)
	}
}

func (c *Clock) spliceBefore(head, tail **Timer, before, t *Timer) {
	t.next = before
	if before == nil {
		t.prev = *tail
		*tail = t
	} else {
		t.prev = before.prev
		before.prev = t
	}
	if t.prev == nil {
		*head = t
	} else {
		t.prev.next = t
	}
}

func (c *Clock) removeFrom(head, tail **Timer, t *Timer) {
	if t.prev == nil {
		*head = t.next
	} else {
		t.prev.next = t.next
	}
	if t.next == nil {
		*tail = t.prev
	} else {
		t.next.prev = t.prev
	}
	t.prev, t.next = nil, nil
}
