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

// Package ktime implements a virtual clock and timer facility in the style
// of a kernel's: a Clock tracks the passage of time on a caller-defined
// timeline, and arbitrary code schedules one-shot or periodic callbacks
// against it via caller-owned Timers.
//
// # Ownership
//
// A Timer is owned by whoever creates it. The Clock only ever holds
// non-owning links into caller storage, so a Timer must be cancelled (or
// never armed) and detached before its storage is reused, and a Clock
// refuses to close while Timers remain attached.
//
// # Queues
//
// Armed timers live on one of two intrusive sorted queues. Relative-delay
// timers go on a delta list: each node stores only the delay beyond its
// predecessor, which makes "is the head due after d has elapsed" a single
// comparison. Absolute-deadline timers go on a list sorted by deadline,
// ties broken by registration order. Both insertions are O(n), the right
// trade because timers close to firing dominate and sit near the head.
//
// # Contexts and dispatch
//
// A Clock is built either thread-safe (a mutex guards its state) or
// interrupt-safe (critical sections mask interrupts through an injected
// irq.Controller, so the clock may be advanced from an interrupt handler).
// When a timer comes due, its callback is invoked synchronously if the
// timer was armed IRQSafe, handed to the interrupt controller's
// deferred-work queue if the clock is being advanced from interrupt
// context, and handed to the injected Executor otherwise. A timer's
// callback is never invoked concurrently with itself: firings that land
// while an invocation is still outstanding are coalesced into an overrun
// count exposed to the next invocation.
//
// The clock's time accessors read an atomically published snapshot rather
// than taking the clock's lock, so a callback running inline inside the
// critical section can still observe the time that made it due. Mutating
// the clock or any timer from an IRQSafe callback remains off limits.
//
// # Known limitation
//
// A periodic timer whose interval is shorter than a single Advance can
// re-fire arbitrarily many times within that Advance. There is no
// throttling; callers pick sane intervals.
package ktime
