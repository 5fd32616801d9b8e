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
	"go.chromium.org/luci/common/errors"

	"go.chromium.org/ktime/executor"
	"go.chromium.org/ktime/irq"
	"go.chromium.org/ktime/timeval"
)

// Options configures a new Clock.
type Options struct {
	// [OPTIONAL] The clock's initial time. Semantics of the timeline
	// (wall, monotonic, virtual) are the caller's; the clock only does
	// arithmetic on it.
	//
	// Default: zero (the clock's epoch).
	StartTime timeval.Value

	// [OPTIONAL] The advisory granularity reported to callers via
	// Clock.Resolution. Must not be negative.
	//
	// Default: one nanosecond.
	Resolution timeval.Value

	// [OPTIONAL] If true, the clock may be advanced and its timers armed
	// from interrupt context. Critical sections then mask interrupts
	// through Interrupts instead of taking a mutex, and cancellation
	// spin-waits instead of blocking on a condition variable.
	CallableFromInterrupt bool

	// [REQUIRED iff CallableFromInterrupt] The interrupt controller used
	// for masking and for the deferred callback queue.
	//
	// A thread-safe clock may also supply one; it is then only consulted,
	// before each trigger, to detect interrupt context.
	Interrupts irq.Controller

	// [REQUIRED] Runs callbacks of non-IRQSafe timers fired from thread
	// context.
	Executor executor.Executor
}

// normalize validates Options and fills defaults in place.
func (o *Options) normalize() error {
	if o.Executor == nil {
		return errors.New("Executor is required")
	}
	if o.CallableFromInterrupt && o.Interrupts == nil {
		return errors.New("CallableFromInterrupt requires an Interrupts controller")
	}
	if o.Resolution.Norm().IsNeg() {
		return errors.Reason("Resolution %s is negative", o.Resolution).Err()
	}
	if o.Resolution.IsZero() {
		o.Resolution = timeval.Of(0, 1)
	}
	o.Resolution = o.Resolution.Norm()
	o.StartTime = o.StartTime.Norm()
	return nil
}
