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

// Package irq defines the interrupt-controller capability consumed by the
// clock core, plus a single-CPU simulation of it for hosted use and tests.
//
// The capability mirrors what a kernel's interrupt layer provides: a way to
// mask interrupts for a short critical section, a query for whether the
// current flow of control is an interrupt handler, and a queue of deferred
// work drained outside interrupt context (the "bottom half").
package irq

// State is an opaque saved interrupt-enable state, returned by Disable and
// accepted by Restore. It carries whatever the controller needs to undo a
// single Disable.
type State uint32

// Controller serializes short critical sections by masking interrupts, and
// runs deferred work in a context where blocking is legal.
type Controller interface {
	// Disable masks interrupts on the current CPU and returns the previous
	// enable state. Calls nest; each Disable must be paired with a Restore
	// of the value it returned.
	Disable() State

	// Restore reinstates the enable state returned by the matching Disable.
	Restore(State)

	// InInterrupt reports whether the caller is currently executing with
	// interrupts masked (i.e. inside a Disable/Restore section or a
	// hardware interrupt handler).
	InInterrupt() bool

	// QueueWork appends fn to the deferred-work queue. fn will be invoked
	// exactly once, outside interrupt context. QueueWork never blocks and
	// is legal to call with interrupts masked.
	QueueWork(fn func())
}
