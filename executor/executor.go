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

// Package executor defines the deferred-execution capability consumed by
// the clock core: somewhere to run a callback outside the clock's critical
// section.
//
// The core depends on this capability through the single Schedule
// operation, so callers may back it with a worker pool (Pool), a test
// double, or an existing work-distribution system.
package executor

// Executor runs scheduled functions on some other flow of control.
type Executor interface {
	// Schedule arranges for fn to be invoked exactly once, later. It never
	// blocks the caller and never invokes fn synchronously unless the
	// implementation documents otherwise (see Direct).
	Schedule(fn func())
}

// Direct is an Executor that invokes fn synchronously on the scheduling
// goroutine.
//
// Direct reenters the caller: anything holding a non-reentrant lock across
// Schedule will deadlock if fn takes the same lock. It exists for tests
// whose scheduled functions stay out of the scheduler's locks.
type Direct struct{}

var _ Executor = Direct{}

// Schedule invokes fn before returning.
func (Direct) Schedule(fn func()) {
	fn()
}
