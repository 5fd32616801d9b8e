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

// Package timeval implements timespec-style arithmetic over a
// (seconds, nanoseconds) pair.
//
// Unlike time.Duration, a Value does not overflow at ~292 years, which
// matters for clocks whose timeline is caller-defined (e.g. "nanoseconds
// since the epoch" on a wall clock). The normalized form keeps Nsec in
// [0, 1e9); negative values are represented with a negative Sec and a
// non-negative Nsec, matching POSIX timespec conventions.
package timeval

import (
	"fmt"
	"time"
)

const nanosPerSec = int64(time.Second)

// Value is an amount of time, or a point on a clock's timeline, expressed
// as whole seconds plus nanoseconds.
//
// The zero Value is both "no time" and "the clock's epoch".
type Value struct {
	Sec  int64
	Nsec int64
}

// Of returns a normalized Value for the given seconds and nanoseconds.
func Of(sec, nsec int64) Value {
	return Value{Sec: sec, Nsec: nsec}.Norm()
}

// FromDuration converts a time.Duration into a normalized Value.
func FromDuration(d time.Duration) Value {
	return Of(0, int64(d))
}

// Millis returns a normalized Value for a millisecond count.
func Millis(ms int64) Value {
	return Of(0, ms*int64(time.Millisecond))
}

// Duration converts v into a time.Duration.
//
// Values outside the representable range of time.Duration silently
// truncate; callers handling caller-defined timelines should stick to
// Value arithmetic instead.
func (v Value) Duration() time.Duration {
	return time.Duration(v.Sec)*time.Second + time.Duration(v.Nsec)
}

// Norm returns v with Nsec folded into [0, 1e9).
func (v Value) Norm() Value {
	v.Sec += v.Nsec / nanosPerSec
	v.Nsec %= nanosPerSec
	if v.Nsec < 0 {
		v.Sec--
		v.Nsec += nanosPerSec
	}
	return v
}

// Add returns the normalized sum v + o.
func (v Value) Add(o Value) Value {
	return Value{Sec: v.Sec + o.Sec, Nsec: v.Nsec + o.Nsec}.Norm()
}

// Sub returns the normalized difference v - o.
func (v Value) Sub(o Value) Value {
	return Value{Sec: v.Sec - o.Sec, Nsec: v.Nsec - o.Nsec}.Norm()
}

// Less reports whether v sorts strictly before o.
//
// Both values must be normalized.
func (v Value) Less(o Value) bool {
	if v.Sec != o.Sec {
		return v.Sec < o.Sec
	}
	return v.Nsec < o.Nsec
}

// LessEq reports whether v sorts before or equal to o.
//
// Both values must be normalized.
func (v Value) LessEq(o Value) bool {
	return !o.Less(v)
}

// IsZero reports whether v is exactly zero.
func (v Value) IsZero() bool {
	return v.Sec == 0 && v.Nsec == 0
}

// IsNeg reports whether v, normalized, is below zero.
func (v Value) IsNeg() bool {
	return v.Sec < 0
}

func (v Value) String() string {
	if v.IsNeg() {
		return "-" + Value{}.Sub(v).String()
	}
	return fmt.Sprintf("%d.%09ds", v.Sec, v.Nsec)
}
