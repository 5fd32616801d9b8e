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
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"go.chromium.org/ktime/timeval"
)

// noop is a callback for timers that only exercise queue plumbing.
func noop(*Clock, *Timer, any) {}

func TestDelayQueue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	Convey(`A clock with delay timers`, t, func() {
		c, err := New(ctx, Options{Executor: &recordingExecutor{}})
		So(err, ShouldBeNil)

		timers := make([]Timer, 8)
		for i := range timers {
			timers[i].Attach(c)
		}
		cleanup := func() {
			for i := range timers {
				timers[i].Cancel()
				timers[i].Detach()
			}
			c.Close()
		}

		Convey(`Stores deltas, not remaining delays.`, func() {
			// 100ms then 50ms: the 50ms timer lands at the head and the
			// 100ms timer keeps only its 50ms of additional delay.
			timers[0].Set(Spec{Value: timeval.Millis(100)}, 0, noop, nil)
			timers[1].Set(Spec{Value: timeval.Millis(50)}, 0, noop, nil)

			So(delayDeltas(c), ShouldResemble, []timeval.Value{
				timeval.Millis(50),
				timeval.Millis(50),
			})
			So(c.delayHead, ShouldEqual, &timers[1])
			So(c.delayHead.next, ShouldEqual, &timers[0])
			cleanup()
		})

		Convey(`Preserves from-head sums across arbitrary insertions.`, func() {
			for i, ms := range []int64{100, 50, 75, 50, 200} {
				timers[i].Set(Spec{Value: timeval.Millis(ms)}, 0, noop, nil)
			}
			So(remainingDelays(c), ShouldResemble, []timeval.Value{
				timeval.Millis(50),
				timeval.Millis(50),
				timeval.Millis(75),
				timeval.Millis(100),
				timeval.Millis(200),
			})

			Convey(`And across removals.`, func() {
				// Unlinking the 75ms timer folds its delta into the 100ms
				// node.
				timers[2].Cancel()
				So(remainingDelays(c), ShouldResemble, []timeval.Value{
					timeval.Millis(50),
					timeval.Millis(50),
					timeval.Millis(100),
					timeval.Millis(200),
				})
				cleanup()
			})

			Convey(`And across partial advances.`, func() {
				c.Advance(timeval.Millis(30))
				So(remainingDelays(c), ShouldResemble, []timeval.Value{
					timeval.Millis(20),
					timeval.Millis(20),
					timeval.Millis(45),
					timeval.Millis(70),
					timeval.Millis(170),
				})
				cleanup()
			})
		})

		Convey(`Breaks delay ties by registration order.`, func() {
			fired := []int{}
			mk := func(id int) Callback {
				return func(*Clock, *Timer, any) { fired = append(fired, id) }
			}
			timers[0].Set(Spec{Value: timeval.Millis(10)}, IRQSafe, mk(0), nil)
			timers[1].Set(Spec{Value: timeval.Millis(10)}, IRQSafe, mk(1), nil)
			timers[2].Set(Spec{Value: timeval.Millis(10)}, IRQSafe, mk(2), nil)

			c.Advance(timeval.Millis(10))
			So(fired, ShouldResemble, []int{0, 1, 2})
			cleanup()
		})

		Convey(`Fires in non-decreasing original-delay order.`, func() {
			var fired []int64
			mk := func(ms int64) Callback {
				return func(*Clock, *Timer, any) { fired = append(fired, ms) }
			}
			delays := []int64{70, 10, 40, 90, 20}
			for i, ms := range delays {
				timers[i].Set(Spec{Value: timeval.Millis(ms)}, IRQSafe, mk(ms), nil)
			}
			c.Advance(timeval.Millis(100))
			So(fired, ShouldResemble, []int64{10, 20, 40, 70, 90})
			cleanup()
		})

		Convey(`Clamps a negative requested delay to zero.`, func() {
			ran := false
			timers[0].Set(Spec{Value: timeval.Of(0, -100)}, IRQSafe,
				func(*Clock, *Timer, any) { ran = true }, nil)
			c.Advance(timeval.Value{})
			So(ran, ShouldBeTrue)
			cleanup()
		})
	})
}

func TestAbsoluteQueue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	Convey(`A clock at t=400 with absolute timers`, t, func() {
		c, err := New(ctx, Options{
			Executor:  &recordingExecutor{},
			StartTime: timeval.Of(400, 0),
		})
		So(err, ShouldBeNil)

		timers := make([]Timer, 8)
		for i := range timers {
			timers[i].Attach(c)
		}
		cleanup := func() {
			for i := range timers {
				timers[i].Cancel()
				timers[i].Detach()
			}
			c.Close()
		}

		Convey(`Keeps the queue sorted by deadline.`, func() {
			var fired []int64
			mk := func(sec int64) Callback {
				return func(*Clock, *Timer, any) { fired = append(fired, sec) }
			}
			timers[0].Set(Spec{Value: timeval.Of(500, 0)}, Absolute|IRQSafe, mk(500), nil)
			timers[1].Set(Spec{Value: timeval.Of(300, 0)}, Absolute|IRQSafe, mk(300), nil)

			So(absDeadlines(c), ShouldResemble, []timeval.Value{
				timeval.Of(300, 0),
				timeval.Of(500, 0),
			})

			Convey(`And fires every due timer, in deadline order.`, func() {
				c.Advance(timeval.Of(150, 0))
				So(c.Now(), ShouldResemble, timeval.Of(550, 0))
				So(fired, ShouldResemble, []int64{300, 500})
				So(absDeadlines(c), ShouldBeEmpty)
				cleanup()
			})
		})

		Convey(`Stays sorted under interleaved insert and unlink.`, func() {
			secs := []int64{900, 600, 800, 600, 700}
			for i, s := range secs {
				timers[i].Set(Spec{Value: timeval.Of(s, 0)}, Absolute, noop, nil)
			}
			So(absDeadlines(c), ShouldResemble, []timeval.Value{
				timeval.Of(600, 0),
				timeval.Of(600, 0),
				timeval.Of(700, 0),
				timeval.Of(800, 0),
				timeval.Of(900, 0),
			})

			timers[1].Cancel() // the first 600
			timers[2].Cancel() // the 800
			So(absDeadlines(c), ShouldResemble, []timeval.Value{
				timeval.Of(600, 0),
				timeval.Of(700, 0),
				timeval.Of(900, 0),
			})
			cleanup()
		})

		Convey(`Breaks deadline ties by registration order.`, func() {
			var fired []int
			mk := func(id int) Callback {
				return func(*Clock, *Timer, any) { fired = append(fired, id) }
			}
			for i := 0; i < 3; i++ {
				timers[i].Set(Spec{Value: timeval.Of(450, 0)}, Absolute|IRQSafe, mk(i), nil)
			}
			c.Advance(timeval.Of(50, 0))
			So(fired, ShouldResemble, []int{0, 1, 2})
			cleanup()
		})

		Convey(`SetTime makes newly-past deadlines fire immediately.`, func() {
			ran := false
			timers[0].Set(Spec{Value: timeval.Of(10000, 0)}, Absolute|IRQSafe,
				func(*Clock, *Timer, any) { ran = true }, nil)

			c.SetTime(timeval.Of(9000, 0), timeval.Value{})
			So(ran, ShouldBeFalse)

			c.SetTime(timeval.Of(10000, 0), timeval.Value{})
			So(ran, ShouldBeTrue)
			cleanup()
		})
	})
}
