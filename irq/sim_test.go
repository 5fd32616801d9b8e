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

package irq

import (
	"context"
	"sync/atomic"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSim(t *testing.T) {
	t.Parallel()

	Convey(`A simulated interrupt controller`, t, func() {
		ctx := context.Background()
		s := NewSim(ctx)
		defer s.Close()

		Convey(`Starts with interrupts enabled.`, func() {
			So(s.InInterrupt(), ShouldBeFalse)
		})

		Convey(`Disable and Restore nest.`, func() {
			outer := s.Disable()
			So(s.InInterrupt(), ShouldBeTrue)

			inner := s.Disable()
			So(s.InInterrupt(), ShouldBeTrue)

			s.Restore(inner)
			So(s.InInterrupt(), ShouldBeTrue)

			s.Restore(outer)
			So(s.InInterrupt(), ShouldBeFalse)
		})

		Convey(`Interrupt masks for the handler's duration.`, func() {
			ran := false
			s.Interrupt(func() {
				ran = true
				So(s.InInterrupt(), ShouldBeTrue)
			})
			So(ran, ShouldBeTrue)
			So(s.InInterrupt(), ShouldBeFalse)
		})

		Convey(`QueueWork runs outside interrupt context, in order.`, func() {
			var order []int
			var inIRQ atomic.Bool
			ranC := make(chan struct{})

			s.Interrupt(func() {
				s.QueueWork(func() {
					order = append(order, 1)
					inIRQ.Store(s.InInterrupt())
				})
				s.QueueWork(func() {
					order = append(order, 2)
					close(ranC)
				})
				// Nothing has run yet; we are still in the handler.
				So(order, ShouldBeEmpty)
			})

			<-ranC
			So(order, ShouldResemble, []int{1, 2})
			So(inIRQ.Load(), ShouldBeFalse)
		})

		Convey(`Work queued while masked runs once the mask lifts.`, func() {
			var ranMasked atomic.Bool
			done := make(chan struct{})

			st := s.Disable()
			s.QueueWork(func() {
				ranMasked.Store(s.InInterrupt())
				close(done)
			})
			s.Restore(st)

			// Restore is the only wakeup left once the queue signal found
			// the CPU masked; a hang here means it never came.
			<-done
			So(ranMasked.Load(), ShouldBeFalse)
		})

		Convey(`Close drains pending work.`, func() {
			var ran atomic.Int32
			for i := 0; i < 10; i++ {
				s.QueueWork(func() { ran.Add(1) })
			}
			s.Close()
			So(ran.Load(), ShouldEqual, 10)

			Convey(`And queueing afterwards panics.`, func() {
				So(func() { s.QueueWork(func() {}) }, ShouldPanic)
			})
		})
	})
}
