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

package main

import (
	"context"
	"sync/atomic"

	"github.com/maruel/subcommands"
	"golang.org/x/sync/errgroup"

	"go.chromium.org/luci/common/cli"
	"go.chromium.org/luci/common/logging"

	"go.chromium.org/ktime"
	"go.chromium.org/ktime/executor"
	"go.chromium.org/ktime/irq"
	"go.chromium.org/ktime/timeval"
)

func cmdRun() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "run <scenario.yaml>",
		ShortDesc: "runs a clock scenario",
		LongDesc: `Runs a clock scenario.

The scenario arms the described timers against a fresh clock, then drives
the timeline step by step, logging every firing. Steps marked
from_interrupt are applied from a simulated interrupt handler, exercising
the deferred dispatch path.`,
		CommandRun: func() subcommands.CommandRun {
			r := &runRun{}
			r.Flags.IntVar(&r.workers, "workers", 4,
				"number of executor workers running deferred callbacks.")
			return r
		},
	}
}

type runRun struct {
	subcommands.CommandRunBase
	workers int
}

func (r *runRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, r, env)
	if len(args) != 1 {
		logging.Errorf(ctx, "expected exactly one scenario file, got %d arguments", len(args))
		return 2
	}
	if err := runScenario(ctx, args[0], r.workers); err != nil {
		logging.Errorf(ctx, "%s", err)
		return 1
	}
	return 0
}

// fireEvent is one observed timer firing.
type fireEvent struct {
	name     string
	now      timeval.Value
	overruns int
}

func runScenario(ctx context.Context, path string, workers int) error {
	sc, err := loadScenario(path)
	if err != nil {
		return err
	}

	sim := irq.NewSim(ctx)
	defer sim.Close()
	pool := executor.NewPool(ctx, workers)
	defer pool.Close()

	c, err := ktime.New(ctx, ktime.Options{
		StartTime:             timeval.Millis(sc.StartMS),
		Resolution:            timeval.Of(0, sc.ResolutionNS),
		CallableFromInterrupt: sc.InterruptSafe,
		Interrupts:            sim,
		Executor:              pool,
	})
	if err != nil {
		return err
	}

	events := make(chan fireEvent, 256)
	var dropped atomic.Int64

	var eg errgroup.Group
	eg.Go(func() error {
		for ev := range events {
			logging.Infof(ctx, "t=%s  %-16s fired (overruns=%d)", ev.now, ev.name, ev.overruns)
		}
		return nil
	})

	timers := make([]ktime.Timer, len(sc.Timers))
	for i, ts := range sc.Timers {
		name := ts.Name
		var flags ktime.Flags
		spec := ktime.Spec{Interval: timeval.Millis(ts.IntervalMS)}
		if ts.Absolute {
			flags |= ktime.Absolute
			spec.Value = timeval.Millis(ts.DeadlineMS)
		} else {
			spec.Value = timeval.Millis(ts.DelayMS)
		}

		var cb ktime.Callback
		if ts.IRQSafe {
			flags |= ktime.IRQSafe
			// Runs inside the clock's critical section: never block on
			// the events channel, drop instead.
			cb = func(c *ktime.Clock, t *ktime.Timer, _ any) {
				select {
				case events <- fireEvent{name, c.Now(), t.Overrun()}:
				default:
					dropped.Add(1)
				}
			}
		} else {
			cb = func(c *ktime.Clock, t *ktime.Timer, _ any) {
				events <- fireEvent{name, c.Now(), t.Overrun()}
			}
		}

		timers[i].Attach(c)
		timers[i].Set(spec, flags, cb, nil)
	}

	for i, st := range sc.Steps {
		switch {
		case st.SetMS != nil:
			logging.Debugf(ctx, "step #%d: set time to %dms", i, *st.SetMS)
			c.SetTime(timeval.Millis(*st.SetMS), timeval.Value{})
		case st.FromInterrupt:
			logging.Debugf(ctx, "step #%d: advance %dms from interrupt", i, st.AdvanceMS)
			sim.Interrupt(func() { c.Advance(timeval.Millis(st.AdvanceMS)) })
		default:
			logging.Debugf(ctx, "step #%d: advance %dms", i, st.AdvanceMS)
			c.Advance(timeval.Millis(st.AdvanceMS))
		}
	}

	for i := range timers {
		timers[i].Cancel()
		timers[i].Detach()
	}
	c.Close()
	pool.Close()
	sim.Close()

	close(events)
	if err := eg.Wait(); err != nil {
		return err
	}
	if n := dropped.Load(); n > 0 {
		logging.Warningf(ctx, "%d firing events dropped (slow log consumer)", n)
	}
	logging.Infof(ctx, "scenario complete: clock ended at t=%s after advancing %s",
		c.Now(), c.Advancement())
	return nil
}
