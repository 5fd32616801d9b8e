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
	"os"

	"gopkg.in/yaml.v2"

	"go.chromium.org/luci/common/errors"
)

// scenario is a YAML description of a clock run: timers to arm, then a
// sequence of steps driving the timeline.
type scenario struct {
	// StartMS is the clock's initial time, in milliseconds.
	StartMS int64 `yaml:"start_ms"`

	// ResolutionNS is the clock's advisory resolution, in nanoseconds.
	// Zero uses the clock's default.
	ResolutionNS int64 `yaml:"resolution_ns"`

	// InterruptSafe builds the clock in interrupt-safe mode, required for
	// any step with from_interrupt.
	InterruptSafe bool `yaml:"interrupt_safe"`

	Timers []timerSpec `yaml:"timers"`
	Steps  []step      `yaml:"steps"`
}

// timerSpec describes one timer to arm before the steps run.
type timerSpec struct {
	Name string `yaml:"name"`

	// Exactly one of DelayMS (relative) or DeadlineMS (absolute) arms the
	// timer, selected by Absolute.
	DelayMS    int64 `yaml:"delay_ms"`
	DeadlineMS int64 `yaml:"deadline_ms"`
	Absolute   bool  `yaml:"absolute"`

	// IntervalMS, if non-zero, makes the timer periodic.
	IntervalMS int64 `yaml:"interval_ms"`

	// IRQSafe runs the callback synchronously from the triggering
	// context.
	IRQSafe bool `yaml:"irq_safe"`
}

// step is one action against the running clock.
type step struct {
	// AdvanceMS moves the clock forward.
	AdvanceMS int64 `yaml:"advance_ms"`

	// FromInterrupt performs the advance from a simulated interrupt
	// handler.
	FromInterrupt bool `yaml:"from_interrupt"`

	// SetMS, if non-nil, jumps the clock's time instead of advancing it.
	SetMS *int64 `yaml:"set_ms"`
}

func loadScenario(path string) (*scenario, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Annotate(err, "reading scenario").Err()
	}
	sc := &scenario{}
	if err := yaml.UnmarshalStrict(blob, sc); err != nil {
		return nil, errors.Annotate(err, "parsing scenario").Err()
	}
	if err := sc.validate(); err != nil {
		return nil, errors.Annotate(err, "validating scenario").Err()
	}
	return sc, nil
}

func (sc *scenario) validate() error {
	if len(sc.Timers) == 0 {
		return errors.New("scenario has no timers")
	}
	seen := map[string]struct{}{}
	for i, ts := range sc.Timers {
		switch {
		case ts.Name == "":
			return errors.Reason("timer #%d has no name", i).Err()
		case ts.Absolute && ts.DelayMS != 0:
			return errors.Reason("timer %q: absolute timers use deadline_ms", ts.Name).Err()
		case !ts.Absolute && ts.DeadlineMS != 0:
			return errors.Reason("timer %q: delay timers use delay_ms", ts.Name).Err()
		case ts.DelayMS < 0 || ts.DeadlineMS < 0 || ts.IntervalMS < 0:
			return errors.Reason("timer %q: negative times", ts.Name).Err()
		}
		if _, dup := seen[ts.Name]; dup {
			return errors.Reason("duplicate timer name %q", ts.Name).Err()
		}
		seen[ts.Name] = struct{}{}
	}
	for i, st := range sc.Steps {
		switch {
		case st.SetMS != nil && st.AdvanceMS != 0:
			return errors.Reason("step #%d: set_ms and advance_ms are exclusive", i).Err()
		case st.SetMS == nil && st.AdvanceMS <= 0:
			return errors.Reason("step #%d: needs a positive advance_ms or a set_ms", i).Err()
		case st.FromInterrupt && !sc.InterruptSafe:
			return errors.Reason("step #%d: from_interrupt needs interrupt_safe: true", i).Err()
		}
	}
	return nil
}
