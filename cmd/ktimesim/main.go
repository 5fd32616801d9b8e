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

// Command ktimesim runs YAML-described timer scenarios against a virtual
// clock, standing in for the drivers and schedulers that tick a real one.
// It exists to poke at dispatch behavior (inline vs. deferred, overrun
// coalescing) from the command line.
package main

import (
	"context"
	"os"

	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"
	"go.chromium.org/luci/common/logging"
	"go.chromium.org/luci/common/logging/gologger"
)

func getApplication() *cli.Application {
	return &cli.Application{
		Name:  "ktimesim",
		Title: "Virtual clock scenario simulator",
		Context: func(ctx context.Context) context.Context {
			return gologger.StdConfig.Use(logging.SetLevel(ctx, logging.Info))
		},
		Commands: []*subcommands.Command{
			subcommands.CmdHelp,
			cmdRun(),
		},
	}
}

func main() {
	os.Exit(subcommands.Run(getApplication(), nil))
}
