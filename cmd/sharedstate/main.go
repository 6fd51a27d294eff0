// Command sharedstate runs the concurrency scenarios against the counter,
// repository, registry and observe packages and reports which properties
// hold.
//
//	sharedstate counter
//	sharedstate repository -config sharedstate.hcl -set items=10000
//	SHAREDSTATE_LOG=debug sharedstate all
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/marcodamonte/sharedstate/internal/scenario"
)

const appName = "sharedstate"

func main() {
	os.Exit(realMain(os.Args[1:]))
}

func realMain(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger()
	ui := &cli.BasicUi{
		Reader:      os.Stdin,
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}

	runner := &cli.CLI{
		Name:     appName,
		Version:  version,
		Args:     args,
		Commands: commands(ctx, ui, logger),
	}

	code, err := runner.Run()
	if err != nil {
		ui.Error(fmt.Sprintf("Error executing CLI: %s", err))
		return 1
	}
	return code
}

const version = "0.1.0"

func newLogger() hclog.Logger {
	level := hclog.LevelFromString(os.Getenv("SHAREDSTATE_LOG"))
	if level == hclog.NoLevel {
		level = hclog.Warn
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   appName,
		Level:  level,
		Output: os.Stderr,
	})
}

func commands(ctx context.Context, ui cli.Ui, logger hclog.Logger) map[string]cli.CommandFactory {
	meta := Meta{Ctx: ctx, Ui: ui, Logger: logger}

	suite := func(name, synopsis string, run ...func(scenario.Runner, context.Context) []scenario.Result) cli.CommandFactory {
		return func() (cli.Command, error) {
			return &ScenarioCommand{Meta: meta, name: name, synopsis: synopsis, suites: run}, nil
		}
	}

	return map[string]cli.CommandFactory{
		"counter": suite("counter",
			"Check the atomic and guarded counters",
			scenario.Runner.Counters),
		"repository": suite("repository",
			"Check the guarded and copy-on-write repositories",
			scenario.Runner.Repositories),
		"registry": suite("registry",
			"Check the concurrent map and set registries",
			scenario.Runner.Registries),
		"observe": suite("observe",
			"Check change notifications",
			scenario.Runner.Observers),
		"all": suite("all",
			"Run every scenario",
			scenario.Runner.Counters,
			scenario.Runner.Repositories,
			scenario.Runner.Registries,
			scenario.Runner.Observers),
	}
}
