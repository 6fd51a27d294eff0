package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/marcodamonte/sharedstate/config"
	"github.com/marcodamonte/sharedstate/internal/scenario"
)

// Meta holds what every command shares.
type Meta struct {
	Ctx    context.Context
	Ui     cli.Ui
	Logger hclog.Logger
}

// setFlags collects repeated -set key=value flags.
type setFlags map[string]any

func (s setFlags) String() string { return fmt.Sprint(map[string]any(s)) }

func (s setFlags) Set(v string) error {
	key, value, ok := strings.Cut(v, "=")
	if !ok || key == "" {
		return fmt.Errorf("expected key=value, got %q", v)
	}
	s[key] = value
	return nil
}

// loadConfig resolves defaults, the optional file and the overrides, in
// that order.
func (m *Meta) loadConfig(path string, overrides setFlags) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.LoadFile(path, cfg); err != nil {
			return cfg, err
		}
	}
	if len(overrides) > 0 {
		return config.Apply(cfg, overrides)
	}
	return cfg, nil
}

// ScenarioCommand runs one or more scenario suites and prints a line per
// checked property.
type ScenarioCommand struct {
	Meta

	name     string
	synopsis string
	suites   []func(scenario.Runner, context.Context) []scenario.Result
}

var _ cli.Command = (*ScenarioCommand)(nil)

func (c *ScenarioCommand) Synopsis() string { return c.synopsis }

func (c *ScenarioCommand) Help() string {
	return strings.TrimSpace(fmt.Sprintf(`
Usage: %s %s [options]

  %s.

Options:

  -config=path      HCL file with workers, items, readers, floor and
                    lock_timeout attributes.

  -set key=value    Override one configuration attribute. May be repeated.
`, appName, c.name, c.synopsis))
}

func (c *ScenarioCommand) Run(args []string) int {
	var configPath string
	overrides := setFlags{}

	flags := flag.NewFlagSet(c.name, flag.ContinueOnError)
	flags.Usage = func() { c.Ui.Error(c.Help()) }
	flags.StringVar(&configPath, "config", "", "path to an HCL config file")
	flags.Var(overrides, "set", "key=value override")
	if err := flags.Parse(args); err != nil {
		return cli.RunResultHelp
	}

	cfg, err := c.loadConfig(configPath, overrides)
	if err != nil {
		c.Ui.Error(fmt.Sprintf("Invalid configuration: %s", err))
		return 1
	}

	runner := scenario.Runner{Config: cfg, Logger: c.Logger.Named(c.name)}
	c.Logger.Debug("running scenarios", "command", c.name, "workers", cfg.Workers, "items", cfg.Items)

	var results []scenario.Result
	for _, suite := range c.suites {
		for _, res := range suite(runner, c.Ctx) {
			c.Ui.Output(res.String())
			results = append(results, res)
		}
	}

	if err := scenario.Failed(results); err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	c.Ui.Output(fmt.Sprintf("\n%d properties hold", len(results)))
	return 0
}
