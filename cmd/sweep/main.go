// sweep inspects experiment configuration templates: it expands YAML
// templates into their concrete configurations and reports what a
// registered experiment would actually run.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/goliatone/go-experiment/loader"
	"github.com/goliatone/go-logger/glog"
)

var cli struct {
	Debug bool `help:"Enable debug logging."`

	Expand   ExpandCmd   `cmd:"" help:"Expand configuration templates into concrete configurations."`
	Validate ValidateCmd `cmd:"" help:"Check configuration templates without printing expansions."`
}

// RunContext carries shared state into subcommand Run methods.
type RunContext struct {
	Logger glog.Logger
}

type ExpandCmd struct {
	Path string `arg:"" help:"YAML template file or directory."`
	JSON bool   `help:"Emit one JSON object per configuration."`
}

func (c *ExpandCmd) Run(rctx *RunContext) error {
	logger := rctx.Logger
	configs, err := loader.LoadConfigs(c.Path)
	if err != nil {
		return err
	}

	logger.Debug("expanded %d configurations from %s", len(configs), c.Path)

	for _, cfg := range configs {
		if c.JSON {
			line, err := json.Marshal(map[string]any{
				"config_id": cfg.ID(),
				"values":    cfg.Values(),
			})
			if err != nil {
				return err
			}
			fmt.Println(string(line))
			continue
		}
		fmt.Printf("%s\t%v\n", cfg.ID(), cfg.Values())
	}
	return nil
}

type ValidateCmd struct {
	Path string `arg:"" help:"YAML template file or directory."`
}

func (c *ValidateCmd) Run(rctx *RunContext) error {
	logger := rctx.Logger
	templates, err := loader.LoadTemplates(c.Path)
	if err != nil {
		return err
	}

	var total int
	for i, tpl := range templates {
		configs, err := tpl.Expand()
		if err != nil {
			return fmt.Errorf("template %d: %w", i, err)
		}
		total += len(configs)
	}

	logger.Info("%d templates expand to %d configurations", len(templates), total)
	return nil
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("sweep"),
		kong.Description("Inspect experiment configuration templates."),
		kong.UsageOnError(),
	)

	level := "info"
	if cli.Debug {
		level = "debug"
	}
	logger := glog.NewLogger(
		glog.WithWriter(os.Stderr),
		glog.WithLevel(level),
	)

	if err := ctx.Run(&RunContext{Logger: logger}); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}
