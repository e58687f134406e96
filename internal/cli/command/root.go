package command

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/busstate-go/internal/cli/output"
	"github.com/yndnr/busstate-go/internal/config"
	"github.com/yndnr/busstate-go/internal/infra/buildinfo"
	"github.com/yndnr/busstate-go/internal/infra/confloader"
	"github.com/yndnr/busstate-go/internal/telemetry/logger"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "busstate",
		Usage:   "In-memory saga, dedup and subscription state with a concurrent soak driver",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			ServeCommand(),
			SoakCommand(),
			VersionCommand(),
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to the YAML configuration file",
			EnvVars: []string{"BUSSTATE_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format: json, text",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   string(output.FormatTable),
		},
	}
}

// flagKeys maps command-line flags to the configuration keys they override.
var flagKeys = map[string]string{
	"log-level":    "log.level",
	"log-format":   "log.format",
	"metrics-addr": "metrics.addr",
	"interval":     "soak.interval",
	"workers":      "soak.workers",
	"ops":          "soak.ops_per_worker",
	"rate":         "soak.rate",
	"burst":        "soak.burst",
}

// overrides collects the flags the user actually set.
func overrides(c *cli.Context) map[string]any {
	out := make(map[string]any)
	for flag, key := range flagKeys {
		if c.IsSet(flag) {
			out[key] = c.Value(flag)
		}
	}
	return out
}

// loadConfig layers defaults, the config file, the environment and flags.
func loadConfig(c *cli.Context) (*config.Config, *confloader.Loader, error) {
	loader := confloader.NewLoader(
		confloader.WithConfigFile(c.String("config")),
		confloader.WithOverrides(overrides(c)),
	)

	cfg := config.Default()
	if err := loader.Load(cfg); err != nil {
		return nil, nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, loader, nil
}

// initLogger installs the process logger. Logs go to stderr so that
// stdout carries only command output.
func initLogger(cfg *config.Config, w io.Writer) (logger.Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: w,
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)
	return log, nil
}

func formatterFor(c *cli.Context) (output.Formatter, error) {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return nil, err
	}
	return output.NewFormatter(format), nil
}
