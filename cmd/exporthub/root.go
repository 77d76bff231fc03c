package main

import (
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"exporthub/internal/config"
	"exporthub/internal/logging"
)

// cli carries the resolved configuration and IO streams shared by commands.
type cli struct {
	stdout    io.Writer
	stderr    io.Writer
	lookupEnv func(string) (string, bool)

	configPath string
	cfg        config.Config
	log        zerolog.Logger
}

// buildRootCmdWith constructs the command tree. Configuration is resolved
// before any subcommand runs: defaults, then the --config file, then the
// environment, then explicit flags.
func buildRootCmdWith(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "exporthub",
		Short:         "Publish exported model artifacts and serve their model cards",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var configsDir, logLevel, logFormat string
	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "Config file (.yaml, .json or .toml)")
	pf.StringVar(&configsDir, "configs-dir", "", "Model card root (defaults EXPORTHUB_CONFIGS_DIR or ./configs)")
	pf.StringVar(&logLevel, "log-level", "", "Log level: trace|debug|info|warn|error|off")
	pf.StringVar(&logFormat, "log-format", "", "Log format: json|console")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg := config.Defaults()
		if c.configPath != "" {
			fc, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			cfg = fc.Merge(cfg)
		}
		cfg, err := cfg.ApplyEnv(c.lookupEnv)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("configs-dir") {
			cfg.ConfigsDir = configsDir
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			cfg.LogFormat = logFormat
		}
		c.cfg = cfg
		c.log = logging.NewWithWriter(c.stderr, cfg.LogLevel, cfg.LogFormat)
		return nil
	}

	root.AddCommand(newServeCmd(c), newPublishCmd(c), newVerifyCmd(c), newScanCmd(c))
	return root
}

// splitCSV splits a comma-separated flag value, dropping empty items.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
