package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/boddenberg/tys-station-agent/internal/app"
	"github.com/boddenberg/tys-station-agent/internal/config"
	"github.com/boddenberg/tys-station-agent/internal/infra/observability"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cli carries the lazily wired app between cobra hooks and commands.
type cli struct {
	envFile string
	app     *app.App
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:           "tysctl",
		Short:         "Operate the TYS station agent from the terminal",
		Long:          "tysctl runs the agent's profiling and provisioning operations in-process, against the same profile file and backend the server uses.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.wire()
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			c.close()
		},
	}
	rootCmd.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")

	rootCmd.AddCommand(
		newStatusCmd(c),
		newSetProfileCmd(c),
		newProfileCmd(c),
		newCreateClientCmd(c),
		newCreateStationCmd(c),
		newStationsCmd(c),
		newToggleCmd(c, "enable", true),
		newToggleCmd(c, "disable", false),
	)

	return rootCmd
}

func (c *cli) wire() error {
	if c.app != nil {
		return nil
	}
	_ = config.LoadDotEnv(c.envFile)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	c.logger = observability.NewLogger(cfg.LogLevel, "tysctl")
	a, err := app.New(cfg, c.logger)
	if err != nil {
		return fmt.Errorf("wire services: %w", err)
	}
	c.app = a
	return nil
}

func (c *cli) close() {
	if c.app != nil {
		c.app.Close()
	}
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
