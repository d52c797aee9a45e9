package main

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-pulso/analysis/config"
	"github.com/RyanBlaney/sonido-pulso/logging"
)

// commandContext carries the persistent flags to subcommands
type commandContext struct {
	configPath string
	logLevel   string
	noColor    bool
}

// loadConfig reads the analysis configuration named by --config
func (c *commandContext) loadConfig() (*config.Config, error) {
	return config.Load(c.configPath)
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "sonido",
		Short:         "Tempo, key, mood and danceability analysis for music files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return configureLogging(cmd, ctx)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configPath, "config", "c", "", "Analysis configuration file (TOML)")
	rootCmd.PersistentFlags().StringVar(&ctx.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&ctx.noColor, "no-color", false, "Disable colored log output")

	rootCmd.AddCommand(newAnalyzeCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}

func configureLogging(cmd *cobra.Command, ctx *commandContext) error {
	level, err := logging.ParseLevel(ctx.logLevel)
	if err != nil {
		return err
	}

	// stdout is reserved for results, every log line goes to stderr
	useColors := !ctx.noColor && isatty.IsTerminal(os.Stderr.Fd())
	logger := logging.NewWriterLogger(cmd.ErrOrStderr(), cmd.ErrOrStderr(), useColors)
	logger.SetLevel(level)
	logging.SetGlobalLogger(logger)
	return nil
}
