package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/squadchat/internal/cli"
	"github.com/aretw0/squadchat/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "squadchat",
	Short: "SquadChat answers questions about Premier League squads",
	Long: `SquadChat is a conversational assistant for Premier League squads.
When a question does not name a known team it asks which team you meant,
and picks the conversation up again with your answer.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (default: $SQUADCHAT_CONFIG or ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Override the log level (trace, debug, info, success, warning, error, critical)")
}

// loadConfig reads the config file and environment, applies flag overrides
// and builds the stderr logger. closeLog releases the log file, if any.
func loadConfig(cmd *cobra.Command) (cfg *config.Config, logger *slog.Logger, closeLog func() error, err error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err = config.Load(path, os.Getenv)
	if err != nil {
		return nil, nil, nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	logger, closeLog, err = cli.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, closeLog, nil
}
