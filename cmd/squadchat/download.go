package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/squadchat/internal/cli"
	"github.com/aretw0/squadchat/pkg/roster"
	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download every squad from TheSportsDB into the local roster cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, closeLog, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		defer closeLog()
		if cfg.Roster.APIKey == "" {
			return errors.New("THE_SPORT_API_KEY is required to download squads")
		}
		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = cfg.Roster.CachePath
		}

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
		tmp, err := os.CreateTemp(filepath.Dir(out), ".squads-*.json")
		if err != nil {
			return fmt.Errorf("failed to create cache file: %w", err)
		}
		defer os.Remove(tmp.Name())

		n, err := roster.Export(sc, cli.NewSportsDB(cfg.Roster, logger), tmp, logger)
		if cerr := tmp.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		if err := os.Rename(tmp.Name(), out); err != nil {
			return fmt.Errorf("failed to write roster cache: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Saved %d squads to %s\n", n, out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(downloadCmd)
	downloadCmd.Flags().String("out", "", "Output file (default: roster.cache_path from config)")
}
