package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/aretw0/squadchat/internal/cli"
	"github.com/aretw0/squadchat/internal/eval"
	"github.com/spf13/cobra"
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Run the evaluation query sets and write a CSV report",
	Long: `Sends every query of the evaluation sets (base, irrelevant, not_premier_league,
precise, unclear, languages) through the assistant, each in a fresh session,
and writes query, reply kind, clarification request and success to a CSV file.
With --all-teams one squad question per roster team is asked as well.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, closeLog, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		defer closeLog()
		out, _ := cmd.Flags().GetString("out")
		allTeams, _ := cmd.Flags().GetBool("all-teams")
		only, _ := cmd.Flags().GetStringSlice("suite")

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		stack, err := cli.Build(sc, cfg, logger, cli.BuildOptions{})
		if err != nil {
			return err
		}
		defer stack.Close()

		suites, err := selectSuites(only)
		if err != nil {
			return err
		}
		if allTeams {
			teams, err := eval.TeamSuite(sc, stack.Roster)
			if err != nil {
				return err
			}
			suites = append(suites, teams)
		}

		results, runErr := eval.NewRunner(stack.Assistant, logger).Run(sc, suites...)

		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("failed to create report: %w", err)
		}
		defer f.Close()
		if err := eval.WriteCSV(f, results); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}

		w := cmd.OutOrStdout()
		summary := eval.Summary(results)
		names := make([]string, 0, len(summary))
		for name := range summary {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "%-20s %d/%d successful\n", name, summary[name][0], summary[name][1])
		}
		fmt.Fprintf(w, "Wrote %d results to %s\n", len(results), out)
		return runErr
	},
}

// selectSuites filters the default sets by name; no names keeps them all.
func selectSuites(names []string) ([]eval.Suite, error) {
	all := eval.DefaultSuites()
	if len(names) == 0 {
		return all, nil
	}
	byName := make(map[string]eval.Suite, len(all))
	for _, s := range all {
		byName[s.Name] = s
	}
	out := make([]eval.Suite, 0, len(names))
	for _, name := range names {
		s, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown suite %q", name)
		}
		out = append(out, s)
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().String("out", "evaluation_results.csv", "CSV report path")
	evalCmd.Flags().Bool("all-teams", false, "Also ask for the squad of every roster team")
	evalCmd.Flags().StringSlice("suite", nil, "Only run these query sets (default: all)")
}
