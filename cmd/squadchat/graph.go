package main

import (
	"fmt"

	"github.com/aretw0/squadchat/internal/cli"
	"github.com/aretw0/squadchat/internal/flow"
	"github.com/aretw0/squadchat/internal/presentation/graph"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the conversation workflow as a Mermaid diagram",
	Long: `Prints the workflow as a Mermaid flowchart (graph TD).
With --session the node that session is paused at is highlighted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// The topology does not depend on the collaborators, so none are needed.
		def, err := flow.NewGraph(flow.NewHandlers(nil, nil))
		if err != nil {
			return err
		}

		var overlay *graph.Overlay
		if sessionID, _ := cmd.Flags().GetString("session"); sessionID != "" {
			cfg, logger, closeLog, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			defer closeLog()
			if err := cfg.ValidateStore(); err != nil {
				return err
			}
			store, _, closer, err := cli.OpenStore(cfg.Store, logger)
			if err != nil {
				return err
			}
			if closer != nil {
				defer closer()
			}
			cp, err := store.Load(cmd.Context(), sessionID)
			if err != nil {
				return fmt.Errorf("failed to load session %q: %w", sessionID, err)
			}
			overlay = &graph.Overlay{Pending: cp.PendingNode}
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(def, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("session", "", "Highlight where this session is paused")
}
