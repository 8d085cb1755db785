package main

import (
	"fmt"

	"github.com/aretw0/squadchat"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of squadchat",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "squadchat version %s\n", squadchat.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
