package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/squadchat"
	"github.com/aretw0/squadchat/internal/cli"
	"github.com/aretw0/squadchat/internal/presentation/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const defaultWrap = 100

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	Long: `Reads one message per line from stdin and prints each reply.
Type /new to start over with a fresh session and /quit to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, closeLog, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		defer closeLog()

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		stack, err := cli.Build(sc, cfg, logger, cli.BuildOptions{})
		if err != nil {
			return err
		}
		defer stack.Close()

		sessionID, _ := cmd.Flags().GetString("session")
		if sessionID == "" {
			sessionID = squadchat.NewSessionID()
		}
		chat := &squadchat.Chat{
			Conversation: stack.Assistant,
			SessionID:    sessionID,
			Input:        os.Stdin,
			Output:       os.Stdout,
		}

		fd := int(os.Stdout.Fd())
		if term.IsTerminal(fd) {
			width := defaultWrap
			if w, _, err := term.GetSize(fd); err == nil && w > 0 && w < width {
				width = w
			}
			tui.PrintBanner(os.Stdout)
			chat.Prompt = tui.Dim(os.Stdout, "> ")
			chat.Renderer = squadchat.ContentRenderer(tui.NewRenderer(width))
		}

		// Run blocks in a stdin read that a signal cannot interrupt.
		done := make(chan error, 1)
		go func() { done <- chat.Run(sc) }()

		select {
		case err := <-done:
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		case <-sc.Done():
			fmt.Fprintf(os.Stdout, "\n>>> Interrupted (%v). Resume with --session %s\n", sc.Signal(), chat.Session())
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().String("session", "", "Resume or name a session (default: a new random id)")
}
