// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/topic-brainstorm/internal/chat"
	"github.com/pdiddy/topic-brainstorm/internal/llm"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions about the indexed papers",
	Long: `Chat opens the vector store built by the last brainstorming session and
answers questions from the retrieved papers, streaming each answer as it
is generated. Type exit, quit or q (or press Ctrl-C) to leave.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := llm.NewClient(cfg.Ollama, log)
		sess, closeStore, err := chat.Open(cfg, client, log)
		if err != nil {
			return err
		}
		defer closeStore()
		return sess.Run(cmd.Context(), os.Stdin, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
