package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of topic-brainstorm",
	// Overrides the root hook; version needs no configuration.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("topic-brainstorm %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
