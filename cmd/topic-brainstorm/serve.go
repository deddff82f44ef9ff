// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/topic-brainstorm/internal/dashboard"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web dashboard",
	Long: `Serve starts an HTTP dashboard for running brainstorming sessions,
asking questions about the indexed papers and browsing generated reports.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.Dashboard.Addr
		}
		fmt.Fprintf(os.Stderr, "Dashboard on http://%s\n", displayAddr(addr))
		return dashboard.New(cfg, log).ListenAndServe(cmd.Context(), addr)
	},
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config, :8501)")
	rootCmd.AddCommand(serveCmd)
}
