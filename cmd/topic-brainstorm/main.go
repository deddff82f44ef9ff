// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the topic-brainstorm CLI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/topic-brainstorm/internal/config"
	"github.com/pdiddy/topic-brainstorm/internal/llm"
	"github.com/pdiddy/topic-brainstorm/internal/logger"
	"github.com/pdiddy/topic-brainstorm/internal/pipeline"
	"github.com/pdiddy/topic-brainstorm/internal/secrets"
	"github.com/pdiddy/topic-brainstorm/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Loaded once in PersistentPreRunE and shared by every subcommand.
var (
	cfg types.Config
	log *logger.Logger
)

// rootCmd runs a brainstorming session for the given keyword.
var rootCmd = &cobra.Command{
	Use:   "topic-brainstorm <keyword>",
	Short: "Brainstorm research topics from recent literature",
	Long: `topic-brainstorm collects recent papers for a keyword from OpenAlex, indexes
them in a local vector store, asks a reasoning model to propose research
topics grounded in those papers, has a second model score them, and writes
an HTML report ranked by total score. A translated report is written when
a target language is set.

Use "topic-brainstorm chat" to ask questions about the indexed papers and
"topic-brainstorm serve" for the web dashboard.`,
	Args:              cobra.MinimumNArgs(1),
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			log.Sync()
		}
	},
	RunE: runBrainstorm,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./topic-brainstorm.yaml or ~/.config/topic-brainstorm/config.yaml)")

	rootCmd.Flags().Int("limit", 0, "number of papers to fetch (default from config, 200)")
	rootCmd.Flags().Int("topics", 0, "number of topics to generate (default from config, 5)")
	rootCmd.Flags().String("lang", "", `translation language (default from config, "Korean"); pass --lang "" to skip`)
	rootCmd.Flags().String("from-csv", "", "index a saved paper CSV instead of querying OpenAlex")
	rootCmd.Flags().Bool("json", false, "print the session result as JSON")
}

// initConfig loads .env, .secrets/, the optional config file and the
// environment into cfg, then builds the logger.
func initConfig(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}

	v := viper.GetViper()
	cfgFile, _ := cmd.Flags().GetString("config")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("topic-brainstorm")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "topic-brainstorm"))
		}
	}

	config.SetDefaults(v)
	s, err := secrets.Load(secrets.DefaultDir, os.Stderr)
	if err != nil {
		return err
	}
	if keys := secrets.Apply(v, s); len(keys) > 0 {
		fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
	}
	if err := config.BindEnv(v); err != nil {
		return err
	}
	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound || cfgFile != "" {
			return fmt.Errorf("reading config: %w", err)
		}
	} else {
		fmt.Fprintln(os.Stderr, "Using config file:", v.ConfigFileUsed())
	}

	if cfg, err = config.Load(v); err != nil {
		return err
	}
	if log, err = logger.New(cfg.Log.Mode, cfg.Log.Level); err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	return nil
}

func runBrainstorm(cmd *cobra.Command, args []string) error {
	opts := pipeline.Options{
		Keyword:  strings.TrimSpace(strings.Join(args, " ")),
		Language: cfg.Report.Language,
	}
	if opts.Keyword == "" {
		return fmt.Errorf("keyword must not be empty")
	}
	opts.Limit, _ = cmd.Flags().GetInt("limit")
	opts.Topics, _ = cmd.Flags().GetInt("topics")
	opts.FromCSV, _ = cmd.Flags().GetString("from-csv")
	if cmd.Flags().Changed("lang") {
		opts.Language, _ = cmd.Flags().GetString("lang")
	}
	jsonOutput, _ := cmd.Flags().GetBool("json")

	out := os.Stdout
	if jsonOutput {
		out = os.Stderr
	}
	client := llm.NewClient(cfg.Ollama, log)
	res, err := pipeline.NewWithClient(cfg, client, out, log).Run(cmd.Context(), opts)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	printRanking(res)
	return nil
}

func printRanking(res *pipeline.Result) {
	if len(res.Topics) == 0 {
		return
	}
	fmt.Fprintf(os.Stdout, "\n%-4s  %-5s  %s\n", "Rank", "Score", "Title")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 70))
	for i, t := range res.Topics {
		fmt.Fprintf(os.Stdout, "%-4d  %2d/15  %s\n", i+1, t.Evaluation.TotalScore, t.Topic.Title)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
