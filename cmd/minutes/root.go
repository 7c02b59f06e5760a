package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/petasbytes/minutes-agent/internal/config"
	"github.com/petasbytes/minutes-agent/internal/metrics"
	"github.com/petasbytes/minutes-agent/internal/prompts"
	"github.com/petasbytes/minutes-agent/internal/provider"
	"github.com/petasbytes/minutes-agent/internal/session"
	"github.com/petasbytes/minutes-agent/internal/summary"
)

var rootCmd = &cobra.Command{
	Use:   "minutes",
	Short: "Interview a user about a meeting and write the Meeting Minutes",
	Long: `minutes asks the questions needed to document a meeting, one at a time,
then turns the collected answers into a Minutes of Meeting document.
Use "minutes chat" in a terminal or "minutes serve" for the web page.`,
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
	rootCmd.PersistentFlags().String("config", "", "Path to minutes.yaml (default: ./minutes.yaml, then ~/.config/minutes/minutes.yaml)")
}

// loadConfig resolves the --config flag and the search paths, then reads the
// file and environment.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	explicit, _ := cmd.Flags().GetString("config")
	path, err := config.FindConfig(explicit)
	if err != nil {
		return config.Config{}, err
	}
	return config.Load(path)
}

// agent is everything a shell needs to run conversations.
type agent struct {
	sessions *session.Manager
	minutes  *summary.Summarizer
}

// newAgent validates cfg and wires prompts, the generation backend, metrics
// and the session manager. A missing credential fails here, before any
// shell starts.
func newAgent(cfg config.Config, log *slog.Logger, c *metrics.Collector) (*agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	set, err := prompts.Load(cfg.Prompts.InterviewFile, cfg.Prompts.MinutesFile)
	if err != nil {
		return nil, err
	}
	gen, err := provider.New(cfg.ProviderSettings())
	if err != nil {
		return nil, err
	}
	gen = metrics.Instrument(gen, c)

	log.Debug("agent ready", "provider", cfg.Provider, "model", cfg.Model)
	return &agent{
		sessions: session.NewManager(set.Interview, gen, log, c),
		minutes:  summary.New(gen, set.Minutes, summary.Options{IncludeUnanswered: cfg.Summary.IncludeUnanswered}, log),
	}, nil
}
