// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the arxiv-digest CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/arxiv-digest/internal/digest"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd runs the daily fetch when invoked without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "arxiv-digest",
	Short: "Fetch, classify, and report new arXiv papers",
	Long: `arxiv-digest queries the arXiv API for papers submitted in the last few days,
keeps the ones whose title or abstract matches the keyword configuration, and
writes them to a dated JSON collection plus one Markdown report per category.

Papers already recorded in the deduplication store are skipped, so running the
command repeatedly only reports new matches.

A data directory (and the store inside it) must belong to one scheduled job.
Overlapping runs against the same location are not detected and can lose
recorded ids. Give each schedule its own --data-dir or --store-path.

Settings can also come from arxiv-digest.yaml (see --settings) or from
ARXIV_DIGEST_* environment variables, e.g. ARXIV_DIGEST_DAYS=3.`,
	SilenceUsage: true,
	RunE:         runDigest,
}

func init() {
	cobra.OnInitialize(initSettings)

	rootCmd.PersistentFlags().String("settings", "", "settings file (default: ./arxiv-digest.yaml or ~/.config/arxiv-digest/arxiv-digest.yaml)")

	f := rootCmd.Flags()
	f.Int("days", 1, "lookback window in days")
	f.String("data-dir", "", "output directory (default: result/paper_data_YYYY.MM.DD)")
	f.Bool("no-report", false, "skip Markdown report generation")
	f.String("config", "config.json", "keyword configuration file (JSON or YAML); built-in defaults when missing")
	f.Int("max-results", 1000, "maximum number of arXiv entries to examine")
	f.String("store", "json", "deduplication store backend: json or sqlite")
	f.String("store-path", "", "deduplication store file (default: inside the data directory)")
	f.String("log-file", "arxiv_fetcher.log", `rotated JSON log file, "-" to disable`)
	f.String("log-level", "info", "log level: debug, info, warn, error")
	f.Duration("timeout", 0, "HTTP request timeout (default 60s)")
	f.Duration("page-delay", 0, "delay between arXiv page requests (default 3s)")

	for key, flag := range map[string]string{
		"days":        "days",
		"data_dir":    "data-dir",
		"no_report":   "no-report",
		"config":      "config",
		"max_results": "max-results",
		"store":       "store",
		"store_path":  "store-path",
		"log_file":    "log-file",
		"log_level":   "log-level",
		"timeout":     "timeout",
		"page_delay":  "page-delay",
	} {
		if err := viper.BindPFlag(key, f.Lookup(flag)); err != nil {
			panic(err)
		}
	}
	viper.SetDefault("user_agent", digest.DefaultUserAgent)
}

func initSettings() {
	settingsFile, _ := rootCmd.PersistentFlags().GetString("settings")
	if settingsFile != "" {
		viper.SetConfigFile(settingsFile)
	} else {
		viper.SetConfigName("arxiv-digest")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "arxiv-digest"))
		}
	}

	viper.SetEnvPrefix("ARXIV_DIGEST")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using settings file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
