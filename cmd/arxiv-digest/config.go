// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/arxiv-digest/internal/classify"
)

var validateConfigCmd = &cobra.Command{
	Use:   "validate-config [path]",
	Short: "Check a keyword configuration file",
	Long: `Validate-config parses a keyword configuration (JSON or YAML) and checks that
every category names an existing keyword group, no phrase is empty, the
system keyword list is non-empty when a category requires it, and no two
category labels map to the same report file name.

Unlike the daily run, which falls back to the built-in configuration, this
command fails on any problem.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidateConfig,
}

var defaultConfigCmd = &cobra.Command{
	Use:   "default-config",
	Short: "Print the built-in keyword configuration",
	Long: `Default-config writes the configuration used when no configuration file is
found. Redirect it to a file as a starting point for your own rules.`,
	Args: cobra.NoArgs,
	RunE: runDefaultConfig,
}

func init() {
	defaultConfigCmd.Flags().String("format", "json", "output format: json or yaml")

	rootCmd.AddCommand(validateConfigCmd)
	rootCmd.AddCommand(defaultConfigCmd)
}

func runValidateConfig(cmd *cobra.Command, args []string) error {
	path := "config.json"
	if len(args) == 1 {
		path = args[0]
	}
	out := cmd.OutOrStdout()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	cfg, err := classify.Parse(data)
	if err != nil {
		color.New(color.FgRed).Fprintf(out, "%s: invalid\n", path)
		return err
	}

	color.New(color.FgGreen).Fprintf(out, "%s: ok\n", path)
	fmt.Fprintf(out, "  %d keyword groups, %d system keywords, %d categories\n",
		len(cfg.GroupOrder), len(cfg.Qualifiers), len(cfg.Rules))
	for _, r := range cfg.Rules {
		gate := ""
		if r.RequiresQualifier {
			gate = " (requires system keyword)"
		}
		fmt.Fprintf(out, "  %s <- %s%s -> %s\n", r.Label, r.KeywordGroup, gate, classify.ReportFilename(r.Label))
	}
	return nil
}

func runDefaultConfig(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	cfg := classify.Default()

	var (
		data []byte
		err  error
	)
	switch format {
	case "json":
		data, err = json.MarshalIndent(cfg, "", "  ")
		data = append(data, '\n')
	case "yaml":
		data, err = yaml.Marshal(cfg)
	default:
		return fmt.Errorf("unknown format %q (want json or yaml)", format)
	}
	if err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
