// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/arxiv-digest/internal/digest"
	"github.com/pdiddy/arxiv-digest/internal/logging"
	"github.com/pdiddy/arxiv-digest/pkg/types"
)

// newRunner builds the runner for the root command. Tests replace it to
// swap the arXiv source and the clock.
var newRunner = func(logger *zap.Logger, out io.Writer) *digest.Runner {
	return &digest.Runner{Logger: logger, Out: out}
}

func runDigest(cmd *cobra.Command, args []string) error {
	var cfg types.RunConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("reading settings: %w", err)
	}
	switch cfg.Store {
	case types.StoreJSON, types.StoreSQLite:
	default:
		return fmt.Errorf("unknown store backend %q (want json or sqlite)", cfg.Store)
	}

	logger, err := logging.New(logging.Options{
		File:  viper.GetString("log_file"),
		Level: viper.GetString("log_level"),
	})
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck // nothing useful to do at exit

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := newRunner(logger, cmd.OutOrStdout()).Run(ctx, cfg)
	if err != nil {
		logger.Error("run failed", zap.String("run_id", summary.RunID), zap.Error(err))
		return err
	}
	if len(summary.NewPapers) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No new matching papers.")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Found %d new paper(s); %d in %s\n",
		len(summary.NewPapers), summary.TotalPapers, summary.CollectionPath)
	return nil
}
