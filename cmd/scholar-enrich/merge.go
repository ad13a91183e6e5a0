// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/scholar-enrich/internal/checkpoint"
	"github.com/pdiddy/scholar-enrich/internal/logging"
	"github.com/pdiddy/scholar-enrich/internal/merge"
	"github.com/pdiddy/scholar-enrich/internal/names"
	"github.com/pdiddy/scholar-enrich/internal/roster"
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Concatenate batch artifacts into the final dataset",
	Long: `Merge reads every batch artifact in range order, clears resolved rows whose
profile name does not match the roster name, and writes the merged CSV with a
YAML report of gaps, overlaps, skipped files, and cleared rows alongside it.`,
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().String("batch-dir", "", "directory holding batch artifacts")
	mergeCmd.Flags().String("output", "", "merged CSV path")
	mergeCmd.Flags().String("report", "", "merge report path (default <output>.report.yaml)")
	mergeCmd.Flags().Bool("strict-names", false, "reject candidates whose name has no tokens beyond the shared ones")

	_ = viper.BindPFlag("merge.output_path", mergeCmd.Flags().Lookup("output"))

	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if dir, _ := cmd.Flags().GetString("batch-dir"); dir != "" {
		cfg.Batch.Dir = dir
		cfg.Batch.LedgerPath = filepath.Join(dir, "ledger.db")
	}

	policy := names.DefaultPolicy()
	policy.AllowEmptyRemainder = cfg.Merge.AllowEmptyRemainder
	if strict, _ := cmd.Flags().GetBool("strict-names"); strict {
		policy.AllowEmptyRemainder = false
	}

	opts := merge.Options{
		Dir:        cfg.Batch.Dir,
		OutputPath: cfg.Merge.OutputPath,
		Roster:     cfg.Roster,
		Matcher:    policy,
		Out:        os.Stdout,
	}
	opts.ReportPath, _ = cmd.Flags().GetString("report")

	// The roster size and the ledger only enrich the report.
	if records, err := roster.Load(cfg.Roster); err == nil {
		opts.Total = len(records)
	} else {
		logging.Warn("roster unavailable, trailing gap check disabled", "err", err)
	}
	if _, err := os.Stat(cfg.Batch.LedgerPath); err == nil {
		ledger, err := checkpoint.Open(cfg.Batch.LedgerPath)
		if err != nil {
			return err
		}
		defer ledger.Close()
		opts.Ledger = ledger
	} else if !errors.Is(err, fs.ErrNotExist) {
		logging.Warn("ledger unavailable", "path", cfg.Batch.LedgerPath, "err", err)
	}

	_, err = merge.Merge(cmd.Context(), opts)
	return err
}
