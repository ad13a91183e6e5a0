// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/scholar-enrich/internal/affiliation"
	"github.com/pdiddy/scholar-enrich/internal/batch"
	"github.com/pdiddy/scholar-enrich/internal/checkpoint"
	"github.com/pdiddy/scholar-enrich/internal/logging"
	"github.com/pdiddy/scholar-enrich/internal/roster"
	"github.com/pdiddy/scholar-enrich/internal/scholar"
	"github.com/pdiddy/scholar-enrich/internal/search"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Enrich the roster range by range, writing one artifact per range",
	Long: `Batch partitions the roster into consecutive ranges and, for every range
without an artifact in the batch directory, resolves each name to a Scholar
profile and writes batch_<start>_<end>.csv. Re-running skips written ranges,
so an interrupted run resumes by running it again.

Concurrent runs against the same batch directory coordinate through the
checkpoint ledger: a range claimed by another live run is skipped.`,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().String("roster", "", "roster CSV file")
	batchCmd.Flags().String("batch-dir", "", "directory for batch artifacts")
	batchCmd.Flags().Int("size", 0, "records per batch")
	batchCmd.Flags().String("ledger", "", "checkpoint ledger path (default <batch-dir>/ledger.db)")
	batchCmd.Flags().Bool("no-ledger", false, "run without claims or provenance")
	batchCmd.Flags().String("run-id", "", "identifier recorded in the ledger (default random)")

	_ = viper.BindPFlag("roster.path", batchCmd.Flags().Lookup("roster"))
	_ = viper.BindPFlag("batch.dir", batchCmd.Flags().Lookup("batch-dir"))
	_ = viper.BindPFlag("batch.size", batchCmd.Flags().Lookup("size"))
	_ = viper.BindPFlag("batch.ledger_path", batchCmd.Flags().Lookup("ledger"))

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if cfg.Search.APIKey == "" {
		return fmt.Errorf("no search API key: add .secrets/serper-api-key or set search.api_key")
	}

	records, err := roster.Load(cfg.Roster)
	if err != nil {
		return err
	}
	logging.Info("roster loaded", "path", cfg.Roster.Path, "records", len(records))

	scraper := scholar.New(&http.Client{Timeout: cfg.Scholar.Timeout}, cfg.Scholar, nil)
	searcher := search.NewClient(&http.Client{Timeout: cfg.Search.Timeout}, cfg.Search, scraper, nil)

	opts := batch.Options{
		Config:      cfg.Batch,
		Pacing:      cfg.Pacing,
		Search:      searcher,
		Affiliation: affiliation.NewMatcher(nil, nil),
		Out:         os.Stdout,
	}
	opts.RunID, _ = cmd.Flags().GetString("run-id")

	if noLedger, _ := cmd.Flags().GetBool("no-ledger"); !noLedger {
		ledger, err := checkpoint.Open(cfg.Batch.LedgerPath)
		if err != nil {
			return err
		}
		defer ledger.Close()
		opts.Ledger = ledger
	}

	orch := batch.New(opts)
	logging.Info("starting batch run", "run", orch.RunID(), "dir", cfg.Batch.Dir, "size", cfg.Batch.Size)

	_, err = orch.Run(cmd.Context(), records)
	return err
}
