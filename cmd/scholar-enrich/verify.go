// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/scholar-enrich/internal/artifact"
	"github.com/pdiddy/scholar-enrich/internal/merge"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [dataset.csv]",
	Short: "Check that unresolved rows carry only the standard sentinel",
	Long: `Verify reads an enriched dataset (the merged CSV by default, or any batch
artifact) and checks that every unresolved row uses the sentinel id with all
other enrichment cells empty, and that every resolved row names its profile.
It exits non-zero when a check fails.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	path := viper.GetString("merge.output_path")
	if len(args) == 1 {
		path = args[0]
	}

	table, err := artifact.ReadTable(path)
	if err != nil {
		return err
	}
	report, err := merge.Verify(table)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", path)
	report.Print(cmd.OutOrStdout())
	if !report.OK() {
		return fmt.Errorf("%s failed verification", path)
	}
	return nil
}
