// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/scholar-enrich/internal/artifact"
	"github.com/pdiddy/scholar-enrich/internal/scholar"
	"github.com/pdiddy/scholar-enrich/pkg/types"
)

var profileCmd = &cobra.Command{
	Use:   "profile <scholar-id>",
	Short: "Fetch one Scholar profile by id and print its metrics",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfile,
}

func init() {
	profileCmd.Flags().Bool("json", false, "output the profile as JSON")

	rootCmd.AddCommand(profileCmd)
}

func runProfile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	scraper := scholar.New(&http.Client{Timeout: cfg.Scholar.Timeout}, cfg.Scholar, nil)
	p, err := scraper.FetchProfile(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	}
	printProfile(w, p)
	return nil
}

func printProfile(w io.Writer, p types.Profile) {
	fmt.Fprintf(w, "ID:           %s\n", p.ID)
	fmt.Fprintf(w, "Name:         %s\n", p.Name)
	fmt.Fprintf(w, "Affiliation:  %s\n", p.Affiliation)
	if len(p.Interests) > 0 {
		fmt.Fprintf(w, "Interests:    %s\n", strings.Join(p.Interests, ", "))
	}
	m := p.Metrics
	fmt.Fprintf(w, "Citations:    %d\n", m.TotalCitations)
	fmt.Fprintf(w, "h-index:      %d\n", m.HIndex)
	fmt.Fprintf(w, "i10-index:    %d\n", m.I10Index)
	fmt.Fprintf(w, "Documents:    %d\n", m.TotalDocuments)
	if len(m.CitationsPerYear) > 0 {
		fmt.Fprintf(w, "Cites/year:   %s\n", artifact.FormatSeries(m.CitationsPerYear))
	}
	if len(m.DocumentsPerYear) > 0 {
		fmt.Fprintf(w, "Docs/year:    %s\n", artifact.FormatSeries(m.DocumentsPerYear))
	}
}
