// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the scholar-enrich CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/scholar-enrich/internal/logging"
	"github.com/pdiddy/scholar-enrich/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// secretsDir is where API keys are read from at startup.
const secretsDir = ".secrets/"

// rootCmd is the base command for the scholar-enrich CLI.
var rootCmd = &cobra.Command{
	Use:   "scholar-enrich",
	Short: "Enrich a researcher roster with Google Scholar profile metrics",
	Long: `scholar-enrich resolves each person in a roster CSV to a Google Scholar
profile and appends citation metrics, publication counts, and an affiliation
confidence score.

The batch command processes the roster in fixed-size ranges and writes one
artifact per range, so an interrupted run resumes where it stopped. The merge
command concatenates the artifacts, re-checks every identity by name, and
writes the final dataset. verify checks a dataset's unresolved-row markers.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		if err := logging.Init(os.Stderr, level); err != nil {
			return err
		}

		s, err := secrets.Load(secretsDir)
		if err != nil {
			return err
		}
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./scholar-enrich.yaml or ~/.config/scholar-enrich/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, or error")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("scholar-enrich")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "scholar-enrich"))
		}
	}

	viper.SetEnvPrefix("SCHOLAR_ENRICH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := setDefaults(viper.GetViper()); err != nil {
		fmt.Fprintln(os.Stderr, "Error registering defaults:", err)
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		logging.Error("command failed", "err", err)
		os.Exit(1)
	}
}
