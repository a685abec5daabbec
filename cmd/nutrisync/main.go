// Command nutrisync tracks meals, water and weight locally and mirrors them to PostgreSQL.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

type rootOptions struct {
	configPath string
	statePath  string
	dsn        string
	date       string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "nutrisync",
		Short:         "nutrisync tracks calories, macros, water and weight",
		Long:          "nutrisync is a local-first nutrition tracker with recipes, goals and optional PostgreSQL sync.",
		Version:       fmt.Sprintf("%s (%s)", version, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Path to config file (default $XDG_CONFIG_HOME/nutrisync/config.yaml)")
	pf.StringVar(&opts.statePath, "state", "", "Path to local state file")
	pf.StringVar(&opts.dsn, "dsn", "", "PostgreSQL DSN for sync (overrides config)")
	pf.StringVar(&opts.date, "date", "", "Viewing date YYYY-MM-DD (default today)")

	root.AddCommand(
		newLogCmd(opts),
		newTotalsCmd(opts),
		newRecipeCmd(opts),
		newWaterCmd(opts),
		newWeightCmd(opts),
		newGoalsCmd(opts),
		newProfileCmd(opts),
		newFoodCmd(opts),
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newSyncCmd(opts),
		newMigrateCmd(opts),
		newConfigCmd(opts),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
