package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"clearcourse-hq/exhibit/pkg/config"
	"clearcourse-hq/exhibit/pkg/export/retention"
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete expired evidence packages",
	Long: `Run one retention sweep: delete every expired, non-permanent package
together with its section rows. Permanent packages are never touched.

In long-lived deployments the serve command runs this sweep on the
configured cron schedule instead.

Examples:
  exhibit prune`,
	RunE: runPrune,
}

func init() {
	rootCmd.AddCommand(pruneCmd)
}

func runPrune(cmd *cobra.Command, args []string) error {
	a, err := newApp(func(cfg *config.Config) {
		// A one-shot sweep runs regardless of the scheduler toggle.
		cfg.Retention.Enabled = true
	})
	if err != nil {
		return err
	}
	defer a.Close()

	pruner := retention.NewPruner(a.storage, a.cfg.Retention, a.metrics)
	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Deleted %d expired export(s).\n", deleted)
	return nil
}
