package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"clearcourse-hq/exhibit/pkg/config"
)

var downloadFlags struct {
	dir string
}

var downloadCmd = &cobra.Command{
	Use:   "download <export-number>",
	Short: "Write the download artifacts for a package",
	Long: `Write the download artifacts for a completed package: the full JSON
document and a CSV section index. Each download is recorded on the
package's access log.

Expired packages cannot be downloaded.

Examples:
  exhibit download CE-20260401-1a2b3c4d
  exhibit download CE-20260401-1a2b3c4d --dir ./court-filing`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)
	downloadCmd.Flags().StringVarP(&downloadFlags.dir, "dir", "d", "", "output directory (default: config bundle_dir)")
}

func runDownload(cmd *cobra.Command, args []string) error {
	a, err := newApp(func(cfg *config.Config) {
		if downloadFlags.dir != "" {
			cfg.Export.BundleDir = downloadFlags.dir
		}
	})
	if err != nil {
		return err
	}
	defer a.Close()

	paths, err := a.orch.Download(context.Background(), args[0])
	if err != nil {
		return err
	}

	for _, p := range paths {
		fmt.Println(p)
	}
	return nil
}
