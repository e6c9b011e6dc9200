package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stackmill/confsync/internal/export"
	"github.com/stackmill/confsync/pkg/logging"
	"github.com/stackmill/confsync/pkg/snapshot"
)

var (
	exportDir  string
	exportKind string
)

// exportCmd captures entities from a source deployment into snapshot files.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export reports and workflows from a deployment to snapshot files",
	Long: `Export fetches all reports and workflows from the source deployment,
strips environment-bound fields (timestamps, creator ids, and for reports the
remote id), and writes one JSON file per entity plus a _manifest.json batch
summary. The resulting directory is portable: commit it, review it, and
import it into another deployment.`,
	Example: `  confsync export --env dev --dir ./snapshots
  confsync export --url https://dev.example.com --api-key $KEY --kind reports`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportDir, "dir", "d", "", "Directory to write snapshot files to (default ./snapshots)")
	exportCmd.Flags().StringVarP(&exportKind, "kind", "k", "all", "Entity kinds to export: reports, workflows, or all")
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	kinds, err := parseKinds(exportKind)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(exportDir)
	if err != nil {
		return err
	}
	client, err := cfg.Connect(ctx)
	if err != nil {
		return err
	}

	logging.Info().Str("source", client.BaseURL()).Str("dir", cfg.Dir).Msg("starting export")

	exporter := export.New(client, client.BaseURL())
	total := 0
	for _, kind := range kinds {
		counts, err := exporter.Run(ctx, kindDir(cfg.Dir, kind), []snapshot.Kind{kind})
		if err != nil {
			return err
		}
		for _, n := range counts {
			total += n
		}
	}

	fmt.Printf("Exported %d entities to %s\n", total, cfg.Dir)
	return nil
}
