// Package cmd implements the confsync command line interface.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/stackmill/confsync/cmd/confsync/app"
	"github.com/stackmill/confsync/pkg/errors"
	"github.com/stackmill/confsync/pkg/logging"
	"github.com/stackmill/confsync/pkg/snapshot"
)

var (
	flagEnvironment      string
	flagEnvironmentsFile string
	flagURL              string
	flagAPIKey           string
	flagUsername         string
	flagPassword         string
	flagVerbose          bool

	// Version information set by main.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"
	// Date is the build date.
	Date = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "confsync",
	Short: "Sync reports and workflows between deployments",
	Long: `Confsync moves report and workflow configuration between independent
deployments of the business application over its REST API.

Export captures entities from a source deployment as portable JSON snapshot
files; import reproduces them in a target deployment with an idempotent
create-or-update, so re-running a batch never duplicates entities.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if flagVerbose {
			logging.SetLevel(zerolog.DebugLevel)
		}
	},
}

// Execute runs the root command with signal-aware context. Setup errors are
// the only non-zero exits; per-entity sync failures are reported in the
// batch summary and exit 0.
func Execute(version, commit, date string) {
	Version = version
	Commit = commit
	Date = date

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logging.Err(err).Msg("confsync failed")
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagEnvironment, "env", "e", "", "Named deployment preset from the environments file")
	rootCmd.PersistentFlags().StringVar(&flagEnvironmentsFile, "environments", "", "Path to the environments preset file (default environments.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagURL, "url", "", "Deployment base URL (overrides the preset)")
	rootCmd.PersistentFlags().StringVar(&flagAPIKey, "api-key", "", "Static API key (X-Api-Key header)")
	rootCmd.PersistentFlags().StringVar(&flagUsername, "username", "", "Username for session login")
	rootCmd.PersistentFlags().StringVar(&flagPassword, "password", "", "Password for session login")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
}

// loadConfig assembles the effective configuration: env/.env values overlaid
// with whatever flags were set.
func loadConfig(dir string) (*app.Config, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, err
	}
	cfg.Merge(app.Config{
		Environment:      flagEnvironment,
		EnvironmentsFile: flagEnvironmentsFile,
		URL:              flagURL,
		APIKey:           flagAPIKey,
		Username:         flagUsername,
		Password:         flagPassword,
		Dir:              dir,
	})
	if cfg.Dir == "" {
		cfg.Dir = "./snapshots"
	}
	return cfg, nil
}

// parseKinds maps the --kind flag onto entity kinds.
func parseKinds(kind string) ([]snapshot.Kind, error) {
	switch kind {
	case "", "all":
		return []snapshot.Kind{snapshot.KindReport, snapshot.KindWorkflow}, nil
	case "reports", "report":
		return []snapshot.Kind{snapshot.KindReport}, nil
	case "workflows", "workflow":
		return []snapshot.Kind{snapshot.KindWorkflow}, nil
	default:
		return nil, errors.NewConfigError("cli", "unknown kind "+kind+" (want reports, workflows, or all)", nil)
	}
}

// kindDir returns the staging subdirectory for a kind. Reports and workflows
// are staged separately so their sanitization rules never cross.
func kindDir(base string, kind snapshot.Kind) string {
	if kind == snapshot.KindWorkflow {
		return filepath.Join(base, "workflows")
	}
	return filepath.Join(base, "reports")
}
