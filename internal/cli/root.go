// Package cli implements the surveyplan command line tool.
package cli

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/samirrijal/surveyplan/internal/pkg/logging"
)

func NewRootCmd() *cobra.Command {
	var logLevel, logFormat string

	cmd := &cobra.Command{
		Use:   "surveyplan",
		Short: "Plan camera survey routes over rectangular fields",
		Long: `surveyplan computes boustrophedon routes that photograph every part of a
rectangular field, given the ground footprint of one photograph or the
camera optics that produce it.

Routes are written as JSON, YAML, CSV or parquet. Stored plans can be
exported from the survey plan database.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			logging.SetupWriter(cmd.ErrOrStderr(), logLevel, logFormat)
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text or json)")

	cmd.AddCommand(newPlanCmd())
	cmd.AddCommand(newFootprintCmd())
	cmd.AddCommand(newBatchCmd())
	cmd.AddCommand(newExportCmd())

	return cmd
}
