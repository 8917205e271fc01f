package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samirrijal/surveyplan/internal/adapters/postgres"
	"github.com/samirrijal/surveyplan/internal/core/usecases"
	"github.com/samirrijal/surveyplan/internal/pkg/config"
)

func newExportCmd() *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export <plan-id>",
		Short: "Export a stored plan",
		Long: `Export a plan stored by the API or the dispatcher. Database settings
come from config.yaml, SURVEYPLAN_* environment variables or a .env file.`,
		Example: `  surveyplan export 3f6c0a8e-3c1e-4c8a-9a53-0c1f1f5d2b7e --format csv -o route.csv`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := ParseFormat(format)
			if err != nil {
				return err
			}

			cfg, err := config.Load("surveyplan-cli")
			if err != nil {
				return err
			}
			db, err := postgres.New(cmd.Context(), cfg.Database, cfg.Telemetry.ServiceName)
			if err != nil {
				return fmt.Errorf("database: %w", err)
			}
			defer db.Close()

			svc := usecases.NewPlanService(postgres.NewPlanRepo(db), nil, nil)
			plan, err := svc.GetByID(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("plan %s: %w", args[0], err)
			}

			w, closeFn, err := openOutput(cmd, output)
			if err != nil {
				return err
			}
			if err := WritePlan(w, f, plan); err != nil {
				_ = closeFn()
				return err
			}
			return closeFn()
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "Output format (json, yaml, csv, parquet)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")

	return cmd
}
