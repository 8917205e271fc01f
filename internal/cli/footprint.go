package cli

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/samirrijal/surveyplan/internal/core/usecases"
)

func newFootprintCmd() *cobra.Command {
	var (
		cf     cameraFlags
		format string
	)

	cmd := &cobra.Command{
		Use:     "footprint",
		Short:   "Ground footprint of one photograph",
		Example: `  surveyplan footprint --focal-length 8.8 --sensor-height 8.8 --sensor-width 13.2 --altitude 60`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fp, err := usecases.NewPlanService(nil, nil, nil).Footprint(cf.cam)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(fp)
			case "yaml", "yml":
				return yaml.NewEncoder(out).Encode(map[string]any{
					"ground":         fp.Ground,
					"horizontal_fov": fp.HorizontalFOV,
					"vertical_fov":   fp.VerticalFOV,
				})
			}
			return errors.New("--format must be json or yaml")
		},
	}

	cf.bind(cmd.Flags())
	cmd.Flags().StringVar(&format, "format", "json", "Output format (json or yaml)")
	for _, name := range cameraFlagNames {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}
