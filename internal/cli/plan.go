package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/samirrijal/surveyplan/internal/core/domain"
	"github.com/samirrijal/surveyplan/internal/core/usecases"
)

// cameraFlags binds the optics flags shared by plan and footprint.
type cameraFlags struct {
	cam domain.Camera
}

func (c *cameraFlags) bind(fs *pflag.FlagSet) {
	fs.Float64Var(&c.cam.FocalLength, "focal-length", 0, "Lens focal length in mm")
	fs.Float64Var(&c.cam.SensorHeight, "sensor-height", 0, "Sensor height in mm")
	fs.Float64Var(&c.cam.SensorWidth, "sensor-width", 0, "Sensor width in mm")
	fs.Float64Var(&c.cam.Altitude, "altitude", 0, "Flight altitude above ground in m")
}

var cameraFlagNames = []string{"focal-length", "sensor-height", "sensor-width", "altitude"}

// set reports whether any camera flag was given, zero values included.
func (c *cameraFlags) set(fs *pflag.FlagSet) bool {
	for _, name := range cameraFlagNames {
		if fs.Changed(name) {
			return true
		}
	}
	return false
}

// requestFlags binds everything a plan request needs.
type requestFlags struct {
	name      string
	footprint domain.Dimensions
	field     domain.Dimensions
	camera    cameraFlags
	lat, lon  float64
}

func (r *requestFlags) bind(fs *pflag.FlagSet) {
	fs.StringVar(&r.name, "name", "", "Plan name")
	fs.Float64Var(&r.footprint.Height, "footprint-height", 0, "Ground height of one photograph in m")
	fs.Float64Var(&r.footprint.Width, "footprint-width", 0, "Ground width of one photograph in m")
	fs.Float64Var(&r.field.Height, "field-height", 0, "Field height in m")
	fs.Float64Var(&r.field.Width, "field-width", 0, "Field width in m")
	fs.Float64Var(&r.lat, "origin-lat", 0, "Latitude of the field's lower-left corner")
	fs.Float64Var(&r.lon, "origin-lon", 0, "Longitude of the field's lower-left corner")
	r.camera.bind(fs)
}

func (r *requestFlags) request(fs *pflag.FlagSet) (*domain.PlanRequest, error) {
	req := &domain.PlanRequest{Name: r.name, Field: r.field}

	fpSet := fs.Changed("footprint-height") || fs.Changed("footprint-width")
	camSet := r.camera.set(fs)
	switch {
	case fpSet && camSet:
		return nil, errors.New("use either --footprint-* or the camera flags, not both")
	case fpSet:
		fp := r.footprint
		req.Footprint = &fp
	case camSet:
		cam := r.camera.cam
		req.Camera = &cam
	default:
		return nil, errors.New("--footprint-height/--footprint-width or --focal-length/--sensor-*/--altitude are required")
	}

	if fs.Changed("origin-lat") != fs.Changed("origin-lon") {
		return nil, errors.New("--origin-lat and --origin-lon must be given together")
	}
	if fs.Changed("origin-lat") {
		req.Origin = &domain.GeoPoint{Lat: r.lat, Lon: r.lon}
	}
	return req, nil
}

// openOutput returns stdout for "" or "-", else a created file.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, f.Close, nil
}

func newPlanCmd() *cobra.Command {
	var (
		rf       requestFlags
		format   string
		output   string
		maxTiles int
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute a survey route",
		Long: `Compute the route a camera flies to photograph a rectangular field.

The footprint is given directly or derived from the camera optics. With an
origin, every waypoint is also projected to latitude and longitude.`,
		Example: `  # 2 m x 3 m footprint over a 70 m x 90 m field, as CSV
  surveyplan plan --footprint-height 2 --footprint-width 3 --field-height 70 --field-width 90 --format csv

  # Footprint from optics, georeferenced, to parquet
  surveyplan plan --focal-length 8.8 --sensor-height 8.8 --sensor-width 13.2 --altitude 60 \
    --field-height 200 --field-width 300 --origin-lat 43.26 --origin-lon -2.93 \
    --format parquet --output route.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := ParseFormat(format)
			if err != nil {
				return err
			}
			req, err := rf.request(cmd.Flags())
			if err != nil {
				return err
			}

			svc := usecases.NewPlanService(nil, nil, nil, usecases.WithMaxTiles(maxTiles))
			plan, err := svc.Preview(cmd.Context(), req)
			if err != nil {
				return err
			}
			slog.Info("plan computed",
				"rows", plan.Rows, "cols", plan.Cols, "strategy", plan.Strategy,
				"waypoints", len(plan.Waypoints), "path_length", plan.PathLength)

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

	rf.bind(cmd.Flags())
	cmd.Flags().StringVar(&format, "format", "json", "Output format (json, yaml, csv, parquet)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().IntVar(&maxTiles, "max-tiles", 250000, "Largest grid (rows x cols) to plan")

	return cmd
}
