package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/samirrijal/surveyplan/internal/adapters/postgres"
	"github.com/samirrijal/surveyplan/internal/core/domain"
	"github.com/samirrijal/surveyplan/internal/core/usecases"
	"github.com/samirrijal/surveyplan/internal/pkg/config"
)

// Manifest lists plan requests for the batch command.
//
//	plans:
//	  - name: north paddock
//	    footprint: {height: 2, width: 3}
//	    field: {height: 70, width: 90}
//	    origin: {lat: 43.26, lon: -2.93}
type Manifest struct {
	Plans []ManifestEntry `yaml:"plans"`
}

// ManifestEntry is one request. Exactly one of Footprint or Camera is set.
type ManifestEntry struct {
	Name      string             `yaml:"name"`
	Footprint *domain.Dimensions `yaml:"footprint"`
	Camera    *manifestCamera    `yaml:"camera"`
	Field     domain.Dimensions  `yaml:"field"`
	Origin    *domain.GeoPoint   `yaml:"origin"`
}

type manifestCamera struct {
	FocalLength  float64 `yaml:"focal_length"`
	SensorHeight float64 `yaml:"sensor_height"`
	SensorWidth  float64 `yaml:"sensor_width"`
	Altitude     float64 `yaml:"altitude"`
}

// Request converts the entry to a plan request.
func (e ManifestEntry) Request() *domain.PlanRequest {
	req := &domain.PlanRequest{Name: e.Name, Footprint: e.Footprint, Field: e.Field, Origin: e.Origin}
	if e.Camera != nil {
		req.Camera = &domain.Camera{
			FocalLength:  e.Camera.FocalLength,
			SensorHeight: e.Camera.SensorHeight,
			SensorWidth:  e.Camera.SensorWidth,
			Altitude:     e.Camera.Altitude,
		}
	}
	return req
}

// LoadManifest reads a YAML (or JSON) manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if len(m.Plans) == 0 {
		return nil, fmt.Errorf("manifest %s lists no plans", path)
	}
	return &m, nil
}

// BatchResult is the outcome of one manifest entry.
type BatchResult struct {
	Index int
	Plan  *domain.SurveyPlan
	Err   error
}

// RunBatch plans every entry with at most workers plans in flight. Results
// keep manifest order.
func RunBatch(ctx context.Context, svc *usecases.PlanService, entries []ManifestEntry, workers int) []BatchResult {
	if workers < 1 {
		workers = 1
	}
	results := make([]BatchResult, len(entries))

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	for i, e := range entries {
		wg.Add(1)
		go func(i int, e ManifestEntry) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ctx.Err(); err != nil {
				results[i] = BatchResult{Index: i, Err: err}
				return
			}
			plan, err := svc.Preview(ctx, e.Request())
			results[i] = BatchResult{Index: i, Plan: plan, Err: err}
		}(i, e)
	}
	wg.Wait()
	return results
}

var unsafeChars = regexp.MustCompile(`[^a-z0-9]+`)

// fileName derives an output file name from the plan name.
func fileName(i int, name string, f Format) string {
	slug := strings.Trim(unsafeChars.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if slug == "" {
		return fmt.Sprintf("plan-%03d.%s", i+1, f.Ext())
	}
	return fmt.Sprintf("%03d-%s.%s", i+1, slug, f.Ext())
}

func newBatchCmd() *cobra.Command {
	var (
		manifestPath string
		outputDir    string
		format       string
		workers      int
		maxTiles     int
		store        bool
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Plan every field listed in a manifest",
		Long: `Plan every field listed in a YAML manifest and write one route file per
plan. With --store, the computed plans are also saved to the survey plan
database in a single transaction.`,
		Example: `  surveyplan batch --manifest fields.yaml --output-dir routes --format parquet
  surveyplan batch --manifest fields.yaml --store`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := ParseFormat(format)
			if err != nil {
				return err
			}
			m, err := LoadManifest(manifestPath)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outputDir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}

			svc := usecases.NewPlanService(nil, nil, nil, usecases.WithMaxTiles(maxTiles))
			results := RunBatch(cmd.Context(), svc, m.Plans, workers)

			var (
				planned []*domain.SurveyPlan
				failed  int
			)
			out := cmd.OutOrStdout()
			for _, r := range results {
				name := m.Plans[r.Index].Name
				if r.Err != nil {
					failed++
					slog.Error("plan failed", "index", r.Index, "name", name, "error", r.Err)
					fmt.Fprintf(out, "%3d  %-24s  error: %v\n", r.Index+1, name, r.Err)
					continue
				}

				path := filepath.Join(outputDir, fileName(r.Index, name, f))
				if err := writeFile(path, f, r.Plan); err != nil {
					return err
				}
				planned = append(planned, r.Plan)
				fmt.Fprintf(out, "%3d  %-24s  %dx%d %-9s  %5d waypoints  %d uncovered  -> %s\n",
					r.Index+1, name, r.Plan.Rows, r.Plan.Cols, r.Plan.Strategy,
					len(r.Plan.Waypoints), len(r.Plan.Uncovered), path)
			}

			if store && len(planned) > 0 {
				if err := storePlans(cmd.Context(), planned); err != nil {
					return err
				}
				fmt.Fprintf(out, "stored %d plans\n", len(planned))
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d plans failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&manifestPath, "manifest", "", "Path to the YAML manifest (required)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "routes", "Directory for route files")
	cmd.Flags().StringVar(&format, "format", "json", "Output format (json, yaml, csv, parquet)")
	cmd.Flags().IntVar(&workers, "workers", 4, "Plans computed concurrently")
	cmd.Flags().IntVar(&maxTiles, "max-tiles", 250000, "Largest grid (rows x cols) to plan")
	cmd.Flags().BoolVar(&store, "store", false, "Also save plans to the database")
	_ = cmd.MarkFlagRequired("manifest")

	return cmd
}

func writeFile(path string, f Format, plan *domain.SurveyPlan) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WritePlan(file, f, plan); err != nil {
		_ = file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}

func storePlans(ctx context.Context, plans []*domain.SurveyPlan) error {
	cfg, err := config.Load("surveyplan-cli")
	if err != nil {
		return err
	}
	db, err := postgres.New(ctx, cfg.Database, cfg.Telemetry.ServiceName)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	return postgres.NewPlanRepo(db).CreateMany(ctx, plans)
}
