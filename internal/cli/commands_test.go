package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samirrijal/surveyplan/internal/core/domain"
	"github.com/samirrijal/surveyplan/internal/core/usecases"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestPlanCmd_CSV(t *testing.T) {
	out, err := run(t, "plan",
		"--footprint-height", "2", "--footprint-width", "3",
		"--field-height", "7", "--field-width", "9",
		"--format", "csv")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 14 {
		t.Fatalf("expected header + 13 rows, got %d:\n%s", len(lines), out)
	}
	if lines[1] != "0,1.5,1" || lines[13] != "12,1.5,1" {
		t.Errorf("expected route to start and end at (1.5,1), got %q .. %q", lines[1], lines[13])
	}
}

func TestPlanCmd_Camera(t *testing.T) {
	out, err := run(t, "plan",
		"--focal-length", "18", "--sensor-height", "36", "--sensor-width", "36", "--altitude", "50",
		"--field-height", "450", "--field-width", "450")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	var plan domain.SurveyPlan
	if err := json.Unmarshal([]byte(out), &plan); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if plan.Rows != 5 || plan.Cols != 5 {
		t.Errorf("expected a 5x5 grid for 100 m footprints, got %dx%d", plan.Rows, plan.Cols)
	}
}

func TestPlanCmd_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no footprint", []string{"plan", "--field-height", "3", "--field-width", "3"}, "required"},
		{"footprint and camera", []string{"plan", "--footprint-height", "1", "--footprint-width", "1",
			"--altitude", "10", "--field-height", "3", "--field-width", "3"}, "not both"},
		{"explicit zero focal length", []string{"plan", "--focal-length", "0", "--sensor-height", "36",
			"--sensor-width", "36", "--altitude", "50", "--field-height", "3", "--field-width", "3"}, "focal_length"},
		{"half an origin", []string{"plan", "--footprint-height", "1", "--footprint-width", "1",
			"--field-height", "3", "--field-width", "3", "--origin-lat", "10"}, "together"},
		{"bad format", []string{"plan", "--footprint-height", "1", "--footprint-width", "1",
			"--field-height", "3", "--field-width", "3", "--format", "xml"}, "unknown format"},
		{"zero field", []string{"plan", "--footprint-height", "1", "--footprint-width", "1",
			"--field-height", "0", "--field-width", "3"}, "invalid"},
		{"too large", []string{"plan", "--footprint-height", "1", "--footprint-width", "1",
			"--field-height", "100", "--field-width", "100", "--max-tiles", "50"}, "too large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestFootprintCmd(t *testing.T) {
	out, err := run(t, "footprint",
		"--focal-length", "18", "--sensor-height", "36", "--sensor-width", "36", "--altitude", "50")
	if err != nil {
		t.Fatalf("footprint: %v", err)
	}
	var fp domain.CameraFootprint
	if err := json.Unmarshal([]byte(out), &fp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if fp.Ground.Height < 99.999 || fp.Ground.Height > 100.001 {
		t.Errorf("expected 100 m ground height, got %v", fp.Ground.Height)
	}
}

func TestBatchCmd(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "fields.yaml")
	if err := os.WriteFile(manifest, []byte(`plans:
  - name: North Paddock
    footprint: {height: 2, width: 3}
    field: {height: 7, width: 9}
  - name: orchard
    camera: {focal_length: 18, sensor_height: 36, sensor_width: 36, altitude: 50}
    field: {height: 300, width: 200}
    origin: {lat: 43.26, lon: -2.93}
`), 0o644); err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(dir, "routes")

	out, err := run(t, "batch", "--manifest", manifest, "--output-dir", outDir, "--format", "csv")
	if err != nil {
		t.Fatalf("batch: %v\n%s", err, out)
	}

	for _, name := range []string{"001-north-paddock.csv", "002-orchard.csv"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}
	if !strings.Contains(out, "4x3 irregular") {
		t.Errorf("expected summary line for the first plan, got:\n%s", out)
	}
}

func TestBatchCmd_ReportsFailures(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "fields.yaml")
	if err := os.WriteFile(manifest, []byte(`plans:
  - name: ok
    footprint: {height: 1, width: 1}
    field: {height: 2, width: 2}
  - name: broken
    field: {height: 2, width: 2}
`), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "batch", "--manifest", manifest, "--output-dir", filepath.Join(dir, "out"))
	if err == nil || !strings.Contains(err.Error(), "1 of 2 plans failed") {
		t.Fatalf("expected one failure, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "out", "001-ok.json")); statErr != nil {
		t.Errorf("successful plan should still be written: %v", statErr)
	}
	if !strings.Contains(out, "broken") {
		t.Errorf("expected failed entry in summary, got:\n%s", out)
	}
}

func TestRunBatch_KeepsOrder(t *testing.T) {
	var entries []ManifestEntry
	for i := 1; i <= 9; i++ {
		entries = append(entries, ManifestEntry{
			Footprint: &domain.Dimensions{Height: 1, Width: 1},
			Field:     domain.Dimensions{Height: float64(i), Width: 5},
		})
	}

	results := RunBatch(context.Background(), usecases.NewPlanService(nil, nil, nil), entries, 3)
	for i, r := range results {
		if r.Err != nil {
			t.Fatalf("entry %d: %v", i, r.Err)
		}
		if r.Index != i || r.Plan.Field.Height != float64(i+1) {
			t.Errorf("result %d out of order: index %d height %v", i, r.Index, r.Plan.Field.Height)
		}
	}
}

func TestFileName(t *testing.T) {
	if got := fileName(0, "North Paddock #2", FormatParquet); got != "001-north-paddock-2.parquet" {
		t.Errorf("unexpected name %q", got)
	}
	if got := fileName(4, "  ", FormatCSV); got != "plan-005.csv" {
		t.Errorf("unexpected name %q", got)
	}
}
