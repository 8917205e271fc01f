package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"

	"github.com/samirrijal/surveyplan/internal/core/domain"
)

// Format is an output encoding for plans.
type Format string

const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// ParseFormat accepts json, yaml (or yml), csv and parquet.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "csv":
		return FormatCSV, nil
	case "parquet":
		return FormatParquet, nil
	}
	return "", fmt.Errorf("unknown format %q (want json, yaml, csv or parquet)", s)
}

// Ext is the file extension for the format, without the dot.
func (f Format) Ext() string { return string(f) }

// yamlPlan is the YAML view of a plan. Nested domain types have one-word
// field names and need no tags.
type yamlPlan struct {
	ID           string            `yaml:"id,omitempty"`
	Name         string            `yaml:"name,omitempty"`
	Footprint    domain.Dimensions `yaml:"footprint"`
	Field        domain.Dimensions `yaml:"field"`
	Rows         int               `yaml:"rows"`
	Cols         int               `yaml:"cols"`
	Strategy     string            `yaml:"strategy"`
	Transposed   bool              `yaml:"transposed"`
	Complete     bool              `yaml:"complete"`
	PathLength   float64           `yaml:"path_length"`
	Uncovered    []domain.Tile     `yaml:"uncovered,omitempty,flow"`
	Origin       *domain.GeoPoint  `yaml:"origin,omitempty"`
	Waypoints    []domain.Waypoint `yaml:"waypoints"`
	GeoWaypoints []domain.GeoPoint `yaml:"geo_waypoints,omitempty"`
}

// waypointRow is one parquet row per waypoint.
type waypointRow struct {
	Seq int32    `parquet:"seq"`
	X   float64  `parquet:"x"`
	Y   float64  `parquet:"y"`
	Lat *float64 `parquet:"lat,optional"`
	Lon *float64 `parquet:"lon,optional"`
}

// WritePlan encodes a plan. JSON and YAML carry the whole plan; CSV and
// parquet carry one row per waypoint, with lat/lon when the plan is
// georeferenced.
func WritePlan(w io.Writer, f Format, plan *domain.SurveyPlan) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(toYAML(plan)); err != nil {
			return err
		}
		return enc.Close()
	case FormatCSV:
		return writeCSV(w, plan)
	case FormatParquet:
		return writeParquet(w, plan)
	}
	return fmt.Errorf("unknown format %q", f)
}

func toYAML(p *domain.SurveyPlan) yamlPlan {
	return yamlPlan{
		ID:           p.ID,
		Name:         p.Name,
		Footprint:    p.Footprint,
		Field:        p.Field,
		Rows:         p.Rows,
		Cols:         p.Cols,
		Strategy:     p.Strategy,
		Transposed:   p.Transposed,
		Complete:     p.Complete(),
		PathLength:   p.PathLength,
		Uncovered:    p.Uncovered,
		Origin:       p.Origin,
		Waypoints:    p.Waypoints,
		GeoWaypoints: p.GeoWaypoints,
	}
}

func geoFor(p *domain.SurveyPlan) bool {
	return len(p.GeoWaypoints) == len(p.Waypoints) && len(p.GeoWaypoints) > 0
}

func writeCSV(w io.Writer, p *domain.SurveyPlan) error {
	cw := csv.NewWriter(w)
	geo := geoFor(p)

	header := []string{"seq", "x", "y"}
	if geo {
		header = append(header, "lat", "lon")
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for i, wp := range p.Waypoints {
		rec := []string{
			strconv.Itoa(i),
			strconv.FormatFloat(wp.X, 'f', -1, 64),
			strconv.FormatFloat(wp.Y, 'f', -1, 64),
		}
		if geo {
			rec = append(rec,
				strconv.FormatFloat(p.GeoWaypoints[i].Lat, 'f', 7, 64),
				strconv.FormatFloat(p.GeoWaypoints[i].Lon, 'f', 7, 64),
			)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeParquet(w io.Writer, p *domain.SurveyPlan) error {
	geo := geoFor(p)
	rows := make([]waypointRow, len(p.Waypoints))
	for i, wp := range p.Waypoints {
		rows[i] = waypointRow{Seq: int32(i), X: wp.X, Y: wp.Y}
		if geo {
			lat, lon := p.GeoWaypoints[i].Lat, p.GeoWaypoints[i].Lon
			rows[i].Lat, rows[i].Lon = &lat, &lon
		}
	}

	pw := parquet.NewGenericWriter[waypointRow](w)
	if _, err := pw.Write(rows); err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}
	return pw.Close()
}
