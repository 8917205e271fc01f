package coverage_test

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/samirrijal/surveyplan/internal/core/coverage"
	"github.com/samirrijal/surveyplan/internal/core/domain"
)

// ---- helpers ----

func formatMoves(moves []coverage.Move) string {
	var b strings.Builder
	for _, m := range moves {
		b.WriteString(m.String())
	}
	return b.String()
}

func assertRoute(t *testing.T, got, want []domain.Waypoint) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d waypoints, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if math.Abs(got[i].X-want[i].X) > 1e-9 || math.Abs(got[i].Y-want[i].Y) > 1e-9 {
			t.Fatalf("waypoint %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func transposed(route []domain.Waypoint) []domain.Waypoint {
	out := make([]domain.Waypoint, len(route))
	for i, w := range route {
		out[i] = w.Transpose()
	}
	return out
}

// knownGap reports the grids where the both-odd script leaves the upper part
// of the rightmost column unvisited.
func knownGap(g coverage.Grid) bool {
	return g.Rows%2 == 1 && g.Cols == 3 && g.Rows >= 3
}

// ---- grid and strategy ----

func TestGridFor(t *testing.T) {
	tests := []struct {
		fp, field domain.Dimensions
		want      coverage.Grid
	}{
		{domain.Dimensions{Height: 2, Width: 3}, domain.Dimensions{Height: 7, Width: 9}, coverage.Grid{Rows: 4, Cols: 3}},
		{domain.Dimensions{Height: 1, Width: 1}, domain.Dimensions{Height: 3, Width: 3}, coverage.Grid{Rows: 3, Cols: 3}},
		{domain.Dimensions{Height: 10, Width: 10}, domain.Dimensions{Height: 1, Width: 0.5}, coverage.Grid{Rows: 1, Cols: 1}},
		{domain.Dimensions{Height: 2.5, Width: 4}, domain.Dimensions{Height: 10.01, Width: 16}, coverage.Grid{Rows: 5, Cols: 4}},
	}
	for _, tt := range tests {
		if got := coverage.GridFor(tt.fp, tt.field); got != tt.want {
			t.Errorf("GridFor(%v, %v): expected %v, got %v", tt.fp, tt.field, tt.want, got)
		}
	}
}

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name       string
		fp, field  domain.Dimensions
		grid       coverage.Grid
		strategy   coverage.Strategy
		transposed bool
	}{
		{"even rows transpose", domain.Dimensions{Height: 2, Width: 3}, domain.Dimensions{Height: 7, Width: 9}, coverage.Grid{Rows: 3, Cols: 4}, coverage.Irregular, true},
		{"both odd", domain.Dimensions{Height: 1, Width: 1}, domain.Dimensions{Height: 3, Width: 3}, coverage.Grid{Rows: 3, Cols: 3}, coverage.Regular, false},
		{"even cols only", domain.Dimensions{Height: 1, Width: 1}, domain.Dimensions{Height: 3, Width: 4}, coverage.Grid{Rows: 3, Cols: 4}, coverage.Irregular, false},
		{"both even", domain.Dimensions{Height: 1, Width: 1}, domain.Dimensions{Height: 4, Width: 6}, coverage.Grid{Rows: 6, Cols: 4}, coverage.Irregular, true},
		{"single tile", domain.Dimensions{Height: 5, Width: 5}, domain.Dimensions{Height: 1, Width: 1}, coverage.Grid{Rows: 1, Cols: 1}, coverage.Regular, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := coverage.Canonicalize(tt.fp, tt.field)
			if l.Grid != tt.grid {
				t.Errorf("expected grid %v, got %v", tt.grid, l.Grid)
			}
			if l.Strategy != tt.strategy {
				t.Errorf("expected strategy %s, got %s", tt.strategy, l.Strategy)
			}
			if l.Transposed != tt.transposed {
				t.Errorf("expected transposed=%v, got %v", tt.transposed, l.Transposed)
			}
			if tt.transposed && (l.Footprint != tt.fp.Transpose() || l.Field != tt.field.Transpose()) {
				t.Errorf("expected swapped dimensions, got footprint %v field %v", l.Footprint, l.Field)
			}
		})
	}
}

func TestMoves(t *testing.T) {
	tests := []struct {
		grid     coverage.Grid
		strategy coverage.Strategy
		want     string
	}{
		{coverage.Grid{Rows: 1, Cols: 1}, coverage.Regular, "E"},
		{coverage.Grid{Rows: 1, Cols: 5}, coverage.Regular, "RRRRE"},
		{coverage.Grid{Rows: 1, Cols: 4}, coverage.Irregular, "RRRE"},
		{coverage.Grid{Rows: 2, Cols: 2}, coverage.Irregular, "RULE"},
		{coverage.Grid{Rows: 3, Cols: 4}, coverage.Irregular, "RRRU" + "ULD" + "LULD" + "E"},
		{coverage.Grid{Rows: 3, Cols: 3}, coverage.Regular, "RRU" + "LUL" + "LDR" + "E"},
		{coverage.Grid{Rows: 3, Cols: 1}, coverage.Regular, "U" + "LUL" + "LDR" + "E"},
		{coverage.Grid{Rows: 5, Cols: 5}, coverage.Regular, "RRRRU" + "UUULDDD" + "LUUUL" + "LDR" + "DLDR" + "E"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%dx%d_%s", tt.grid.Rows, tt.grid.Cols, tt.strategy), func(t *testing.T) {
			if got := formatMoves(coverage.Moves(tt.grid, tt.strategy)); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

// ---- concrete scenarios ----

func TestPlan_EvenRowsAreTransposed(t *testing.T) {
	fp := domain.Dimensions{Height: 2, Width: 3}
	field := domain.Dimensions{Height: 7, Width: 9}

	l, route, err := coverage.PlanLayout(fp, field)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !l.Transposed || l.Strategy != coverage.Irregular {
		t.Fatalf("expected transposed irregular layout, got %+v", l)
	}

	want := []domain.Waypoint{
		{X: 1.5, Y: 1}, {X: 1.5, Y: 3}, {X: 1.5, Y: 5}, {X: 1.5, Y: 6},
		{X: 4.5, Y: 6}, {X: 7.5, Y: 6}, {X: 7.5, Y: 4}, {X: 4.5, Y: 4},
		{X: 4.5, Y: 2}, {X: 7.5, Y: 2}, {X: 7.5, Y: 1}, {X: 4.5, Y: 1},
		{X: 1.5, Y: 1},
	}
	assertRoute(t, route, want)

	tiles := make(map[domain.Tile]bool)
	for _, w := range route {
		tiles[domain.Tile{Row: int(w.Y / fp.Height), Col: int(w.X / fp.Width)}] = true
	}
	if len(tiles) != 12 {
		t.Fatalf("expected 12 distinct tiles, got %d", len(tiles))
	}
	if gaps := coverage.Uncovered(fp, field, route); len(gaps) != 0 {
		t.Fatalf("expected full coverage, got gaps %v", gaps)
	}
}

func TestPlan_BothOddUsesZigZagTail(t *testing.T) {
	fp := domain.Dimensions{Height: 1, Width: 1}
	field := domain.Dimensions{Height: 3, Width: 3}

	l, route, err := coverage.PlanLayout(fp, field)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Strategy != coverage.Regular || l.Transposed {
		t.Fatalf("expected regular untransposed layout, got %+v", l)
	}

	want := []domain.Waypoint{
		{X: 0.5, Y: 0.5}, {X: 1.5, Y: 0.5}, {X: 2.5, Y: 0.5},
		{X: 2.5, Y: 1.5}, {X: 1.5, Y: 1.5}, {X: 1.5, Y: 2.5}, {X: 0.5, Y: 2.5},
		// zig-zag tail: left (clamped), down, right
		{X: 0.5, Y: 2.5}, {X: 0.5, Y: 1.5}, {X: 1.5, Y: 1.5},
		{X: 0.5, Y: 0.5},
	}
	assertRoute(t, route, want)

	// With a single column pair consumed by the tail, the upper right tile is
	// never photographed.
	gaps := coverage.Uncovered(fp, field, route)
	if len(gaps) != 1 || gaps[0] != (domain.Tile{Row: 2, Col: 2}) {
		t.Fatalf("expected only tile (2,2) uncovered, got %v", gaps)
	}
}

func TestPlan_ThreeColumnGapGrowsWithRows(t *testing.T) {
	fp := domain.Dimensions{Height: 1, Width: 1}
	route, err := coverage.Plan(fp, domain.Dimensions{Height: 5, Width: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	gaps := coverage.Uncovered(fp, domain.Dimensions{Height: 5, Width: 3}, route)
	want := []domain.Tile{{Row: 2, Col: 2}, {Row: 3, Col: 2}, {Row: 4, Col: 2}}
	if len(gaps) != len(want) {
		t.Fatalf("expected gaps %v, got %v", want, gaps)
	}
	for i := range want {
		if gaps[i] != want[i] {
			t.Fatalf("expected gaps %v, got %v", want, gaps)
		}
	}
}

func TestPlan_SingleRow(t *testing.T) {
	fp := domain.Dimensions{Height: 1, Width: 1}

	tests := []struct {
		name  string
		field domain.Dimensions
		want  int
	}{
		{"single tile", domain.Dimensions{Height: 0.5, Width: 1}, 2},
		{"odd columns", domain.Dimensions{Height: 1, Width: 5}, 6},
		{"even columns", domain.Dimensions{Height: 1, Width: 4}, 5},
		{"fractional columns", domain.Dimensions{Height: 0.8, Width: 6.3}, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route, err := coverage.Plan(fp, tt.field)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(route) != tt.want {
				t.Fatalf("expected %d waypoints, got %d: %v", tt.want, len(route), route)
			}
			for i, w := range route {
				if w.Y != route[0].Y {
					t.Fatalf("waypoint %d left the row: %v", i, w)
				}
			}
		})
	}
}

func TestPlan_SingleColumnAfterTranspose(t *testing.T) {
	// 2 rows x 1 col: transposed to 1 row x 2 cols.
	fp := domain.Dimensions{Height: 1, Width: 1}
	field := domain.Dimensions{Height: 2, Width: 1}

	route, err := coverage.Plan(fp, field)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertRoute(t, route, []domain.Waypoint{{X: 0.5, Y: 0.5}, {X: 0.5, Y: 1.5}, {X: 0.5, Y: 0.5}})
}

func TestPlan_NarrowFieldCollapsesX(t *testing.T) {
	fp := domain.Dimensions{Height: 1, Width: 4}
	field := domain.Dimensions{Height: 3, Width: 3}

	route, err := coverage.Plan(fp, field)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, w := range route {
		if w.X != 2 {
			t.Fatalf("waypoint %d: expected collapsed x=2, got %v", i, w)
		}
		if w.Y < 0.5 || w.Y > 2.5 {
			t.Fatalf("waypoint %d: y out of bounds: %v", i, w)
		}
	}
	if gaps := coverage.Uncovered(fp, field, route); len(gaps) != 0 {
		t.Fatalf("expected full coverage, got %v", gaps)
	}
}

func TestPlan_TransposeSymmetry(t *testing.T) {
	tests := []struct {
		fp, field domain.Dimensions
	}{
		{domain.Dimensions{Height: 2, Width: 3}, domain.Dimensions{Height: 7, Width: 9}},
		{domain.Dimensions{Height: 1, Width: 2}, domain.Dimensions{Height: 6, Width: 5}},
		{domain.Dimensions{Height: 1.5, Width: 1}, domain.Dimensions{Height: 11.9, Width: 6.2}},
	}
	for _, tt := range tests {
		g := coverage.GridFor(tt.fp, tt.field)
		if g.Rows%2 != 0 || g.Cols%2 != 1 {
			t.Fatalf("bad fixture %v: want even rows and odd cols", g)
		}

		direct, err := coverage.Plan(tt.fp, tt.field)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		swapped, err := coverage.Plan(tt.fp.Transpose(), tt.field.Transpose())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertRoute(t, direct, transposed(swapped))
	}
}

func TestPlan_InvalidDimensions(t *testing.T) {
	ok := domain.Dimensions{Height: 1, Width: 1}

	tests := []struct {
		name      string
		fp, field domain.Dimensions
		want      error
	}{
		{"zero footprint height", domain.Dimensions{Height: 0, Width: 1}, ok, coverage.ErrInvalidDimension},
		{"negative field width", ok, domain.Dimensions{Height: 1, Width: -3}, coverage.ErrInvalidDimension},
		{"nan", domain.Dimensions{Height: math.NaN(), Width: 1}, ok, coverage.ErrInvalidDimension},
		{"inf field", ok, domain.Dimensions{Height: math.Inf(1), Width: 1}, coverage.ErrInvalidDimension},
		{"too many tiles", domain.Dimensions{Height: 1e-6, Width: 1e-6}, domain.Dimensions{Height: 1e3, Width: 1e3}, coverage.ErrGridTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route, err := coverage.Plan(tt.fp, tt.field)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if route != nil {
				t.Fatalf("expected no route on error, got %d waypoints", len(route))
			}
		})
	}
}

// ---- properties over a sweep of grids ----

func TestPlan_Properties(t *testing.T) {
	fp := domain.Dimensions{Height: 2, Width: 3}
	shaves := []float64{0, 0.25, 0.6} // fraction of a footprint missing from the last tile

	for rows := 1; rows <= 11; rows++ {
		for cols := 1; cols <= 11; cols++ {
			for _, sh := range shaves {
				for _, sw := range shaves {
					field := domain.Dimensions{
						Height: (float64(rows) - sh) * fp.Height,
						Width:  (float64(cols) - sw) * fp.Width,
					}
					t.Run(fmt.Sprintf("%dx%d/%.2f/%.2f", rows, cols, sh, sw), func(t *testing.T) {
						checkProperties(t, fp, field)
					})
				}
			}
		}
	}
}

func checkProperties(t *testing.T, fp, field domain.Dimensions) {
	t.Helper()

	g := coverage.GridFor(fp, field)
	route, err := coverage.Plan(fp, field)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b := coverage.BoundsFor(fp, field)
	origin := b.Clamp(domain.Waypoint{})
	if route[0] != origin || route[len(route)-1] != origin {
		t.Errorf("expected route to start and end at %v, got %v .. %v", origin, route[0], route[len(route)-1])
	}

	// A collapsed axis has Upper < Lower and every waypoint sits on Lower.
	const tol = 1e-9
	maxX, maxY := math.Max(b.Upper.X, b.Lower.X), math.Max(b.Upper.Y, b.Lower.Y)
	for i, w := range route {
		if w.X < b.Lower.X-tol || w.X > maxX+tol || w.Y < b.Lower.Y-tol || w.Y > maxY+tol {
			t.Errorf("waypoint %d %v outside bounds %+v", i, w, b)
		}
		if b.Clamp(w) != w {
			t.Errorf("waypoint %d %v changes under clamp", i, w)
		}
	}

	if g.Rows == 1 && len(route) != g.Cols+1 {
		t.Errorf("expected %d waypoints for a single row, got %d", g.Cols+1, len(route))
	}

	gaps := coverage.Uncovered(fp, field, route)
	if knownGap(g) {
		if len(gaps) == 0 {
			t.Errorf("expected the three-column gap, got full coverage")
		}
		return
	}
	if len(gaps) != 0 {
		t.Errorf("expected full coverage, uncovered tiles %v", gaps)
	}
}

// Plan keeps no shared recorder: concurrent calls over different fields must
// each see exactly the route a lone call produces.
func TestPlan_Concurrent(t *testing.T) {
	fp := domain.Dimensions{Height: 2, Width: 3}
	fields := []domain.Dimensions{
		{Height: 7, Width: 9},
		{Height: 6, Width: 9},
		{Height: 10, Width: 15},
		{Height: 2, Width: 30},
		{Height: 1, Width: 2},
		{Height: 22, Width: 33},
	}

	want := make([][]domain.Waypoint, len(fields))
	for i, f := range fields {
		route, err := coverage.Plan(fp, f)
		if err != nil {
			t.Fatalf("field %v: %v", f, err)
		}
		want[i] = route
	}

	for i, f := range fields {
		t.Run(fmt.Sprintf("%gx%g", f.Height, f.Width), func(t *testing.T) {
			t.Parallel()
			for n := 0; n < 50; n++ {
				route, err := coverage.Plan(fp, f)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if len(route) != len(want[i]) {
					t.Fatalf("expected %d waypoints, got %d", len(want[i]), len(route))
				}
				for k := range route {
					if route[k] != want[i][k] {
						t.Fatalf("run %d waypoint %d: expected %v, got %v", n, k, want[i][k], route[k])
					}
				}
			}
		})
	}
}
