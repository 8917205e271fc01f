package coverage

import (
	"math"
	"sort"

	"github.com/samirrijal/surveyplan/internal/core/domain"
)

// Uncovered returns the tiles of the field that contain ground no photograph
// centred on a route waypoint reaches, ordered by row then column. An empty
// result means the route covers the whole field.
//
// The check is exact up to a tolerance of 1e-9 of the field size: the field is
// split along every footprint edge and each resulting cell is tested once.
func Uncovered(footprint, field domain.Dimensions, route []domain.Waypoint) []domain.Tile {
	eps := 1e-9 * math.Max(field.Width, field.Height)
	halfW, halfH := footprint.Width/2, footprint.Height/2

	xEdges := []float64{0, field.Width}
	yEdges := []float64{0, field.Height}
	for _, w := range route {
		xEdges = append(xEdges, w.X-halfW, w.X+halfW)
		yEdges = append(yEdges, w.Y-halfH, w.Y+halfH)
	}
	xs := breakpoints(xEdges, field.Width, eps)
	ys := breakpoints(yEdges, field.Height, eps)
	cols := columnsOf(route, eps)

	grid := GridFor(footprint, field)
	seen := make(map[domain.Tile]bool)
	var gaps []domain.Tile

	for i := 0; i+1 < len(xs); i++ {
		mx := (xs[i] + xs[i+1]) / 2
		for j := 0; j+1 < len(ys); j++ {
			my := (ys[j] + ys[j+1]) / 2
			if cols.covers(mx, my, halfW+eps, halfH+eps) {
				continue
			}
			t := domain.Tile{
				Row: clampIndex(int(my/footprint.Height), grid.Rows),
				Col: clampIndex(int(mx/footprint.Width), grid.Cols),
			}
			if !seen[t] {
				seen[t] = true
				gaps = append(gaps, t)
			}
		}
	}

	sort.Slice(gaps, func(a, b int) bool {
		if gaps[a].Row != gaps[b].Row {
			return gaps[a].Row < gaps[b].Row
		}
		return gaps[a].Col < gaps[b].Col
	})
	return gaps
}

// breakpoints clips edges to [0, limit], sorts them and merges values closer than eps.
func breakpoints(edges []float64, limit, eps float64) []float64 {
	clipped := edges[:0:0]
	for _, e := range edges {
		if e >= 0 && e <= limit {
			clipped = append(clipped, e)
		}
	}
	sort.Float64s(clipped)

	out := clipped[:0]
	for _, e := range clipped {
		if len(out) == 0 || e-out[len(out)-1] > eps {
			out = append(out, e)
		}
	}
	return out
}

// column groups waypoints sharing an X centre.
type column struct {
	x  float64
	ys []float64 // sorted
}

type columns []column

func columnsOf(route []domain.Waypoint, eps float64) columns {
	pts := make([]domain.Waypoint, len(route))
	copy(pts, route)
	sort.Slice(pts, func(a, b int) bool { return pts[a].X < pts[b].X })

	var cs columns
	for _, p := range pts {
		if n := len(cs); n > 0 && p.X-cs[n-1].x <= eps {
			cs[n-1].ys = append(cs[n-1].ys, p.Y)
			continue
		}
		cs = append(cs, column{x: p.X, ys: []float64{p.Y}})
	}
	for i := range cs {
		sort.Float64s(cs[i].ys)
	}
	return cs
}

// covers reports whether some footprint contains the point (mx, my).
func (cs columns) covers(mx, my, halfW, halfH float64) bool {
	start := sort.Search(len(cs), func(i int) bool { return cs[i].x > mx-halfW })
	for i := start; i < len(cs) && cs[i].x < mx+halfW; i++ {
		ys := cs[i].ys
		k := sort.Search(len(ys), func(j int) bool { return ys[j] > my-halfH })
		if k < len(ys) && ys[k] < my+halfH {
			return true
		}
	}
	return false
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// PathLength returns the Euclidean length of the route.
func PathLength(route []domain.Waypoint) float64 {
	var total float64
	for i := 1; i < len(route); i++ {
		total += math.Hypot(route[i].X-route[i-1].X, route[i].Y-route[i-1].Y)
	}
	return total
}

// Normalize maps ground coordinates into unit rendering space:
// (x / field.Width, 1 - y / field.Height).
func Normalize(route []domain.Waypoint, field domain.Dimensions) []domain.UnitPoint {
	out := make([]domain.UnitPoint, len(route))
	for i, w := range route {
		out[i] = domain.UnitPoint{X: w.X / field.Width, Y: 1 - w.Y/field.Height}
	}
	return out
}
