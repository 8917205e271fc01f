// Package coverage plans boustrophedon camera routes over rectangular fields.
//
// The field is cut into footprint-sized tiles. A route starts and ends at the
// clamped field origin, crosses the bottom row, then sweeps the remaining rows
// column pair by column pair. Grids with an even side use the irregular
// strategy (transposed first when the row count is even); grids with both
// sides odd use the regular strategy, which finishes with a short zig-zag over
// the two leftmost columns.
package coverage

import (
	"errors"
	"fmt"
	"math"

	"github.com/samirrijal/surveyplan/internal/core/domain"
)

// MaxTiles bounds rows*cols so the grid always fits an int and a route fits memory.
const MaxTiles = 1 << 24

var (
	ErrInvalidDimension = errors.New("invalid dimension")
	ErrGridTooLarge     = errors.New("grid too large")
)

// Strategy selects the traversal script.
type Strategy int

const (
	// Irregular handles grids with an even row or column count.
	Irregular Strategy = iota
	// Regular handles grids where both counts are odd.
	Regular
)

func (s Strategy) String() string {
	if s == Regular {
		return "regular"
	}
	return "irregular"
}

// Grid is the number of footprint tiles along each axis, rounded up.
type Grid struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// Tiles returns rows*cols.
func (g Grid) Tiles() int { return g.Rows * g.Cols }

// GridFor computes the tile grid. Inputs must already be validated.
func GridFor(footprint, field domain.Dimensions) Grid {
	return Grid{
		Rows: int(math.Ceil(field.Height / footprint.Height)),
		Cols: int(math.Ceil(field.Width / footprint.Width)),
	}
}

// Layout is a planning problem in canonical orientation.
type Layout struct {
	Footprint  domain.Dimensions
	Field      domain.Dimensions
	Grid       Grid
	Strategy   Strategy
	Transposed bool // route must have X/Y swapped back before use
}

// Canonicalize picks the strategy and, when the row count is even, transposes
// the problem so that only one even-sided case needs a script.
func Canonicalize(footprint, field domain.Dimensions) Layout {
	l := Layout{Footprint: footprint, Field: field, Grid: GridFor(footprint, field), Strategy: Regular}
	if l.Grid.Rows%2 == 0 || l.Grid.Cols%2 == 0 {
		l.Strategy = Irregular
		if l.Grid.Rows%2 == 0 {
			l.Footprint = footprint.Transpose()
			l.Field = field.Transpose()
			l.Grid = GridFor(l.Footprint, l.Field)
			l.Transposed = true
		}
	}
	return l
}

// Moves builds the move script for a canonical grid.
func Moves(g Grid, s Strategy) []Move {
	moves := make([]Move, 0, 2*g.Rows*g.Cols+4)
	repeat := func(m Move, n int) {
		for i := 0; i < n; i++ {
			moves = append(moves, m)
		}
	}

	repeat(Right, g.Cols-1)
	if g.Rows == 1 {
		return append(moves, End)
	}
	moves = append(moves, Up)

	pairs := g.Cols / 2
	if s == Regular {
		// Truncates toward zero: a single column gives -1, so no pairs.
		pairs = (g.Cols - 3) / 2
	}
	for i := 0; i < pairs; i++ {
		if i != 0 {
			moves = append(moves, Left)
		}
		repeat(Up, g.Rows-2)
		moves = append(moves, Left)
		repeat(Down, g.Rows-2)
	}

	if s == Regular {
		moves = append(moves, Left)
		repeat(Up, g.Rows-2)
		moves = append(moves, Left)
		for i := 0; i < (g.Rows-1)/2; i++ {
			if i != 0 {
				moves = append(moves, Down)
			}
			moves = append(moves, Left, Down, Right)
		}
	}

	return append(moves, End)
}

// Validate rejects dimensions the planner cannot work with.
func Validate(footprint, field domain.Dimensions) error {
	checks := []struct {
		name  string
		value float64
	}{
		{"footprint.height", footprint.Height},
		{"footprint.width", footprint.Width},
		{"field.height", field.Height},
		{"field.width", field.Width},
	}
	for _, c := range checks {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) || c.value <= 0 {
			return fmt.Errorf("%w: %s must be a positive finite number, got %v", ErrInvalidDimension, c.name, c.value)
		}
	}

	rows := math.Ceil(field.Height / footprint.Height)
	cols := math.Ceil(field.Width / footprint.Width)
	if rows*cols > MaxTiles {
		return fmt.Errorf("%w: %.0f x %.0f tiles exceeds %d", ErrGridTooLarge, rows, cols, MaxTiles)
	}
	return nil
}

// PlanLayout validates the inputs and returns the canonical layout together
// with the route in the caller's orientation.
func PlanLayout(footprint, field domain.Dimensions) (Layout, []domain.Waypoint, error) {
	if err := Validate(footprint, field); err != nil {
		return Layout{}, nil, err
	}

	l := Canonicalize(footprint, field)
	route := Walk(l.Footprint, l.Field, Moves(l.Grid, l.Strategy))
	if l.Transposed {
		for i := range route {
			route[i] = route[i].Transpose()
		}
	}
	return l, route, nil
}

// Plan returns the ordered camera positions covering field with footprint-sized
// photographs. The first and last waypoint are the clamped origin.
func Plan(footprint, field domain.Dimensions) ([]domain.Waypoint, error) {
	_, route, err := PlanLayout(footprint, field)
	return route, err
}
