package coverage

import (
	"math"

	"github.com/samirrijal/surveyplan/internal/core/domain"
)

// Move is one symbolic step of the camera over the grid.
type Move int

const (
	Right Move = iota
	Left
	Up
	Down
	End // return to launch
)

func (m Move) String() string {
	switch m {
	case Right:
		return "R"
	case Left:
		return "L"
	case Up:
		return "U"
	case Down:
		return "D"
	case End:
		return "E"
	default:
		return "?"
	}
}

// Bounds is the legal range of camera centres: half a footprint inside the field
// on every side.
type Bounds struct {
	Lower domain.Waypoint
	Upper domain.Waypoint
}

// BoundsFor returns the camera-centre bounds for a footprint over a field.
// If the field is smaller than the footprint on an axis, Upper is below Lower
// on that axis and Clamp collapses to Lower.
func BoundsFor(footprint, field domain.Dimensions) Bounds {
	return Bounds{
		Lower: domain.Waypoint{X: footprint.Width / 2, Y: footprint.Height / 2},
		Upper: domain.Waypoint{X: field.Width - footprint.Width/2, Y: field.Height - footprint.Height/2},
	}
}

// Clamp pulls p into the bounds. The lower bound wins ties.
func (b Bounds) Clamp(p domain.Waypoint) domain.Waypoint {
	return domain.Waypoint{
		X: math.Max(math.Min(p.X, b.Upper.X), b.Lower.X),
		Y: math.Max(math.Min(p.Y, b.Upper.Y), b.Lower.Y),
	}
}

// Step applies one move to pos and returns the clamped result.
func Step(b Bounds, footprint domain.Dimensions, pos domain.Waypoint, m Move) domain.Waypoint {
	switch m {
	case Right:
		pos.X += footprint.Width
	case Left:
		pos.X -= footprint.Width
	case Up:
		pos.Y += footprint.Height
	case Down:
		pos.Y -= footprint.Height
	case End:
		pos = domain.Waypoint{}
	}
	return b.Clamp(pos)
}

// Tracker is a cursor that never leaves the photographing region and records
// every position it visits. A Tracker belongs to one planning call.
type Tracker struct {
	footprint domain.Dimensions
	bounds    Bounds
	pos       domain.Waypoint
	route     []domain.Waypoint
}

// NewTracker places the cursor at the clamped origin and records it.
func NewTracker(footprint, field domain.Dimensions) *Tracker {
	t := &Tracker{
		footprint: footprint,
		bounds:    BoundsFor(footprint, field),
	}
	t.pos = t.bounds.Clamp(domain.Waypoint{})
	t.route = append(t.route, t.pos)
	return t
}

// Apply performs m and records the resulting position, even when clamping
// leaves the cursor where it was.
func (t *Tracker) Apply(m Move) {
	t.pos = Step(t.bounds, t.footprint, t.pos, m)
	t.route = append(t.route, t.pos)
}

func (t *Tracker) MoveRight() { t.Apply(Right) }
func (t *Tracker) MoveLeft()  { t.Apply(Left) }
func (t *Tracker) MoveUp()    { t.Apply(Up) }
func (t *Tracker) MoveDown()  { t.Apply(Down) }

// End sends the cursor back to the origin.
func (t *Tracker) End() { t.Apply(End) }

// Position returns the current cursor.
func (t *Tracker) Position() domain.Waypoint { return t.pos }

// Bounds returns the clamp range.
func (t *Tracker) Bounds() Bounds { return t.bounds }

// Route returns a copy of every recorded waypoint.
func (t *Tracker) Route() []domain.Waypoint {
	out := make([]domain.Waypoint, len(t.route))
	copy(out, t.route)
	return out
}

// Walk folds moves through the step function starting at the clamped origin
// and returns the recorded route.
func Walk(footprint, field domain.Dimensions, moves []Move) []domain.Waypoint {
	b := BoundsFor(footprint, field)
	pos := b.Clamp(domain.Waypoint{})

	route := make([]domain.Waypoint, 0, len(moves)+1)
	route = append(route, pos)
	for _, m := range moves {
		pos = Step(b, footprint, pos, m)
		route = append(route, pos)
	}
	return route
}
