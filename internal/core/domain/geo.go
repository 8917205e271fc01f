package domain

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Dimensions is a rectangular ground extent in meters.
type Dimensions struct {
	Height float64 `json:"height"`
	Width  float64 `json:"width"`
}

// Transpose swaps height and width.
func (d Dimensions) Transpose() Dimensions {
	return Dimensions{Height: d.Width, Width: d.Height}
}

// Waypoint is one camera position in local ground coordinates.
// Y grows upwards from the field origin.
type Waypoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Transpose swaps X and Y.
func (w Waypoint) Transpose() Waypoint {
	return Waypoint{X: w.Y, Y: w.X}
}

// UnitPoint is a waypoint mapped into the [0,1]x[0,1] rendering space,
// where Y grows downwards.
type UnitPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Tile addresses one footprint-sized cell of the survey grid.
type Tile struct {
	Row int `json:"row"`
	Col int `json:"col"`
}
