package domain

import (
	"time"
)

// Camera describes the optics used to derive a ground footprint.
type Camera struct {
	FocalLength  float64 `json:"focal_length"`  // mm
	SensorHeight float64 `json:"sensor_height"` // mm
	SensorWidth  float64 `json:"sensor_width"`  // mm
	Altitude     float64 `json:"altitude"`      // m above ground
}

// PlanRequest asks for a survey route over a field. Exactly one of
// Footprint or Camera must be set.
type PlanRequest struct {
	Name      string      `json:"name,omitempty"`
	Footprint *Dimensions `json:"footprint,omitempty"`
	Camera    *Camera     `json:"camera,omitempty"`
	Field     Dimensions  `json:"field"`
	Origin    *GeoPoint   `json:"origin,omitempty"` // lower-left corner of the field
}

// SurveyPlan is a computed coverage route and the inputs that produced it.
type SurveyPlan struct {
	ID           string     `json:"id,omitempty"`
	Name         string     `json:"name,omitempty"`
	Footprint    Dimensions `json:"footprint"`
	Field        Dimensions `json:"field"`
	Rows         int        `json:"rows"`
	Cols         int        `json:"cols"`
	Strategy     string     `json:"strategy"`
	Transposed   bool       `json:"transposed"`
	Waypoints    []Waypoint `json:"waypoints"`
	Uncovered    []Tile     `json:"uncovered"`
	PathLength   float64    `json:"path_length"` // meters
	Origin       *GeoPoint  `json:"origin,omitempty"`
	GeoWaypoints []GeoPoint `json:"geo_waypoints,omitempty"`
	CreatedAt    time.Time  `json:"created_at,omitempty"`
}

// Complete reports whether the route leaves no part of the field unphotographed.
func (p *SurveyPlan) Complete() bool {
	return len(p.Uncovered) == 0
}

// PlanEvent is published when a plan is stored or removed.
type PlanEvent struct {
	Type       string    `json:"type"` // "created" | "deleted"
	PlanID     string    `json:"plan_id"`
	Name       string    `json:"name,omitempty"`
	Rows       int       `json:"rows,omitempty"`
	Cols       int       `json:"cols,omitempty"`
	Waypoints  int       `json:"waypoints,omitempty"`
	Complete   bool      `json:"complete"`
	OccurredAt time.Time `json:"occurred_at"`
}

// CameraFootprint is the ground coverage of one photograph.
type CameraFootprint struct {
	Camera        Camera     `json:"camera"`
	Ground        Dimensions `json:"ground"`
	HorizontalFOV float64    `json:"horizontal_fov"` // degrees
	VerticalFOV   float64    `json:"vertical_fov"`   // degrees
}
