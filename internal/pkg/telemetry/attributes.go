package telemetry

import "go.opentelemetry.io/otel/attribute"

// TracerName is the instrumentation scope for planner spans.
const TracerName = "github.com/samirrijal/surveyplan"

// Span attribute keys.
const (
	AttrPlanID     = attribute.Key("plan.id")
	AttrRows       = attribute.Key("plan.rows")
	AttrCols       = attribute.Key("plan.cols")
	AttrStrategy   = attribute.Key("plan.strategy")
	AttrTransposed = attribute.Key("plan.transposed")
	AttrWaypoints  = attribute.Key("plan.waypoints")
	AttrUncovered  = attribute.Key("plan.uncovered_tiles")
)
