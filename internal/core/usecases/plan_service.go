package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/surveyplan/internal/core/coverage"
	"github.com/samirrijal/surveyplan/internal/core/domain"
	"github.com/samirrijal/surveyplan/internal/core/ports"
	"github.com/samirrijal/surveyplan/internal/pkg/geospatial"
	"github.com/samirrijal/surveyplan/internal/pkg/metrics"
	"github.com/samirrijal/surveyplan/internal/pkg/optics"
	"github.com/samirrijal/surveyplan/internal/pkg/telemetry"
)

var (
	// ErrInvalidRequest wraps every input the planner cannot accept.
	ErrInvalidRequest = errors.New("invalid plan request")
	// ErrPlanTooLarge is returned when the tile grid exceeds the configured limit.
	ErrPlanTooLarge = errors.New("plan too large")
)

const (
	defaultMaxTiles = 250000
	defaultCacheTTL = 600
	defaultPageSize = 20
	maxPageSize     = 100
)

// PlanService computes, stores and serves survey plans.
type PlanService struct {
	plans    ports.PlanRepository
	cache    ports.CacheService
	events   ports.EventPublisher
	maxTiles int
	cacheTTL int
	tracer   trace.Tracer
}

// Option configures a PlanService.
type Option func(*PlanService)

// WithMaxTiles caps rows*cols for a single plan.
func WithMaxTiles(n int) Option {
	return func(s *PlanService) {
		if n > 0 {
			s.maxTiles = n
		}
	}
}

// WithCacheTTL sets how long plans stay cached, in seconds. Zero disables caching.
func WithCacheTTL(seconds int) Option {
	return func(s *PlanService) { s.cacheTTL = seconds }
}

// NewPlanService creates a new PlanService. Any dependency may be nil: without
// a repository only Preview and Footprint work.
func NewPlanService(plans ports.PlanRepository, cache ports.CacheService, events ports.EventPublisher, opts ...Option) *PlanService {
	s := &PlanService{
		plans:    plans,
		cache:    cache,
		events:   events,
		maxTiles: defaultMaxTiles,
		cacheTTL: defaultCacheTTL,
		tracer:   otel.Tracer(telemetry.TracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxTiles returns the configured grid limit.
func (s *PlanService) MaxTiles() int { return s.maxTiles }

// Footprint derives the ground footprint of one photograph from camera optics.
func (s *PlanService) Footprint(c domain.Camera) (*domain.CameraFootprint, error) {
	ground, err := optics.GroundFootprint(c)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	h, v := optics.FieldOfView(c)
	return &domain.CameraFootprint{Camera: c, Ground: ground, HorizontalFOV: h, VerticalFOV: v}, nil
}

// Preview computes a plan without storing it.
func (s *PlanService) Preview(ctx context.Context, req *domain.PlanRequest) (*domain.SurveyPlan, error) {
	ctx, span := s.tracer.Start(ctx, "PlanService.Preview")
	defer span.End()

	fp, err := s.resolveFootprint(req)
	if err != nil {
		return nil, s.reject(span, "footprint", err)
	}
	if err := coverage.Validate(fp, req.Field); err != nil {
		if errors.Is(err, coverage.ErrGridTooLarge) {
			return nil, s.reject(span, "too_large", fmt.Errorf("%w: %v", ErrPlanTooLarge, err))
		}
		return nil, s.reject(span, "dimensions", fmt.Errorf("%w: %v", ErrInvalidRequest, err))
	}
	grid := coverage.GridFor(fp, req.Field)
	if grid.Tiles() > s.maxTiles {
		return nil, s.reject(span, "too_large", fmt.Errorf("%w: %d x %d tiles exceeds limit of %d",
			ErrPlanTooLarge, grid.Rows, grid.Cols, s.maxTiles))
	}
	if o := req.Origin; o != nil && (o.Lat < -90 || o.Lat > 90 || o.Lon < -180 || o.Lon > 180) {
		return nil, s.reject(span, "origin", fmt.Errorf("%w: origin (%v, %v) is not a valid coordinate",
			ErrInvalidRequest, o.Lat, o.Lon))
	}

	start := time.Now()
	layout, route, err := coverage.PlanLayout(fp, req.Field)
	if err != nil {
		return nil, s.reject(span, "dimensions", fmt.Errorf("%w: %v", ErrInvalidRequest, err))
	}
	uncovered := coverage.Uncovered(fp, req.Field, route)
	if uncovered == nil {
		uncovered = []domain.Tile{}
	}

	plan := &domain.SurveyPlan{
		Name:       req.Name,
		Footprint:  fp,
		Field:      req.Field,
		Rows:       grid.Rows,
		Cols:       grid.Cols,
		Strategy:   layout.Strategy.String(),
		Transposed: layout.Transposed,
		Waypoints:  route,
		Uncovered:  uncovered,
		PathLength: coverage.PathLength(route),
		Origin:     req.Origin,
	}
	if req.Origin != nil {
		plan.GeoWaypoints = geospatial.Project(*req.Origin, route)
	}

	metrics.PlanDuration.Observe(time.Since(start).Seconds())
	metrics.PlansComputed.WithLabelValues(plan.Strategy).Inc()
	metrics.PlanWaypoints.Observe(float64(len(route)))

	span.SetAttributes(
		telemetry.AttrRows.Int(plan.Rows),
		telemetry.AttrCols.Int(plan.Cols),
		telemetry.AttrStrategy.String(plan.Strategy),
		telemetry.AttrTransposed.Bool(plan.Transposed),
		telemetry.AttrWaypoints.Int(len(route)),
		telemetry.AttrUncovered.Int(len(uncovered)),
	)

	if !plan.Complete() {
		metrics.IncompletePlans.Inc()
		slog.WarnContext(ctx, "route leaves tiles uncovered",
			"rows", plan.Rows, "cols", plan.Cols, "strategy", plan.Strategy, "uncovered", len(uncovered))
	}

	return plan, nil
}

// Create computes a plan, stores it and announces it. A failed announcement
// is logged; the stored plan is still returned.
func (s *PlanService) Create(ctx context.Context, req *domain.PlanRequest) (*domain.SurveyPlan, error) {
	plan, err := s.Preview(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.Save(ctx, plan); err != nil {
		return nil, err
	}
	if err := s.Announce(ctx, plan); err != nil {
		slog.WarnContext(ctx, "publish plan created failed", "plan_id", plan.ID, "error", err)
	}
	return plan, nil
}

// Save stores a computed plan. A plan with its ID already set is stored
// under that ID, and saving it again is a no-op.
func (s *PlanService) Save(ctx context.Context, plan *domain.SurveyPlan) error {
	if s.plans == nil {
		return errors.New("plan storage not configured")
	}
	ctx, span := s.tracer.Start(ctx, "PlanService.Save")
	defer span.End()

	if err := s.plans.Create(ctx, plan); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save failed")
		return fmt.Errorf("save plan: %w", err)
	}
	span.SetAttributes(telemetry.AttrPlanID.String(plan.ID))
	return nil
}

// Announce publishes a plan-created event.
func (s *PlanService) Announce(ctx context.Context, plan *domain.SurveyPlan) error {
	if s.events == nil {
		return nil
	}
	return s.events.PublishPlanCreated(ctx, plan)
}

// GetByID returns a stored plan, served from cache when possible.
func (s *PlanService) GetByID(ctx context.Context, id string) (*domain.SurveyPlan, error) {
	if s.plans == nil {
		return nil, ports.ErrNotFound
	}
	cacheKey := "plans:id:" + id
	if s.cache != nil && s.cacheTTL > 0 {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var plan domain.SurveyPlan
			if err := json.Unmarshal(data, &plan); err == nil {
				metrics.CacheHits.WithLabelValues("plan").Inc()
				return &plan, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("plan").Inc()
	}

	plan, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.cacheTTL > 0 {
		if data, err := json.Marshal(plan); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, s.cacheTTL)
		}
	}

	return plan, nil
}

// List returns a page of stored plans, newest first.
func (s *PlanService) List(ctx context.Context, offset, limit int) ([]domain.SurveyPlan, error) {
	if s.plans == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.plans.List(ctx, offset, limit)
}

// Count returns the number of stored plans.
func (s *PlanService) Count(ctx context.Context) (int, error) {
	if s.plans == nil {
		return 0, nil
	}
	return s.plans.Count(ctx)
}

// Delete removes a stored plan and announces the removal.
func (s *PlanService) Delete(ctx context.Context, id string) error {
	if err := s.Discard(ctx, id); err != nil {
		return err
	}
	if s.events != nil {
		if err := s.events.PublishPlanDeleted(ctx, id); err != nil {
			slog.WarnContext(ctx, "publish plan deleted failed", "plan_id", id, "error", err)
		}
	}
	return nil
}

// Discard removes a stored plan without announcing it. It undoes a Save
// whose plan-created event was never published.
func (s *PlanService) Discard(ctx context.Context, id string) error {
	if s.plans == nil {
		return ports.ErrNotFound
	}
	if err := s.plans.Delete(ctx, id); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, "plans:id:"+id)
	}
	return nil
}

// Unit returns a stored route mapped into unit rendering space.
func (s *PlanService) Unit(ctx context.Context, id string) ([]domain.UnitPoint, error) {
	plan, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return coverage.Normalize(plan.Waypoints, plan.Field), nil
}

func (s *PlanService) resolveFootprint(req *domain.PlanRequest) (domain.Dimensions, error) {
	switch {
	case req == nil:
		return domain.Dimensions{}, fmt.Errorf("%w: request is empty", ErrInvalidRequest)
	case req.Footprint != nil && req.Camera != nil:
		return domain.Dimensions{}, fmt.Errorf("%w: set either footprint or camera, not both", ErrInvalidRequest)
	case req.Footprint != nil:
		return *req.Footprint, nil
	case req.Camera != nil:
		fp, err := optics.GroundFootprint(*req.Camera)
		if err != nil {
			return domain.Dimensions{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		return fp, nil
	default:
		return domain.Dimensions{}, fmt.Errorf("%w: footprint or camera is required", ErrInvalidRequest)
	}
}

func (s *PlanService) reject(span trace.Span, reason string, err error) error {
	metrics.PlanRejections.WithLabelValues(reason).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, reason)
	return err
}
