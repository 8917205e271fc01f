package workflows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/surveyplan/internal/core/domain"
	"github.com/samirrijal/surveyplan/internal/core/ports"
	"github.com/samirrijal/surveyplan/internal/core/usecases"
)

// PlanSummary is what the workflow carries between activities. Routes stay
// out of workflow history; only the stored plan holds them.
type PlanSummary struct {
	PlanID    string
	Rows      int
	Cols      int
	Strategy  string
	Waypoints int
	Complete  bool
}

func summarize(p *domain.SurveyPlan) PlanSummary {
	return PlanSummary{
		PlanID:    p.ID,
		Rows:      p.Rows,
		Cols:      p.Cols,
		Strategy:  p.Strategy,
		Waypoints: len(p.Waypoints),
		Complete:  p.Complete(),
	}
}

// PlanActivities holds the activity implementations for SurveyPlanWorkflow.
// Register with worker.RegisterActivity; names are the method names.
type PlanActivities struct {
	Plans *usecases.PlanService
}

// ValidatePlan computes the plan once and reports its shape. Requests the
// planner rejects fail without retry.
func (a *PlanActivities) ValidatePlan(ctx context.Context, req domain.PlanRequest) (PlanSummary, error) {
	plan, err := a.Plans.Preview(ctx, &req)
	if err != nil {
		return PlanSummary{}, classify(err)
	}
	return summarize(plan), nil
}

// StorePlan computes the plan and stores it under planID. The ID is fixed by
// the workflow, so an attempt that committed before failing leaves the row
// its retry finds instead of a second plan.
func (a *PlanActivities) StorePlan(ctx context.Context, planID string, req domain.PlanRequest) (PlanSummary, error) {
	plan, err := a.Plans.Preview(ctx, &req)
	if err != nil {
		return PlanSummary{}, classify(err)
	}
	plan.ID = planID
	if err := a.Plans.Save(ctx, plan); err != nil {
		return PlanSummary{}, err
	}
	return summarize(plan), nil
}

// AnnouncePlan publishes the plan-created event for a stored plan.
func (a *PlanActivities) AnnouncePlan(ctx context.Context, planID string) error {
	plan, err := a.Plans.GetByID(ctx, planID)
	if err != nil {
		return classify(err)
	}
	return a.Plans.Announce(ctx, plan)
}

// DeletePlan removes a stored plan (saga compensation). The plan was never
// announced, so no deleted event is published. A plan that is already gone
// counts as deleted.
func (a *PlanActivities) DeletePlan(ctx context.Context, planID string) error {
	err := a.Plans.Discard(ctx, planID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete plan %s: %w", planID, err)
	}
	slog.InfoContext(ctx, "plan deleted (saga compensation)", "plan_id", planID)
	return nil
}

// classify marks errors that no retry can fix.
func classify(err error) error {
	switch {
	case errors.Is(err, usecases.ErrInvalidRequest):
		return temporal.NewNonRetryableApplicationError(err.Error(), "InvalidRequest", err)
	case errors.Is(err, usecases.ErrPlanTooLarge):
		return temporal.NewNonRetryableApplicationError(err.Error(), "PlanTooLarge", err)
	case errors.Is(err, ports.ErrNotFound):
		return temporal.NewNonRetryableApplicationError(err.Error(), "NotFound", err)
	}
	return err
}
