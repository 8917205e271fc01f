package workflows

import (
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/surveyplan/internal/core/domain"
)

// SurveyPlanWorkflow validates, stores and announces a plan. If the
// announcement fails after retries the stored plan is deleted again, so
// subscribers never miss a plan that exists.
func SurveyPlanWorkflow(ctx workflow.Context, req domain.PlanRequest) (PlanSummary, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting survey plan workflow", "name", req.Name)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	})

	// Step 1: reject bad input before touching storage
	var summary PlanSummary
	if err := workflow.ExecuteActivity(ctx, "ValidatePlan", req).Get(ctx, &summary); err != nil {
		return PlanSummary{}, err
	}
	logger.Info("Plan validated", "rows", summary.Rows, "cols", summary.Cols, "strategy", summary.Strategy)

	// Step 2: store under an ID chosen once, so StorePlan retries converge
	var planID string
	if err := workflow.SideEffect(ctx, func(workflow.Context) interface{} {
		return uuid.NewString()
	}).Get(&planID); err != nil {
		return PlanSummary{}, err
	}
	if err := workflow.ExecuteActivity(ctx, "StorePlan", planID, req).Get(ctx, &summary); err != nil {
		return PlanSummary{}, err
	}

	// Step 3: announce
	if err := workflow.ExecuteActivity(ctx, "AnnouncePlan", summary.PlanID).Get(ctx, nil); err != nil {
		logger.Warn("announce failed, compensating", "plan_id", summary.PlanID, "error", err)
		_ = workflow.ExecuteActivity(ctx, "DeletePlan", summary.PlanID).Get(ctx, nil)
		return PlanSummary{}, err
	}

	logger.Info("Survey plan stored", "plan_id", summary.PlanID, "waypoints", summary.Waypoints)
	return summary, nil
}
