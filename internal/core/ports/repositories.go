package ports

import (
	"context"
	"errors"

	"github.com/samirrijal/surveyplan/internal/core/domain"
)

// ErrNotFound is returned by repositories when no row matches.
var ErrNotFound = errors.New("not found")

// PlanRepository persists survey plans.
type PlanRepository interface {
	// Create stores the plan and fills in ID and CreatedAt. When plan.ID is
	// already set the plan is stored under it; if that ID exists the call
	// succeeds, leaves the row untouched and reports its CreatedAt.
	Create(ctx context.Context, plan *domain.SurveyPlan) error
	GetByID(ctx context.Context, id string) (*domain.SurveyPlan, error)
	// List returns plans newest first.
	List(ctx context.Context, offset, limit int) ([]domain.SurveyPlan, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id string) error
}
