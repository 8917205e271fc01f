package ports

import (
	"context"

	"github.com/samirrijal/surveyplan/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishPlanCreated(ctx context.Context, plan *domain.SurveyPlan) error
	PublishPlanDeleted(ctx context.Context, id string) error
	// PublishPlanRequest queues a request for asynchronous planning.
	PublishPlanRequest(ctx context.Context, req *domain.PlanRequest) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribePlanRequests(ctx context.Context, handler func(ctx context.Context, req *domain.PlanRequest) error) error
	SubscribePlanEvents(ctx context.Context, handler func(ctx context.Context, event *domain.PlanEvent) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
