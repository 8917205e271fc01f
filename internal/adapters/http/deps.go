package http

import (
	"context"

	"github.com/nats-io/nats.go"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/surveyplan/internal/core/ports"
	"github.com/samirrijal/surveyplan/internal/core/usecases"
)

// WorkflowStarter starts durable workflows. client.Client satisfies it.
type WorkflowStarter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

// Pinger is a backing service the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Plans     *usecases.PlanService
	Queue     ports.EventPublisher // async fallback when Workflows is nil
	Workflows WorkflowStarter
	TaskQueue string
	NATS      *nats.Conn
	DB        Pinger
	Cache     Pinger
	Version   string
}
