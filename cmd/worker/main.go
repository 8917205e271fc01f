package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/surveyplan/internal/adapters/nats"
	"github.com/samirrijal/surveyplan/internal/adapters/postgres"
	"github.com/samirrijal/surveyplan/internal/core/ports"
	"github.com/samirrijal/surveyplan/internal/core/usecases"
	"github.com/samirrijal/surveyplan/internal/pkg/config"
	"github.com/samirrijal/surveyplan/internal/pkg/logging"
	"github.com/samirrijal/surveyplan/internal/workflows"
)

func main() {
	cfg, err := config.Load("surveyplan-worker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database, cfg.Telemetry.ServiceName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Without NATS, AnnouncePlan is a no-op.
	var events ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		events = pub
	}

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.SurveyPlanWorkflow)
	w.RegisterActivity(&workflows.PlanActivities{
		Plans: usecases.NewPlanService(postgres.NewPlanRepo(db), nil, events,
			usecases.WithMaxTiles(cfg.Planner.MaxTiles)),
	})

	slog.Info("survey plan worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
