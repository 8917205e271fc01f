package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	natsadapter "github.com/samirrijal/surveyplan/internal/adapters/nats"
	"github.com/samirrijal/surveyplan/internal/adapters/postgres"
	"github.com/samirrijal/surveyplan/internal/adapters/valkey"
	"github.com/samirrijal/surveyplan/internal/core/domain"
	"github.com/samirrijal/surveyplan/internal/core/ports"
	"github.com/samirrijal/surveyplan/internal/core/usecases"
	"github.com/samirrijal/surveyplan/internal/pkg/config"
	"github.com/samirrijal/surveyplan/internal/pkg/logging"
	"github.com/samirrijal/surveyplan/internal/pkg/metrics"
	"github.com/samirrijal/surveyplan/internal/pkg/telemetry"
)

// planCreator is the part of PlanService the dispatcher drives.
type planCreator interface {
	Create(ctx context.Context, req *domain.PlanRequest) (*domain.SurveyPlan, error)
}

// handleRequest stores one queued request. Requests the planner rejects are
// acknowledged so they are not redelivered.
func handleRequest(plans planCreator) func(context.Context, *domain.PlanRequest) error {
	return func(ctx context.Context, req *domain.PlanRequest) error {
		plan, err := plans.Create(ctx, req)
		switch {
		case errors.Is(err, usecases.ErrInvalidRequest), errors.Is(err, usecases.ErrPlanTooLarge):
			metrics.PlanRequestsDispatched.WithLabelValues("rejected").Inc()
			slog.WarnContext(ctx, "queued plan request rejected", "name", req.Name, "error", err)
			return nil
		case err != nil:
			metrics.PlanRequestsDispatched.WithLabelValues("failed").Inc()
			slog.ErrorContext(ctx, "queued plan request failed", "name", req.Name, "error", err)
			return err
		}
		metrics.PlanRequestsDispatched.WithLabelValues("stored").Inc()
		slog.InfoContext(ctx, "queued plan stored", "plan_id", plan.ID, "waypoints", len(plan.Waypoints))
		return nil
	}
}

func logEvent(ctx context.Context, e *domain.PlanEvent) error {
	slog.InfoContext(ctx, "plan event", "type", e.Type, "plan_id", e.PlanID, "complete", e.Complete)
	return nil
}

func main() {
	cfg, err := config.Load("surveyplan-dispatcher")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	db, err := postgres.New(ctx, cfg.Database, cfg.Telemetry.ServiceName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	var cacheSvc ports.CacheService
	if cache, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer cache.Close()
		cacheSvc = cache
	}

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats publisher: %v", err)
	}
	defer pub.Close()

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer sub.Close()

	plans := usecases.NewPlanService(postgres.NewPlanRepo(db), cacheSvc, pub,
		usecases.WithMaxTiles(cfg.Planner.MaxTiles),
		usecases.WithCacheTTL(cfg.Planner.CacheTTL),
	)

	if err := sub.SubscribePlanRequests(ctx, handleRequest(plans)); err != nil {
		log.Fatalf("subscribe requests: %v", err)
	}
	if err := sub.SubscribePlanEvents(ctx, logEvent); err != nil {
		log.Fatalf("subscribe events: %v", err)
	}

	slog.Info("dispatcher started", "subject", natsadapter.SubjectPlanRequest)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("dispatcher stopping", "signal", sig.String())
}
