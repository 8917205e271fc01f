package natsadapter

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/surveyplan/internal/core/domain"
)

const (
	StreamName = "SURVEY_PLANS"

	// SubjectPlanEvents matches created and deleted events but not requests.
	SubjectPlanEvents  = "survey.plan.*.>"
	SubjectPlanRequest = "survey.plan.request"

	subjectPlanCreated = "survey.plan.created."
	subjectPlanDeleted = "survey.plan.deleted."
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	now  func() time.Time
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	if err := ensureStream(js); err != nil {
		return nil, err
	}

	return &Publisher{conn: conn, js: js, now: time.Now}, nil
}

func ensureStream(js nats.JetStreamContext) error {
	cfg := &nats.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{"survey.plan.>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(cfg); err != nil {
			return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}
	return nil
}

func (p *Publisher) PublishPlanCreated(ctx context.Context, plan *domain.SurveyPlan) error {
	event := &domain.PlanEvent{
		Type:       "created",
		PlanID:     plan.ID,
		Name:       plan.Name,
		Rows:       plan.Rows,
		Cols:       plan.Cols,
		Waypoints:  len(plan.Waypoints),
		Complete:   plan.Complete(),
		OccurredAt: p.now().UTC(),
	}
	return p.publish(ctx, subjectPlanCreated+plan.ID, event, "created-"+plan.ID)
}

func (p *Publisher) PublishPlanDeleted(ctx context.Context, id string) error {
	event := &domain.PlanEvent{
		Type:       "deleted",
		PlanID:     id,
		Complete:   true,
		OccurredAt: p.now().UTC(),
	}
	return p.publish(ctx, subjectPlanDeleted+id, event, "deleted-"+id)
}

func (p *Publisher) PublishPlanRequest(ctx context.Context, req *domain.PlanRequest) error {
	return p.publish(ctx, SubjectPlanRequest, req, "")
}

func (p *Publisher) publish(ctx context.Context, subject string, v any, msgID string) error {
	data, err := marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", subject, err)
	}
	opts := []nats.PubOpt{nats.Context(ctx)}
	if msgID != "" {
		opts = append(opts, nats.MsgId(msgID))
	}
	_, err = p.js.Publish(subject, data, opts...)
	return err
}

// Conn returns the underlying connection.
func (p *Publisher) Conn() *nats.Conn { return p.conn }

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("surveyplan"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
