package workflows_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/samirrijal/surveyplan/internal/core/domain"
	"github.com/samirrijal/surveyplan/internal/core/ports"
	"github.com/samirrijal/surveyplan/internal/core/usecases"
	"github.com/samirrijal/surveyplan/internal/workflows"
)

type memRepo struct {
	mu    sync.Mutex
	seq   int
	plans map[string]*domain.SurveyPlan
	// failAfterCommit makes the next Create store the plan and then fail,
	// like a commit whose acknowledgement is lost.
	failAfterCommit int
}

func (m *memRepo) Create(ctx context.Context, p *domain.SurveyPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		m.seq++
		p.ID = fmt.Sprintf("plan-%d", m.seq)
	}
	if _, ok := m.plans[p.ID]; !ok {
		m.plans[p.ID] = p
	}
	if m.failAfterCommit > 0 {
		m.failAfterCommit--
		return errors.New("conn reset after commit")
	}
	return nil
}

func (m *memRepo) GetByID(ctx context.Context, id string) (*domain.SurveyPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.plans[id]; ok {
		return p, nil
	}
	return nil, ports.ErrNotFound
}

func (m *memRepo) List(ctx context.Context, offset, limit int) ([]domain.SurveyPlan, error) {
	return nil, nil
}

func (m *memRepo) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.plans), nil
}

func (m *memRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plans[id]; !ok {
		return ports.ErrNotFound
	}
	delete(m.plans, id)
	return nil
}

type recordingPublisher struct {
	mu        sync.Mutex
	createErr error
	created   []string
	deleted   []string
}

func (p *recordingPublisher) PublishPlanCreated(ctx context.Context, plan *domain.SurveyPlan) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createErr != nil {
		return p.createErr
	}
	p.created = append(p.created, plan.ID)
	return nil
}

func (p *recordingPublisher) PublishPlanDeleted(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, id)
	return nil
}

func (p *recordingPublisher) PublishPlanRequest(ctx context.Context, req *domain.PlanRequest) error {
	return nil
}

func newEnv(t *testing.T, repo *memRepo, pub *recordingPublisher) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(workflows.SurveyPlanWorkflow)
	env.RegisterActivity(&workflows.PlanActivities{
		Plans: usecases.NewPlanService(repo, nil, pub),
	})
	return env
}

var fieldRequest = domain.PlanRequest{
	Name:      "orchard",
	Footprint: &domain.Dimensions{Height: 2, Width: 3},
	Field:     domain.Dimensions{Height: 7, Width: 9},
}

func TestSurveyPlanWorkflow_Success(t *testing.T) {
	repo := &memRepo{plans: map[string]*domain.SurveyPlan{}}
	pub := &recordingPublisher{}
	env := newEnv(t, repo, pub)

	env.ExecuteWorkflow(workflows.SurveyPlanWorkflow, fieldRequest)

	if !env.IsWorkflowCompleted() {
		t.Fatal("workflow did not complete")
	}
	if err := env.GetWorkflowError(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var summary workflows.PlanSummary
	if err := env.GetWorkflowResult(&summary); err != nil {
		t.Fatalf("result: %v", err)
	}
	if _, err := uuid.Parse(summary.PlanID); err != nil {
		t.Errorf("expected a UUID plan id, got %q", summary.PlanID)
	}
	if summary.Rows != 4 || summary.Cols != 3 || summary.Waypoints != 13 {
		t.Errorf("unexpected summary %+v", summary)
	}
	if !summary.Complete || summary.Strategy != "irregular" {
		t.Errorf("expected a complete irregular plan, got %+v", summary)
	}
	if len(repo.plans) != 1 {
		t.Errorf("expected 1 stored plan, got %d", len(repo.plans))
	}
	if _, ok := repo.plans[summary.PlanID]; !ok {
		t.Errorf("expected plan stored under %s", summary.PlanID)
	}
	if len(pub.created) != 1 || pub.created[0] != summary.PlanID {
		t.Errorf("expected created event for %s, got %v", summary.PlanID, pub.created)
	}
}

func TestSurveyPlanWorkflow_StoreRetryKeepsOnePlan(t *testing.T) {
	repo := &memRepo{plans: map[string]*domain.SurveyPlan{}, failAfterCommit: 1}
	pub := &recordingPublisher{}
	env := newEnv(t, repo, pub)

	env.ExecuteWorkflow(workflows.SurveyPlanWorkflow, fieldRequest)

	if err := env.GetWorkflowError(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var summary workflows.PlanSummary
	if err := env.GetWorkflowResult(&summary); err != nil {
		t.Fatalf("result: %v", err)
	}
	if len(repo.plans) != 1 {
		t.Fatalf("expected 1 stored plan after the retry, got %d", len(repo.plans))
	}
	if _, ok := repo.plans[summary.PlanID]; !ok {
		t.Errorf("expected the announced plan %s to be the stored one", summary.PlanID)
	}
	if len(pub.created) != 1 || pub.created[0] != summary.PlanID {
		t.Errorf("expected one created event for %s, got %v", summary.PlanID, pub.created)
	}
}

func TestSurveyPlanWorkflow_InvalidRequestIsNotRetried(t *testing.T) {
	repo := &memRepo{plans: map[string]*domain.SurveyPlan{}}
	env := newEnv(t, repo, &recordingPublisher{})

	req := domain.PlanRequest{Field: domain.Dimensions{Height: 5, Width: 5}} // no footprint
	env.ExecuteWorkflow(workflows.SurveyPlanWorkflow, req)

	err := env.GetWorkflowError()
	if err == nil {
		t.Fatal("expected workflow error")
	}
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected application error, got %v", err)
	}
	if appErr.Type() != "InvalidRequest" || !appErr.NonRetryable() {
		t.Errorf("expected non-retryable InvalidRequest, got type %q retryable=%v", appErr.Type(), !appErr.NonRetryable())
	}
	if len(repo.plans) != 0 {
		t.Errorf("expected nothing stored, got %d", len(repo.plans))
	}
}

func TestSurveyPlanWorkflow_AnnounceFailureDeletesPlan(t *testing.T) {
	repo := &memRepo{plans: map[string]*domain.SurveyPlan{}}
	pub := &recordingPublisher{createErr: errors.New("nats: no responders")}
	env := newEnv(t, repo, pub)

	env.ExecuteWorkflow(workflows.SurveyPlanWorkflow, fieldRequest)

	if err := env.GetWorkflowError(); err == nil {
		t.Fatal("expected workflow error")
	}
	if len(repo.plans) != 0 {
		t.Errorf("expected compensation to delete the plan, %d left", len(repo.plans))
	}
	if len(pub.deleted) != 0 {
		t.Errorf("expected no deleted event for a plan never announced, got %v", pub.deleted)
	}
}

func TestDeletePlan_MissingIsNotAnError(t *testing.T) {
	acts := &workflows.PlanActivities{
		Plans: usecases.NewPlanService(&memRepo{plans: map[string]*domain.SurveyPlan{}}, nil, nil),
	}
	if err := acts.DeletePlan(context.Background(), "gone"); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}
