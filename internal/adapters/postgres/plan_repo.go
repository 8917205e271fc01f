package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/surveyplan/internal/core/domain"
	"github.com/samirrijal/surveyplan/internal/core/ports"
)

const planColumns = `id, name, footprint_height, footprint_width, field_height, field_width,
	rows, cols, strategy, transposed, waypoints, uncovered, path_length,
	origin_lat, origin_lon, geo_waypoints, created_at`

// PlanRepo implements ports.PlanRepository.
type PlanRepo struct {
	db *DB
}

func NewPlanRepo(db *DB) *PlanRepo { return &PlanRepo{db: db} }

// insertPlan keeps an existing row on id conflict and then returns nothing.
const insertPlan = `
	INSERT INTO survey_plans (id, name, footprint_height, footprint_width, field_height, field_width,
		rows, cols, strategy, transposed, waypoints, uncovered, path_length,
		origin_lat, origin_lon, geo_waypoints)
	VALUES (COALESCE($1::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	ON CONFLICT (id) DO NOTHING
	RETURNING id, created_at`

// Create inserts the plan. A preset ID that is already stored leaves the row
// as it is, so a retried store cannot add a second plan.
func (r *PlanRepo) Create(ctx context.Context, p *domain.SurveyPlan) error {
	args, err := insertArgs(p)
	if err != nil {
		return err
	}
	err = r.db.Pool.QueryRow(ctx, insertPlan, args...).Scan(&p.ID, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) && p.ID != "" {
		return r.db.Pool.QueryRow(ctx, `SELECT created_at FROM survey_plans WHERE id = $1`, p.ID).
			Scan(&p.CreatedAt)
	}
	return err
}

// CreateMany stores plans in one round trip. The batch runs in a single
// implicit transaction: either every plan is stored or none is.
func (r *PlanRepo) CreateMany(ctx context.Context, plans []*domain.SurveyPlan) error {
	batch := &pgx.Batch{}
	for _, p := range plans {
		args, err := insertArgs(p)
		if err != nil {
			return err
		}
		batch.Queue(insertPlan, args...)
	}

	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for i, p := range plans {
		if err := br.QueryRow().Scan(&p.ID, &p.CreatedAt); err != nil {
			return fmt.Errorf("batch item %d: %w", i, err)
		}
	}
	return br.Close()
}

func insertArgs(p *domain.SurveyPlan) ([]any, error) {
	var id any
	if p.ID != "" {
		parsed, err := uuid.Parse(p.ID)
		if err != nil {
			return nil, fmt.Errorf("plan id %q: %w", p.ID, err)
		}
		id = parsed
	}

	waypoints, err := json.Marshal(p.Waypoints)
	if err != nil {
		return nil, fmt.Errorf("marshal waypoints: %w", err)
	}
	uncovered, err := json.Marshal(p.Uncovered)
	if err != nil {
		return nil, fmt.Errorf("marshal uncovered: %w", err)
	}

	var (
		originLat, originLon *float64
		geo                  []byte
	)
	if p.Origin != nil {
		originLat, originLon = &p.Origin.Lat, &p.Origin.Lon
		if geo, err = json.Marshal(p.GeoWaypoints); err != nil {
			return nil, fmt.Errorf("marshal geo waypoints: %w", err)
		}
	}

	return []any{id, p.Name, p.Footprint.Height, p.Footprint.Width, p.Field.Height, p.Field.Width,
		p.Rows, p.Cols, p.Strategy, p.Transposed, waypoints, uncovered, p.PathLength,
		originLat, originLon, geo}, nil
}

func (r *PlanRepo) GetByID(ctx context.Context, id string) (*domain.SurveyPlan, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ports.ErrNotFound
	}
	row := r.db.Pool.QueryRow(ctx, `SELECT `+planColumns+` FROM survey_plans WHERE id = $1`, id)
	p, err := scanPlan(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PlanRepo) List(ctx context.Context, offset, limit int) ([]domain.SurveyPlan, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+planColumns+`
		FROM survey_plans ORDER BY created_at DESC, id
		OFFSET $1 LIMIT $2
	`, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := []domain.SurveyPlan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

func (r *PlanRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM survey_plans`).Scan(&n)
	return n, err
}

func (r *PlanRepo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ports.ErrNotFound
	}
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM survey_plans WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func scanPlan(row pgx.Row) (*domain.SurveyPlan, error) {
	var (
		p                    domain.SurveyPlan
		waypoints, uncovered []byte
		geo                  []byte
		originLat, originLon *float64
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Footprint.Height, &p.Footprint.Width,
		&p.Field.Height, &p.Field.Width, &p.Rows, &p.Cols, &p.Strategy, &p.Transposed,
		&waypoints, &uncovered, &p.PathLength, &originLat, &originLon, &geo, &p.CreatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(waypoints, &p.Waypoints); err != nil {
		return nil, fmt.Errorf("decode waypoints: %w", err)
	}
	if err := json.Unmarshal(uncovered, &p.Uncovered); err != nil {
		return nil, fmt.Errorf("decode uncovered: %w", err)
	}
	if originLat != nil && originLon != nil {
		p.Origin = &domain.GeoPoint{Lat: *originLat, Lon: *originLon}
	}
	if len(geo) > 0 {
		if err := json.Unmarshal(geo, &p.GeoWaypoints); err != nil {
			return nil, fmt.Errorf("decode geo waypoints: %w", err)
		}
	}
	return &p, nil
}
