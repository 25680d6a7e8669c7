package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/luzatrade/findmiss-sub000/internal/models"
)

type PlanRepository struct {
	db *sql.DB
}

func NewPlanRepository(db *sql.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

func scanPlan(scanner interface{ Scan(...interface{}) error }) (*models.PremiumPlan, error) {
	plan := &models.PremiumPlan{}
	var price string
	var features sql.NullString

	err := scanner.Scan(
		&plan.ID, &plan.PlanType, &plan.Level, &plan.Duration,
		&price, &plan.DailyExits, &features,
		&plan.CreatedAt, &plan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	plan.Price, err = decimal.NewFromString(price)
	if err != nil {
		plan.Price = decimal.Zero
	}

	if features.Valid && features.String != "" {
		// features is a JSON array of capability tags; a malformed value
		// degrades to an empty set rather than failing the lookup
		if err := json.Unmarshal([]byte(features.String), &plan.Features); err != nil {
			plan.Features = nil
		}
	}

	return plan, nil
}

// FindByType retrieves a catalog plan by its plan_type. Returns (nil, nil)
// when the catalog has no such plan.
func (r *PlanRepository) FindByType(ctx context.Context, planType string) (*models.PremiumPlan, error) {
	query := `
		SELECT id, plan_type, level, duration, price, daily_exits, features, created_at, updated_at
		FROM premium_plans
		WHERE plan_type = ?
	`

	plan, err := scanPlan(r.db.QueryRowContext(ctx, query, planType))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return plan, err
}

// ListAll retrieves the whole plan catalog
func (r *PlanRepository) ListAll(ctx context.Context) ([]*models.PremiumPlan, error) {
	query := `
		SELECT id, plan_type, level, duration, price, daily_exits, features, created_at, updated_at
		FROM premium_plans
		ORDER BY price ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := []*models.PremiumPlan{}
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			continue
		}
		plans = append(plans, plan)
	}

	return plans, rows.Err()
}
