package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/luzatrade/findmiss-sub000/internal/models"
)

type BoostRepository struct {
	db *sql.DB
}

func NewBoostRepository(db *sql.DB) *BoostRepository {
	return &BoostRepository{db: db}
}

// CurrentActive retrieves the boosts whose window covers now, ordered by
// position, capped at max.
func (r *BoostRepository) CurrentActive(ctx context.Context, now time.Time, max int) ([]*models.TopPageBoost, error) {
	query := `
		SELECT id, listing_id, start_date, end_date, position, is_active, created_at, updated_at
		FROM top_page_boosts
		WHERE is_active = 1 AND start_date <= ? AND end_date >= ?
		ORDER BY position ASC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, now, now, max)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	boosts := []*models.TopPageBoost{}
	for rows.Next() {
		boost := &models.TopPageBoost{}
		if err := rows.Scan(
			&boost.ID, &boost.ListingID, &boost.StartDate, &boost.EndDate,
			&boost.Position, &boost.IsActive, &boost.CreatedAt, &boost.UpdatedAt,
		); err != nil {
			continue
		}
		boosts = append(boosts, boost)
	}

	return boosts, rows.Err()
}

// CountActive counts boosts whose window covers now
func (r *BoostRepository) CountActive(ctx context.Context, now time.Time) (int, error) {
	query := "SELECT COUNT(1) FROM top_page_boosts WHERE is_active = 1 AND start_date <= ? AND end_date >= ?"

	var count int
	err := r.db.QueryRowContext(ctx, query, now, now).Scan(&count)
	return count, err
}

// NextPosition returns the next free ordinal among currently active boosts
func (r *BoostRepository) NextPosition(ctx context.Context, now time.Time) (int, error) {
	query := `
		SELECT COALESCE(MAX(position), 0) + 1
		FROM top_page_boosts
		WHERE is_active = 1 AND start_date <= ? AND end_date >= ?
	`

	var position int
	err := r.db.QueryRowContext(ctx, query, now, now).Scan(&position)
	return position, err
}

// Create inserts a new top page boost entry
func (r *BoostRepository) Create(ctx context.Context, listingID uint64, start, end time.Time, position int) (uint64, error) {
	query := `
		INSERT INTO top_page_boosts (listing_id, start_date, end_date, position, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, 1, NOW(), NOW())
	`

	result, err := r.db.ExecContext(ctx, query, listingID, start, end, position)
	if err != nil {
		return 0, err
	}

	id, err := result.LastInsertId()
	return uint64(id), err
}

// DeactivateExpired flips is_active off for boosts whose window ended before
// today. Already-inactive rows are untouched, so re-running is a no-op.
func (r *BoostRepository) DeactivateExpired(ctx context.Context, today time.Time) (int64, error) {
	query := "UPDATE top_page_boosts SET is_active = 0, updated_at = NOW() WHERE is_active = 1 AND end_date < ?"

	result, err := r.db.ExecContext(ctx, query, today)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
