package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/luzatrade/findmiss-sub000/internal/models"
)

type SpotRepository struct {
	db *sql.DB
}

func NewSpotRepository(db *sql.DB) *SpotRepository {
	return &SpotRepository{db: db}
}

// CountForDate counts ledger entries for a listing on a calendar day
func (r *SpotRepository) CountForDate(ctx context.Context, listingID uint64, date time.Time) (int, error) {
	query := "SELECT COUNT(1) FROM daily_spots WHERE listing_id = ? AND spot_date = ?"

	var count int
	err := r.db.QueryRowContext(ctx, query, listingID, date).Scan(&count)
	return count, err
}

// Create inserts one spot. The table carries a unique key on
// (listing_id, spot_date, spot_time); INSERT IGNORE turns a duplicate into a
// no-op so overlapping distribute runs cannot double-allocate. Returns
// whether a row was actually inserted.
func (r *SpotRepository) Create(ctx context.Context, listingID uint64, date, spotTime time.Time, position int) (bool, error) {
	query := `
		INSERT IGNORE INTO daily_spots (listing_id, spot_date, spot_time, position, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, 1, NOW(), NOW())
	`

	result, err := r.db.ExecContext(ctx, query, listingID, date, spotTime, position)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	return affected > 0, err
}

// DeleteOlderThan removes ledger rows whose spot_date is before cutoff
func (r *SpotRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := "DELETE FROM daily_spots WHERE spot_date < ?"

	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ListForDate retrieves a listing's spots for one day ordered by position
func (r *SpotRepository) ListForDate(ctx context.Context, listingID uint64, date time.Time) ([]*models.DailySpot, error) {
	query := `
		SELECT id, listing_id, spot_date, spot_time, position, is_active, created_at, updated_at
		FROM daily_spots
		WHERE listing_id = ? AND spot_date = ?
		ORDER BY position ASC
	`

	rows, err := r.db.QueryContext(ctx, query, listingID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	spots := []*models.DailySpot{}
	for rows.Next() {
		spot := &models.DailySpot{}
		if err := rows.Scan(
			&spot.ID, &spot.ListingID, &spot.SpotDate, &spot.SpotTime,
			&spot.Position, &spot.IsActive, &spot.CreatedAt, &spot.UpdatedAt,
		); err != nil {
			continue
		}
		spots = append(spots, spot)
	}

	return spots, rows.Err()
}
