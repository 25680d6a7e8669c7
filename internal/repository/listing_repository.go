package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/luzatrade/findmiss-sub000/internal/constants"
	"github.com/luzatrade/findmiss-sub000/internal/models"
)

// listingColumns is the column list shared by every listing SELECT so that
// scanListing stays in sync with the queries.
const listingColumns = `
	l.id, l.owner_id, l.category_id, l.city_id, l.status,
	l.premium_level, l.plan_type, l.plan_end_date,
	l.daily_exits, l.daily_exits_used, l.boost_active, l.boost_expires_at,
	l.price_per_hour,
	COALESCE(l.views_count, 0), COALESCE(l.likes_count, 0), COALESCE(l.contacts_count, 0),
	COALESCE(l.reel_views, 0), COALESCE(l.reel_likes, 0),
	l.is_verified, l.is_vip, l.created_at, l.updated_at
`

type ListingRepository struct {
	db *sql.DB
}

func NewListingRepository(db *sql.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

func scanListing(scanner interface{ Scan(...interface{}) error }) (*models.Listing, error) {
	listing := &models.Listing{}
	var createdAt sql.NullTime
	err := scanner.Scan(
		&listing.ID, &listing.OwnerID, &listing.CategoryID, &listing.CityID, &listing.Status,
		&listing.PremiumLevel, &listing.PlanType, &listing.PlanEndDate,
		&listing.DailyExits, &listing.DailyExitsUsed, &listing.BoostActive, &listing.BoostExpiresAt,
		&listing.PricePerHour,
		&listing.ViewsCount, &listing.LikesCount, &listing.ContactsCount,
		&listing.ReelViews, &listing.ReelLikes,
		&listing.IsVerified, &listing.IsVIP, &createdAt, &listing.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if createdAt.Valid {
		listing.CreatedAt = createdAt.Time
	}
	return listing, nil
}

// FindByID retrieves a single listing
func (r *ListingRepository) FindByID(ctx context.Context, id uint64) (*models.Listing, error) {
	query := "SELECT " + listingColumns + " FROM listings l WHERE l.id = ?"

	listing, err := scanListing(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return listing, err
}

// EligibleForDistribution retrieves active listings that still hold a daily
// quota and whose plan has not ended before today.
func (r *ListingRepository) EligibleForDistribution(ctx context.Context, today time.Time) ([]*models.Listing, error) {
	query := "SELECT " + listingColumns + `
		FROM listings l
		WHERE l.status = ?
		  AND l.daily_exits > 0
		  AND (l.plan_end_date IS NULL OR l.plan_end_date >= ?)
		ORDER BY l.id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, constants.StatusActive, today)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	listings := []*models.Listing{}
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			continue
		}
		listings = append(listings, listing)
	}

	return listings, rows.Err()
}

// SetDailyExitsUsed writes the absolute used count for today. The write is
// idempotent: re-running the distribute job sets the same value again.
func (r *ListingRepository) SetDailyExitsUsed(ctx context.Context, listingID uint64, used int) error {
	query := "UPDATE listings SET daily_exits_used = ?, updated_at = NOW() WHERE id = ?"
	_, err := r.db.ExecContext(ctx, query, used, listingID)
	return err
}

// ResetDailyExitsUsed zeroes daily_exits_used for every listing holding a quota
func (r *ListingRepository) ResetDailyExitsUsed(ctx context.Context) (int64, error) {
	query := "UPDATE listings SET daily_exits_used = 0, updated_at = NOW() WHERE daily_exits > 0 AND daily_exits_used <> 0"
	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// DowngradeExpired moves listings whose plan ended before today back to
// basic: plan cleared, quota zeroed, boost flag dropped. One statement keeps
// the transition atomic per row.
func (r *ListingRepository) DowngradeExpired(ctx context.Context, today time.Time) (int64, error) {
	query := `
		UPDATE listings
		SET premium_level = ?, plan_type = NULL, daily_exits = 0, boost_active = 0, updated_at = NOW()
		WHERE plan_end_date IS NOT NULL AND plan_end_date < ? AND premium_level <> ?
	`

	result, err := r.db.ExecContext(ctx, query, constants.LevelBasic, today, constants.LevelBasic)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ExpireBoosts clears boost_active on listings whose boost window has passed
func (r *ListingRepository) ExpireBoosts(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE listings
		SET boost_active = 0, updated_at = NOW()
		WHERE boost_active = 1 AND boost_expires_at IS NOT NULL AND boost_expires_at < ?
	`

	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ApplyPlan writes the plan purchase transition as a single statement so the
// premium level, quota and end date never diverge.
func (r *ListingRepository) ApplyPlan(ctx context.Context, listingID uint64, level, planType string, dailyExits int, endDate time.Time) error {
	query := `
		UPDATE listings
		SET premium_level = ?, plan_type = ?, daily_exits = ?, plan_end_date = ?, updated_at = NOW()
		WHERE id = ?
	`

	_, err := r.db.ExecContext(ctx, query, level, planType, dailyExits, endDate, listingID)
	return err
}

// ApplyBoost flips boost_active on with the given expiry
func (r *ListingRepository) ApplyBoost(ctx context.Context, listingID uint64, expiresAt time.Time) error {
	query := "UPDATE listings SET boost_active = 1, boost_expires_at = ?, updated_at = NOW() WHERE id = ?"
	_, err := r.db.ExecContext(ctx, query, expiresAt, listingID)
	return err
}

// FeedFilter carries the repository-level feed query parameters.
type FeedFilter struct {
	CityID     uint64
	CategoryID uint64
	Sort       string
	Limit      int
	Offset     int
	ExcludeIDs []uint64
}

// CountFeed counts active listings matching the city/category filters
func (r *ListingRepository) CountFeed(ctx context.Context, cityID, categoryID uint64) (int, error) {
	query := "SELECT COUNT(1) FROM listings l WHERE l.status = ?"
	args := []interface{}{constants.StatusActive}

	if cityID > 0 {
		query += " AND l.city_id = ?"
		args = append(args, cityID)
	}
	if categoryID > 0 {
		query += " AND l.category_id = ?"
		args = append(args, categoryID)
	}

	var total int
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&total)
	return total, err
}

// ListFeed retrieves one ordered page of active listings. Top-page boosted
// ids are excluded here and prepended by the service so their relative order
// among each other follows the boost position, not the sort keys.
func (r *ListingRepository) ListFeed(ctx context.Context, f FeedFilter) ([]*models.Listing, error) {
	query := "SELECT " + listingColumns + " FROM listings l WHERE l.status = ?"
	args := []interface{}{constants.StatusActive}

	if f.CityID > 0 {
		query += " AND l.city_id = ?"
		args = append(args, f.CityID)
	}
	if f.CategoryID > 0 {
		query += " AND l.category_id = ?"
		args = append(args, f.CategoryID)
	}
	if len(f.ExcludeIDs) > 0 {
		query += " AND l.id NOT IN (" + placeholders(len(f.ExcludeIDs)) + ")"
		for _, id := range f.ExcludeIDs {
			args = append(args, id)
		}
	}

	switch f.Sort {
	case constants.SortPriceAsc:
		query += " ORDER BY l.price_per_hour ASC, l.id ASC"
	case constants.SortPriceDesc:
		query += " ORDER BY l.price_per_hour DESC, l.id ASC"
	case constants.SortPopular:
		query += " ORDER BY l.views_count DESC, l.id ASC"
	default:
		// recent: premium tier first, then boosted, then newest
		query += " ORDER BY FIELD(l.premium_level, ?, ?, ?), l.boost_active DESC, l.created_at DESC, l.id DESC"
		args = append(args, constants.LevelVIP, constants.LevelPremium, constants.LevelBasic)
	}

	query += " LIMIT ? OFFSET ?"
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	listings := []*models.Listing{}
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			continue
		}
		listings = append(listings, listing)
	}

	return listings, rows.Err()
}

// FindByIDs retrieves listings by id, returned in the order of ids
func (r *ListingRepository) FindByIDs(ctx context.Context, ids []uint64) ([]*models.Listing, error) {
	if len(ids) == 0 {
		return []*models.Listing{}, nil
	}

	query := "SELECT " + listingColumns + " FROM listings l WHERE l.id IN (" + placeholders(len(ids)) + ")"
	args := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[uint64]*models.Listing, len(ids))
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			continue
		}
		byID[listing.ID] = listing
	}

	ordered := make([]*models.Listing, 0, len(ids))
	for _, id := range ids {
		if listing, ok := byID[id]; ok {
			ordered = append(ordered, listing)
		}
	}

	return ordered, rows.Err()
}

// ListReelCandidates retrieves every active listing matching the filters for
// reel scoring. Filtering happens here, before scoring. Rows that fail to
// scan are excluded and counted as anomalies instead of failing the batch.
func (r *ListingRepository) ListReelCandidates(ctx context.Context, cityID, categoryID uint64) ([]*models.Listing, int, error) {
	query := "SELECT " + listingColumns + " FROM listings l WHERE l.status = ?"
	args := []interface{}{constants.StatusActive}

	if cityID > 0 {
		query += " AND l.city_id = ?"
		args = append(args, cityID)
	}
	if categoryID > 0 {
		query += " AND l.category_id = ?"
		args = append(args, categoryID)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	listings := []*models.Listing{}
	anomalies := 0
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			anomalies++
			continue
		}
		listings = append(listings, listing)
	}

	return listings, anomalies, rows.Err()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}
