package models

import (
	"database/sql"
	"time"
)

// Listing represents the listings table. The exposure engine owns the
// allocation fields (daily_exits_used, boost_active resets, downgrade on
// expiry); status, content and engagement counters are written by other
// subsystems and treated as read-only here.
type Listing struct {
	ID             uint64         `db:"id"`
	OwnerID        uint64         `db:"owner_id"`
	CategoryID     uint64         `db:"category_id"`
	CityID         uint64         `db:"city_id"`
	Status         string         `db:"status"`
	PremiumLevel   string         `db:"premium_level"`
	PlanType       sql.NullString `db:"plan_type"`
	PlanEndDate    sql.NullTime   `db:"plan_end_date"`
	DailyExits     int            `db:"daily_exits"`
	DailyExitsUsed int            `db:"daily_exits_used"`
	BoostActive    bool           `db:"boost_active"`
	BoostExpiresAt sql.NullTime   `db:"boost_expires_at"`
	PricePerHour   float64        `db:"price_per_hour"`
	ViewsCount     int64          `db:"views_count"`
	LikesCount     int64          `db:"likes_count"`
	ContactsCount  int64          `db:"contacts_count"`
	ReelViews      int64          `db:"reel_views"`
	ReelLikes      int64          `db:"reel_likes"`
	IsVerified     bool           `db:"is_verified"`
	IsVIP          bool           `db:"is_vip"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

// DailySpot represents the daily_spots ledger table. One row is one
// allocated visibility slot at a specific time for a listing on a specific
// day. Rows are created by the distribute job and deleted by the reset job;
// (listing_id, spot_date, spot_time) carries a unique key.
type DailySpot struct {
	ID        uint64    `db:"id"`
	ListingID uint64    `db:"listing_id"`
	SpotDate  time.Time `db:"spot_date"`
	SpotTime  time.Time `db:"spot_time"`
	Position  int       `db:"position"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// TopPageBoost represents the top_page_boosts table. Entries with
// is_active = 1 and start_date <= now <= end_date form the current boosted
// set, capped at the configured maximum.
type TopPageBoost struct {
	ID        uint64    `db:"id"`
	ListingID uint64    `db:"listing_id"`
	StartDate time.Time `db:"start_date"`
	EndDate   time.Time `db:"end_date"`
	Position  int       `db:"position"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
