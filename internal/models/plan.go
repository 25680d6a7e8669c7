package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PremiumPlan represents the premium_plans catalog table. The engine treats
// it as read-mostly configuration: a purchase is validated against it before
// any listing field is touched.
type PremiumPlan struct {
	ID         uint64          `db:"id"`
	PlanType   string          `db:"plan_type"`
	Level      string          `db:"level"`
	Duration   int             `db:"duration"` // days
	Price      decimal.Decimal `db:"price"`
	DailyExits int             `db:"daily_exits"`
	Features   []string        `db:"features"` // stored as JSON
	CreatedAt  time.Time       `db:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at"`
}

// PlanPurchase is the record delivered by the payment flow once a plan
// payment completes. Price and DailyExits are cross-checked against the
// catalog; zero values mean "take whatever the catalog grants".
type PlanPurchase struct {
	ListingID    uint64          `validate:"required"`
	PlanType     string          `validate:"required"`
	DurationDays int             `validate:"gte=0"`
	DailyExits   int             `validate:"gte=0"`
	Price        decimal.Decimal `validate:"-"`
}

// BoostPurchase is the record delivered by the payment flow for a rank
// boost. It flips boost_active without touching the premium level.
type BoostPurchase struct {
	ListingID     uint64 `validate:"required"`
	BoostType     string `validate:"required"`
	DurationHours int    `validate:"required,gt=0"`
}
