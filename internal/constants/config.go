package constants

// Listing lifecycle statuses
const (
	StatusDraft    = "draft"
	StatusPending  = "pending"
	StatusActive   = "active"
	StatusPaused   = "paused"
	StatusRejected = "rejected"
)

// Premium levels
const (
	LevelBasic   = "basic"
	LevelPremium = "premium"
	LevelVIP     = "vip"
)

// Feed sort modes
const (
	SortRecent    = "recent"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortPopular   = "popular"
)

// SpotGridHours is the fixed daily time grid used by the distribute job.
// Slots are allocated earliest-first at these local hours.
var SpotGridHours = []int{9, 11, 14, 16, 18, 20, 22}

// Reel score engagement weights
const (
	ViewWeight     = 0.1
	LikeWeight     = 2.0
	ContactWeight  = 5.0
	ReelViewWeight = 0.15
	ReelLikeWeight = 2.5
)

// Reel score multipliers
const (
	VIPBoost           = 1.5
	PremiumBoost       = 1.2
	BasicBoost         = 1.0
	CityMatchBoost     = 1.3
	CategoryMatchBoost = 1.2
	VerifiedBoost      = 1.1
)

// Recency scoring: fresh listings start at RecencyBase and lose
// RecencyDecayPerDay points per day until the score reaches zero.
const (
	RecencyBase        = 100.0
	RecencyDecayPerDay = 1.5
)

// Defaults
const (
	DefaultTopPageMax = 5
	DefaultPageSize   = 10
	MaxPageSize       = 100
	SpotRetentionDays = 1
)

// PremiumRank returns the coarse ordering weight of a premium level.
// Higher ranks sort first in the general feed.
func PremiumRank(level string) int {
	switch level {
	case LevelVIP:
		return 3
	case LevelPremium:
		return 2
	default:
		return 1
	}
}

// PremiumMultiplier returns the reel relevance multiplier for a premium level.
func PremiumMultiplier(level string) float64 {
	switch level {
	case LevelVIP:
		return VIPBoost
	case LevelPremium:
		return PremiumBoost
	default:
		return BasicBoost
	}
}

// IsValidSortMode reports whether mode is one of the supported feed sorts.
func IsValidSortMode(mode string) bool {
	switch mode {
	case SortRecent, SortPriceAsc, SortPriceDesc, SortPopular:
		return true
	}
	return false
}
