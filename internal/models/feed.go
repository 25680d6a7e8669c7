package models

// FeedRequest carries the caller's parameters for the paginated listing feed.
// CityID/CategoryID zero means no filter.
type FeedRequest struct {
	Page       int
	Limit      int
	CityID     uint64
	CategoryID uint64
	Sort       string
}

// Pagination is the metadata block returned alongside every paged surface.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// FeedResponse is the ordered general-feed page.
type FeedResponse struct {
	Listings   []*Listing `json:"listings"`
	Pagination Pagination `json:"pagination"`
}

// ReelRequest carries the caller's parameters for the short-video feed.
type ReelRequest struct {
	Page       int
	Limit      int
	CityID     uint64
	CategoryID uint64
}

// ScoreBreakdown exposes every component of the reel score so callers and
// tests can inspect how a total was produced, not only the sum.
type ScoreBreakdown struct {
	Engagement    float64 `json:"engagement"`
	PremiumBoost  float64 `json:"premium_boost"`
	CityMatch     float64 `json:"city_match"`
	CategoryMatch float64 `json:"category_match"`
	VerifiedBoost float64 `json:"verified_boost"`
	RecencyScore  float64 `json:"recency_score"`
	Relevance     float64 `json:"relevance"`
	TotalScore    float64 `json:"total_score"`
}

// RankedListing is a listing annotated with its reel score breakdown.
type RankedListing struct {
	Listing *Listing       `json:"listing"`
	Score   ScoreBreakdown `json:"score"`
}

// ReelResponse is the ordered reel page. Anomalies counts malformed rows
// that were excluded from the ranking instead of failing the batch.
type ReelResponse struct {
	Items      []*RankedListing `json:"items"`
	Pagination Pagination       `json:"pagination"`
	Anomalies  int              `json:"anomalies"`
}
