package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/luzatrade/findmiss-sub000/internal/constants"
	"github.com/luzatrade/findmiss-sub000/internal/models"
	"github.com/luzatrade/findmiss-sub000/internal/repository"
	"github.com/luzatrade/findmiss-sub000/pkg/helpers"
	"github.com/luzatrade/findmiss-sub000/pkg/logger"
	"github.com/luzatrade/findmiss-sub000/pkg/metrics"
)

// ReelService ranks the short-video surface with the weighted engagement
// score. Stateless read path; scoring is a pure function of the row and the
// request, so the ordering is reproducible for a fixed snapshot.
type ReelService struct {
	listingRepo *repository.ListingRepository
	metrics     *metrics.Metrics
	log         *logger.Logger
}

func NewReelService(listingRepo *repository.ListingRepository, m *metrics.Metrics, log *logger.Logger) *ReelService {
	return &ReelService{
		listingRepo: listingRepo,
		metrics:     m,
		log:         log,
	}
}

// List returns one page of the reel feed ordered by total score descending,
// ties broken by listing id ascending. Filtering happens in the candidate
// query, before scoring; malformed rows are excluded and reported in the
// response instead of failing the batch.
func (s *ReelService) List(ctx context.Context, req *models.ReelRequest, now time.Time) (*models.ReelResponse, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveFeedRequest("reel", start)
		}
	}()

	page, limit := helpers.NormalizePage(req.Page, req.Limit)

	candidates, anomalies, err := s.listingRepo.ListReelCandidates(ctx, req.CityID, req.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reel candidates: %w", err)
	}

	if anomalies > 0 {
		s.log.WithField("count", anomalies).Warn("Excluded malformed listings from reel ranking")
		if s.metrics != nil {
			s.metrics.RankingAnomalies.Add(float64(anomalies))
		}
	}

	ranked := make([]*models.RankedListing, 0, len(candidates))
	for _, listing := range candidates {
		score := ScoreListing(listing, req.CityID > 0, req.CategoryID > 0, now)
		ranked = append(ranked, &models.RankedListing{Listing: listing, Score: score})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score.TotalScore != ranked[j].Score.TotalScore {
			return ranked[i].Score.TotalScore > ranked[j].Score.TotalScore
		}
		return ranked[i].Listing.ID < ranked[j].Listing.ID
	})

	total := len(ranked)
	offset := (page - 1) * limit
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	return &models.ReelResponse{
		Items: ranked[offset:end],
		Pagination: models.Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: helpers.TotalPages(total, limit),
		},
		Anomalies: anomalies,
	}, nil
}

// ScoreListing computes the reel score breakdown for one listing. The
// city/category multipliers apply only while the matching filter is active;
// candidates are pre-filtered, so an active filter implies a match. A zero
// created_at yields a zero recency score.
func ScoreListing(listing *models.Listing, cityFilter, categoryFilter bool, now time.Time) models.ScoreBreakdown {
	breakdown := models.ScoreBreakdown{
		PremiumBoost:  constants.PremiumMultiplier(listing.PremiumLevel),
		CityMatch:     1.0,
		CategoryMatch: 1.0,
		VerifiedBoost: 1.0,
	}

	breakdown.Engagement = float64(listing.ViewsCount)*constants.ViewWeight +
		float64(listing.LikesCount)*constants.LikeWeight +
		float64(listing.ContactsCount)*constants.ContactWeight +
		float64(listing.ReelViews)*constants.ReelViewWeight +
		float64(listing.ReelLikes)*constants.ReelLikeWeight

	if cityFilter {
		breakdown.CityMatch = constants.CityMatchBoost
	}
	if categoryFilter {
		breakdown.CategoryMatch = constants.CategoryMatchBoost
	}
	if listing.IsVerified {
		breakdown.VerifiedBoost = constants.VerifiedBoost
	}

	if !listing.CreatedAt.IsZero() {
		days := now.Sub(listing.CreatedAt).Hours() / 24
		recency := constants.RecencyBase - days*constants.RecencyDecayPerDay
		if recency > 0 {
			breakdown.RecencyScore = recency
		}
	}

	breakdown.Relevance = breakdown.Engagement *
		breakdown.PremiumBoost *
		breakdown.CityMatch *
		breakdown.CategoryMatch *
		breakdown.VerifiedBoost

	breakdown.TotalScore = breakdown.Relevance + breakdown.RecencyScore

	return breakdown
}
