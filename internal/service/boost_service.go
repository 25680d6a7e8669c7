package service

import (
	"context"
	"time"

	"github.com/luzatrade/findmiss-sub000/internal/constants"
	"github.com/luzatrade/findmiss-sub000/internal/models"
	"github.com/luzatrade/findmiss-sub000/internal/repository"
	"github.com/luzatrade/findmiss-sub000/pkg/logger"
)

// BoostService is the top-page boost selector: it answers "which listings
// are entitled to guaranteed top placement right now", in position order,
// capped at the configured maximum.
type BoostService struct {
	boostRepo *repository.BoostRepository
	cacheRepo repository.BoostCacheRepository
	maxSize   int
	cacheTTL  time.Duration
	log       *logger.Logger
}

func NewBoostService(
	boostRepo *repository.BoostRepository,
	cacheRepo repository.BoostCacheRepository,
	maxSize int,
	cacheTTL time.Duration,
	log *logger.Logger,
) *BoostService {
	if maxSize <= 0 {
		maxSize = constants.DefaultTopPageMax
	}
	return &BoostService{
		boostRepo: boostRepo,
		cacheRepo: cacheRepo,
		maxSize:   maxSize,
		cacheTTL:  cacheTTL,
		log:       log,
	}
}

// CurrentTopPage returns the active boosted set for now. The cache is
// best-effort on both read and write: any cache failure falls through to
// MySQL and is logged, never surfaced.
func (s *BoostService) CurrentTopPage(ctx context.Context, now time.Time) ([]*models.TopPageBoost, error) {
	if s.cacheRepo != nil {
		cached, err := s.cacheRepo.GetTopPage(ctx)
		if err != nil {
			s.log.WithField("error", err).Warn("Boost cache read failed")
		} else if cached != nil {
			return filterWindow(cached, now, s.maxSize), nil
		}
	}

	boosts, err := s.boostRepo.CurrentActive(ctx, now, s.maxSize)
	if err != nil {
		return nil, err
	}

	if s.cacheRepo != nil {
		if err := s.cacheRepo.SetTopPage(ctx, boosts, s.cacheTTL); err != nil {
			s.log.WithField("error", err).Warn("Boost cache write failed")
		}
	}

	return boosts, nil
}

// filterWindow re-checks the validity window on cached entries so a set
// cached just before an end_date cannot serve a stale boost.
func filterWindow(boosts []*models.TopPageBoost, now time.Time, max int) []*models.TopPageBoost {
	current := make([]*models.TopPageBoost, 0, len(boosts))
	for _, boost := range boosts {
		if !boost.IsActive {
			continue
		}
		if boost.StartDate.After(now) || boost.EndDate.Before(now) {
			continue
		}
		current = append(current, boost)
		if len(current) == max {
			break
		}
	}
	return current
}
