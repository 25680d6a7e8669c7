package service

import (
	"context"
	"fmt"
	"time"

	"github.com/luzatrade/findmiss-sub000/internal/constants"
	"github.com/luzatrade/findmiss-sub000/internal/models"
	"github.com/luzatrade/findmiss-sub000/internal/repository"
	"github.com/luzatrade/findmiss-sub000/pkg/helpers"
	"github.com/luzatrade/findmiss-sub000/pkg/logger"
	"github.com/luzatrade/findmiss-sub000/pkg/metrics"
)

// FeedService produces the ordered general feed. It is a pure read path: no
// writes, no locks, deterministic for a fixed store state and request.
type FeedService struct {
	listingRepo  *repository.ListingRepository
	boostService *BoostService
	metrics      *metrics.Metrics
	log          *logger.Logger
}

func NewFeedService(
	listingRepo *repository.ListingRepository,
	boostService *BoostService,
	m *metrics.Metrics,
	log *logger.Logger,
) *FeedService {
	return &FeedService{
		listingRepo:  listingRepo,
		boostService: boostService,
		metrics:      m,
		log:          log,
	}
}

// List returns one ordered feed page. In recent mode the current top-page
// boosted listings are moved to the front in boost-position order while the
// rest keep their relative order; price and popular modes sort purely by
// their key and ignore top-page boosts.
func (s *FeedService) List(ctx context.Context, req *models.FeedRequest, now time.Time) (*models.FeedResponse, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveFeedRequest("feed", start)
		}
	}()

	page, limit := helpers.NormalizePage(req.Page, req.Limit)
	sort := req.Sort
	if sort == "" {
		sort = constants.SortRecent
	}
	if !constants.IsValidSortMode(sort) {
		return nil, fmt.Errorf("unknown sort mode: %s", req.Sort)
	}

	total, err := s.listingRepo.CountFeed(ctx, req.CityID, req.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to count feed: %w", err)
	}

	var listings []*models.Listing
	if sort == constants.SortRecent {
		listings, err = s.listRecent(ctx, req, now, page, limit)
	} else {
		listings, err = s.listingRepo.ListFeed(ctx, repository.FeedFilter{
			CityID:     req.CityID,
			CategoryID: req.CategoryID,
			Sort:       sort,
			Limit:      limit,
			Offset:     (page - 1) * limit,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list feed: %w", err)
	}

	return &models.FeedResponse{
		Listings: listings,
		Pagination: models.Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: helpers.TotalPages(total, limit),
		},
	}, nil
}

// listRecent assembles a page of the recent feed as boosted head plus
// regular tail. The boosted head is fetched by id in boost-position order;
// the tail query excludes those ids so the page offsets line up with the
// promoted sequence.
func (s *FeedService) listRecent(ctx context.Context, req *models.FeedRequest, now time.Time, page, limit int) ([]*models.Listing, error) {
	boosted, boostedIDs := s.boostedHead(ctx, req, now)

	globalOffset := (page - 1) * limit
	listings := make([]*models.Listing, 0, limit)

	if globalOffset < len(boosted) {
		head := boosted[globalOffset:]
		if len(head) > limit {
			head = head[:limit]
		}
		listings = append(listings, head...)
	}

	restLimit := limit - len(listings)
	if restLimit > 0 {
		restOffset := globalOffset - len(boosted)
		if restOffset < 0 {
			restOffset = 0
		}

		rest, err := s.listingRepo.ListFeed(ctx, repository.FeedFilter{
			CityID:     req.CityID,
			CategoryID: req.CategoryID,
			Sort:       constants.SortRecent,
			Limit:      restLimit,
			Offset:     restOffset,
			ExcludeIDs: boostedIDs,
		})
		if err != nil {
			return nil, err
		}
		listings = append(listings, rest...)
	}

	return listings, nil
}

// boostedHead resolves the current top-page set to feed-eligible listings in
// boost-position order. A selector failure degrades to an unpromoted feed
// rather than failing the request.
func (s *FeedService) boostedHead(ctx context.Context, req *models.FeedRequest, now time.Time) ([]*models.Listing, []uint64) {
	boosts, err := s.boostService.CurrentTopPage(ctx, now)
	if err != nil {
		s.log.WithField("error", err).Warn("Top page selector failed; serving feed without promotion")
		return nil, nil
	}
	if len(boosts) == 0 {
		return nil, nil
	}

	ids := make([]uint64, 0, len(boosts))
	for _, boost := range boosts {
		ids = append(ids, boost.ListingID)
	}

	found, err := s.listingRepo.FindByIDs(ctx, ids)
	if err != nil {
		s.log.WithField("error", err).Warn("Failed to load boosted listings; serving feed without promotion")
		return nil, nil
	}

	// Promotion never widens the feed: boosted listings still have to be
	// active and match the caller's filters.
	head := make([]*models.Listing, 0, len(found))
	headIDs := make([]uint64, 0, len(found))
	for _, listing := range found {
		if listing.Status != constants.StatusActive {
			continue
		}
		if req.CityID > 0 && listing.CityID != req.CityID {
			continue
		}
		if req.CategoryID > 0 && listing.CategoryID != req.CategoryID {
			continue
		}
		head = append(head, listing)
		headIDs = append(headIDs, listing.ID)
	}

	return head, headIDs
}
