package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/luzatrade/findmiss-sub000/internal/constants"
	"github.com/luzatrade/findmiss-sub000/internal/models"
	"github.com/luzatrade/findmiss-sub000/internal/repository"
	"github.com/luzatrade/findmiss-sub000/pkg/helpers"
	"github.com/luzatrade/findmiss-sub000/pkg/logger"
)

// PlanService applies the plan and boost purchase transitions. It only ever
// runs after the payment flow reports completion; its job is deriving and
// writing the resulting listing fields, never capturing money.
type PlanService struct {
	planRepo    *repository.PlanRepository
	listingRepo *repository.ListingRepository
	boostRepo   *repository.BoostRepository
	cacheRepo   repository.BoostCacheRepository
	validator   *helpers.CustomValidator
	topPageMax  int
	log         *logger.Logger
}

func NewPlanService(
	planRepo *repository.PlanRepository,
	listingRepo *repository.ListingRepository,
	boostRepo *repository.BoostRepository,
	cacheRepo repository.BoostCacheRepository,
	validator *helpers.CustomValidator,
	topPageMax int,
	log *logger.Logger,
) *PlanService {
	if topPageMax <= 0 {
		topPageMax = constants.DefaultTopPageMax
	}
	return &PlanService{
		planRepo:    planRepo,
		listingRepo: listingRepo,
		boostRepo:   boostRepo,
		cacheRepo:   cacheRepo,
		validator:   validator,
		topPageMax:  topPageMax,
		log:         log,
	}
}

// Catalog returns the purchasable plan catalog ordered by price.
func (s *PlanService) Catalog(ctx context.Context) ([]*models.PremiumPlan, error) {
	plans, err := s.planRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan catalog: %w", err)
	}
	return plans, nil
}

// PurchasePlan applies a completed plan purchase. The purchase record is
// validated against the catalog before anything is written; premium_level,
// daily_exits and plan_end_date change together in one statement so a
// rejected purchase leaves no partial state behind.
func (s *PlanService) PurchasePlan(ctx context.Context, purchase *models.PlanPurchase, now time.Time) error {
	if err := s.validator.Validate(purchase); err != nil {
		return fmt.Errorf("invalid plan purchase: %w", err)
	}

	plan, err := s.planRepo.FindByType(ctx, purchase.PlanType)
	if err != nil {
		return fmt.Errorf("failed to look up plan catalog: %w", err)
	}
	if plan == nil {
		return fmt.Errorf("unknown plan type: %s", purchase.PlanType)
	}

	if purchase.DailyExits != 0 && purchase.DailyExits != plan.DailyExits {
		return fmt.Errorf("plan %s grants %d daily exits, purchase carries %d",
			plan.PlanType, plan.DailyExits, purchase.DailyExits)
	}
	if !purchase.Price.IsZero() && !purchase.Price.Equal(plan.Price) {
		return fmt.Errorf("plan %s costs %s, purchase carries %s",
			plan.PlanType, plan.Price.String(), purchase.Price.String())
	}

	listing, err := s.listingRepo.FindByID(ctx, purchase.ListingID)
	if err != nil {
		return fmt.Errorf("failed to load listing: %w", err)
	}
	if listing == nil {
		return fmt.Errorf("listing %d not found", purchase.ListingID)
	}

	duration := plan.Duration
	if purchase.DurationDays > 0 {
		duration = purchase.DurationDays
	}
	endDate := now.AddDate(0, 0, duration)

	if err := s.listingRepo.ApplyPlan(ctx, listing.ID, plan.Level, plan.PlanType, plan.DailyExits, endDate); err != nil {
		return fmt.Errorf("failed to apply plan: %w", err)
	}

	s.log.WithListingID(listing.ID).WithFields(logrus.Fields{
		"plan_type":     plan.PlanType,
		"level":         plan.Level,
		"daily_exits":   plan.DailyExits,
		"plan_end_date": endDate.Format("2006-01-02"),
	}).Info("Plan purchased")

	return nil
}

// PurchaseBoost applies a completed boost purchase: boost_active on with an
// expiry, premium level untouched. Basic listings cannot carry an active
// boost, so a boost sold to one is rejected here.
func (s *PlanService) PurchaseBoost(ctx context.Context, purchase *models.BoostPurchase, now time.Time) error {
	if err := s.validator.Validate(purchase); err != nil {
		return fmt.Errorf("invalid boost purchase: %w", err)
	}

	listing, err := s.listingRepo.FindByID(ctx, purchase.ListingID)
	if err != nil {
		return fmt.Errorf("failed to load listing: %w", err)
	}
	if listing == nil {
		return fmt.Errorf("listing %d not found", purchase.ListingID)
	}
	if listing.PremiumLevel == constants.LevelBasic {
		return fmt.Errorf("listing %d has no active plan; boost requires premium or vip", listing.ID)
	}

	expiresAt := now.Add(time.Duration(purchase.DurationHours) * time.Hour)
	if err := s.listingRepo.ApplyBoost(ctx, listing.ID, expiresAt); err != nil {
		return fmt.Errorf("failed to apply boost: %w", err)
	}

	s.log.WithListingID(listing.ID).WithFields(logrus.Fields{
		"boost_type": purchase.BoostType,
		"expires_at": expiresAt.Format(time.RFC3339),
	}).Info("Boost purchased")

	return nil
}

// ApplyTopPageBoost grants a listing a guaranteed top-of-feed slot for the
// given number of days. The active set is capacity-limited; when it is full
// the application is rejected and the caller retries after a slot frees up.
func (s *PlanService) ApplyTopPageBoost(ctx context.Context, listingID uint64, days int, now time.Time) (*models.TopPageBoost, error) {
	if days <= 0 {
		return nil, fmt.Errorf("top page boost duration must be positive")
	}

	listing, err := s.listingRepo.FindByID(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load listing: %w", err)
	}
	if listing == nil {
		return nil, fmt.Errorf("listing %d not found", listingID)
	}

	active, err := s.boostRepo.CountActive(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to count active top page boosts: %w", err)
	}
	if active >= s.topPageMax {
		return nil, fmt.Errorf("top page is full (%d of %d slots taken)", active, s.topPageMax)
	}

	position, err := s.boostRepo.NextPosition(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to determine top page position: %w", err)
	}

	start := now
	end := now.AddDate(0, 0, days)
	id, err := s.boostRepo.Create(ctx, listingID, start, end, position)
	if err != nil {
		return nil, fmt.Errorf("failed to create top page boost: %w", err)
	}

	if s.cacheRepo != nil {
		if err := s.cacheRepo.Invalidate(ctx); err != nil {
			s.log.WithField("error", err).Warn("Failed to invalidate boost cache")
		}
	}

	s.log.WithListingID(listingID).WithFields(logrus.Fields{
		"position": position,
		"end_date": end.Format("2006-01-02"),
	}).Info("Top page boost applied")

	return &models.TopPageBoost{
		ID:        id,
		ListingID: listingID,
		StartDate: start,
		EndDate:   end,
		Position:  position,
		IsActive:  true,
	}, nil
}
