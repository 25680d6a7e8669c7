package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/luzatrade/findmiss-sub000/internal/constants"
	"github.com/luzatrade/findmiss-sub000/internal/models"
	"github.com/luzatrade/findmiss-sub000/internal/repository"
	"github.com/luzatrade/findmiss-sub000/pkg/helpers"
	"github.com/luzatrade/findmiss-sub000/pkg/logger"
	"github.com/luzatrade/findmiss-sub000/pkg/metrics"
)

// SchedulerService owns the two recurring exposure jobs: Distribute allocates
// daily visibility spots, Reset reclaims them and expires plans and boosts.
// Both are safe under at-least-once invocation: every write is either an
// idempotent upsert or an unconditional set, so a failed run is simply
// completed by the next one.
type SchedulerService struct {
	listingRepo *repository.ListingRepository
	spotRepo    *repository.SpotRepository
	boostRepo   *repository.BoostRepository
	cacheRepo   repository.BoostCacheRepository
	metrics     *metrics.Metrics
	log         *logger.Logger
}

func NewSchedulerService(
	listingRepo *repository.ListingRepository,
	spotRepo *repository.SpotRepository,
	boostRepo *repository.BoostRepository,
	cacheRepo repository.BoostCacheRepository,
	m *metrics.Metrics,
	log *logger.Logger,
) *SchedulerService {
	return &SchedulerService{
		listingRepo: listingRepo,
		spotRepo:    spotRepo,
		boostRepo:   boostRepo,
		cacheRepo:   cacheRepo,
		metrics:     m,
		log:         log,
	}
}

// DateOf truncates a timestamp to its calendar day
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// gridTimes expands the fixed daily grid into timestamps on the given day
func gridTimes(day time.Time) []time.Time {
	times := make([]time.Time, 0, len(constants.SpotGridHours))
	for _, hour := range constants.SpotGridHours {
		times = append(times, time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, day.Location()))
	}
	return times
}

// Distribute allocates today's visibility spots for every eligible listing.
// A single listing's failure is logged and skipped; the run continues and
// the next invocation retries whatever is still missing.
func (s *SchedulerService) Distribute(ctx context.Context, now time.Time) error {
	start := time.Now()
	runLog := s.log.WithRunID(helpers.GenerateRunID())
	today := DateOf(now)

	listings, err := s.listingRepo.EligibleForDistribution(ctx, today)
	if err != nil {
		runLog.WithField("error", err).Error("Distribute: failed to load eligible listings")
		if s.metrics != nil {
			s.metrics.RecordSchedulerRun("distribute", start, err)
		}
		return err
	}

	allocated := 0
	failed := 0
	for _, listing := range listings {
		created, err := s.allocateListing(ctx, listing, today)
		if err != nil {
			failed++
			runLog.WithFields(logrus.Fields{
				"listing_id": listing.ID,
				"error":      err,
			}).Error("Distribute: allocation failed for listing")
			continue
		}
		allocated += created
	}

	if s.metrics != nil {
		s.metrics.SpotsAllocated.Add(float64(allocated))
		s.metrics.RecordSchedulerRun("distribute", start, nil)
	}

	runLog.WithFields(logrus.Fields{
		"eligible":        len(listings),
		"spots_allocated": allocated,
		"failed_listings": failed,
	}).Info("Distribute run complete")

	return nil
}

// allocateListing fills a listing's remaining quota for the day. Candidate
// slots are bounded to the first used+remaining grid points so concurrent
// runs converge on the same slots and the ledger's unique key collapses
// them: a slot already taken consumes quota instead of shifting the walk to
// a later grid point. The position continues from the count of
// already-allocated spots.
func (s *SchedulerService) allocateListing(ctx context.Context, listing *models.Listing, today time.Time) (int, error) {
	used, err := s.spotRepo.CountForDate(ctx, listing.ID, today)
	if err != nil {
		return 0, err
	}

	remaining := listing.DailyExits - used
	if remaining <= 0 {
		// quota already in the ledger; repair the counter if a competing run
		// left it stale
		if listing.DailyExitsUsed != used {
			if err := s.listingRepo.SetDailyExitsUsed(ctx, listing.ID, used); err != nil {
				return 0, err
			}
		}
		return 0, nil
	}

	slots := gridTimes(today)
	if len(slots) > used+remaining {
		slots = slots[:used+remaining]
	}

	created := 0
	for _, spotTime := range slots {
		if created >= remaining {
			break
		}

		inserted, err := s.spotRepo.Create(ctx, listing.ID, today, spotTime, used+created+1)
		if err != nil {
			return created, err
		}
		if !inserted {
			// taken by an earlier or overlapping run
			continue
		}
		created++
	}

	if err := s.listingRepo.SetDailyExitsUsed(ctx, listing.ID, used+created); err != nil {
		return created, err
	}

	return created, nil
}

// Reset runs the daily reclaim pass: quota counters back to zero, stale
// ledger rows dropped, expired plans downgraded, expired boosts cleared.
// Every step is idempotent; a step failure is logged and the remaining steps
// still run, since each operates on independent state.
func (s *SchedulerService) Reset(ctx context.Context, now time.Time) error {
	start := time.Now()
	runLog := s.log.WithRunID(helpers.GenerateRunID())
	today := DateOf(now)
	var firstErr error

	reset, err := s.listingRepo.ResetDailyExitsUsed(ctx)
	if err != nil {
		firstErr = err
		runLog.WithField("error", err).Error("Reset: failed to zero daily_exits_used")
	}

	cutoff := today.AddDate(0, 0, -constants.SpotRetentionDays)
	purged, err := s.spotRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		if firstErr == nil {
			firstErr = err
		}
		runLog.WithField("error", err).Error("Reset: failed to purge spot ledger")
	}

	downgraded, err := s.listingRepo.DowngradeExpired(ctx, today)
	if err != nil {
		if firstErr == nil {
			firstErr = err
		}
		runLog.WithField("error", err).Error("Reset: failed to downgrade expired plans")
	} else if s.metrics != nil {
		s.metrics.ListingsDowngraded.Add(float64(downgraded))
	}

	boostsCleared, err := s.listingRepo.ExpireBoosts(ctx, now)
	if err != nil {
		if firstErr == nil {
			firstErr = err
		}
		runLog.WithField("error", err).Error("Reset: failed to clear expired boost flags")
	}

	deactivated, err := s.boostRepo.DeactivateExpired(ctx, today)
	if err != nil {
		if firstErr == nil {
			firstErr = err
		}
		runLog.WithField("error", err).Error("Reset: failed to deactivate top page boosts")
	} else {
		if s.metrics != nil {
			s.metrics.BoostsDeactivated.Add(float64(deactivated))
		}
		if deactivated > 0 && s.cacheRepo != nil {
			if err := s.cacheRepo.Invalidate(ctx); err != nil {
				runLog.WithField("error", err).Warn("Reset: failed to invalidate boost cache")
			}
		}
	}

	if s.metrics != nil {
		s.metrics.RecordSchedulerRun("reset", start, firstErr)
	}

	runLog.WithFields(logrus.Fields{
		"quota_reset":          reset,
		"spots_purged":         purged,
		"plans_downgraded":     downgraded,
		"boost_flags_cleared":  boostsCleared,
		"top_page_deactivated": deactivated,
	}).Info("Reset run complete")

	return firstErr
}

// Run drives the two jobs from in-process tickers: Distribute every interval
// and Reset shortly after each local midnight. It is only started when the
// scheduler is enabled in config; deployments with an external cron leave it
// off and invoke Distribute/Reset directly.
func (s *SchedulerService) Run(ctx context.Context, interval time.Duration) {
	s.log.WithField("distribute_interval", interval.String()).Info("Exposure scheduler started")

	// Catch up immediately so a restart never waits a full interval
	if err := s.Distribute(ctx, time.Now()); err != nil {
		s.log.WithField("error", err).Error("Initial distribute failed")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	resetTimer := time.NewTimer(untilNextMidnight(time.Now()))
	defer resetTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Exposure scheduler stopped")
			return
		case <-ticker.C:
			if err := s.Distribute(ctx, time.Now()); err != nil {
				s.log.WithField("error", err).Error("Scheduled distribute failed")
			}
		case <-resetTimer.C:
			if err := s.Reset(ctx, time.Now()); err != nil {
				s.log.WithField("error", err).Error("Scheduled reset failed")
			}
			resetTimer.Reset(untilNextMidnight(time.Now()))
		}
	}
}

func untilNextMidnight(now time.Time) time.Duration {
	next := DateOf(now).AddDate(0, 0, 1)
	return next.Sub(now)
}
