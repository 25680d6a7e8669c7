package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luzatrade/findmiss-sub000/internal/models"
	"github.com/luzatrade/findmiss-sub000/internal/repository"
	"github.com/luzatrade/findmiss-sub000/pkg/logger"
)

// mockBoostCache implements repository.BoostCacheRepository with func fields
type mockBoostCache struct {
	getFunc        func(ctx context.Context) ([]*models.TopPageBoost, error)
	setFunc        func(ctx context.Context, boosts []*models.TopPageBoost, ttl time.Duration) error
	invalidateFunc func(ctx context.Context) error
}

func (m *mockBoostCache) GetTopPage(ctx context.Context) ([]*models.TopPageBoost, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx)
	}
	return nil, nil
}

func (m *mockBoostCache) SetTopPage(ctx context.Context, boosts []*models.TopPageBoost, ttl time.Duration) error {
	if m.setFunc != nil {
		return m.setFunc(ctx, boosts, ttl)
	}
	return nil
}

func (m *mockBoostCache) Invalidate(ctx context.Context) error {
	if m.invalidateFunc != nil {
		return m.invalidateFunc(ctx)
	}
	return nil
}

func TestCurrentTopPageReadsFromDatabase(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(boostTestColumns).
		AddRow(1, 10, now.AddDate(0, 0, -1), now.AddDate(0, 0, 1), 1, true, now, now).
		AddRow(2, 20, now.AddDate(0, 0, -1), now.AddDate(0, 0, 2), 2, true, now, now)
	mock.ExpectQuery("SELECT id, listing_id, start_date").
		WithArgs(now, now, 5).
		WillReturnRows(rows)

	svc := NewBoostService(repository.NewBoostRepository(db), nil, 5, time.Minute, logger.NewLogger("test"))

	boosts, err := svc.CurrentTopPage(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, boosts, 2)
	assert.Equal(t, uint64(10), boosts[0].ListingID)
	assert.Equal(t, uint64(20), boosts[1].ListingID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCurrentTopPageServesFromCache(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	cached := []*models.TopPageBoost{
		{ID: 1, ListingID: 10, StartDate: now.AddDate(0, 0, -1), EndDate: now.AddDate(0, 0, 1), Position: 1, IsActive: true},
	}
	cache := &mockBoostCache{
		getFunc: func(ctx context.Context) ([]*models.TopPageBoost, error) { return cached, nil },
	}

	svc := NewBoostService(repository.NewBoostRepository(db), cache, 5, time.Minute, logger.NewLogger("test"))

	// No query expectations registered: a cache hit never touches MySQL
	boosts, err := svc.CurrentTopPage(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, boosts, 1)
	assert.Equal(t, uint64(10), boosts[0].ListingID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCurrentTopPageDropsStaleCachedEntries(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	cached := []*models.TopPageBoost{
		// Window ended an hour ago but the TTL has not expired yet
		{ID: 1, ListingID: 10, StartDate: now.AddDate(0, 0, -3), EndDate: now.Add(-time.Hour), Position: 1, IsActive: true},
		{ID: 2, ListingID: 20, StartDate: now.AddDate(0, 0, -1), EndDate: now.AddDate(0, 0, 1), Position: 2, IsActive: true},
		{ID: 3, ListingID: 30, StartDate: now.AddDate(0, 0, -1), EndDate: now.AddDate(0, 0, 1), Position: 3, IsActive: false},
	}
	cache := &mockBoostCache{
		getFunc: func(ctx context.Context) ([]*models.TopPageBoost, error) { return cached, nil },
	}

	svc := NewBoostService(repository.NewBoostRepository(db), cache, 5, time.Minute, logger.NewLogger("test"))

	boosts, err := svc.CurrentTopPage(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, boosts, 1)
	assert.Equal(t, uint64(20), boosts[0].ListingID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCurrentTopPageCapsCachedSet(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	cached := make([]*models.TopPageBoost, 0, 4)
	for i := 1; i <= 4; i++ {
		cached = append(cached, &models.TopPageBoost{
			ID: uint64(i), ListingID: uint64(i * 10),
			StartDate: now.AddDate(0, 0, -1), EndDate: now.AddDate(0, 0, 1),
			Position: i, IsActive: true,
		})
	}
	cache := &mockBoostCache{
		getFunc: func(ctx context.Context) ([]*models.TopPageBoost, error) { return cached, nil },
	}

	svc := NewBoostService(repository.NewBoostRepository(db), cache, 2, time.Minute, logger.NewLogger("test"))

	boosts, err := svc.CurrentTopPage(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, boosts, 2)
	assert.Equal(t, 1, boosts[0].Position)
	assert.Equal(t, 2, boosts[1].Position)
}

func TestCurrentTopPageFallsThroughOnCacheFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	cache := &mockBoostCache{
		getFunc: func(ctx context.Context) ([]*models.TopPageBoost, error) { return nil, assert.AnError },
		setFunc: func(ctx context.Context, boosts []*models.TopPageBoost, ttl time.Duration) error { return assert.AnError },
	}

	rows := sqlmock.NewRows(boostTestColumns).
		AddRow(1, 10, now.AddDate(0, 0, -1), now.AddDate(0, 0, 1), 1, true, now, now)
	mock.ExpectQuery("SELECT id, listing_id, start_date").
		WithArgs(now, now, 5).
		WillReturnRows(rows)

	svc := NewBoostService(repository.NewBoostRepository(db), cache, 5, time.Minute, logger.NewLogger("test"))

	// Neither the failed read nor the failed write surfaces to the caller
	boosts, err := svc.CurrentTopPage(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, boosts, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCurrentTopPagePopulatesCacheOnMiss(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	var stored []*models.TopPageBoost
	var storedTTL time.Duration
	cache := &mockBoostCache{
		setFunc: func(ctx context.Context, boosts []*models.TopPageBoost, ttl time.Duration) error {
			stored = boosts
			storedTTL = ttl
			return nil
		},
	}

	rows := sqlmock.NewRows(boostTestColumns).
		AddRow(1, 10, now.AddDate(0, 0, -1), now.AddDate(0, 0, 1), 1, true, now, now)
	mock.ExpectQuery("SELECT id, listing_id, start_date").
		WithArgs(now, now, 5).
		WillReturnRows(rows)

	svc := NewBoostService(repository.NewBoostRepository(db), cache, 5, 2*time.Minute, logger.NewLogger("test"))

	boosts, err := svc.CurrentTopPage(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, boosts, stored)
	assert.Equal(t, 2*time.Minute, storedTTL)
	assert.NoError(t, mock.ExpectationsWereMet())
}
