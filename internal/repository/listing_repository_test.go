package repository

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var listingTestColumns = []string{
	"id", "owner_id", "category_id", "city_id", "status",
	"premium_level", "plan_type", "plan_end_date",
	"daily_exits", "daily_exits_used", "boost_active", "boost_expires_at",
	"price_per_hour",
	"views_count", "likes_count", "contacts_count", "reel_views", "reel_likes",
	"is_verified", "is_vip", "created_at", "updated_at",
}

func addListingRow(rows *sqlmock.Rows, id uint64, status string) {
	now := time.Now()
	rows.AddRow(
		id, 1, 2, 3, status,
		"premium", "premium_monthly", now.AddDate(0, 0, 10),
		3, 1, true, now.Add(24*time.Hour),
		150.0,
		1000, 50, 20, 500, 80,
		true, false, now, now,
	)
}

func TestFindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewListingRepository(db)

	rows := sqlmock.NewRows(listingTestColumns)
	addListingRow(rows, 42, "active")
	mock.ExpectQuery("SELECT .+ FROM listings").
		WithArgs(uint64(42)).
		WillReturnRows(rows)

	listing, err := repo.FindByID(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, listing)
	assert.Equal(t, uint64(42), listing.ID)
	assert.Equal(t, "premium", listing.PremiumLevel)
	assert.Equal(t, int64(1000), listing.ViewsCount)
	assert.True(t, listing.BoostActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewListingRepository(db)

	mock.ExpectQuery("SELECT .+ FROM listings").
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows(listingTestColumns))

	listing, err := repo.FindByID(context.Background(), 99)
	require.NoError(t, err)
	assert.Nil(t, listing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDsPreservesOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewListingRepository(db)

	// The database hands rows back in id order; the caller's order wins
	rows := sqlmock.NewRows(listingTestColumns)
	addListingRow(rows, 1, "active")
	addListingRow(rows, 5, "active")
	addListingRow(rows, 9, "active")
	mock.ExpectQuery("SELECT .+ FROM listings").
		WithArgs(uint64(9), uint64(1), uint64(5)).
		WillReturnRows(rows)

	listings, err := repo.FindByIDs(context.Background(), []uint64{9, 1, 5})
	require.NoError(t, err)
	require.Len(t, listings, 3)
	assert.Equal(t, uint64(9), listings[0].ID)
	assert.Equal(t, uint64(1), listings[1].ID)
	assert.Equal(t, uint64(5), listings[2].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDsEmptyInput(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewListingRepository(db)

	listings, err := repo.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, listings)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEligibleForDistributionQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewListingRepository(db)
	today := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(listingTestColumns)
	addListingRow(rows, 1, "active")
	addListingRow(rows, 2, "active")
	mock.ExpectQuery("SELECT .+ FROM listings").
		WithArgs("active", today).
		WillReturnRows(rows)

	listings, err := repo.EligibleForDistribution(context.Background(), today)
	require.NoError(t, err)
	assert.Len(t, listings, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDowngradeExpired(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewListingRepository(db)
	today := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE listings").
		WithArgs("basic", today, "basic").
		WillReturnResult(sqlmock.NewResult(0, 3))

	affected, err := repo.DowngradeExpired(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, int64(3), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListFeedSortClauses(t *testing.T) {
	cases := []struct {
		name string
		sort string
		args []driver.Value
	}{
		{"price ascending", "price_asc", []driver.Value{"active", 10, 0}},
		{"price descending", "price_desc", []driver.Value{"active", 10, 0}},
		{"popular", "popular", []driver.Value{"active", 10, 0}},
		{"recent", "recent", []driver.Value{"active", "vip", "premium", "basic", 10, 0}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			repo := NewListingRepository(db)

			rows := sqlmock.NewRows(listingTestColumns)
			addListingRow(rows, 1, "active")
			mock.ExpectQuery("SELECT .+ FROM listings").
				WithArgs(tc.args...).
				WillReturnRows(rows)

			listings, err := repo.ListFeed(context.Background(), FeedFilter{
				Sort:   tc.sort,
				Limit:  10,
				Offset: 0,
			})
			require.NoError(t, err)
			assert.Len(t, listings, 1)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestListFeedExcludesIDs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewListingRepository(db)

	mock.ExpectQuery("SELECT .+ FROM listings").
		WithArgs("active", uint64(7), uint64(8), "vip", "premium", "basic", 5, 0).
		WillReturnRows(sqlmock.NewRows(listingTestColumns))

	listings, err := repo.ListFeed(context.Background(), FeedFilter{
		Sort:       "recent",
		Limit:      5,
		Offset:     0,
		ExcludeIDs: []uint64{7, 8},
	})
	require.NoError(t, err)
	assert.Empty(t, listings)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListReelCandidatesCountsAnomalies(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewListingRepository(db)

	rows := sqlmock.NewRows(listingTestColumns)
	addListingRow(rows, 1, "active")
	// Row with an unscannable id
	now := time.Now()
	rows.AddRow(
		nil, 1, 2, 3, "active",
		"basic", nil, nil,
		0, 0, false, nil,
		100.0,
		0, 0, 0, 0, 0,
		false, false, now, now,
	)
	mock.ExpectQuery("SELECT .+ FROM listings").
		WithArgs("active").
		WillReturnRows(rows)

	listings, anomalies, err := repo.ListReelCandidates(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Len(t, listings, 1)
	assert.Equal(t, 1, anomalies)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "", placeholders(0))
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?, ?, ?", placeholders(3))
}
