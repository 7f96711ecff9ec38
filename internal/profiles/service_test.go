package profiles

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Davidayo16/ArtisanPro-server/internal/cache"
	"github.com/Davidayo16/ArtisanPro-server/pkg/db/dbtest"
)

func TestArtisanCounters(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	svc, err := NewService(ServiceParams{Repo: repo})
	require.NoError(t, err)
	ctx := context.Background()
	artisan := uuid.New()

	for i := 0; i < 4; i++ {
		require.NoError(t, svc.RecordBookingRequest(ctx, conn, artisan))
	}
	require.NoError(t, svc.RecordAcceptance(ctx, conn, artisan, 2*time.Minute))
	require.NoError(t, svc.RecordAcceptance(ctx, conn, artisan, 4*time.Minute))
	require.NoError(t, svc.RecordDecline(ctx, conn, artisan))
	require.NoError(t, svc.RecordJobCompleted(ctx, conn, artisan))
	require.NoError(t, svc.CreditEarnings(ctx, conn, artisan, 5000))
	require.Error(t, svc.CreditEarnings(ctx, conn, artisan, -1))

	profile, err := repo.FindArtisan(ctx, artisan)
	require.NoError(t, err)
	require.Equal(t, 4, profile.TotalBookingRequests)
	require.Equal(t, 2, profile.TotalAcceptedBookings)
	require.InDelta(t, 50.0, profile.AcceptanceRate, 0.001)
	require.InDelta(t, 3.0, profile.ResponseTimeMinutes, 0.001)
	require.Equal(t, 1, profile.TotalJobsCompleted)
	require.Equal(t, int64(5000), profile.TotalEarnings)
}

func TestCustomerSpendReversal(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	svc, err := NewService(ServiceParams{Repo: repo})
	require.NoError(t, err)
	ctx := context.Background()
	customer := uuid.New()

	require.NoError(t, svc.AddCustomerSpend(ctx, conn, customer, 5250))
	require.NoError(t, svc.AddCustomerSpend(ctx, conn, customer, 1000))
	require.NoError(t, svc.ReverseCustomerSpend(ctx, conn, customer, 5250))

	profile, err := repo.FindCustomer(ctx, customer)
	require.NoError(t, err)
	require.Equal(t, int64(1000), profile.TotalSpent)
	require.Equal(t, 1, profile.TotalBookings)

	require.NoError(t, svc.ReverseCustomerSpend(ctx, conn, customer, 9999))
	require.NoError(t, svc.ReverseCustomerSpend(ctx, conn, customer, 1))
	profile, err = repo.FindCustomer(ctx, customer)
	require.NoError(t, err)
	require.Equal(t, int64(0), profile.TotalSpent)
	require.Equal(t, 0, profile.TotalBookings)
}

func TestArtisanStatsReadThroughCache(t *testing.T) {
	conn := dbtest.Open(t)
	mem := cache.NewMemory()
	svc, err := NewService(ServiceParams{Repo: NewRepository(conn), Cache: mem, StatsTTL: time.Minute})
	require.NoError(t, err)
	ctx := context.Background()
	artisan := uuid.New()

	stats, err := svc.ArtisanStats(ctx, artisan)
	require.NoError(t, err)
	require.Zero(t, stats.TotalBookingRequests)

	require.NoError(t, svc.RecordBookingRequest(ctx, conn, artisan))
	stats, err = svc.ArtisanStats(ctx, artisan)
	require.NoError(t, err)
	require.Zero(t, stats.TotalBookingRequests, "served from cache until invalidated")

	svc.Invalidate(ctx, artisan)
	stats, err = svc.ArtisanStats(ctx, artisan)
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalBookingRequests)
}
