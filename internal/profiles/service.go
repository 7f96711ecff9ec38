package profiles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Davidayo16/ArtisanPro-server/internal/cache"
	"github.com/Davidayo16/ArtisanPro-server/pkg/logger"
)

const acceptanceRateExpr = "CASE WHEN total_booking_requests > 0 THEN (total_accepted_bookings + ?) * 100.0 / total_booking_requests ELSE 0 END"

// ArtisanStats is the cached read model of an artisan's counters.
type ArtisanStats struct {
	UserID                uuid.UUID `json:"userId"`
	TotalBookingRequests  int       `json:"totalBookingRequests"`
	TotalAcceptedBookings int       `json:"totalAcceptedBookings"`
	TotalJobsCompleted    int       `json:"totalJobsCompleted"`
	AcceptanceRate        float64   `json:"acceptanceRate"`
	ResponseTimeMinutes   float64   `json:"responseTimeMinutes"`
	TotalEarnings         int64     `json:"totalEarnings"`
}

// Counters is the write side used inside booking and escrow transactions.
type Counters interface {
	RecordBookingRequest(ctx context.Context, tx *gorm.DB, artisanID uuid.UUID) error
	RecordAcceptance(ctx context.Context, tx *gorm.DB, artisanID uuid.UUID, responseTime time.Duration) error
	RecordDecline(ctx context.Context, tx *gorm.DB, artisanID uuid.UUID) error
	RecordJobCompleted(ctx context.Context, tx *gorm.DB, artisanID uuid.UUID) error
	CreditEarnings(ctx context.Context, tx *gorm.DB, artisanID uuid.UUID, amount int64) error
	AddCustomerSpend(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, amount int64) error
	ReverseCustomerSpend(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, amount int64) error
}

type ServiceParams struct {
	Repo     Repository
	Cache    cache.Cache
	StatsTTL time.Duration
	Logger   *logger.Logger
}

type Service struct {
	repo     Repository
	cache    cache.Cache
	statsTTL time.Duration
	logg     *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("profiles repository required")
	}
	c := params.Cache
	if c == nil {
		c = cache.Noop{}
	}
	ttl := params.StatsTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Service{repo: params.Repo, cache: c, statsTTL: ttl, logg: params.Logger}, nil
}

func (s *Service) RecordBookingRequest(ctx context.Context, tx *gorm.DB, artisanID uuid.UUID) error {
	return s.repo.WithTx(tx).UpdateArtisan(ctx, artisanID, map[string]any{
		"total_booking_requests": gorm.Expr("total_booking_requests + 1"),
	})
}

// RecordAcceptance bumps the accepted counter and folds responseTime into the
// running average. Column references on the right-hand side read pre-update values.
func (s *Service) RecordAcceptance(ctx context.Context, tx *gorm.DB, artisanID uuid.UUID, responseTime time.Duration) error {
	minutes := responseTime.Minutes()
	if minutes < 0 {
		minutes = 0
	}
	return s.repo.WithTx(tx).UpdateArtisan(ctx, artisanID, map[string]any{
		"total_accepted_bookings": gorm.Expr("total_accepted_bookings + 1"),
		"acceptance_rate":         gorm.Expr(acceptanceRateExpr, 1),
		"response_time_minutes":   gorm.Expr("(response_time_minutes * total_accepted_bookings + ?) / (total_accepted_bookings + 1)", minutes),
	})
}

func (s *Service) RecordDecline(ctx context.Context, tx *gorm.DB, artisanID uuid.UUID) error {
	return s.repo.WithTx(tx).UpdateArtisan(ctx, artisanID, map[string]any{
		"acceptance_rate": gorm.Expr(acceptanceRateExpr, 0),
	})
}

func (s *Service) RecordJobCompleted(ctx context.Context, tx *gorm.DB, artisanID uuid.UUID) error {
	return s.repo.WithTx(tx).UpdateArtisan(ctx, artisanID, map[string]any{
		"total_jobs_completed": gorm.Expr("total_jobs_completed + 1"),
	})
}

func (s *Service) CreditEarnings(ctx context.Context, tx *gorm.DB, artisanID uuid.UUID, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("earnings credit must not be negative")
	}
	return s.repo.WithTx(tx).UpdateArtisan(ctx, artisanID, map[string]any{
		"total_earnings": gorm.Expr("total_earnings + ?", amount),
	})
}

func (s *Service) AddCustomerSpend(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, amount int64) error {
	return s.repo.WithTx(tx).UpdateCustomer(ctx, customerID, map[string]any{
		"total_spent":    gorm.Expr("total_spent + ?", amount),
		"total_bookings": gorm.Expr("total_bookings + 1"),
	})
}

// ReverseCustomerSpend undoes AddCustomerSpend after a refund. Counters never go below zero.
func (s *Service) ReverseCustomerSpend(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, amount int64) error {
	return s.repo.WithTx(tx).UpdateCustomer(ctx, customerID, map[string]any{
		"total_spent":    gorm.Expr("CASE WHEN total_spent >= ? THEN total_spent - ? ELSE 0 END", amount, amount),
		"total_bookings": gorm.Expr("CASE WHEN total_bookings > 0 THEN total_bookings - 1 ELSE 0 END"),
	})
}

// ArtisanStats reads an artisan's counters through the cache.
func (s *Service) ArtisanStats(ctx context.Context, artisanID uuid.UUID) (*ArtisanStats, error) {
	key := cache.ArtisanStatsKey(artisanID)
	var cached ArtisanStats
	if ok, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.warn(ctx, "artisan stats cache read failed", err)
	} else if ok {
		return &cached, nil
	}

	profile, err := s.repo.FindArtisan(ctx, artisanID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	stats := &ArtisanStats{UserID: artisanID}
	if profile != nil {
		stats.TotalBookingRequests = profile.TotalBookingRequests
		stats.TotalAcceptedBookings = profile.TotalAcceptedBookings
		stats.TotalJobsCompleted = profile.TotalJobsCompleted
		stats.AcceptanceRate = profile.AcceptanceRate
		stats.ResponseTimeMinutes = profile.ResponseTimeMinutes
		stats.TotalEarnings = profile.TotalEarnings
	}
	if err := s.cache.Set(ctx, key, stats, s.statsTTL); err != nil {
		s.warn(ctx, "artisan stats cache write failed", err)
	}
	return stats, nil
}

// Invalidate drops cached stats once a transaction touching them has committed.
func (s *Service) Invalidate(ctx context.Context, artisanIDs ...uuid.UUID) {
	keys := make([]string, 0, len(artisanIDs))
	for _, id := range artisanIDs {
		keys = append(keys, cache.ArtisanStatsKey(id))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.warn(ctx, "artisan stats cache invalidation failed", err)
	}
}

func (s *Service) warn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), msg)
}
