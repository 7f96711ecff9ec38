package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Davidayo16/ArtisanPro-server/pkg/db/models"
	"github.com/Davidayo16/ArtisanPro-server/pkg/logger"
)

type pendingBookingExpirer interface {
	ListExpiredPending(ctx context.Context, limit int) ([]models.Booking, error)
	ExpirePending(ctx context.Context, id uuid.UUID) (bool, error)
}

type BookingExpiryJobParams struct {
	Logger    *logger.Logger
	Bookings  pendingBookingExpirer
	Metrics   itemRecorder
	BatchSize int
}

// NewBookingExpiryJob declines pending bookings whose acceptance window has
// closed without an answer from the artisan.
func NewBookingExpiryJob(params BookingExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Bookings == nil {
		return nil, fmt.Errorf("bookings service required")
	}
	return &bookingExpiryJob{
		logg:     params.Logger,
		bookings: params.Bookings,
		metrics:  params.Metrics,
		batch:    batchSize(params.BatchSize),
	}, nil
}

type bookingExpiryJob struct {
	logg     *logger.Logger
	bookings pendingBookingExpirer
	metrics  itemRecorder
	batch    int
}

func (j *bookingExpiryJob) Name() string { return "booking-expiry" }

func (j *bookingExpiryJob) Run(ctx context.Context) error {
	expired, err := j.bookings.ListExpiredPending(ctx, j.batch)
	if err != nil {
		return fmt.Errorf("list expired bookings: %w", err)
	}
	tally, err := sweep(ctx, j.logg, expired,
		func(b models.Booking) string { return b.ID.String() },
		func(ctx context.Context, b models.Booking) (bool, error) {
			return j.bookings.ExpirePending(ctx, b.ID)
		},
	)
	tally.record(ctx, j.logg, j.metrics, j.Name())
	return err
}
