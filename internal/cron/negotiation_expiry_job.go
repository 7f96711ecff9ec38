package cron

import (
	"context"
	"fmt"

	"github.com/Davidayo16/ArtisanPro-server/pkg/db/models"
	"github.com/Davidayo16/ArtisanPro-server/pkg/logger"
)

type negotiationExpirer interface {
	ListExpiredNegotiations(ctx context.Context, limit int) ([]models.Negotiation, error)
	ExpireNegotiation(ctx context.Context, n models.Negotiation) (bool, error)
}

type NegotiationExpiryJobParams struct {
	Logger    *logger.Logger
	Bookings  negotiationExpirer
	Metrics   itemRecorder
	BatchSize int
}

// NewNegotiationExpiryJob closes price negotiations nobody answered in time.
func NewNegotiationExpiryJob(params NegotiationExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Bookings == nil {
		return nil, fmt.Errorf("bookings service required")
	}
	return &negotiationExpiryJob{
		logg:     params.Logger,
		bookings: params.Bookings,
		metrics:  params.Metrics,
		batch:    batchSize(params.BatchSize),
	}, nil
}

type negotiationExpiryJob struct {
	logg     *logger.Logger
	bookings negotiationExpirer
	metrics  itemRecorder
	batch    int
}

func (j *negotiationExpiryJob) Name() string { return "negotiation-expiry" }

func (j *negotiationExpiryJob) Run(ctx context.Context) error {
	expired, err := j.bookings.ListExpiredNegotiations(ctx, j.batch)
	if err != nil {
		return fmt.Errorf("list expired negotiations: %w", err)
	}
	tally, err := sweep(ctx, j.logg, expired,
		func(n models.Negotiation) string { return n.BookingID.String() },
		j.bookings.ExpireNegotiation,
	)
	tally.record(ctx, j.logg, j.metrics, j.Name())
	return err
}
