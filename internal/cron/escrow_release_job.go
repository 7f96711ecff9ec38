package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Davidayo16/ArtisanPro-server/pkg/db/models"
	"github.com/Davidayo16/ArtisanPro-server/pkg/logger"
)

type escrowReleaser interface {
	ListDueForRelease(ctx context.Context, limit int) ([]models.Escrow, error)
	AutoRelease(ctx context.Context, escrowID uuid.UUID) (bool, error)
}

type EscrowReleaseJobParams struct {
	Logger    *logger.Logger
	Bookings  escrowReleaser
	Metrics   itemRecorder
	BatchSize int
}

// NewEscrowReleaseJob pays out held escrows once their auto-release date passes.
func NewEscrowReleaseJob(params EscrowReleaseJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Bookings == nil {
		return nil, fmt.Errorf("bookings service required")
	}
	return &escrowReleaseJob{
		logg:     params.Logger,
		bookings: params.Bookings,
		metrics:  params.Metrics,
		batch:    batchSize(params.BatchSize),
	}, nil
}

type escrowReleaseJob struct {
	logg     *logger.Logger
	bookings escrowReleaser
	metrics  itemRecorder
	batch    int
}

func (j *escrowReleaseJob) Name() string { return "escrow-auto-release" }

func (j *escrowReleaseJob) Run(ctx context.Context) error {
	due, err := j.bookings.ListDueForRelease(ctx, j.batch)
	if err != nil {
		return fmt.Errorf("list escrows due for release: %w", err)
	}
	tally, err := sweep(ctx, j.logg, due,
		func(e models.Escrow) string { return e.ID.String() },
		func(ctx context.Context, e models.Escrow) (bool, error) {
			return j.bookings.AutoRelease(ctx, e.ID)
		},
	)
	tally.record(ctx, j.logg, j.metrics, j.Name())
	return err
}
