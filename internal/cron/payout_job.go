package cron

import (
	"context"
	"fmt"

	"github.com/Davidayo16/ArtisanPro-server/pkg/db/models"
	"github.com/Davidayo16/ArtisanPro-server/pkg/logger"
)

type payoutProcessor interface {
	ListPending(ctx context.Context, limit int) ([]models.Transaction, error)
	Process(ctx context.Context, txn models.Transaction) (bool, error)
}

type PayoutJobParams struct {
	Logger    *logger.Logger
	Payouts   payoutProcessor
	Metrics   itemRecorder
	BatchSize int
}

// NewPayoutJob transfers pending artisan payouts through the payment gateway.
func NewPayoutJob(params PayoutJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Payouts == nil {
		return nil, fmt.Errorf("payouts service required")
	}
	return &payoutJob{
		logg:    params.Logger,
		payouts: params.Payouts,
		metrics: params.Metrics,
		batch:   batchSize(params.BatchSize),
	}, nil
}

type payoutJob struct {
	logg    *logger.Logger
	payouts payoutProcessor
	metrics itemRecorder
	batch   int
}

func (j *payoutJob) Name() string { return "payout-processing" }

func (j *payoutJob) Run(ctx context.Context) error {
	pending, err := j.payouts.ListPending(ctx, j.batch)
	if err != nil {
		return fmt.Errorf("list pending payouts: %w", err)
	}
	tally, err := sweep(ctx, j.logg, pending,
		func(t models.Transaction) string { return t.Reference },
		j.payouts.Process,
	)
	tally.record(ctx, j.logg, j.metrics, j.Name())
	return err
}
