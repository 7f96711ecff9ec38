package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/Davidayo16/ArtisanPro-server/pkg/db/models"
	"github.com/Davidayo16/ArtisanPro-server/pkg/logger"
)

const defaultReverifyAge = 15 * time.Minute

type paymentReverifier interface {
	ListStalePending(ctx context.Context, age time.Duration, limit int) ([]models.Payment, error)
	Reverify(ctx context.Context, reference string) (*models.Payment, error)
}

type PaymentReverifyJobParams struct {
	Logger    *logger.Logger
	Payments  paymentReverifier
	Metrics   itemRecorder
	Age       time.Duration
	BatchSize int
}

// NewPaymentReverifyJob asks the gateway about charges that stayed pending
// longer than Age, covering webhooks that never arrived.
func NewPaymentReverifyJob(params PaymentReverifyJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payments service required")
	}
	age := params.Age
	if age <= 0 {
		age = defaultReverifyAge
	}
	return &paymentReverifyJob{
		logg:     params.Logger,
		payments: params.Payments,
		metrics:  params.Metrics,
		age:      age,
		batch:    batchSize(params.BatchSize),
	}, nil
}

type paymentReverifyJob struct {
	logg     *logger.Logger
	payments paymentReverifier
	metrics  itemRecorder
	age      time.Duration
	batch    int
}

func (j *paymentReverifyJob) Name() string { return "payment-reverify" }

func (j *paymentReverifyJob) Run(ctx context.Context) error {
	stale, err := j.payments.ListStalePending(ctx, j.age, j.batch)
	if err != nil {
		return fmt.Errorf("list stale payments: %w", err)
	}
	tally, err := sweep(ctx, j.logg, stale,
		func(p models.Payment) string { return p.Reference },
		func(ctx context.Context, p models.Payment) (bool, error) {
			current, err := j.payments.Reverify(ctx, p.Reference)
			if err != nil {
				return false, err
			}
			return current.Status.IsFinal(), nil
		},
	)
	tally.record(ctx, j.logg, j.metrics, j.Name())
	return err
}
