package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/Davidayo16/ArtisanPro-server/internal/bookings"
	"github.com/Davidayo16/ArtisanPro-server/pkg/db/models"
	"github.com/Davidayo16/ArtisanPro-server/pkg/logger"
)

type reminderSender interface {
	ListDueReminders(ctx context.Context, kind bookings.Reminder, limit int) ([]models.Booking, error)
	SendReminder(ctx context.Context, kind bookings.Reminder, id uuid.UUID) (bool, error)
}

type ReminderJobParams struct {
	Logger    *logger.Logger
	Bookings  reminderSender
	Metrics   itemRecorder
	BatchSize int
}

// NewReminderJob queues the day-before notice for confirmed bookings and the
// payment nudge for accepted bookings left unpaid.
func NewReminderJob(params ReminderJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Bookings == nil {
		return nil, fmt.Errorf("bookings service required")
	}
	return &reminderJob{
		logg:     params.Logger,
		bookings: params.Bookings,
		metrics:  params.Metrics,
		batch:    batchSize(params.BatchSize),
	}, nil
}

type reminderJob struct {
	logg     *logger.Logger
	bookings reminderSender
	metrics  itemRecorder
	batch    int
}

func (j *reminderJob) Name() string { return "booking-reminders" }

// Run sweeps each reminder kind in turn. A failed listing skips only its kind.
func (j *reminderJob) Run(ctx context.Context) error {
	var errs error
	for _, kind := range bookings.Reminders {
		due, err := j.bookings.ListDueReminders(ctx, kind, j.batch)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("list %s reminders: %w", kind, err))
			continue
		}
		logCtx := j.logg.WithField(ctx, "reminder", string(kind))
		tally, err := sweep(logCtx, j.logg, due,
			func(b models.Booking) string { return b.ID.String() },
			func(ctx context.Context, b models.Booking) (bool, error) {
				return j.bookings.SendReminder(ctx, kind, b.ID)
			},
		)
		tally.record(logCtx, j.logg, j.metrics, j.Name()+"-"+string(kind))
		errs = multierr.Append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return errs
}
