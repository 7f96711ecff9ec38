package bookings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Davidayo16/ArtisanPro-server/pkg/db/models"
	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
	pkgerrors "github.com/Davidayo16/ArtisanPro-server/pkg/errors"
	"github.com/Davidayo16/ArtisanPro-server/pkg/types"
)

// PaymentReminderAfter is how long an accepted booking may sit unpaid before
// the customer is nudged.
const PaymentReminderAfter = time.Hour

// Reminder names a one-shot notice sent for a booking.
type Reminder string

const (
	// ReminderUpcoming goes to both parties the day before a confirmed job.
	ReminderUpcoming Reminder = "upcoming"
	// ReminderPayment goes to a customer who has not paid for an accepted booking.
	ReminderPayment Reminder = "payment"
)

// Reminders lists every kind in sweep order.
var Reminders = []Reminder{ReminderUpcoming, ReminderPayment}

func (r Reminder) column() string {
	if r == ReminderPayment {
		return "payment_reminded_at"
	}
	return "reminded_at"
}

func (r Reminder) event() enums.OutboxEventType {
	if r == ReminderPayment {
		return enums.EventPaymentReminder
	}
	return enums.EventBookingReminder
}

// due reports whether b still qualifies for reminder r at now.
func (r Reminder) due(b *models.Booking, now time.Time) bool {
	switch r {
	case ReminderUpcoming:
		if b.Status != enums.BookingStatusConfirmed || b.RemindedAt != nil || b.ScheduledFor == nil {
			return false
		}
		from, to := tomorrow(now)
		at := b.ScheduledFor.UTC()
		return !at.Before(from) && at.Before(to)
	case ReminderPayment:
		return b.Status == enums.BookingStatusAccepted &&
			b.PaymentStatus == enums.PaymentStatusUnpaid &&
			b.PaymentRemindedAt == nil &&
			b.AcceptedAt != nil &&
			!b.AcceptedAt.After(now.Add(-PaymentReminderAfter))
	}
	return false
}

// tomorrow is the UTC calendar day after now.
func tomorrow(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	from := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 0, 1)
}

// ListDueReminders returns bookings that have not yet received reminder kind.
func (s *Service) ListDueReminders(ctx context.Context, kind Reminder, limit int) ([]models.Booking, error) {
	now := s.now().UTC()
	var (
		out []models.Booking
		err error
	)
	switch kind {
	case ReminderUpcoming:
		from, to := tomorrow(now)
		out, err = s.repo.ListUpcoming(ctx, from, to, limit)
	case ReminderPayment:
		out, err = s.repo.ListAwaitingPayment(ctx, now.Add(-PaymentReminderAfter), limit)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown reminder %q", kind))
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list due reminders")
	}
	return out, nil
}

// SendReminder stamps the booking and emits the reminder event in one
// transaction. It reports false when the booking no longer qualifies or was
// already reminded.
func (s *Service) SendReminder(ctx context.Context, kind Reminder, id uuid.UUID) (bool, error) {
	if kind != ReminderUpcoming && kind != ReminderPayment {
		return false, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown reminder %q", kind))
	}
	sent := false
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		b, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		if !kind.due(b, now) {
			return nil
		}
		ok, err := repo.MarkReminded(ctx, b.ID, kind.column(), now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark reminded")
		}
		if !ok {
			return nil
		}
		sent = true
		return s.emitBooking(ctx, tx, kind.event(), b.Status, b, types.SystemActor(), "")
	})
	if err != nil {
		return false, err
	}
	if sent {
		logCtx := s.logg.WithBookingID(ctx, id.String())
		s.logg.Info(s.logg.WithField(logCtx, "reminder", string(kind)), "booking reminder queued")
	}
	return sent, nil
}
