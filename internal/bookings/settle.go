package bookings

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Davidayo16/ArtisanPro-server/internal/escrow"
	"github.com/Davidayo16/ArtisanPro-server/pkg/db/models"
	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
	pkgerrors "github.com/Davidayo16/ArtisanPro-server/pkg/errors"
	"github.com/Davidayo16/ArtisanPro-server/pkg/types"
)

// DisputeOutcome is an admin's ruling on a disputed booking.
type DisputeOutcome string

const (
	DisputeRelease DisputeOutcome = "release"
	DisputeRefund  DisputeOutcome = "refund"
)

const defaultDisputeRefundReason = "Dispute resolved in favour of the customer"

// ConfirmPayment applies a successful payment to its booking inside the
// caller's transaction: escrow is created and the booking is confirmed. A
// booking that is already confirmed by an earlier delivery returns a nil
// Change with its existing escrow.
func (s *Service) ConfirmPayment(ctx context.Context, tx *gorm.DB, payment *models.Payment) (*Change, *models.Escrow, error) {
	b, err := s.load(ctx, s.repo.WithTx(tx), payment.BookingID)
	if err != nil {
		return nil, nil, err
	}
	if b.EscrowID != nil && b.PaymentStatus != enums.PaymentStatusUnpaid {
		e, err := s.escrow.FindByBooking(ctx, tx, b.ID)
		return nil, e, err
	}
	if b.Status != enums.BookingStatusAccepted {
		return nil, nil, invalidState(b, "confirm payment for")
	}
	if b.TotalAmount == nil || *b.TotalAmount != payment.Amount {
		return nil, nil, pkgerrors.New(pkgerrors.CodeConsistency, "payment amount does not match booking total").
			WithDetails(map[string]any{"bookingId": b.ID, "paymentId": payment.ID, "amount": payment.Amount})
	}

	e, _, err := s.escrow.Create(ctx, tx, payment, b.ArtisanID)
	if err != nil {
		return nil, nil, err
	}
	now := s.now().UTC()
	next := *b
	next.Status = enums.BookingStatusConfirmed
	next.PaymentStatus = enums.PaymentStatusPaid
	next.ConfirmedAt = &now
	next.EscrowID = &e.ID
	if err := s.commit(ctx, tx, b, &next, e, "payment_status", "confirmed_at", "escrow_id"); err != nil {
		return nil, nil, err
	}
	return &Change{Booking: &next, From: b.Status, ActorRole: enums.ActorRoleSystem}, e, nil
}

// Cancel ends a booking before completion. Held funds are refunded in the
// same transaction.
func (s *Service) Cancel(ctx context.Context, actor types.Actor, id uuid.UUID, reason string) (*models.Booking, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancellation reason required")
	}
	var change *Change
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		b, err := s.load(ctx, s.repo.WithTx(tx), id)
		if err != nil {
			return err
		}
		if err := requireParty(b, actor); err != nil {
			return err
		}
		if !b.Status.IsCancellable() {
			return invalidState(b, "cancel")
		}
		if b.Status == enums.BookingStatusNegotiating {
			if err := s.negotiation.CloseForBooking(ctx, tx, b.ID); err != nil {
				return err
			}
		}

		now := s.now().UTC()
		next := *b
		next.Status = enums.BookingStatusCancelled
		next.CancelledAt = &now
		next.CancellationReason = &reason
		next.CancelledBy = &actor.Role
		next.ExpiresAt = nil

		var refunded *models.Escrow
		if b.PaymentStatus == enums.PaymentStatusPaid {
			e, err := s.escrow.FindByBooking(ctx, tx, b.ID)
			if err != nil {
				return err
			}
			refunded, err = s.escrow.Refund(ctx, tx, e.ID, reason, actorRef(actor))
			if err != nil {
				return err
			}
			next.PaymentStatus = enums.PaymentStatusRefunded
		}
		if err := s.commit(ctx, tx, b, &next, refunded,
			"payment_status", "cancelled_at", "cancellation_reason", "cancelled_by", "expires_at"); err != nil {
			return err
		}
		if err := s.emitBooking(ctx, tx, enums.EventBookingCancelled, b.Status, &next, actor, reason); err != nil {
			return err
		}
		change = &Change{Booking: &next, From: b.Status, ActorRole: actor.Role}
		if refunded != nil {
			change.settled = &settlement{outcome: "refunded", trigger: "cancel", amount: refunded.Amount}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Committed(ctx, change)
	return change.Booking, nil
}

// Release pays the artisan for a completed booking. Releasing an already
// released booking is a no-op.
func (s *Service) Release(ctx context.Context, actor types.Actor, id uuid.UUID) (*models.Booking, error) {
	var change *Change
	var current *models.Booking
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		b, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		if err := requireCustomer(b, actor); err != nil {
			return err
		}
		if b.Status == enums.BookingStatusPaymentReleased {
			current = b
			return nil
		}
		if b.Status != enums.BookingStatusCompleted {
			return invalidState(b, "release payment for")
		}
		e, err := s.escrow.FindByBooking(ctx, tx, b.ID)
		if err != nil {
			return err
		}
		released, err := s.escrow.Release(ctx, tx, e.ID, escrow.ReleaseInput{
			Type:       enums.ReleaseTypeManual,
			ReleasedBy: actor.UserRef(),
			Actor:      actorRef(actor),
		})
		if pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
			// Lost to the auto-release sweep: report the booking it produced.
			if latest, lerr := s.load(ctx, repo, id); lerr == nil && latest.Status == enums.BookingStatusPaymentReleased {
				current = latest
				return nil
			}
		}
		if err != nil {
			return err
		}
		change, err = s.markReleased(ctx, tx, b, released, actor)
		return err
	})
	if err != nil {
		return nil, err
	}
	if current != nil {
		return current, nil
	}
	s.Committed(ctx, change)
	return change.Booking, nil
}

// AutoRelease releases a held escrow whose deadline passed and syncs its
// booking. It reports false when the escrow was settled by someone else.
func (s *Service) AutoRelease(ctx context.Context, escrowID uuid.UUID) (bool, error) {
	var change *Change
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		e, err := s.escrow.FindByID(ctx, tx, escrowID)
		if err != nil {
			return err
		}
		if e.Status != enums.EscrowStatusHeld {
			return nil
		}
		b, err := s.load(ctx, s.repo.WithTx(tx), e.BookingID)
		if err != nil {
			return err
		}
		if !statusIn(b.Status, enums.BookingStatusConfirmed, enums.BookingStatusInProgress, enums.BookingStatusCompleted) {
			return consistency("held escrow on a booking that cannot be released", b)
		}
		released, err := s.escrow.Release(ctx, tx, e.ID, escrow.ReleaseInput{Type: enums.ReleaseTypeAuto})
		if err != nil {
			return err
		}
		change, err = s.markReleased(ctx, tx, b, released, types.SystemActor())
		return err
	})
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
			return false, nil
		}
		return false, err
	}
	if change == nil {
		return false, nil
	}
	s.Committed(ctx, change)
	return true, nil
}

// ListDueForRelease returns held escrows past their auto-release deadline.
func (s *Service) ListDueForRelease(ctx context.Context, limit int) ([]models.Escrow, error) {
	out, err := s.escrow.ListDueForRelease(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list escrows due for release")
	}
	return out, nil
}

func (s *Service) markReleased(ctx context.Context, tx *gorm.DB, b *models.Booking, e *models.Escrow, actor types.Actor) (*Change, error) {
	now := s.now().UTC()
	next := *b
	next.Status = enums.BookingStatusPaymentReleased
	next.PaymentStatus = enums.PaymentStatusReleased
	next.PaymentReleasedAt = &now
	if next.FinalPrice == nil {
		next.FinalPrice = b.AgreedPrice
	}
	if err := s.commit(ctx, tx, b, &next, e, "payment_status", "payment_released_at", "final_price"); err != nil {
		return nil, err
	}
	trigger := string(enums.ReleaseTypeManual)
	if e.ReleaseType != nil {
		trigger = string(*e.ReleaseType)
	}
	return &Change{
		Booking:   &next,
		From:      b.Status,
		ActorRole: actor.Role,
		settled:   &settlement{outcome: "released", trigger: trigger, amount: e.ArtisanAmount},
	}, nil
}

// OpenDispute freezes a completed booking and its escrow until an admin rules.
func (s *Service) OpenDispute(ctx context.Context, actor types.Actor, id uuid.UUID, reason string) (*models.Booking, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dispute reason required")
	}
	var change *Change
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		b, err := s.load(ctx, s.repo.WithTx(tx), id)
		if err != nil {
			return err
		}
		if err := requireParty(b, actor); err != nil {
			return err
		}
		if b.Status != enums.BookingStatusCompleted {
			return invalidState(b, "dispute")
		}
		e, err := s.escrow.FindByBooking(ctx, tx, b.ID)
		if err != nil {
			return err
		}
		disputed, err := s.escrow.MarkDisputed(ctx, tx, e.ID)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		next := *b
		next.Status = enums.BookingStatusDisputed
		next.DisputedAt = &now
		next.DisputeReason = &reason
		if err := s.commit(ctx, tx, b, &next, disputed, "disputed_at", "dispute_reason"); err != nil {
			return err
		}
		if err := s.emitBooking(ctx, tx, enums.EventBookingDisputed, b.Status, &next, actor, reason); err != nil {
			return err
		}
		change = &Change{Booking: &next, From: b.Status, ActorRole: actor.Role}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Committed(ctx, change)
	return change.Booking, nil
}

// ResolveInput is an admin ruling.
type ResolveInput struct {
	Outcome DisputeOutcome
	Note    string
}

// ResolveDispute settles a disputed escrow either way.
func (s *Service) ResolveDispute(ctx context.Context, actor types.Actor, id uuid.UUID, in ResolveInput) (*models.Booking, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins can resolve disputes")
	}
	if in.Outcome != DisputeRelease && in.Outcome != DisputeRefund {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "outcome must be release or refund")
	}
	var change *Change
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		b, err := s.load(ctx, s.repo.WithTx(tx), id)
		if err != nil {
			return err
		}
		if b.Status != enums.BookingStatusDisputed {
			return invalidState(b, "resolve")
		}
		e, err := s.escrow.FindByBooking(ctx, tx, b.ID)
		if err != nil {
			return err
		}
		if in.Outcome == DisputeRelease {
			released, err := s.escrow.Release(ctx, tx, e.ID, escrow.ReleaseInput{
				Type:       enums.ReleaseTypeAdmin,
				ReleasedBy: actor.UserRef(),
				Actor:      actorRef(actor),
			})
			if err != nil {
				return err
			}
			change, err = s.markReleased(ctx, tx, b, released, actor)
			return err
		}

		reason := strings.TrimSpace(in.Note)
		if reason == "" {
			reason = defaultDisputeRefundReason
		}
		refunded, err := s.escrow.Refund(ctx, tx, e.ID, reason, actorRef(actor))
		if err != nil {
			return err
		}
		now := s.now().UTC()
		next := *b
		next.Status = enums.BookingStatusCancelled
		next.PaymentStatus = enums.PaymentStatusRefunded
		next.CancelledAt = &now
		next.CancellationReason = &reason
		next.CancelledBy = &actor.Role
		if err := s.commit(ctx, tx, b, &next, refunded, "payment_status", "cancelled_at", "cancellation_reason", "cancelled_by"); err != nil {
			return err
		}
		if err := s.emitBooking(ctx, tx, enums.EventBookingCancelled, b.Status, &next, actor, reason); err != nil {
			return err
		}
		change = &Change{
			Booking:   &next,
			From:      b.Status,
			ActorRole: actor.Role,
			settled:   &settlement{outcome: "refunded", trigger: "admin", amount: refunded.Amount},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Committed(ctx, change)
	return change.Booking, nil
}
