package bookings

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Davidayo16/ArtisanPro-server/pkg/db/models"
	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
	pkgerrors "github.com/Davidayo16/ArtisanPro-server/pkg/errors"
	"github.com/Davidayo16/ArtisanPro-server/pkg/types"
)

// Accept takes a pending booking at its estimated price. The response deadline
// is checked inside the transaction: a late accept declines the booking as
// expired, commits that, and reports CodeExpired.
func (s *Service) Accept(ctx context.Context, actor types.Actor, id uuid.UUID) (*models.Booking, error) {
	var change *Change
	var expired bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		b, err := s.load(ctx, s.repo.WithTx(tx), id)
		if err != nil {
			return err
		}
		if err := requireArtisan(b, actor); err != nil {
			return err
		}
		if b.Status != enums.BookingStatusPending {
			return invalidState(b, "accept")
		}
		now := s.now().UTC()
		if pastDeadline(b, now) {
			change, err = s.expire(ctx, tx, b)
			expired = err == nil
			return err
		}
		if b.EstimatedPrice == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "booking has no estimated price, propose one instead")
		}

		amounts := s.fees.Split(*b.EstimatedPrice)
		next := *b
		next.Status = enums.BookingStatusAccepted
		next.AcceptedAt = &now
		next.AgreedPrice = &amounts.Agreed
		next.PlatformFee = &amounts.Fee
		next.TotalAmount = &amounts.Total
		next.ExpiresAt = nil
		if err := s.commit(ctx, tx, b, &next, nil, "accepted_at", "agreed_price", "platform_fee", "total_amount", "expires_at"); err != nil {
			return err
		}
		if err := s.profiles.RecordAcceptance(ctx, tx, b.ArtisanID, now.Sub(b.CreatedAt)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record acceptance")
		}
		if err := s.emitBooking(ctx, tx, enums.EventBookingAccepted, b.Status, &next, actor, ""); err != nil {
			return err
		}
		change = &Change{Booking: &next, From: b.Status, ActorRole: actor.Role}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Committed(ctx, change)
	if expired {
		return nil, expiredError(change.Booking)
	}
	return change.Booking, nil
}

// Decline turns a pending booking down with a reason.
func (s *Service) Decline(ctx context.Context, actor types.Actor, id uuid.UUID, reason string) (*models.Booking, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decline reason required")
	}
	var change *Change
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		b, err := s.load(ctx, s.repo.WithTx(tx), id)
		if err != nil {
			return err
		}
		if err := requireArtisan(b, actor); err != nil {
			return err
		}
		if b.Status != enums.BookingStatusPending {
			return invalidState(b, "decline")
		}
		change, err = s.decline(ctx, tx, b, actor, reason, enums.EventBookingDeclined)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Committed(ctx, change)
	return change.Booking, nil
}

// ExpirePending declines a pending booking whose response window closed. It
// reports false without error when the booking was already decided, so the
// sweeper can re-run safely.
func (s *Service) ExpirePending(ctx context.Context, id uuid.UUID) (bool, error) {
	var change *Change
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		b, err := s.load(ctx, s.repo.WithTx(tx), id)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		if b.Status != enums.BookingStatusPending || !pastDeadline(b, now) {
			return nil
		}
		change, err = s.expire(ctx, tx, b)
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

// ListExpiredPending returns pending bookings past their response deadline.
func (s *Service) ListExpiredPending(ctx context.Context, limit int) ([]models.Booking, error) {
	out, err := s.repo.ListExpiredPending(ctx, s.now().UTC(), limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list expired bookings")
	}
	return out, nil
}

func (s *Service) expire(ctx context.Context, tx *gorm.DB, b *models.Booking) (*Change, error) {
	return s.decline(ctx, tx, b, types.SystemActor(), ExpiredDeclineReason, enums.EventBookingExpired)
}

// decline moves a pending or negotiating booking to declined.
func (s *Service) decline(ctx context.Context, tx *gorm.DB, b *models.Booking, actor types.Actor, reason string, event enums.OutboxEventType) (*Change, error) {
	now := s.now().UTC()
	next := *b
	next.Status = enums.BookingStatusDeclined
	next.DeclinedAt = &now
	next.DeclineReason = &reason
	next.CancelledBy = &actor.Role
	next.ExpiresAt = nil
	if err := s.commit(ctx, tx, b, &next, nil, "declined_at", "decline_reason", "cancelled_by", "expires_at"); err != nil {
		return nil, err
	}
	if actor.Role == enums.ActorRoleArtisan || actor.IsSystem() {
		if err := s.profiles.RecordDecline(ctx, tx, b.ArtisanID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record decline")
		}
	}
	if err := s.emitBooking(ctx, tx, event, b.Status, &next, actor, reason); err != nil {
		return nil, err
	}
	return &Change{Booking: &next, From: b.Status, ActorRole: actor.Role}, nil
}

func pastDeadline(b *models.Booking, now time.Time) bool {
	return b.ExpiresAt != nil && now.After(*b.ExpiresAt)
}

func expiredError(b *models.Booking) error {
	return pkgerrors.New(pkgerrors.CodeExpired, "response window has closed").
		WithDetails(map[string]any{"bookingId": b.ID, "status": b.Status})
}
