package bookings

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Davidayo16/ArtisanPro-server/internal/negotiation"
	"github.com/Davidayo16/ArtisanPro-server/pkg/db/models"
	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
	pkgerrors "github.com/Davidayo16/ArtisanPro-server/pkg/errors"
	"github.com/Davidayo16/ArtisanPro-server/pkg/types"
)

// OfferInput is one price proposal.
type OfferInput struct {
	Amount  int64  `validate:"gt=0"`
	Message string `validate:"max=500"`
}

// ProposePrice is the artisan's answer to a pending booking with a different
// price. It opens the negotiation and moves the booking to negotiating.
func (s *Service) ProposePrice(ctx context.Context, actor types.Actor, id uuid.UUID, in OfferInput) (*models.Booking, error) {
	return s.offer(ctx, actor, id, in, enums.BookingStatusPending)
}

// CounterOffer adds a round to an open negotiation.
func (s *Service) CounterOffer(ctx context.Context, actor types.Actor, id uuid.UUID, in OfferInput) (*models.Booking, error) {
	return s.offer(ctx, actor, id, in, enums.BookingStatusNegotiating)
}

func (s *Service) offer(ctx context.Context, actor types.Actor, id uuid.UUID, in OfferInput, want enums.BookingStatus) (*models.Booking, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid offer")
	}
	var change *Change
	var expired bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		b, err := s.load(ctx, s.repo.WithTx(tx), id)
		if err != nil {
			return err
		}
		if want == enums.BookingStatusPending {
			err = requireArtisan(b, actor)
		} else {
			err = requireParty(b, actor)
		}
		if err != nil {
			return err
		}
		if b.Status != want {
			return invalidState(b, "negotiate")
		}
		now := s.now().UTC()
		if pastDeadline(b, now) {
			change, err = s.expire(ctx, tx, b)
			expired = err == nil
			return err
		}

		n, err := s.negotiation.Start(ctx, tx, b.ID)
		if err != nil {
			return err
		}
		n, round, err := s.negotiation.AddRound(ctx, tx, n.ID, negotiation.Proposal{
			Role:       actor.Role,
			ProposerID: actor.ID,
			Amount:     in.Amount,
			Message:    in.Message,
		})
		if pkgerrors.IsCode(err, pkgerrors.CodeExpired) {
			change, err = s.closeExpiredNegotiation(ctx, tx, b, n)
			expired = err == nil
			return err
		}
		if err != nil {
			return err
		}

		next := *b
		next.Status = enums.BookingStatusNegotiating
		next.ExpiresAt = nil
		if err := s.commit(ctx, tx, b, &next, nil, "expires_at"); err != nil {
			return err
		}
		if err := s.emitNegotiation(ctx, tx, enums.EventNegotiationRoundAdded, &next, n, round, actor); err != nil {
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

// AcceptOffer agrees to the other party's last offer. The agreed amount goes
// through the same fee split as a direct accept.
func (s *Service) AcceptOffer(ctx context.Context, actor types.Actor, id uuid.UUID) (*models.Booking, error) {
	var change *Change
	var expired bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		b, err := s.load(ctx, s.repo.WithTx(tx), id)
		if err != nil {
			return err
		}
		if err := requireParty(b, actor); err != nil {
			return err
		}
		if b.Status != enums.BookingStatusNegotiating {
			return invalidState(b, "accept an offer on")
		}
		n, err := s.negotiation.Find(ctx, tx, b.ID)
		if err != nil {
			return err
		}
		n, agreed, err := s.negotiation.Accept(ctx, tx, n.ID, actor.Role)
		if pkgerrors.IsCode(err, pkgerrors.CodeExpired) {
			change, err = s.closeExpiredNegotiation(ctx, tx, b, n)
			expired = err == nil
			return err
		}
		if err != nil {
			return err
		}

		now := s.now().UTC()
		amounts := s.fees.Split(agreed)
		next := *b
		next.Status = enums.BookingStatusAccepted
		next.AcceptedAt = &now
		next.AgreedPrice = &amounts.Agreed
		next.PlatformFee = &amounts.Fee
		next.TotalAmount = &amounts.Total
		if err := s.commit(ctx, tx, b, &next, nil, "accepted_at", "agreed_price", "platform_fee", "total_amount"); err != nil {
			return err
		}
		if err := s.profiles.RecordAcceptance(ctx, tx, b.ArtisanID, now.Sub(b.CreatedAt)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record acceptance")
		}
		if err := s.emitNegotiation(ctx, tx, enums.EventNegotiationAgreed, &next, n, nil, actor); err != nil {
			return err
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

// RejectOffer ends the negotiation without agreement and declines the booking.
func (s *Service) RejectOffer(ctx context.Context, actor types.Actor, id uuid.UUID) (*models.Booking, error) {
	var change *Change
	var expired bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		b, err := s.load(ctx, s.repo.WithTx(tx), id)
		if err != nil {
			return err
		}
		if err := requireParty(b, actor); err != nil {
			return err
		}
		if b.Status != enums.BookingStatusNegotiating {
			return invalidState(b, "reject an offer on")
		}
		n, err := s.negotiation.Find(ctx, tx, b.ID)
		if err != nil {
			return err
		}
		n, err = s.negotiation.Reject(ctx, tx, n.ID, actor.Role)
		if pkgerrors.IsCode(err, pkgerrors.CodeExpired) {
			change, err = s.closeExpiredNegotiation(ctx, tx, b, n)
			expired = err == nil
			return err
		}
		if err != nil {
			return err
		}
		if err := s.emitNegotiation(ctx, tx, enums.EventNegotiationRejected, b, n, nil, actor); err != nil {
			return err
		}
		change, err = s.decline(ctx, tx, b, actor, NegotiationRejectReason, enums.EventBookingDeclined)
		return err
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

// ExpireNegotiation closes a negotiation past its deadline and declines its
// booking. It reports false when the negotiation was already closed.
func (s *Service) ExpireNegotiation(ctx context.Context, n models.Negotiation) (bool, error) {
	var change *Change
	var closed bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.negotiation.Expire(ctx, tx, n.ID)
		if err != nil || !ok {
			return err
		}
		closed = true
		b, err := s.load(ctx, s.repo.WithTx(tx), n.BookingID)
		if err != nil {
			return err
		}
		if b.Status != enums.BookingStatusNegotiating {
			return nil
		}
		n.Status = enums.NegotiationStatusExpired
		change, err = s.closeExpiredNegotiation(ctx, tx, b, &n)
		return err
	})
	if err != nil {
		return false, err
	}
	s.Committed(ctx, change)
	return closed, nil
}

// ListExpiredNegotiations returns active negotiations past their deadline.
func (s *Service) ListExpiredNegotiations(ctx context.Context, limit int) ([]models.Negotiation, error) {
	out, err := s.negotiation.ListExpired(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list expired negotiations")
	}
	return out, nil
}

// closeExpiredNegotiation declines the booking of a negotiation the engine has
// just marked expired.
func (s *Service) closeExpiredNegotiation(ctx context.Context, tx *gorm.DB, b *models.Booking, n *models.Negotiation) (*Change, error) {
	system := types.SystemActor()
	if n != nil {
		if err := s.emitNegotiation(ctx, tx, enums.EventNegotiationExpired, b, n, nil, system); err != nil {
			return nil, err
		}
	}
	return s.decline(ctx, tx, b, system, NegotiationExpiredReason, enums.EventBookingDeclined)
}
