package bookings

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Davidayo16/ArtisanPro-server/internal/pricing"
	"github.com/Davidayo16/ArtisanPro-server/pkg/db"
	"github.com/Davidayo16/ArtisanPro-server/pkg/db/models"
	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
	pkgerrors "github.com/Davidayo16/ArtisanPro-server/pkg/errors"
	"github.com/Davidayo16/ArtisanPro-server/pkg/types"
)

// CreateInput is a customer's booking request against one service offering.
type CreateInput struct {
	ArtisanID    uuid.UUID          `validate:"required"`
	ServiceID    uuid.UUID          `validate:"required"`
	Description  string             `validate:"required,min=10,max=2000"`
	Offering     pricing.Offering   `validate:"-"`
	Selections   pricing.Selections `validate:"-"`
	ScheduledFor *time.Time
}

// Create prices the request and opens a pending booking the artisan must
// answer before the accept timeout.
func (s *Service) Create(ctx context.Context, actor types.Actor, in CreateInput) (*models.Booking, error) {
	if actor.Role != enums.ActorRoleCustomer || actor.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only customers can create bookings")
	}
	in.Description = strings.TrimSpace(in.Description)
	if err := s.validate.Struct(in); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid booking request")
	}
	if in.ArtisanID == actor.ID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot book yourself")
	}
	urgency := in.Selections.Urgency
	if urgency == "" {
		urgency = enums.UrgencyNormal
	}
	if !urgency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid urgency").
			WithDetails(map[string]any{"urgency": urgency})
	}
	quote, err := pricing.Resolve(in.Offering, in.Selections)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "price could not be resolved")
	}

	now := s.now().UTC()
	b := &models.Booking{
		CustomerID:     actor.ID,
		ArtisanID:      in.ArtisanID,
		ServiceID:      in.ServiceID,
		Description:    in.Description,
		PricingModel:   quote.Model,
		PriceBreakdown: breakdownFor(quote),
		Urgency:        urgency,
		ScheduledFor:   in.ScheduledFor,
		EstimatedPrice: estimateFor(quote),
		Currency:       s.currency,
		Status:         enums.BookingStatusPending,
		PaymentStatus:  enums.PaymentStatusUnpaid,
		ExpiresAt:      ptr(now.Add(s.acceptTimeout)),
		CreatedAt:      now,
	}

	// A booking number collision retries once with a fresh number.
	for attempt := 0; ; attempt++ {
		b.ID = uuid.Nil
		b.BookingNumber = s.numbers.Next(ctx, now)
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			return s.create(ctx, tx, actor, b)
		})
		if err == nil || attempt > 0 || !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	s.Committed(ctx, &Change{Booking: b, From: "", ActorRole: actor.Role})
	return b, nil
}

func (s *Service) create(ctx context.Context, tx *gorm.DB, actor types.Actor, b *models.Booking) error {
	if err := CheckInvariants(b, nil); err != nil {
		return err
	}
	if err := s.repo.WithTx(tx).Create(ctx, b); err != nil {
		if db.IsUniqueViolation(err, "") {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "booking number already used")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create booking")
	}
	if err := s.profiles.RecordBookingRequest(ctx, tx, b.ArtisanID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record booking request")
	}
	return s.emitBooking(ctx, tx, enums.EventBookingCreated, "", b, actor, "")
}

func breakdownFor(q pricing.Quote) *models.PriceBreakdown {
	if !q.Priced {
		return nil
	}
	multiplier, _ := q.Multiplier.Float64()
	return &models.PriceBreakdown{
		BasePrice:  q.BasePrice,
		Multiplier: multiplier,
		Modifiers:  q.Modifiers,
		Subtotal:   q.FinalPrice,
		Deposit:    q.Deposit,
	}
}

// estimateFor is the price an artisan accepts by default. Inspection offerings
// start from the inspection fee; fully custom ones have no estimate.
func estimateFor(q pricing.Quote) *int64 {
	switch {
	case q.Priced:
		return ptr(q.FinalPrice)
	case q.InspectionFee != nil:
		return ptr(*q.InspectionFee)
	}
	return nil
}
