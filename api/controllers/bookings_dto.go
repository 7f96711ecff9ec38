package controllers

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/Davidayo16/ArtisanPro-server/internal/bookings"
	"github.com/Davidayo16/ArtisanPro-server/internal/pricing"
	"github.com/Davidayo16/ArtisanPro-server/pkg/db/models"
	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
	pkgerrors "github.com/Davidayo16/ArtisanPro-server/pkg/errors"
)

// offeringRequest is the catalogue snapshot of the service being booked.
type offeringRequest struct {
	PricingModel      enums.PricingModel  `json:"pricingModel" validate:"required"`
	PricingConfig     json.RawMessage     `json:"pricingConfig"`
	Modifiers         *pricing.Modifiers  `json:"modifiers"`
	MinimumCharge     int64               `json:"minimumCharge" validate:"gte=0"`
	Deposit           pricing.DepositRule `json:"deposit"`
	MaterialsIncluded bool                `json:"materialsIncluded"`
}

type createBookingRequest struct {
	ArtisanID    uuid.UUID          `json:"artisanId" validate:"required"`
	ServiceID    uuid.UUID          `json:"serviceId" validate:"required"`
	Description  string             `json:"description" validate:"required,min=10,max=2000"`
	Offering     offeringRequest    `json:"offering"`
	Selections   pricing.Selections `json:"selections"`
	ScheduledFor *time.Time         `json:"scheduledFor"`
}

func (req createBookingRequest) input() (bookings.CreateInput, error) {
	cfg, err := pricing.Decode(req.Offering.PricingModel, req.Offering.PricingConfig)
	if err != nil {
		return bookings.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid pricing config")
	}
	modifiers := pricing.DefaultModifiers()
	if req.Offering.Modifiers != nil {
		modifiers = *req.Offering.Modifiers
	}
	return bookings.CreateInput{
		ArtisanID:   req.ArtisanID,
		ServiceID:   req.ServiceID,
		Description: req.Description,
		Offering: pricing.Offering{
			Config:            cfg,
			Modifiers:         modifiers,
			MinimumCharge:     req.Offering.MinimumCharge,
			Deposit:           req.Offering.Deposit,
			MaterialsIncluded: req.Offering.MaterialsIncluded,
		},
		Selections:   req.Selections,
		ScheduledFor: req.ScheduledFor,
	}, nil
}

type reasonRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

type requiredReasonRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

type offerRequest struct {
	Amount  int64  `json:"amount" validate:"gt=0"`
	Message string `json:"message" validate:"max=500"`
}

type completeRequest struct {
	Notes               string   `json:"notes" validate:"required"`
	Photos              []string `json:"photos" validate:"required,min=1"`
	WorkDurationMinutes *int     `json:"workDurationMinutes"`
}

type resolveDisputeRequest struct {
	Outcome string `json:"outcome" validate:"required,oneof=release refund"`
	Note    string `json:"note" validate:"max=1000"`
}

type bookingResponse struct {
	ID                  uuid.UUID              `json:"id"`
	BookingNumber       string                 `json:"bookingNumber"`
	CustomerID          uuid.UUID              `json:"customerId"`
	ArtisanID           uuid.UUID              `json:"artisanId"`
	ServiceID           uuid.UUID              `json:"serviceId"`
	Description         string                 `json:"description"`
	PricingModel        enums.PricingModel     `json:"pricingModel"`
	PriceBreakdown      *models.PriceBreakdown `json:"priceBreakdown,omitempty"`
	Urgency             enums.Urgency          `json:"urgency"`
	ScheduledFor        *time.Time             `json:"scheduledFor,omitempty"`
	EstimatedPrice      *int64                 `json:"estimatedPrice,omitempty"`
	AgreedPrice         *int64                 `json:"agreedPrice,omitempty"`
	FinalPrice          *int64                 `json:"finalPrice,omitempty"`
	PlatformFee         *int64                 `json:"platformFee,omitempty"`
	TotalAmount         *int64                 `json:"totalAmount,omitempty"`
	Currency            string                 `json:"currency"`
	Status              enums.BookingStatus    `json:"status"`
	PaymentStatus       enums.PaymentStatus    `json:"paymentStatus"`
	Reviewable          bool                   `json:"reviewable"`
	EscrowID            *uuid.UUID             `json:"escrowId,omitempty"`
	ExpiresAt           *time.Time             `json:"expiresAt,omitempty"`
	DeclineReason       *string                `json:"declineReason,omitempty"`
	CancellationReason  *string                `json:"cancellationReason,omitempty"`
	CancelledBy         *enums.ActorRole       `json:"cancelledBy,omitempty"`
	DisputeReason       *string                `json:"disputeReason,omitempty"`
	CompletionNotes     *string                `json:"completionNotes,omitempty"`
	CompletionPhotos    []string               `json:"completionPhotos,omitempty"`
	WorkDurationMinutes *int                   `json:"workDurationMinutes,omitempty"`
	AcceptedAt          *time.Time             `json:"acceptedAt,omitempty"`
	ConfirmedAt         *time.Time             `json:"confirmedAt,omitempty"`
	StartedAt           *time.Time             `json:"startedAt,omitempty"`
	CompletedAt         *time.Time             `json:"completedAt,omitempty"`
	CancelledAt         *time.Time             `json:"cancelledAt,omitempty"`
	DisputedAt          *time.Time             `json:"disputedAt,omitempty"`
	PaymentReleasedAt   *time.Time             `json:"paymentReleasedAt,omitempty"`
	CreatedAt           time.Time              `json:"createdAt"`
	UpdatedAt           time.Time              `json:"updatedAt"`
}

func toBookingResponse(b *models.Booking) bookingResponse {
	return bookingResponse{
		ID:                  b.ID,
		BookingNumber:       b.BookingNumber,
		CustomerID:          b.CustomerID,
		ArtisanID:           b.ArtisanID,
		ServiceID:           b.ServiceID,
		Description:         b.Description,
		PricingModel:        b.PricingModel,
		PriceBreakdown:      b.PriceBreakdown,
		Urgency:             b.Urgency,
		ScheduledFor:        b.ScheduledFor,
		EstimatedPrice:      b.EstimatedPrice,
		AgreedPrice:         b.AgreedPrice,
		FinalPrice:          b.FinalPrice,
		PlatformFee:         b.PlatformFee,
		TotalAmount:         b.TotalAmount,
		Currency:            b.Currency,
		Status:              b.Status,
		PaymentStatus:       b.PaymentStatus,
		Reviewable:          b.Status.IsReviewable(),
		EscrowID:            b.EscrowID,
		ExpiresAt:           b.ExpiresAt,
		DeclineReason:       b.DeclineReason,
		CancellationReason:  b.CancellationReason,
		CancelledBy:         b.CancelledBy,
		DisputeReason:       b.DisputeReason,
		CompletionNotes:     b.CompletionNotes,
		CompletionPhotos:    b.CompletionPhotos,
		WorkDurationMinutes: b.WorkDurationMinutes,
		AcceptedAt:          b.AcceptedAt,
		ConfirmedAt:         b.ConfirmedAt,
		StartedAt:           b.StartedAt,
		CompletedAt:         b.CompletedAt,
		CancelledAt:         b.CancelledAt,
		DisputedAt:          b.DisputedAt,
		PaymentReleasedAt:   b.PaymentReleasedAt,
		CreatedAt:           b.CreatedAt,
		UpdatedAt:           b.UpdatedAt,
	}
}

func toBookingResponses(list []models.Booking) []bookingResponse {
	out := make([]bookingResponse, 0, len(list))
	for i := range list {
		out = append(out, toBookingResponse(&list[i]))
	}
	return out
}
