package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
)

// BookingEvent is shared by every booking status change (created, accepted,
// declined, expired, job started/completed, cancelled, disputed).
type BookingEvent struct {
	BookingID     uuid.UUID           `json:"bookingId"`
	BookingNumber string              `json:"bookingNumber"`
	CustomerID    uuid.UUID           `json:"customerId"`
	ArtisanID     uuid.UUID           `json:"artisanId"`
	FromStatus    enums.BookingStatus `json:"fromStatus,omitempty"`
	Status        enums.BookingStatus `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"paymentStatus"`
	AgreedPrice   *int64              `json:"agreedPrice,omitempty"`
	TotalAmount   *int64              `json:"totalAmount,omitempty"`
	Reason        string              `json:"reason,omitempty"`
	ActorRole     enums.ActorRole     `json:"actorRole,omitempty"`
	OccurredAt    time.Time           `json:"occurredAt"`
}

// NegotiationEvent reports a round, agreement, rejection or expiry.
type NegotiationEvent struct {
	NegotiationID uuid.UUID               `json:"negotiationId"`
	BookingID     uuid.UUID               `json:"bookingId"`
	BookingNumber string                  `json:"bookingNumber"`
	CustomerID    uuid.UUID               `json:"customerId"`
	ArtisanID     uuid.UUID               `json:"artisanId"`
	Status        enums.NegotiationStatus `json:"status"`
	Round         int                     `json:"round"`
	ProposedBy    enums.ActorRole         `json:"proposedBy,omitempty"`
	Amount        int64                   `json:"amount"`
	Message       string                  `json:"message,omitempty"`
}

// PaymentEvent reports the reconciled outcome of a charge attempt.
type PaymentEvent struct {
	PaymentID     uuid.UUID          `json:"paymentId"`
	BookingID     uuid.UUID          `json:"bookingId"`
	BookingNumber string             `json:"bookingNumber"`
	CustomerID    uuid.UUID          `json:"customerId"`
	ArtisanID     uuid.UUID          `json:"artisanId"`
	Reference     string             `json:"reference"`
	Amount        int64              `json:"amount"`
	Status        enums.ChargeStatus `json:"status"`
	EscrowID      *uuid.UUID         `json:"escrowId,omitempty"`
	FailureReason string             `json:"failureReason,omitempty"`
}

// EscrowEvent reports a release or refund.
type EscrowEvent struct {
	EscrowID      uuid.UUID          `json:"escrowId"`
	BookingID     uuid.UUID          `json:"bookingId"`
	CustomerID    uuid.UUID          `json:"customerId"`
	ArtisanID     uuid.UUID          `json:"artisanId"`
	Status        enums.EscrowStatus `json:"status"`
	Amount        int64              `json:"amount"`
	PlatformFee   int64              `json:"platformFee"`
	ArtisanAmount int64              `json:"artisanAmount"`
	ReleaseType   *enums.ReleaseType `json:"releaseType,omitempty"`
	Reason        string             `json:"reason,omitempty"`
}

// PayoutEvent reports the fulfilment of a payout transaction.
type PayoutEvent struct {
	TransactionID uuid.UUID               `json:"transactionId"`
	BookingID     uuid.UUID               `json:"bookingId"`
	ArtisanID     uuid.UUID               `json:"artisanId"`
	Reference     string                  `json:"reference"`
	Amount        int64                   `json:"amount"`
	Status        enums.TransactionStatus `json:"status"`
	FailureReason string                  `json:"failureReason,omitempty"`
}
