package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
)

// PriceBreakdown is the resolved quote stored alongside a booking.
type PriceBreakdown struct {
	BasePrice  int64    `json:"basePrice"`
	Multiplier float64  `json:"multiplier"`
	Modifiers  []string `json:"modifiers,omitempty"`
	Subtotal   int64    `json:"subtotal"`
	Deposit    *int64   `json:"deposit,omitempty"`
}

// Booking is the aggregate root of one requested job. Money is whole NGN.
type Booking struct {
	ID                  uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	BookingNumber       string              `gorm:"column:booking_number;not null;uniqueIndex"`
	CustomerID          uuid.UUID           `gorm:"column:customer_id;type:uuid;not null;index"`
	ArtisanID           uuid.UUID           `gorm:"column:artisan_id;type:uuid;not null;index"`
	ServiceID           uuid.UUID           `gorm:"column:service_id;type:uuid;not null"`
	Description         string              `gorm:"column:description;not null"`
	PricingModel        enums.PricingModel  `gorm:"column:pricing_model;type:pricing_model;not null"`
	PriceBreakdown      *PriceBreakdown     `gorm:"column:price_breakdown;type:jsonb;serializer:json"`
	Urgency             enums.Urgency       `gorm:"column:urgency;type:urgency_level;not null;default:'normal'"`
	ScheduledFor        *time.Time          `gorm:"column:scheduled_for"`
	EstimatedPrice      *int64              `gorm:"column:estimated_price"`
	AgreedPrice         *int64              `gorm:"column:agreed_price"`
	FinalPrice          *int64              `gorm:"column:final_price"`
	PlatformFee         *int64              `gorm:"column:platform_fee"`
	TotalAmount         *int64              `gorm:"column:total_amount"`
	Currency            string              `gorm:"column:currency;not null;default:'NGN'"`
	Status              enums.BookingStatus `gorm:"column:status;type:booking_status;not null;default:'pending';index"`
	PaymentStatus       enums.PaymentStatus `gorm:"column:payment_status;type:booking_payment_status;not null;default:'unpaid'"`
	EscrowID            *uuid.UUID          `gorm:"column:escrow_id;type:uuid"`
	ExpiresAt           *time.Time          `gorm:"column:expires_at;index"`
	DeclineReason       *string             `gorm:"column:decline_reason"`
	CancellationReason  *string             `gorm:"column:cancellation_reason"`
	CancelledBy         *enums.ActorRole    `gorm:"column:cancelled_by;type:actor_role"`
	DisputeReason       *string             `gorm:"column:dispute_reason"`
	CompletionNotes     *string             `gorm:"column:completion_notes"`
	CompletionPhotos    []string            `gorm:"column:completion_photos;type:jsonb;serializer:json"`
	WorkDurationMinutes *int                `gorm:"column:work_duration_minutes"`
	AcceptedAt          *time.Time          `gorm:"column:accepted_at"`
	DeclinedAt          *time.Time          `gorm:"column:declined_at"`
	ConfirmedAt         *time.Time          `gorm:"column:confirmed_at"`
	StartedAt           *time.Time          `gorm:"column:started_at"`
	CompletedAt         *time.Time          `gorm:"column:completed_at"`
	CancelledAt         *time.Time          `gorm:"column:cancelled_at"`
	DisputedAt          *time.Time          `gorm:"column:disputed_at"`
	PaymentReleasedAt   *time.Time          `gorm:"column:payment_released_at"`
	RemindedAt          *time.Time          `gorm:"column:reminded_at"`
	PaymentRemindedAt   *time.Time          `gorm:"column:payment_reminded_at"`
	CreatedAt           time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (b *Booking) BeforeCreate(*gorm.DB) error {
	ensureID(&b.ID)
	return nil
}

// IsParty reports whether userID is the customer or artisan of record.
func (b *Booking) IsParty(userID uuid.UUID) bool {
	return userID == b.CustomerID || userID == b.ArtisanID
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
