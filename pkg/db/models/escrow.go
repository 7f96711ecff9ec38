package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
)

// Escrow holds a booking's paid funds until release or refund.
type Escrow struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	BookingID     uuid.UUID          `gorm:"column:booking_id;type:uuid;not null;uniqueIndex"`
	PaymentID     uuid.UUID          `gorm:"column:payment_id;type:uuid;not null"`
	CustomerID    uuid.UUID          `gorm:"column:customer_id;type:uuid;not null"`
	ArtisanID     uuid.UUID          `gorm:"column:artisan_id;type:uuid;not null"`
	Amount        int64              `gorm:"column:amount;not null"`
	PlatformFee   int64              `gorm:"column:platform_fee;not null"`
	ArtisanAmount int64              `gorm:"column:artisan_amount;not null"`
	Currency      string             `gorm:"column:currency;not null;default:'NGN'"`
	Status        enums.EscrowStatus `gorm:"column:status;type:escrow_status;not null;default:'held';index"`
	AutoReleaseAt time.Time          `gorm:"column:auto_release_at;not null;index"`
	ReleaseType   *enums.ReleaseType `gorm:"column:release_type;type:release_type"`
	ReleasedBy    *uuid.UUID         `gorm:"column:released_by;type:uuid"`
	ReleasedAt    *time.Time         `gorm:"column:released_at"`
	RefundedAt    *time.Time         `gorm:"column:refunded_at"`
	RefundReason  *string            `gorm:"column:refund_reason"`
	DisputedAt    *time.Time         `gorm:"column:disputed_at"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (e *Escrow) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}
