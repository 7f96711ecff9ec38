package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
)

// Payment is one gateway charge attempt for a booking.
type Payment struct {
	ID               uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	BookingID        uuid.UUID          `gorm:"column:booking_id;type:uuid;not null;index"`
	CustomerID       uuid.UUID          `gorm:"column:customer_id;type:uuid;not null"`
	Reference        string             `gorm:"column:reference;not null;uniqueIndex"`
	Amount           int64              `gorm:"column:amount;not null"`
	PlatformFee      int64              `gorm:"column:platform_fee;not null"`
	ArtisanAmount    int64              `gorm:"column:artisan_amount;not null"`
	Currency         string             `gorm:"column:currency;not null;default:'NGN'"`
	Status           enums.ChargeStatus `gorm:"column:status;type:charge_status;not null;default:'pending';index"`
	PayerEmail       string             `gorm:"column:payer_email;not null"`
	AuthorizationURL *string            `gorm:"column:authorization_url"`
	Channel          *string            `gorm:"column:channel"`
	FailureReason    *string            `gorm:"column:failure_reason"`
	GatewayResponse  json.RawMessage    `gorm:"column:gateway_response;type:jsonb"`
	PaidAt           *time.Time         `gorm:"column:paid_at"`
	VerifiedAt       *time.Time         `gorm:"column:verified_at"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Payment) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
