package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
)

// Transaction is an append-only money audit entry. Only its fulfilment fields
// (status, gateway reference, failure reason, processed at) move after insert.
type Transaction struct {
	ID               uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	Reference        string                  `gorm:"column:reference;not null;uniqueIndex"`
	Type             enums.TransactionType   `gorm:"column:type;type:transaction_type;not null"`
	Status           enums.TransactionStatus `gorm:"column:status;type:transaction_status;not null;default:'pending';index"`
	BookingID        uuid.UUID               `gorm:"column:booking_id;type:uuid;not null;index"`
	EscrowID         *uuid.UUID              `gorm:"column:escrow_id;type:uuid"`
	UserID           uuid.UUID               `gorm:"column:user_id;type:uuid;not null"`
	Amount           int64                   `gorm:"column:amount;not null"`
	Currency         string                  `gorm:"column:currency;not null;default:'NGN'"`
	Description      string                  `gorm:"column:description;not null"`
	Metadata         json.RawMessage         `gorm:"column:metadata;type:jsonb"`
	GatewayReference *string                 `gorm:"column:gateway_reference"`
	FailureReason    *string                 `gorm:"column:failure_reason"`
	ProcessedAt      *time.Time              `gorm:"column:processed_at"`
	CreatedAt        time.Time               `gorm:"column:created_at;autoCreateTime"`
}

func (t *Transaction) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}
