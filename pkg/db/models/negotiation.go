package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
)

// Negotiation tracks the counter-offer exchange for one booking.
type Negotiation struct {
	ID           uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	BookingID    uuid.UUID               `gorm:"column:booking_id;type:uuid;not null;uniqueIndex"`
	Status       enums.NegotiationStatus `gorm:"column:status;type:negotiation_status;not null;default:'active';index"`
	MaxRounds    int                     `gorm:"column:max_rounds;not null"`
	CurrentRound int                     `gorm:"column:current_round;not null;default:0"`
	AgreedAmount *int64                  `gorm:"column:agreed_amount"`
	ExpiresAt    time.Time               `gorm:"column:expires_at;not null;index"`
	ClosedAt     *time.Time              `gorm:"column:closed_at"`
	Rounds       []NegotiationRound      `gorm:"foreignKey:NegotiationID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

func (n *Negotiation) BeforeCreate(*gorm.DB) error {
	ensureID(&n.ID)
	return nil
}

// LastRound returns the most recent round, or nil before the first proposal.
func (n *Negotiation) LastRound() *NegotiationRound {
	if len(n.Rounds) == 0 {
		return nil
	}
	last := &n.Rounds[0]
	for i := range n.Rounds {
		if n.Rounds[i].RoundNumber > last.RoundNumber {
			last = &n.Rounds[i]
		}
	}
	return last
}

// NegotiationRound is one proposal. (negotiation_id, round_number) is unique.
type NegotiationRound struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	NegotiationID uuid.UUID           `gorm:"column:negotiation_id;type:uuid;not null;uniqueIndex:idx_negotiation_round"`
	RoundNumber   int                 `gorm:"column:round_number;not null;uniqueIndex:idx_negotiation_round"`
	ProposedBy    enums.ActorRole     `gorm:"column:proposed_by;type:actor_role;not null"`
	ProposerID    uuid.UUID           `gorm:"column:proposer_id;type:uuid;not null"`
	Amount        int64               `gorm:"column:amount;not null"`
	Message       *string             `gorm:"column:message"`
	Response      enums.RoundResponse `gorm:"column:response;type:round_response;not null;default:'pending'"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (r *NegotiationRound) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
