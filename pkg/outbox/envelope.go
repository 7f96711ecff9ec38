package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
)

// ActorRef identifies who produced the event. System-driven events carry a nil UserID.
type ActorRef struct {
	UserID uuid.UUID       `json:"userId"`
	Role   enums.ActorRole `json:"role"`
}

// SystemActor is the actor attached to sweeper and webhook driven events.
func SystemActor() *ActorRef {
	return &ActorRef{Role: enums.ActorRoleSystem}
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}
