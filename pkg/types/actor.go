package types

import (
	"github.com/google/uuid"

	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
)

// Actor is an already authenticated caller, or the system itself.
type Actor struct {
	ID   uuid.UUID
	Role enums.ActorRole
}

// SystemActor is used by sweepers and gateway callbacks.
func SystemActor() Actor {
	return Actor{Role: enums.ActorRoleSystem}
}

func (a Actor) IsSystem() bool {
	return a.Role == enums.ActorRoleSystem
}

func (a Actor) IsAdmin() bool {
	return a.Role == enums.ActorRoleAdmin
}

// UserRef returns the actor id, or nil for the system actor.
func (a Actor) UserRef() *uuid.UUID {
	if a.IsSystem() || a.ID == uuid.Nil {
		return nil
	}
	id := a.ID
	return &id
}
