package controllers

import (
	"net/http"

	"github.com/Davidayo16/ArtisanPro-server/api/middleware"
	pkgerrors "github.com/Davidayo16/ArtisanPro-server/pkg/errors"
	"github.com/Davidayo16/ArtisanPro-server/pkg/types"
)

func requestActor(r *http.Request) (types.Actor, error) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		return types.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return actor, nil
}
