package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/Davidayo16/ArtisanPro-server/api/responses"
	"github.com/Davidayo16/ArtisanPro-server/api/validators"
	"github.com/Davidayo16/ArtisanPro-server/internal/profiles"
	pkgerrors "github.com/Davidayo16/ArtisanPro-server/pkg/errors"
	"github.com/Davidayo16/ArtisanPro-server/pkg/logger"
)

type ArtisanStatsService interface {
	ArtisanStats(ctx context.Context, artisanID uuid.UUID) (*profiles.ArtisanStats, error)
}

// GetArtisanStats returns an artisan's booking counters and earnings.
func GetArtisanStats(svc ArtisanStatsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "profiles service unavailable"))
			return
		}
		if _, err := requestActor(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.PathUUID(r, "artisanId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stats, err := svc.ArtisanStats(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load artisan stats"))
			return
		}
		responses.WriteSuccess(w, stats)
	}
}
