package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/Davidayo16/ArtisanPro-server/api/responses"
	"github.com/Davidayo16/ArtisanPro-server/api/validators"
	"github.com/Davidayo16/ArtisanPro-server/internal/bookings"
	"github.com/Davidayo16/ArtisanPro-server/pkg/db/models"
	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
	pkgerrors "github.com/Davidayo16/ArtisanPro-server/pkg/errors"
	"github.com/Davidayo16/ArtisanPro-server/pkg/logger"
	"github.com/Davidayo16/ArtisanPro-server/pkg/types"
)

const bookingIDParam = "bookingId"

// BookingService is the booking state machine as the HTTP layer sees it.
type BookingService interface {
	Create(ctx context.Context, actor types.Actor, in bookings.CreateInput) (*models.Booking, error)
	Get(ctx context.Context, actor types.Actor, id uuid.UUID) (*models.Booking, error)
	List(ctx context.Context, actor types.Actor, status *enums.BookingStatus, limit int) ([]models.Booking, error)
	Accept(ctx context.Context, actor types.Actor, id uuid.UUID) (*models.Booking, error)
	Decline(ctx context.Context, actor types.Actor, id uuid.UUID, reason string) (*models.Booking, error)
	ProposePrice(ctx context.Context, actor types.Actor, id uuid.UUID, in bookings.OfferInput) (*models.Booking, error)
	CounterOffer(ctx context.Context, actor types.Actor, id uuid.UUID, in bookings.OfferInput) (*models.Booking, error)
	AcceptOffer(ctx context.Context, actor types.Actor, id uuid.UUID) (*models.Booking, error)
	RejectOffer(ctx context.Context, actor types.Actor, id uuid.UUID) (*models.Booking, error)
	StartJob(ctx context.Context, actor types.Actor, id uuid.UUID) (*models.Booking, error)
	CompleteJob(ctx context.Context, actor types.Actor, id uuid.UUID, in bookings.CompleteInput) (*models.Booking, error)
	Cancel(ctx context.Context, actor types.Actor, id uuid.UUID, reason string) (*models.Booking, error)
	Release(ctx context.Context, actor types.Actor, id uuid.UUID) (*models.Booking, error)
	OpenDispute(ctx context.Context, actor types.Actor, id uuid.UUID, reason string) (*models.Booking, error)
	ResolveDispute(ctx context.Context, actor types.Actor, id uuid.UUID, in bookings.ResolveInput) (*models.Booking, error)
}

var _ BookingService = (*bookings.Service)(nil)

// bookingAction runs one transition on the booking named in the path and
// writes the booking it returns.
type bookingAction func(r *http.Request, actor types.Actor, id uuid.UUID) (*models.Booking, error)

func handleBookingAction(logg *logger.Logger, action bookingAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.PathUUID(r, bookingIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithBookingID(ctx, id.String())
		}
		b, err := action(r.WithContext(ctx), actor, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toBookingResponse(b))
	}
}

// CreateBooking opens a pending booking for the calling customer.
func CreateBooking(svc BookingService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req createBookingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		in, err := req.input()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		b, err := svc.Create(r.Context(), actor, in)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toBookingResponse(b))
	}
}

// ListBookings returns the caller's bookings, optionally filtered by status.
func ListBookings(svc BookingService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var status *enums.BookingStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			s := enums.BookingStatus(raw)
			if !s.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter").
					WithDetails(map[string]any{"status": raw}))
				return
			}
			status = &s
		}
		list, err := svc.List(r.Context(), actor, status, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toBookingResponses(list))
	}
}

func GetBooking(svc BookingService, logg *logger.Logger) http.HandlerFunc {
	return handleBookingAction(logg, func(r *http.Request, actor types.Actor, id uuid.UUID) (*models.Booking, error) {
		return svc.Get(r.Context(), actor, id)
	})
}

func AcceptBooking(svc BookingService, logg *logger.Logger) http.HandlerFunc {
	return handleBookingAction(logg, func(r *http.Request, actor types.Actor, id uuid.UUID) (*models.Booking, error) {
		return svc.Accept(r.Context(), actor, id)
	})
}

func DeclineBooking(svc BookingService, logg *logger.Logger) http.HandlerFunc {
	return handleBookingAction(logg, func(r *http.Request, actor types.Actor, id uuid.UUID) (*models.Booking, error) {
		var req reasonRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		return svc.Decline(r.Context(), actor, id, validators.SanitizeString(req.Reason, 1000))
	})
}

func ProposePrice(svc BookingService, logg *logger.Logger) http.HandlerFunc {
	return handleBookingAction(logg, func(r *http.Request, actor types.Actor, id uuid.UUID) (*models.Booking, error) {
		in, err := decodeOffer(r)
		if err != nil {
			return nil, err
		}
		return svc.ProposePrice(r.Context(), actor, id, in)
	})
}

func CounterOffer(svc BookingService, logg *logger.Logger) http.HandlerFunc {
	return handleBookingAction(logg, func(r *http.Request, actor types.Actor, id uuid.UUID) (*models.Booking, error) {
		in, err := decodeOffer(r)
		if err != nil {
			return nil, err
		}
		return svc.CounterOffer(r.Context(), actor, id, in)
	})
}

func decodeOffer(r *http.Request) (bookings.OfferInput, error) {
	var req offerRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		return bookings.OfferInput{}, err
	}
	return bookings.OfferInput{Amount: req.Amount, Message: validators.SanitizeString(req.Message, 500)}, nil
}

func AcceptOffer(svc BookingService, logg *logger.Logger) http.HandlerFunc {
	return handleBookingAction(logg, func(r *http.Request, actor types.Actor, id uuid.UUID) (*models.Booking, error) {
		return svc.AcceptOffer(r.Context(), actor, id)
	})
}

func RejectOffer(svc BookingService, logg *logger.Logger) http.HandlerFunc {
	return handleBookingAction(logg, func(r *http.Request, actor types.Actor, id uuid.UUID) (*models.Booking, error) {
		return svc.RejectOffer(r.Context(), actor, id)
	})
}

func StartJob(svc BookingService, logg *logger.Logger) http.HandlerFunc {
	return handleBookingAction(logg, func(r *http.Request, actor types.Actor, id uuid.UUID) (*models.Booking, error) {
		return svc.StartJob(r.Context(), actor, id)
	})
}

func CompleteJob(svc BookingService, logg *logger.Logger) http.HandlerFunc {
	return handleBookingAction(logg, func(r *http.Request, actor types.Actor, id uuid.UUID) (*models.Booking, error) {
		var req completeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		return svc.CompleteJob(r.Context(), actor, id, bookings.CompleteInput{
			Notes:               req.Notes,
			Photos:              req.Photos,
			WorkDurationMinutes: req.WorkDurationMinutes,
		})
	})
}

func CancelBooking(svc BookingService, logg *logger.Logger) http.HandlerFunc {
	return handleBookingAction(logg, func(r *http.Request, actor types.Actor, id uuid.UUID) (*models.Booking, error) {
		var req reasonRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		return svc.Cancel(r.Context(), actor, id, validators.SanitizeString(req.Reason, 1000))
	})
}

func ReleasePayment(svc BookingService, logg *logger.Logger) http.HandlerFunc {
	return handleBookingAction(logg, func(r *http.Request, actor types.Actor, id uuid.UUID) (*models.Booking, error) {
		return svc.Release(r.Context(), actor, id)
	})
}

func OpenDispute(svc BookingService, logg *logger.Logger) http.HandlerFunc {
	return handleBookingAction(logg, func(r *http.Request, actor types.Actor, id uuid.UUID) (*models.Booking, error) {
		var req requiredReasonRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		return svc.OpenDispute(r.Context(), actor, id, validators.SanitizeString(req.Reason, 1000))
	})
}

// ResolveDispute is the admin ruling on a disputed booking.
func ResolveDispute(svc BookingService, logg *logger.Logger) http.HandlerFunc {
	return handleBookingAction(logg, func(r *http.Request, actor types.Actor, id uuid.UUID) (*models.Booking, error) {
		var req resolveDisputeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		return svc.ResolveDispute(r.Context(), actor, id, bookings.ResolveInput{
			Outcome: bookings.DisputeOutcome(req.Outcome),
			Note:    validators.SanitizeString(req.Note, 1000),
		})
	})
}
