package controllers

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Davidayo16/ArtisanPro-server/api/responses"
	"github.com/Davidayo16/ArtisanPro-server/api/validators"
	"github.com/Davidayo16/ArtisanPro-server/internal/payments"
	"github.com/Davidayo16/ArtisanPro-server/pkg/db/models"
	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
	pkgerrors "github.com/Davidayo16/ArtisanPro-server/pkg/errors"
	"github.com/Davidayo16/ArtisanPro-server/pkg/logger"
	"github.com/Davidayo16/ArtisanPro-server/pkg/paystack"
	"github.com/Davidayo16/ArtisanPro-server/pkg/types"
)

const maxWebhookBody = 1 << 20

// PaymentService initializes and verifies booking charges.
type PaymentService interface {
	Initialize(ctx context.Context, actor types.Actor, in payments.InitializeInput) (*payments.Initialized, error)
	Verify(ctx context.Context, actor types.Actor, reference string) (*models.Payment, error)
	HandleWebhook(ctx context.Context, signature string, body []byte) error
}

var _ PaymentService = (*payments.Service)(nil)

type paymentResponse struct {
	ID               uuid.UUID          `json:"id"`
	BookingID        uuid.UUID          `json:"bookingId"`
	Reference        string             `json:"reference"`
	Amount           int64              `json:"amount"`
	PlatformFee      int64              `json:"platformFee"`
	ArtisanAmount    int64              `json:"artisanAmount"`
	Currency         string             `json:"currency"`
	Status           enums.ChargeStatus `json:"status"`
	AuthorizationURL *string            `json:"authorizationUrl,omitempty"`
	AccessCode       string             `json:"accessCode,omitempty"`
	Channel          *string            `json:"channel,omitempty"`
	FailureReason    *string            `json:"failureReason,omitempty"`
	PaidAt           *time.Time         `json:"paidAt,omitempty"`
	VerifiedAt       *time.Time         `json:"verifiedAt,omitempty"`
	CreatedAt        time.Time          `json:"createdAt"`
}

func toPaymentResponse(p *models.Payment) paymentResponse {
	return paymentResponse{
		ID:               p.ID,
		BookingID:        p.BookingID,
		Reference:        p.Reference,
		Amount:           p.Amount,
		PlatformFee:      p.PlatformFee,
		ArtisanAmount:    p.ArtisanAmount,
		Currency:         p.Currency,
		Status:           p.Status,
		AuthorizationURL: p.AuthorizationURL,
		Channel:          p.Channel,
		FailureReason:    p.FailureReason,
		PaidAt:           p.PaidAt,
		VerifiedAt:       p.VerifiedAt,
		CreatedAt:        p.CreatedAt,
	}
}

// InitializePayment opens a gateway charge for an accepted booking.
func InitializePayment(svc PaymentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var in payments.InitializeInput
		if err := validators.DecodeJSONBody(r, &in); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out, err := svc.Initialize(r.Context(), actor, in)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resp := toPaymentResponse(out.Payment)
		resp.AuthorizationURL = &out.AuthorizationURL
		resp.AccessCode = out.AccessCode
		responses.WriteSuccessStatus(w, http.StatusCreated, resp)
	}
}

// VerifyPayment asks the gateway for the charge outcome and applies it.
func VerifyPayment(svc PaymentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reference := strings.TrimSpace(chi.URLParam(r, "reference"))
		if reference == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "reference required"))
			return
		}
		p, err := svc.Verify(r.Context(), actor, reference)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toPaymentResponse(p))
	}
}

// PaystackWebhook authenticates the raw body against its signature before
// anything is parsed. Any non-2xx makes Paystack retry.
func PaystackWebhook(svc PaymentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		signature := strings.TrimSpace(r.Header.Get(paystack.SignatureHeader))
		if signature == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing webhook signature"))
			return
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody+1))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read webhook body"))
			return
		}
		if len(body) > maxWebhookBody {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "webhook body too large"))
			return
		}
		if err := svc.HandleWebhook(r.Context(), signature, body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}
