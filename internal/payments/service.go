package payments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Davidayo16/ArtisanPro-server/internal/bookings"
	"github.com/Davidayo16/ArtisanPro-server/internal/ledger"
	"github.com/Davidayo16/ArtisanPro-server/pkg/db"
	"github.com/Davidayo16/ArtisanPro-server/pkg/db/models"
	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
	pkgerrors "github.com/Davidayo16/ArtisanPro-server/pkg/errors"
	"github.com/Davidayo16/ArtisanPro-server/pkg/logger"
	"github.com/Davidayo16/ArtisanPro-server/pkg/outbox"
	"github.com/Davidayo16/ArtisanPro-server/pkg/outbox/payloads"
	"github.com/Davidayo16/ArtisanPro-server/pkg/types"
)

const (
	DefaultGatewayTimeout = 10 * time.Second
	defaultFailureReason  = "payment failed"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type bookingSettler interface {
	Find(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Booking, error)
	ConfirmPayment(ctx context.Context, tx *gorm.DB, payment *models.Payment) (*bookings.Change, *models.Escrow, error)
	Committed(ctx context.Context, changes ...*bookings.Change)
}

type refundRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, input ledger.RecordInput) (*models.Transaction, error)
}

type transferSettler interface {
	Settle(ctx context.Context, update TransferUpdate) (bool, error)
}

type ServiceParams struct {
	Repo           Repository
	TxRunner       txRunner
	Bookings       bookingSettler
	Ledger         refundRecorder
	Gateway        Gateway
	Guard          *WebhookGuard
	// Transfers receives transfer webhooks; they are ignored when nil.
	Transfers      transferSettler
	Outbox         outboxEmitter
	Logger         *logger.Logger
	CallbackURL    string
	GatewayTimeout time.Duration
	Now            func() time.Time
}

// Service charges customers through the gateway and reconciles the result
// into the booking state machine. Verify, the webhook and the re-verify job
// all end in Reconcile.
type Service struct {
	repo        Repository
	tx          txRunner
	bookings    bookingSettler
	ledger      refundRecorder
	gateway     Gateway
	guard       *WebhookGuard
	transfers   transferSettler
	outbox      outboxEmitter
	logg        *logger.Logger
	callbackURL string
	timeout     time.Duration
	validate    *validator.Validate
	now         func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("payments repository required")
	case params.TxRunner == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Bookings == nil:
		return nil, fmt.Errorf("booking service required")
	case params.Ledger == nil:
		return nil, fmt.Errorf("ledger required")
	case params.Gateway == nil:
		return nil, fmt.Errorf("payment gateway required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	}
	timeout := params.GatewayTimeout
	if timeout <= 0 {
		timeout = DefaultGatewayTimeout
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.New(logger.Options{ServiceName: "payments", Output: io.Discard})
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:        params.Repo,
		tx:          params.TxRunner,
		bookings:    params.Bookings,
		ledger:      params.Ledger,
		gateway:     params.Gateway,
		guard:       params.Guard,
		transfers:   params.Transfers,
		outbox:      params.Outbox,
		logg:        logg,
		callbackURL: params.CallbackURL,
		timeout:     timeout,
		validate:    validator.New(),
		now:         now,
	}, nil
}

type InitializeInput struct {
	BookingID uuid.UUID `json:"bookingId" validate:"required"`
	Email     string    `json:"email" validate:"required,email"`
}

type Initialized struct {
	Payment          *models.Payment
	AuthorizationURL string
	AccessCode       string
}

// Initialize opens a charge for an accepted booking. The pending row is
// written before the gateway is called so a webhook can always find it.
func (s *Service) Initialize(ctx context.Context, actor types.Actor, in InitializeInput) (*Initialized, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment request")
	}
	b, err := s.bookings.Find(ctx, nil, in.BookingID)
	if err != nil {
		return nil, err
	}
	if actor.Role != enums.ActorRoleCustomer || b.CustomerID != actor.ID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the booking customer can pay")
	}
	if b.Status != enums.BookingStatusAccepted || b.PaymentStatus != enums.PaymentStatusUnpaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "booking is not awaiting payment").
			WithDetails(map[string]any{"status": b.Status, "paymentStatus": b.PaymentStatus})
	}
	if b.AgreedPrice == nil || b.PlatformFee == nil || b.TotalAmount == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConsistency, "accepted booking has no price breakdown").
			WithDetails(map[string]any{"bookingId": b.ID})
	}

	now := s.now().UTC()
	p := &models.Payment{
		BookingID:     b.ID,
		CustomerID:    b.CustomerID,
		Reference:     NewReference(now),
		Amount:        *b.TotalAmount,
		PlatformFee:   *b.PlatformFee,
		ArtisanAmount: *b.AgreedPrice,
		Currency:      b.Currency,
		Status:        enums.ChargeStatusPending,
		PayerEmail:    strings.TrimSpace(in.Email),
		CreatedAt:     now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "payment reference collision")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
	}

	logCtx := s.logg.WithFields(s.logg.WithBookingID(ctx, b.ID.String()), map[string]any{"reference": p.Reference})
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	session, err := s.gateway.InitializeCharge(callCtx, ChargeRequest{
		Reference:   p.Reference,
		Email:       p.PayerEmail,
		Amount:      p.Amount,
		Currency:    p.Currency,
		CallbackURL: s.callbackURL,
		Metadata: map[string]any{
			"bookingId":     b.ID.String(),
			"bookingNumber": b.BookingNumber,
			"paymentId":     p.ID.String(),
		},
	})
	if err != nil {
		s.logg.Error(logCtx, "payment gateway initialize failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeExternalService, err, "initialize payment").
			WithDetails(map[string]any{"reference": p.Reference})
	}
	if err := s.repo.SetAuthorization(ctx, p.ID, session.AuthorizationURL); err != nil {
		s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "store authorization url failed")
	}
	p.AuthorizationURL = &session.AuthorizationURL
	s.logg.Info(logCtx, "payment initialized")
	return &Initialized{Payment: p, AuthorizationURL: session.AuthorizationURL, AccessCode: session.AccessCode}, nil
}

// Verify asks the gateway about a charge on behalf of its payer and reconciles it.
func (s *Service) Verify(ctx context.Context, actor types.Actor, reference string) (*models.Payment, error) {
	p, err := s.find(ctx, nil, reference)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && p.CustomerID != actor.ID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "payment belongs to another customer")
	}
	return s.verify(ctx, p)
}

// Reverify is Verify for the scheduler.
func (s *Service) Reverify(ctx context.Context, reference string) (*models.Payment, error) {
	p, err := s.find(ctx, nil, reference)
	if err != nil {
		return nil, err
	}
	return s.verify(ctx, p)
}

// ListStalePending returns pending attempts older than age.
func (s *Service) ListStalePending(ctx context.Context, age time.Duration, limit int) ([]models.Payment, error) {
	return s.repo.ListPendingBefore(ctx, s.now().UTC().Add(-age), limit)
}

func (s *Service) verify(ctx context.Context, p *models.Payment) (*models.Payment, error) {
	if p.Status.IsFinal() {
		return p, nil
	}
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	outcome, err := s.gateway.VerifyCharge(callCtx, p.Reference)
	if err != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"reference": p.Reference, "error": err.Error()})
		s.logg.Warn(logCtx, "payment verification failed, leaving payment pending")
		return nil, pkgerrors.Wrap(pkgerrors.CodeExternalService, err, "verify payment").
			WithDetails(map[string]any{"reference": p.Reference})
	}
	outcome.Reference = p.Reference
	return s.Reconcile(ctx, *outcome)
}

// HandleWebhook authenticates and applies a gateway callback. Charge events
// go through Reconcile; transfer events settle the referenced payout.
func (s *Service) HandleWebhook(ctx context.Context, signature string, body []byte) error {
	event, err := s.gateway.ParseWebhook(signature, body)
	if err != nil {
		if errors.Is(err, ErrInvalidSignature) {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook signature")
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed webhook")
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{"webhook_event": event.Type, "event_id": event.ID})

	var apply func(ctx context.Context) error
	switch {
	case event.Outcome != nil:
		apply = func(ctx context.Context) error {
			_, err := s.Reconcile(ctx, *event.Outcome)
			return err
		}
	case event.Transfer != nil && s.transfers != nil:
		apply = func(ctx context.Context) error {
			_, err := s.transfers.Settle(ctx, *event.Transfer)
			return err
		}
	default:
		s.logg.Info(logCtx, "webhook ignored")
		return nil
	}

	if s.guard != nil {
		seen, err := s.guard.CheckAndMark(ctx, event.ID)
		if err != nil {
			s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "webhook idempotency check failed")
		} else if seen {
			s.logg.Info(logCtx, "duplicate webhook skipped")
			return nil
		}
	}

	if err := apply(ctx); err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			s.logg.Warn(logCtx, "webhook for unknown reference")
			return nil
		}
		if s.guard != nil {
			if relErr := s.guard.Release(ctx, event.ID); relErr != nil {
				s.logg.Warn(s.logg.WithField(logCtx, "error", relErr.Error()), "release webhook idempotency key failed")
			}
		}
		return err
	}
	return nil
}

// Reconcile applies a gateway outcome to its payment exactly once. A payment
// that is already successful or failed is returned unchanged. Success
// confirms the booking and creates escrow in the same transaction; failure
// leaves the booking untouched. Money that arrives for a booking no longer
// awaiting payment (cancelled, expired or paid by another charge) is kept as
// a successful payment and owed back through a refund transaction.
func (s *Service) Reconcile(ctx context.Context, outcome Outcome) (*models.Payment, error) {
	if !outcome.Status.IsFinal() {
		return s.find(ctx, nil, outcome.Reference)
	}

	var (
		result   *models.Payment
		change   *bookings.Change
		refunded *models.Booking
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		p, err := s.find(ctx, tx, outcome.Reference)
		if err != nil {
			return err
		}
		result = p
		if p.Status.IsFinal() {
			return nil
		}

		now := s.now().UTC()
		updates := map[string]any{"verified_at": now}
		if outcome.Channel != "" {
			updates["channel"] = outcome.Channel
		}
		if len(outcome.Raw) > 0 {
			updates["gateway_response"] = outcome.Raw
		}

		if outcome.Status == enums.ChargeStatusFailed {
			reason := strings.TrimSpace(outcome.FailureReason)
			if reason == "" {
				reason = defaultFailureReason
			}
			updates["failure_reason"] = reason
			settled, err := repo.Settle(ctx, p.ID, enums.ChargeStatusFailed, updates)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payment failed")
			}
			if !settled {
				result, err = s.find(ctx, tx, p.Reference)
				return err
			}
			p.Status = enums.ChargeStatusFailed
			p.FailureReason = &reason
			p.VerifiedAt = &now
			b, err := s.bookings.Find(ctx, tx, p.BookingID)
			if err != nil {
				return err
			}
			return s.emit(ctx, tx, enums.EventPaymentFailed, p, b, nil)
		}

		if outcome.Amount != 0 && outcome.Amount != p.Amount {
			return pkgerrors.New(pkgerrors.CodeConsistency, "gateway amount does not match payment").
				WithDetails(map[string]any{"reference": p.Reference, "expected": p.Amount, "received": outcome.Amount})
		}
		paidAt := now
		if outcome.PaidAt != nil && !outcome.PaidAt.IsZero() {
			paidAt = outcome.PaidAt.UTC()
		}
		updates["paid_at"] = paidAt
		settled, err := repo.Settle(ctx, p.ID, enums.ChargeStatusSuccessful, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payment successful")
		}
		if !settled {
			result, err = s.find(ctx, tx, p.Reference)
			return err
		}
		p.Status = enums.ChargeStatusSuccessful
		p.PaidAt = &paidAt
		p.VerifiedAt = &now

		b, err := s.bookings.Find(ctx, tx, p.BookingID)
		if err != nil {
			return err
		}
		if b.Status != enums.BookingStatusAccepted || b.PaymentStatus != enums.PaymentStatusUnpaid {
			refunded = b
			return s.refund(ctx, tx, p, b, now)
		}
		c, e, err := s.bookings.ConfirmPayment(ctx, tx, p)
		if err != nil {
			return err
		}
		change = c
		if c != nil {
			b = c.Booking
		}
		return s.emit(ctx, tx, enums.EventPaymentConfirmed, p, b, &e.ID)
	})
	logCtx := s.logg.WithFields(ctx, map[string]any{"reference": outcome.Reference, "outcome": string(outcome.Status)})
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) || pkgerrors.IsCode(err, pkgerrors.CodeConsistency) {
			s.logg.Error(logCtx, "payment could not be applied to booking, left pending", err)
		}
		return nil, err
	}
	s.bookings.Committed(ctx, change)
	if refunded != nil {
		s.logg.Warn(s.logg.WithFields(s.logg.WithBookingID(logCtx, refunded.ID.String()), map[string]any{
			"booking_status": string(refunded.Status),
			"payment_status": string(refunded.PaymentStatus),
		}), "charge for booking not awaiting payment, refund recorded")
	}
	s.logg.Info(logCtx, "payment reconciled")
	return result, nil
}

// refund owes a successful charge back to the customer without touching the
// booking. The ledger entry stays pending for finance to action.
func (s *Service) refund(ctx context.Context, tx *gorm.DB, p *models.Payment, b *models.Booking, now time.Time) error {
	_, err := s.ledger.Record(ctx, tx, ledger.RecordInput{
		Type:        enums.TransactionTypeRefund,
		BookingID:   p.BookingID,
		UserID:      p.CustomerID,
		Amount:      p.Amount,
		Reference:   ledger.RefundReference(now, p.ID),
		Description: fmt.Sprintf("Refund of payment %s for booking %s", p.Reference, b.BookingNumber),
		Metadata: map[string]any{
			"paymentReference": p.Reference,
			"bookingStatus":    b.Status,
			"paymentStatus":    b.PaymentStatus,
		},
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record charge refund")
	}
	return s.emit(ctx, tx, enums.EventPaymentRefunded, p, b, nil)
}

func (s *Service) find(ctx context.Context, tx *gorm.DB, reference string) (*models.Payment, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference required")
	}
	p, err := s.repo.WithTx(tx).FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	return p, nil
}

func (s *Service) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, p *models.Payment, b *models.Booking, escrowID *uuid.UUID) error {
	data := payloads.PaymentEvent{
		PaymentID:     p.ID,
		BookingID:     p.BookingID,
		BookingNumber: b.BookingNumber,
		CustomerID:    p.CustomerID,
		ArtisanID:     b.ArtisanID,
		Reference:     p.Reference,
		Amount:        p.Amount,
		Status:        p.Status,
		EscrowID:      escrowID,
	}
	if p.FailureReason != nil {
		data.FailureReason = *p.FailureReason
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregatePayment,
		AggregateID:   p.ID,
		Actor:         outbox.SystemActor(),
		Data:          data,
		OccurredAt:    s.now().UTC(),
	})
}

// NewReference builds a PAY-<unix ms>-<random> gateway reference.
func NewReference(now time.Time) string {
	return fmt.Sprintf("PAY-%d-%s", now.UnixMilli(), strconv.FormatInt(rand.Int64N(1<<40), 36))
}
