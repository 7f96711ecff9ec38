package escrow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Davidayo16/ArtisanPro-server/internal/ledger"
	"github.com/Davidayo16/ArtisanPro-server/pkg/db/models"
	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
	pkgerrors "github.com/Davidayo16/ArtisanPro-server/pkg/errors"
	"github.com/Davidayo16/ArtisanPro-server/pkg/logger"
	"github.com/Davidayo16/ArtisanPro-server/pkg/outbox"
	"github.com/Davidayo16/ArtisanPro-server/pkg/outbox/payloads"
)

const DefaultAutoReleaseAfter = 48 * time.Hour

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type transactionRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, input ledger.RecordInput) (*models.Transaction, error)
}

type counters interface {
	CreditEarnings(ctx context.Context, tx *gorm.DB, artisanID uuid.UUID, amount int64) error
	AddCustomerSpend(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, amount int64) error
	ReverseCustomerSpend(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, amount int64) error
}

type ServiceParams struct {
	Repo             Repository
	Ledger           transactionRecorder
	Counters         counters
	Outbox           outboxEmitter
	Logger           *logger.Logger
	AutoReleaseAfter time.Duration
	Now              func() time.Time
}

// Service is the escrow settlement engine. Each operation runs inside the
// caller's transaction and touches escrow, counters, ledger and outbox together.
type Service struct {
	repo             Repository
	ledger           transactionRecorder
	counters         counters
	outbox           outboxEmitter
	logg             *logger.Logger
	autoReleaseAfter time.Duration
	now              func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("escrow repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if params.Counters == nil {
		return nil, fmt.Errorf("profile counters required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	after := params.AutoReleaseAfter
	if after <= 0 {
		after = DefaultAutoReleaseAfter
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:             params.Repo,
		ledger:           params.Ledger,
		counters:         params.Counters,
		outbox:           params.Outbox,
		logg:             params.Logger,
		autoReleaseAfter: after,
		now:              now,
	}, nil
}

// Create holds a confirmed payment for its booking. It is idempotent per
// booking: a second call returns the existing escrow and touches no counters.
func (s *Service) Create(ctx context.Context, tx *gorm.DB, payment *models.Payment, artisanID uuid.UUID) (*models.Escrow, bool, error) {
	if payment == nil || payment.BookingID == uuid.Nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "payment required")
	}
	if payment.Status != enums.ChargeStatusSuccessful {
		return nil, false, pkgerrors.New(pkgerrors.CodeStateConflict, "payment not successful")
	}
	repo := s.repo.WithTx(tx)

	paidAt := s.now().UTC()
	if payment.PaidAt != nil {
		paidAt = payment.PaidAt.UTC()
	}
	e := &models.Escrow{
		BookingID:     payment.BookingID,
		PaymentID:     payment.ID,
		CustomerID:    payment.CustomerID,
		ArtisanID:     artisanID,
		Amount:        payment.Amount,
		PlatformFee:   payment.PlatformFee,
		ArtisanAmount: payment.Amount - payment.PlatformFee,
		Currency:      payment.Currency,
		Status:        enums.EscrowStatusHeld,
		AutoReleaseAt: paidAt.Add(s.autoReleaseAfter),
	}
	created, err := repo.CreateIfAbsent(ctx, e)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create escrow")
	}
	if !created {
		existing, err := repo.FindByBooking(ctx, payment.BookingID)
		if err != nil {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load existing escrow")
		}
		return existing, false, nil
	}
	if err := s.counters.AddCustomerSpend(ctx, tx, e.CustomerID, e.Amount); err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer spend")
	}
	return e, true, nil
}

// ReleaseInput describes who or what released the funds.
type ReleaseInput struct {
	Type       enums.ReleaseType
	ReleasedBy *uuid.UUID
	Actor      *outbox.ActorRef
}

// Release pays the artisan. It requires the escrow to still be held at commit
// time; admin releases may also settle a disputed escrow.
func (s *Service) Release(ctx context.Context, tx *gorm.DB, escrowID uuid.UUID, input ReleaseInput) (*models.Escrow, error) {
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid release type")
	}
	from := []enums.EscrowStatus{enums.EscrowStatusHeld}
	if input.Type == enums.ReleaseTypeAdmin {
		from = append(from, enums.EscrowStatusDisputed)
	}
	repo := s.repo.WithTx(tx)
	e, err := s.load(ctx, repo, escrowID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	releaseType := input.Type
	ok, err := repo.Transition(ctx, e.ID, from, enums.EscrowStatusReleased, map[string]any{
		"release_type": releaseType,
		"released_by":  input.ReleasedBy,
		"released_at":  now,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release escrow")
	}
	if !ok {
		return nil, invalidState(ctx, repo, e)
	}
	e.Status = enums.EscrowStatusReleased
	e.ReleaseType = &releaseType
	e.ReleasedBy = input.ReleasedBy
	e.ReleasedAt = &now

	if err := s.counters.CreditEarnings(ctx, tx, e.ArtisanID, e.ArtisanAmount); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit artisan earnings")
	}
	escrowRef := e.ID
	if _, err := s.ledger.Record(ctx, tx, ledger.RecordInput{
		Type:        enums.TransactionTypePayout,
		BookingID:   e.BookingID,
		EscrowID:    &escrowRef,
		UserID:      e.ArtisanID,
		Amount:      e.ArtisanAmount,
		Reference:   ledger.PayoutReference(now, e.ID),
		Description: "Escrow release payout",
		Metadata:    map[string]any{"releaseType": releaseType, "platformFee": e.PlatformFee},
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payout")
	}
	if err := s.emit(ctx, tx, enums.EventEscrowReleased, e, input.Actor, ""); err != nil {
		return nil, err
	}
	return e, nil
}

// Refund returns the held amount to the customer. Admin dispute resolution
// may also refund a disputed escrow.
func (s *Service) Refund(ctx context.Context, tx *gorm.DB, escrowID uuid.UUID, reason string, actor *outbox.ActorRef) (*models.Escrow, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund reason required")
	}
	from := []enums.EscrowStatus{enums.EscrowStatusHeld}
	if actor != nil && actor.Role == enums.ActorRoleAdmin {
		from = append(from, enums.EscrowStatusDisputed)
	}
	repo := s.repo.WithTx(tx)
	e, err := s.load(ctx, repo, escrowID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	ok, err := repo.Transition(ctx, e.ID, from, enums.EscrowStatusRefunded, map[string]any{
		"refunded_at":   now,
		"refund_reason": reason,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refund escrow")
	}
	if !ok {
		return nil, invalidState(ctx, repo, e)
	}
	e.Status = enums.EscrowStatusRefunded
	e.RefundedAt = &now
	e.RefundReason = &reason

	if err := s.counters.ReverseCustomerSpend(ctx, tx, e.CustomerID, e.Amount); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reverse customer spend")
	}
	escrowRef := e.ID
	if _, err := s.ledger.Record(ctx, tx, ledger.RecordInput{
		Type:        enums.TransactionTypeRefund,
		BookingID:   e.BookingID,
		EscrowID:    &escrowRef,
		UserID:      e.CustomerID,
		Amount:      e.Amount,
		Reference:   ledger.RefundReference(now, e.ID),
		Description: "Escrow refund",
		Metadata:    map[string]any{"reason": reason},
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record refund")
	}
	if err := s.emit(ctx, tx, enums.EventEscrowRefunded, e, actor, reason); err != nil {
		return nil, err
	}
	return e, nil
}

// MarkDisputed parks a held escrow so auto-release skips it.
func (s *Service) MarkDisputed(ctx context.Context, tx *gorm.DB, escrowID uuid.UUID) (*models.Escrow, error) {
	repo := s.repo.WithTx(tx)
	e, err := s.load(ctx, repo, escrowID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	ok, err := repo.Transition(ctx, e.ID, []enums.EscrowStatus{enums.EscrowStatusHeld}, enums.EscrowStatusDisputed, map[string]any{
		"disputed_at": now,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dispute escrow")
	}
	if !ok {
		return nil, invalidState(ctx, repo, e)
	}
	e.Status = enums.EscrowStatusDisputed
	e.DisputedAt = &now
	return e, nil
}

func (s *Service) FindByBooking(ctx context.Context, tx *gorm.DB, bookingID uuid.UUID) (*models.Escrow, error) {
	e, err := s.repo.WithTx(tx).FindByBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "escrow not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load escrow")
	}
	return e, nil
}

func (s *Service) FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Escrow, error) {
	return s.load(ctx, s.repo.WithTx(tx), id)
}

// ListDueForRelease returns held escrows whose auto-release deadline passed.
func (s *Service) ListDueForRelease(ctx context.Context, limit int) ([]models.Escrow, error) {
	return s.repo.ListDueForRelease(ctx, s.now().UTC(), limit)
}

func (s *Service) load(ctx context.Context, repo Repository, id uuid.UUID) (*models.Escrow, error) {
	e, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "escrow not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load escrow")
	}
	return e, nil
}

// invalidState reports the status that made a compare-and-set miss.
func invalidState(ctx context.Context, repo Repository, e *models.Escrow) error {
	status := e.Status
	if current, err := repo.FindByID(ctx, e.ID); err == nil {
		status = current.Status
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, "invalid escrow state").
		WithDetails(map[string]any{"escrowId": e.ID, "status": status})
}

func (s *Service) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, e *models.Escrow, actor *outbox.ActorRef, reason string) error {
	if actor == nil {
		actor = outbox.SystemActor()
	}
	err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateEscrow,
		AggregateID:   e.ID,
		Actor:         actor,
		OccurredAt:    s.now().UTC(),
		Data: payloads.EscrowEvent{
			EscrowID:      e.ID,
			BookingID:     e.BookingID,
			CustomerID:    e.CustomerID,
			ArtisanID:     e.ArtisanID,
			Status:        e.Status,
			Amount:        e.Amount,
			PlatformFee:   e.PlatformFee,
			ArtisanAmount: e.ArtisanAmount,
			ReleaseType:   e.ReleaseType,
			Reason:        reason,
		},
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit escrow event")
	}
	return nil
}
