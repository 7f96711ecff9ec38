package payments

import (
	"context"
	"errors"
	"fmt"
	"io"
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

const payoutReason = "ArtisanPro booking payout"

type payoutLedger interface {
	ListPendingPayouts(ctx context.Context, limit int) ([]models.Transaction, error)
	MarkProcessed(ctx context.Context, tx *gorm.DB, id uuid.UUID, outcome ledger.Outcome) (bool, error)
	MarkInitiated(ctx context.Context, id uuid.UUID, gatewayReference string) error
	FindByReference(ctx context.Context, reference string) (*models.Transaction, error)
}

type recipientLookup interface {
	FindArtisan(ctx context.Context, userID uuid.UUID) (*models.ArtisanProfile, error)
}

type PayoutParams struct {
	Ledger         payoutLedger
	Recipients     recipientLookup
	Gateway        Gateway
	TxRunner       txRunner
	Outbox         outboxEmitter
	Logger         *logger.Logger
	GatewayTimeout time.Duration
	Now            func() time.Time
}

// Payouts moves released escrow money to artisans. The ledger reference is
// sent as the transfer reference, so a retried payout cannot pay twice.
type Payouts struct {
	ledger     payoutLedger
	recipients recipientLookup
	gateway    Gateway
	tx         txRunner
	outbox     outboxEmitter
	logg       *logger.Logger
	timeout    time.Duration
	now        func() time.Time
}

func NewPayouts(params PayoutParams) (*Payouts, error) {
	switch {
	case params.Ledger == nil:
		return nil, fmt.Errorf("ledger required")
	case params.Recipients == nil:
		return nil, fmt.Errorf("recipient lookup required")
	case params.Gateway == nil:
		return nil, fmt.Errorf("payment gateway required")
	case params.TxRunner == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	}
	timeout := params.GatewayTimeout
	if timeout <= 0 {
		timeout = DefaultGatewayTimeout
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.New(logger.Options{ServiceName: "payouts", Output: io.Discard})
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Payouts{
		ledger:     params.Ledger,
		recipients: params.Recipients,
		gateway:    params.Gateway,
		tx:         params.TxRunner,
		outbox:     params.Outbox,
		logg:       logg,
		timeout:    timeout,
		now:        now,
	}, nil
}

func (p *Payouts) ListPending(ctx context.Context, limit int) ([]models.Transaction, error) {
	return p.ledger.ListPendingPayouts(ctx, limit)
}

// Process transfers one pending payout. It reports whether the transaction
// reached a final status; a transfer still in flight stays pending. A payout
// that was already sent is verified by reference instead of sent again.
func (p *Payouts) Process(ctx context.Context, txn models.Transaction) (bool, error) {
	if txn.Type != enums.TransactionTypePayout || txn.Status != enums.TransactionStatusPending {
		return false, nil
	}
	logCtx := p.logg.WithFields(p.logg.WithBookingID(ctx, txn.BookingID.String()), map[string]any{
		"transaction_id": txn.ID.String(),
		"reference":      txn.Reference,
	})

	if txn.GatewayReference != nil {
		callCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()
		result, err := p.gateway.VerifyTransfer(callCtx, txn.Reference)
		if err != nil {
			p.logg.Warn(p.logg.WithField(logCtx, "error", err.Error()), "payout verification failed, leaving pending")
			return false, pkgerrors.Wrap(pkgerrors.CodeExternalService, err, "verify payout transfer")
		}
		if result.Status == enums.TransactionStatusPending {
			p.logg.Info(logCtx, "payout transfer still in flight")
			return false, nil
		}
		return p.finalize(ctx, logCtx, txn, *result)
	}

	recipient, err := p.recipient(ctx, txn.UserID)
	if err != nil {
		return false, err
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	result, err := p.gateway.Transfer(callCtx, TransferRequest{
		Reference: txn.Reference,
		Recipient: recipient,
		Amount:    txn.Amount,
		Currency:  txn.Currency,
		Reason:    payoutReason,
	})
	if err != nil {
		p.logg.Warn(p.logg.WithField(logCtx, "error", err.Error()), "payout transfer failed, leaving pending")
		return false, pkgerrors.Wrap(pkgerrors.CodeExternalService, err, "transfer payout")
	}
	if result.Status == enums.TransactionStatusPending {
		gatewayRef := result.GatewayReference
		if gatewayRef == "" {
			gatewayRef = txn.Reference
		}
		if err := p.ledger.MarkInitiated(ctx, txn.ID, gatewayRef); err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payout initiated")
		}
		p.logg.Info(logCtx, "payout transfer in flight")
		return false, nil
	}
	return p.finalize(ctx, logCtx, txn, *result)
}

// Settle applies a transfer webhook to the payout it references. It reports
// whether the payout moved to a final status.
func (p *Payouts) Settle(ctx context.Context, update TransferUpdate) (bool, error) {
	if update.Result.Status == enums.TransactionStatusPending {
		return false, nil
	}
	txn, err := p.ledger.FindByReference(ctx, update.Reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, pkgerrors.New(pkgerrors.CodeNotFound, "payout not found")
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout")
	}
	if txn.Type != enums.TransactionTypePayout || txn.Status != enums.TransactionStatusPending {
		return false, nil
	}
	logCtx := p.logg.WithFields(p.logg.WithBookingID(ctx, txn.BookingID.String()), map[string]any{
		"transaction_id": txn.ID.String(),
		"reference":      txn.Reference,
	})
	return p.finalize(ctx, logCtx, *txn, update.Result)
}

func (p *Payouts) finalize(ctx, logCtx context.Context, txn models.Transaction, result TransferResult) (bool, error) {
	gatewayRef := result.GatewayReference
	if gatewayRef == "" && txn.GatewayReference != nil {
		gatewayRef = *txn.GatewayReference
	}
	now := p.now().UTC()
	var processed bool
	err := p.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		processed, err = p.ledger.MarkProcessed(ctx, tx, txn.ID, ledger.Outcome{
			Status:           result.Status,
			GatewayReference: gatewayRef,
			FailureReason:    result.FailureReason,
			ProcessedAt:      now,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payout processed")
		}
		if !processed {
			return nil
		}
		return p.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPayoutProcessed,
			AggregateType: enums.AggregateTransaction,
			AggregateID:   txn.ID,
			Actor:         outbox.SystemActor(),
			Data: payloads.PayoutEvent{
				TransactionID: txn.ID,
				BookingID:     txn.BookingID,
				ArtisanID:     txn.UserID,
				Reference:     txn.Reference,
				Amount:        txn.Amount,
				Status:        result.Status,
				FailureReason: result.FailureReason,
			},
			OccurredAt: now,
		})
	})
	if err != nil {
		return false, err
	}
	if processed {
		p.logg.Info(p.logg.WithField(logCtx, "status", string(result.Status)), "payout processed")
	}
	return processed, nil
}

func (p *Payouts) recipient(ctx context.Context, artisanID uuid.UUID) (string, error) {
	profile, err := p.recipients.FindArtisan(ctx, artisanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", pkgerrors.New(pkgerrors.CodeNotFound, "artisan profile not found")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load artisan profile")
	}
	if profile.PayoutRecipientCode == nil || strings.TrimSpace(*profile.PayoutRecipientCode) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "artisan has no payout recipient").
			WithDetails(map[string]any{"artisanId": artisanID})
	}
	return strings.TrimSpace(*profile.PayoutRecipientCode), nil
}
