package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Davidayo16/ArtisanPro-server/pkg/db/models"
	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
)

// Service records append-only money movements and their fulfilment.
type Service interface {
	Record(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.Transaction, error)
	ListPendingPayouts(ctx context.Context, limit int) ([]models.Transaction, error)
	MarkProcessed(ctx context.Context, tx *gorm.DB, id uuid.UUID, outcome Outcome) (bool, error)
	MarkInitiated(ctx context.Context, id uuid.UUID, gatewayReference string) error
	FindByReference(ctx context.Context, reference string) (*models.Transaction, error)
}

type service struct {
	repo     Repository
	currency string
}

// RecordInput captures the immutable data of a transaction entry.
type RecordInput struct {
	Type        enums.TransactionType
	BookingID   uuid.UUID
	EscrowID    *uuid.UUID
	UserID      uuid.UUID
	Amount      int64
	Reference   string
	Description string
	Metadata    any
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository, currency string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if strings.TrimSpace(currency) == "" {
		currency = "NGN"
	}
	return &service{repo: repo, currency: currency}, nil
}

func (s *service) Record(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.Transaction, error) {
	if input.BookingID == uuid.Nil {
		return nil, fmt.Errorf("booking id is required")
	}
	if input.UserID == uuid.Nil {
		return nil, fmt.Errorf("user id is required")
	}
	if !input.Type.IsValid() {
		return nil, fmt.Errorf("invalid transaction type %q", input.Type)
	}
	if input.Amount < 0 {
		return nil, fmt.Errorf("transaction amount must not be negative")
	}
	if strings.TrimSpace(input.Reference) == "" {
		return nil, fmt.Errorf("transaction reference is required")
	}

	var metadata json.RawMessage
	if input.Metadata != nil {
		raw, err := json.Marshal(input.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encode transaction metadata: %w", err)
		}
		metadata = raw
	}

	txn := &models.Transaction{
		Reference:   input.Reference,
		Type:        input.Type,
		Status:      enums.TransactionStatusPending,
		BookingID:   input.BookingID,
		EscrowID:    input.EscrowID,
		UserID:      input.UserID,
		Amount:      input.Amount,
		Currency:    s.currency,
		Description: input.Description,
		Metadata:    metadata,
	}
	if err := s.repo.WithTx(tx).Create(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *service) ListPendingPayouts(ctx context.Context, limit int) ([]models.Transaction, error) {
	return s.repo.ListPending(ctx, enums.TransactionTypePayout, limit)
}

func (s *service) MarkProcessed(ctx context.Context, tx *gorm.DB, id uuid.UUID, outcome Outcome) (bool, error) {
	if outcome.Status != enums.TransactionStatusSuccessful && outcome.Status != enums.TransactionStatusFailed {
		return false, fmt.Errorf("transaction outcome must be final, got %q", outcome.Status)
	}
	if outcome.ProcessedAt.IsZero() {
		outcome.ProcessedAt = time.Now().UTC()
	}
	return s.repo.WithTx(tx).MarkProcessed(ctx, id, outcome)
}

func (s *service) MarkInitiated(ctx context.Context, id uuid.UUID, gatewayReference string) error {
	if strings.TrimSpace(gatewayReference) == "" {
		return fmt.Errorf("gateway reference is required")
	}
	_, err := s.repo.MarkInitiated(ctx, id, gatewayReference)
	return err
}

func (s *service) FindByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	return s.repo.FindByReference(ctx, strings.TrimSpace(reference))
}

// PayoutReference builds the reference of the payout owed for an escrow.
func PayoutReference(now time.Time, escrowID uuid.UUID) string {
	return fmt.Sprintf("PAYOUT-%d-%s", now.UnixMilli(), escrowID)
}

// RefundReference builds the reference of the refund owed for an escrow.
func RefundReference(now time.Time, escrowID uuid.UUID) string {
	return fmt.Sprintf("REFUND-%d-%s", now.UnixMilli(), escrowID)
}
