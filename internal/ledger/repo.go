package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Davidayo16/ArtisanPro-server/pkg/db/models"
	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
)

// Repository manages persistence for transaction audit entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, txn *models.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	FindByReference(ctx context.Context, reference string) (*models.Transaction, error)
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]models.Transaction, error)
	ListPending(ctx context.Context, txType enums.TransactionType, limit int) ([]models.Transaction, error)
	MarkProcessed(ctx context.Context, id uuid.UUID, outcome Outcome) (bool, error)
	MarkInitiated(ctx context.Context, id uuid.UUID, gatewayReference string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&txn).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) FindByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	var txn models.Transaction
	if err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&txn).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]models.Transaction, error) {
	var txns []models.Transaction
	if err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *repository) ListPending(ctx context.Context, txType enums.TransactionType, limit int) ([]models.Transaction, error) {
	var txns []models.Transaction
	query := r.db.WithContext(ctx).
		Where("type = ? AND status = ?", txType, enums.TransactionStatusPending).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

// MarkProcessed moves a pending entry to its final status. It reports false
// when the entry was no longer pending.
func (r *repository) MarkProcessed(ctx context.Context, id uuid.UUID, outcome Outcome) (bool, error) {
	updates := map[string]any{
		"status":       outcome.Status,
		"processed_at": outcome.ProcessedAt,
	}
	if outcome.GatewayReference != "" {
		updates["gateway_reference"] = outcome.GatewayReference
	}
	if outcome.FailureReason != "" {
		updates["failure_reason"] = outcome.FailureReason
	}
	res := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, enums.TransactionStatusPending).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkInitiated stores the gateway reference of an in-flight transfer on a
// pending entry, leaving its status alone.
func (r *repository) MarkInitiated(ctx context.Context, id uuid.UUID, gatewayReference string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, enums.TransactionStatusPending).
		Update("gateway_reference", gatewayReference)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Outcome is the fulfilment result of a pending transaction.
type Outcome struct {
	Status           enums.TransactionStatus
	GatewayReference string
	FailureReason    string
	ProcessedAt      time.Time
}
