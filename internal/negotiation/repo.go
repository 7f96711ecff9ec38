package negotiation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Davidayo16/ArtisanPro-server/pkg/db/models"
	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
)

// Repository persists negotiations and their rounds.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, n *models.Negotiation) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Negotiation, error)
	FindByBooking(ctx context.Context, bookingID uuid.UUID) (*models.Negotiation, error)
	InsertRound(ctx context.Context, round *models.NegotiationRound) error
	AdvanceRound(ctx context.Context, id uuid.UUID, from int) (bool, error)
	Close(ctx context.Context, id uuid.UUID, status enums.NegotiationStatus, agreedAmount *int64, at time.Time) (bool, error)
	SetRoundResponse(ctx context.Context, roundID uuid.UUID, response enums.RoundResponse) error
	ListExpired(ctx context.Context, now time.Time, limit int) ([]models.Negotiation, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, n *models.Negotiation) error {
	return r.db.WithContext(ctx).Omit("Rounds").Create(n).Error
}

func (r *repository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Rounds", func(db *gorm.DB) *gorm.DB {
		return db.Order("round_number ASC")
	})
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Negotiation, error) {
	var n models.Negotiation
	if err := r.preloaded(ctx).Where("id = ?", id).First(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *repository) FindByBooking(ctx context.Context, bookingID uuid.UUID) (*models.Negotiation, error) {
	var n models.Negotiation
	if err := r.preloaded(ctx).Where("booking_id = ?", bookingID).First(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *repository) InsertRound(ctx context.Context, round *models.NegotiationRound) error {
	return r.db.WithContext(ctx).Create(round).Error
}

// AdvanceRound bumps current_round only if it still equals from and the
// negotiation is active.
func (r *repository) AdvanceRound(ctx context.Context, id uuid.UUID, from int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Negotiation{}).
		Where("id = ? AND current_round = ? AND status = ?", id, from, enums.NegotiationStatusActive).
		Update("current_round", from+1)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Close moves an active negotiation to a terminal status.
func (r *repository) Close(ctx context.Context, id uuid.UUID, status enums.NegotiationStatus, agreedAmount *int64, at time.Time) (bool, error) {
	updates := map[string]any{
		"status":    status,
		"closed_at": at,
	}
	if agreedAmount != nil {
		updates["agreed_amount"] = *agreedAmount
	}
	res := r.db.WithContext(ctx).
		Model(&models.Negotiation{}).
		Where("id = ? AND status = ?", id, enums.NegotiationStatusActive).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) SetRoundResponse(ctx context.Context, roundID uuid.UUID, response enums.RoundResponse) error {
	return r.db.WithContext(ctx).
		Model(&models.NegotiationRound{}).
		Where("id = ?", roundID).
		Update("response", response).Error
}

func (r *repository) ListExpired(ctx context.Context, now time.Time, limit int) ([]models.Negotiation, error) {
	var out []models.Negotiation
	query := r.db.WithContext(ctx).
		Where("status = ? AND expires_at <= ?", enums.NegotiationStatusActive, now).
		Order("expires_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
