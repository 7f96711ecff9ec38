package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Davidayo16/ArtisanPro-server/internal/repo"
	"github.com/Davidayo16/ArtisanPro-server/pkg/db/models"
	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
)

// Repository persists payment attempts. Settling an attempt is a compare-and-set
// on the pending status, so only one of webhook and verify wins.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, p *models.Payment) error
	FindByReference(ctx context.Context, reference string) (*models.Payment, error)
	SetAuthorization(ctx context.Context, id uuid.UUID, url string) error
	Settle(ctx context.Context, id uuid.UUID, status enums.ChargeStatus, updates map[string]any) (bool, error)
	ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Payment, error)
}

type repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) Create(ctx context.Context, p *models.Payment) error {
	return r.DB(ctx).Create(p).Error
}

func (r *repository) FindByReference(ctx context.Context, reference string) (*models.Payment, error) {
	var p models.Payment
	if err := r.DB(ctx).Where("reference = ?", reference).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) SetAuthorization(ctx context.Context, id uuid.UUID, url string) error {
	return r.DB(ctx).Model(&models.Payment{}).Where("id = ?", id).Update("authorization_url", url).Error
}

func (r *repository) Settle(ctx context.Context, id uuid.UUID, status enums.ChargeStatus, updates map[string]any) (bool, error) {
	values := map[string]any{"status": status}
	for k, v := range updates {
		values[k] = v
	}
	res := r.DB(ctx).Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, enums.ChargeStatusPending).
		Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListPendingBefore returns pending attempts created before cutoff, oldest first.
func (r *repository) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Payment, error) {
	var out []models.Payment
	q := r.DB(ctx).
		Where("status = ? AND created_at < ?", enums.ChargeStatusPending, cutoff).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
