package escrow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Davidayo16/ArtisanPro-server/pkg/db/models"
	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
)

// Repository persists escrows. Status changes are compare-and-set on the
// current status so a concurrent settlement makes the loser affect zero rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateIfAbsent(ctx context.Context, e *models.Escrow) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Escrow, error)
	FindByBooking(ctx context.Context, bookingID uuid.UUID) (*models.Escrow, error)
	Transition(ctx context.Context, id uuid.UUID, from []enums.EscrowStatus, to enums.EscrowStatus, updates map[string]any) (bool, error)
	ListDueForRelease(ctx context.Context, now time.Time, limit int) ([]models.Escrow, error)
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

// CreateIfAbsent inserts e unless the booking already has an escrow. It
// reports whether a row was inserted.
func (r *repository) CreateIfAbsent(ctx context.Context, e *models.Escrow) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "booking_id"}}, DoNothing: true}).
		Create(e)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Escrow, error) {
	var e models.Escrow
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repository) FindByBooking(ctx context.Context, bookingID uuid.UUID) (*models.Escrow, error) {
	var e models.Escrow
	if err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repository) Transition(ctx context.Context, id uuid.UUID, from []enums.EscrowStatus, to enums.EscrowStatus, updates map[string]any) (bool, error) {
	values := map[string]any{"status": to}
	for k, v := range updates {
		values[k] = v
	}
	res := r.db.WithContext(ctx).
		Model(&models.Escrow{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) ListDueForRelease(ctx context.Context, now time.Time, limit int) ([]models.Escrow, error) {
	var out []models.Escrow
	query := r.db.WithContext(ctx).
		Where("status = ? AND auto_release_at <= ?", enums.EscrowStatusHeld, now).
		Order("auto_release_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
