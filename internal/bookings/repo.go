package bookings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Davidayo16/ArtisanPro-server/pkg/db/models"
	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
)

// Repository persists bookings. Writes are compare-and-commit on the status
// read earlier in the same transaction.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, b *models.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	Transition(ctx context.Context, next *models.Booking, from enums.BookingStatus, columns ...string) (bool, error)
	ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]models.Booking, error)
	ListForUser(ctx context.Context, userID uuid.UUID, status *enums.BookingStatus, limit int) ([]models.Booking, error)
	ListUpcoming(ctx context.Context, from, to time.Time, limit int) ([]models.Booking, error)
	ListAwaitingPayment(ctx context.Context, acceptedBefore time.Time, limit int) ([]models.Booking, error)
	// MarkReminded stamps column with at unless it is already set.
	MarkReminded(ctx context.Context, id uuid.UUID, column string, at time.Time) (bool, error)
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

func (r *repository) Create(ctx context.Context, b *models.Booking) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var b models.Booking
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

// Transition writes status plus the named columns of next, provided the row
// still has status from. It reports whether the row was updated.
func (r *repository) Transition(ctx context.Context, next *models.Booking, from enums.BookingStatus, columns ...string) (bool, error) {
	cols := append([]string{"status", "updated_at"}, columns...)
	res := r.db.WithContext(ctx).
		Model(next).
		Where("status = ?", from).
		Select(cols).
		Updates(next)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]models.Booking, error) {
	var out []models.Booking
	query := r.db.WithContext(ctx).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", enums.BookingStatusPending, now).
		Order("expires_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) ListForUser(ctx context.Context, userID uuid.UUID, status *enums.BookingStatus, limit int) ([]models.Booking, error) {
	var out []models.Booking
	query := r.db.WithContext(ctx).
		Where("customer_id = ? OR artisan_id = ?", userID, userID).
		Order("created_at DESC")
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) ListUpcoming(ctx context.Context, from, to time.Time, limit int) ([]models.Booking, error) {
	var out []models.Booking
	query := r.db.WithContext(ctx).
		Where("status = ? AND reminded_at IS NULL", enums.BookingStatusConfirmed).
		Where("scheduled_for >= ? AND scheduled_for < ?", from, to).
		Order("scheduled_for ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) ListAwaitingPayment(ctx context.Context, acceptedBefore time.Time, limit int) ([]models.Booking, error) {
	var out []models.Booking
	query := r.db.WithContext(ctx).
		Where("status = ? AND payment_status = ?", enums.BookingStatusAccepted, enums.PaymentStatusUnpaid).
		Where("payment_reminded_at IS NULL AND accepted_at IS NOT NULL AND accepted_at <= ?", acceptedBefore).
		Order("accepted_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) MarkReminded(ctx context.Context, id uuid.UUID, column string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND "+column+" IS NULL", id).
		Update(column, at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
