package profiles

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Davidayo16/ArtisanPro-server/internal/repo"
	"github.com/Davidayo16/ArtisanPro-server/pkg/db/models"
)

// Repository applies counter updates as single SQL statements so concurrent
// bookings for the same user never lose an increment.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindArtisan(ctx context.Context, userID uuid.UUID) (*models.ArtisanProfile, error)
	FindCustomer(ctx context.Context, userID uuid.UUID) (*models.CustomerProfile, error)
	UpdateArtisan(ctx context.Context, userID uuid.UUID, updates map[string]any) error
	UpdateCustomer(ctx context.Context, userID uuid.UUID, updates map[string]any) error
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

func (r *repository) FindArtisan(ctx context.Context, userID uuid.UUID) (*models.ArtisanProfile, error) {
	var profile models.ArtisanProfile
	if err := r.DB(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *repository) FindCustomer(ctx context.Context, userID uuid.UUID) (*models.CustomerProfile, error) {
	var profile models.CustomerProfile
	if err := r.DB(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *repository) UpdateArtisan(ctx context.Context, userID uuid.UUID, updates map[string]any) error {
	db := r.DB(ctx)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.ArtisanProfile{UserID: userID}).Error; err != nil {
		return err
	}
	return db.Model(&models.ArtisanProfile{}).Where("user_id = ?", userID).Updates(updates).Error
}

func (r *repository) UpdateCustomer(ctx context.Context, userID uuid.UUID, updates map[string]any) error {
	db := r.DB(ctx)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.CustomerProfile{UserID: userID}).Error; err != nil {
		return err
	}
	return db.Model(&models.CustomerProfile{}).Where("user_id = ?", userID).Updates(updates).Error
}
