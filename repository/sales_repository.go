package repository

import (
	"context"

	"tokensale-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SalesRepository serves the sale dashboard reads: the stats row, currency
// prices and referral links.
type SalesRepository interface {
	GetProdStats(ctx context.Context) (*models.Stats, error)
	ListCurrencies(ctx context.Context) ([]models.Currency, error)
	FindReferrers(ctx context.Context, userID uuid.UUID) ([]models.Referral, error)
}

// GormSalesRepository implements SalesRepository using GORM.
type GormSalesRepository struct {
	db *gorm.DB
}

// NewGormSalesRepository creates a new GormSalesRepository.
func NewGormSalesRepository(db *gorm.DB) SalesRepository {
	return &GormSalesRepository{db: db}
}

func (r *GormSalesRepository) GetProdStats(ctx context.Context) (*models.Stats, error) {
	var s models.Stats
	if err := r.db.WithContext(ctx).
		Where("prod = ?", true).
		First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormSalesRepository) ListCurrencies(ctx context.Context) ([]models.Currency, error) {
	var currencies []models.Currency
	if err := r.db.WithContext(ctx).
		Order("slug ASC").
		Find(&currencies).Error; err != nil {
		return nil, err
	}
	return currencies, nil
}

// FindReferrers returns the referral links pointing at the given buyer.
func (r *GormSalesRepository) FindReferrers(ctx context.Context, userID uuid.UUID) ([]models.Referral, error) {
	var refs []models.Referral
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("level ASC").
		Find(&refs).Error; err != nil {
		return nil, err
	}
	return refs, nil
}
