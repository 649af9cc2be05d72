package repository

import (
	"context"

	"tokensale-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderRepository defines data-access operations for orders.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByAddress(ctx context.Context, address string) (*models.Order, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	FindByCurrency(ctx context.Context, currency string) ([]models.Order, error)
	FindAll(ctx context.Context, page, limit int) ([]models.Order, int64, error)
	MarkPaid(ctx context.Context, orderID, paymentID uuid.UUID) error
	CountActive(ctx context.Context) (int64, error)
}

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository.
func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	if err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// FindByAddress returns the most recent order owning the deposit address.
func (r *GormOrderRepository) FindByAddress(ctx context.Context, address string) (*models.Order, error) {
	var o models.Order
	if err := r.db.WithContext(ctx).
		Where("address = ?", address).
		Order("created_at DESC").
		First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormOrderRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormOrderRepository) FindByCurrency(ctx context.Context, currency string) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.WithContext(ctx).
		Where("currency = ?", currency).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormOrderRepository) FindAll(ctx context.Context, page, limit int) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Order{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// MarkPaid flips an unpaid order to paid and links the payment. Marking an
// already-paid order affects no rows and reports ErrRecordNotFound.
func (r *GormOrderRepository) MarkPaid(ctx context.Context, orderID, paymentID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND paid = ?", orderID, false).
		Updates(map[string]interface{}{
			"paid":       true,
			"payment_id": paymentID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountActive counts orders that have not expired.
func (r *GormOrderRepository) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("expired = ?", false).
		Count(&n).Error
	return n, err
}
