package repository

import (
	"context"

	"tokensale-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentRepository defines data-access operations for payments.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	CreateWithOrder(ctx context.Context, payment *models.Payment, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	FindByIpnID(ctx context.Context, ipnID string) (*models.Payment, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]models.Payment, error)
	FindCreditable(ctx context.Context, minConfirms, limit int) ([]models.Payment, error)
	CountCredited(ctx context.Context) (int64, error)
}

// GormPaymentRepository implements PaymentRepository using GORM.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository.
func NewGormPaymentRepository(db *gorm.DB) PaymentRepository {
	return &GormPaymentRepository{db: db}
}

func (r *GormPaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

// CreateWithOrder persists a payment and its already-settled order in one
// transaction, linking the order to the new payment. Used by the card rail,
// where charge and settlement happen synchronously.
func (r *GormPaymentRepository) CreateWithOrder(ctx context.Context, payment *models.Payment, order *models.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(payment).Error; err != nil {
			return err
		}
		order.Paid = true
		order.PaymentID = &payment.ID
		return tx.Create(order).Error
	})
}

func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var p models.Payment
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormPaymentRepository) FindByIpnID(ctx context.Context, ipnID string) (*models.Payment, error) {
	var p models.Payment
	if err := r.db.WithContext(ctx).
		Where("ipn_id = ?", ipnID).
		First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormPaymentRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]models.Payment, error) {
	var payments []models.Payment
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// FindCreditable returns uncredited payments that have reached the
// confirmation threshold, oldest first. Card payments settle synchronously,
// so fiat currencies bypass the threshold.
func (r *GormPaymentRepository) FindCreditable(ctx context.Context, minConfirms, limit int) ([]models.Payment, error) {
	var payments []models.Payment
	if err := r.db.WithContext(ctx).
		Where("credited = ? AND (confirms >= ? OR currency IN ?)", false, minConfirms, []string{"USD", "EUR"}).
		Order("created_at ASC").
		Limit(limit).
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *GormPaymentRepository) CountCredited(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("credited = ?", true).
		Count(&n).Error
	return n, err
}
