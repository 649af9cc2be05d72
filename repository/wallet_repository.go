package repository

import (
	"context"
	"errors"
	"time"

	"tokensale-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrAlreadyCredited is returned when a credit is attempted for a payment
// that was credited before. Callers treat it as a no-op.
var ErrAlreadyCredited = errors.New("payment already credited")

// WalletRepository defines data-access operations for wallets and their logs.
type WalletRepository interface {
	Create(ctx context.Context, wallet *models.Wallet) error
	FindByUserID(ctx context.Context, userID uuid.UUID, label string) (*models.Wallet, error)
	UpdateAddress(ctx context.Context, walletID uuid.UUID, address string) error
	FindLogByPaymentID(ctx context.Context, paymentID uuid.UUID) (*models.WalletLog, error)
	FindRefLogs(ctx context.Context, userID uuid.UUID) ([]models.WalletRefLog, error)
	Credit(ctx context.Context, paymentID uuid.UUID, tokens float64, bonuses []models.ReferralBonus) error
}

// GormWalletRepository implements WalletRepository using GORM.
type GormWalletRepository struct {
	db *gorm.DB
}

// NewGormWalletRepository creates a new GormWalletRepository.
func NewGormWalletRepository(db *gorm.DB) WalletRepository {
	return &GormWalletRepository{db: db}
}

func (r *GormWalletRepository) Create(ctx context.Context, wallet *models.Wallet) error {
	return r.db.WithContext(ctx).Create(wallet).Error
}

func (r *GormWalletRepository) FindByUserID(ctx context.Context, userID uuid.UUID, label string) (*models.Wallet, error) {
	var w models.Wallet
	if err := r.db.WithContext(ctx).
		Preload("Logs").
		Where("user_id = ? AND label = ?", userID, label).
		First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *GormWalletRepository) UpdateAddress(ctx context.Context, walletID uuid.UUID, address string) error {
	return r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("id = ?", walletID).
		Update("address", address).Error
}

func (r *GormWalletRepository) FindLogByPaymentID(ctx context.Context, paymentID uuid.UUID) (*models.WalletLog, error) {
	var log models.WalletLog
	if err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		First(&log).Error; err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *GormWalletRepository) FindRefLogs(ctx context.Context, userID uuid.UUID) ([]models.WalletRefLog, error) {
	var w models.Wallet
	if err := r.db.WithContext(ctx).
		Preload("RefLogs").
		Where("user_id = ? AND label = ?", userID, models.WalletLabelToken).
		First(&w).Error; err != nil {
		return nil, err
	}
	return w.RefLogs, nil
}

// Credit applies a confirmed payment to the owner's wallet in one
// transaction: append a wallet log, bump the balance, mark the payment
// credited and append any referral bonuses. The unique index on
// wallet_logs.payment_id is the backstop against double crediting; the
// locked re-read of the payment row is an optimization on top of it.
func (r *GormWalletRepository) Credit(ctx context.Context, paymentID uuid.UUID, tokens float64, bonuses []models.ReferralBonus) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Payment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&p, "id = ?", paymentID).Error; err != nil {
			return err
		}
		if p.Credited {
			return ErrAlreadyCredited
		}

		var w models.Wallet
		if err := tx.Where("user_id = ? AND label = ?", p.UserID, models.WalletLabelToken).
			First(&w).Error; err != nil {
			return err
		}

		now := time.Now()
		log := models.WalletLog{
			WalletID:  w.ID,
			PaymentID: p.ID,
			Addition:  tokens,
			Timestamp: now,
		}
		if err := tx.Create(&log).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyCredited
			}
			return err
		}

		if err := tx.Model(&models.Wallet{}).
			Where("id = ?", w.ID).
			Update("balance", gorm.Expr("balance + ?", tokens)).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Payment{}).
			Where("id = ?", p.ID).
			Update("credited", true).Error; err != nil {
			return err
		}

		for _, b := range bonuses {
			col := models.RefBalanceColumn(b.Currency)
			if col == "" {
				continue
			}

			var rw models.Wallet
			if err := tx.Where(models.Wallet{UserID: b.ReferrerID, Label: models.WalletLabelToken}).
				FirstOrCreate(&rw).Error; err != nil {
				return err
			}

			if err := tx.Model(&models.Wallet{}).
				Where("id = ?", rw.ID).
				Update(col, gorm.Expr(col+" + ?", b.Amount)).Error; err != nil {
				return err
			}

			refLog := models.WalletRefLog{
				WalletID:  rw.ID,
				RefUserID: p.UserID,
				PaymentID: &p.ID,
				Addition:  b.Amount,
				Currency:  b.Currency,
				Status:    models.RefStatusNot,
				Timestamp: now,
			}
			if err := tx.Create(&refLog).Error; err != nil {
				return err
			}
		}

		return nil
	})
}
