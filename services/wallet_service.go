package services

import (
	"context"
	"errors"

	"tokensale-service/models"
	"tokensale-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ServiceError is a typed error with an HTTP status code.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string { return e.Message }

// WalletService manages per-user token wallets.
type WalletService interface {
	Ensure(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	Get(ctx context.Context, userID uuid.UUID) (*models.Wallet, *ServiceError)
	UpdateAddress(ctx context.Context, userID uuid.UUID, address string) (*models.Wallet, *ServiceError)
	ReferralLogs(ctx context.Context, userID uuid.UUID) ([]models.WalletRefLog, *ServiceError)
}

type walletServiceImpl struct {
	wallets repository.WalletRepository
	logger  *zap.Logger
}

// NewWalletService creates a new WalletService.
func NewWalletService(wallets repository.WalletRepository, logger *zap.Logger) WalletService {
	return &walletServiceImpl{wallets: wallets, logger: logger}
}

// Ensure returns the user's token wallet, creating a zeroed one if absent.
// Concurrent calls are safe: the unique index on (user_id, label) makes the
// loser of a create race fall back to reading the winner's row.
func (s *walletServiceImpl) Ensure(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	wallet, err := s.wallets.FindByUserID(ctx, userID, models.WalletLabelToken)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fresh := &models.Wallet{
		UserID: userID,
		Label:  models.WalletLabelToken,
	}
	if err := s.wallets.Create(ctx, fresh); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return s.wallets.FindByUserID(ctx, userID, models.WalletLabelToken)
		}
		return nil, err
	}

	s.logger.Info("Created wallet", zap.String("user_id", userID.String()))
	return fresh, nil
}

func (s *walletServiceImpl) Get(ctx context.Context, userID uuid.UUID) (*models.Wallet, *ServiceError) {
	wallet, err := s.wallets.FindByUserID(ctx, userID, models.WalletLabelToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ServiceError{StatusCode: 404, Message: "Wallet not found"}
		}
		s.logger.Error("Failed to fetch wallet", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch wallet"}
	}
	return wallet, nil
}

// UpdateAddress sets the user's withdrawal address, lazily creating the
// wallet when the user has none yet.
func (s *walletServiceImpl) UpdateAddress(ctx context.Context, userID uuid.UUID, address string) (*models.Wallet, *ServiceError) {
	wallet, err := s.wallets.FindByUserID(ctx, userID, models.WalletLabelToken)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("Failed to fetch wallet", zap.String("user_id", userID.String()), zap.Error(err))
			return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch wallet"}
		}

		fresh := &models.Wallet{
			UserID:  userID,
			Label:   models.WalletLabelToken,
			Address: &address,
		}
		if err := s.wallets.Create(ctx, fresh); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return s.UpdateAddress(ctx, userID, address)
			}
			s.logger.Error("Failed to create wallet", zap.String("user_id", userID.String()), zap.Error(err))
			return nil, &ServiceError{StatusCode: 500, Message: "Failed to create wallet"}
		}
		return fresh, nil
	}

	if err := s.wallets.UpdateAddress(ctx, wallet.ID, address); err != nil {
		s.logger.Error("Failed to update wallet address", zap.String("wallet_id", wallet.ID.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to update wallet address"}
	}
	wallet.Address = &address
	return wallet, nil
}

func (s *walletServiceImpl) ReferralLogs(ctx context.Context, userID uuid.UUID) ([]models.WalletRefLog, *ServiceError) {
	logs, err := s.wallets.FindRefLogs(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []models.WalletRefLog{}, nil
		}
		s.logger.Error("Failed to fetch referral logs", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch referral logs"}
	}
	return logs, nil
}
