package services

import (
	"context"
	"errors"
	"time"

	"tokensale-service/models"
	"tokensale-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreditService applies confirmed payments to wallet ledgers. Crediting is
// idempotent: a payment is credited at most once no matter how often the
// sweep or the admin endpoint retries it.
type CreditService interface {
	CreditPayment(ctx context.Context, paymentID uuid.UUID) *ServiceError
	Start(ctx context.Context, interval time.Duration)
}

type creditServiceImpl struct {
	payments    repository.PaymentRepository
	wallets     repository.WalletRepository
	sales       repository.SalesRepository
	producer    EventPublisher
	minConfirms int
	bonusPct    float64
	batchSize   int
	logger      *zap.Logger
}

// NewCreditService creates a new CreditService. bonusPct is the referral
// bonus as a percentage of the credited payment amount.
func NewCreditService(
	payments repository.PaymentRepository,
	wallets repository.WalletRepository,
	sales repository.SalesRepository,
	producer EventPublisher,
	minConfirms int,
	bonusPct float64,
	logger *zap.Logger,
) CreditService {
	if minConfirms < 1 {
		minConfirms = 1
	}
	return &creditServiceImpl{
		payments:    payments,
		wallets:     wallets,
		sales:       sales,
		producer:    producer,
		minConfirms: minConfirms,
		bonusPct:    bonusPct,
		batchSize:   50,
		logger:      logger,
	}
}

// CreditPayment credits one payment to its owner's wallet and pays referral
// bonuses. Safe to call again for the same payment.
func (s *creditServiceImpl) CreditPayment(ctx context.Context, paymentID uuid.UUID) *ServiceError {
	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ServiceError{StatusCode: 404, Message: "Payment not found"}
		}
		s.logger.Error("Failed to fetch payment", zap.String("payment_id", paymentID.String()), zap.Error(err))
		return &ServiceError{StatusCode: 500, Message: "Failed to fetch payment"}
	}
	if payment.Credited {
		return &ServiceError{StatusCode: 409, Message: "Payment already credited"}
	}
	if payment.Confirms < s.minConfirms && !isFiat(payment.Currency) {
		return &ServiceError{StatusCode: 409, Message: "Payment has not reached the confirmation threshold"}
	}

	if err := s.credit(ctx, payment); err != nil {
		if errors.Is(err, repository.ErrAlreadyCredited) {
			return &ServiceError{StatusCode: 409, Message: "Payment already credited"}
		}
		s.logger.Error("Failed to credit payment", zap.String("payment_id", paymentID.String()), zap.Error(err))
		return &ServiceError{StatusCode: 500, Message: "Failed to credit payment"}
	}
	return nil
}

func (s *creditServiceImpl) credit(ctx context.Context, payment *models.Payment) error {
	if payment.OrderPrice <= 0 {
		return errors.New("payment has no order price")
	}
	tokens := payment.Amount / payment.OrderPrice

	bonuses, err := s.referralBonuses(ctx, payment)
	if err != nil {
		return err
	}

	if err := s.wallets.Credit(ctx, payment.ID, tokens, bonuses); err != nil {
		return err
	}

	s.logger.Info("Credited payment",
		zap.String("payment_id", payment.ID.String()),
		zap.String("user_id", payment.UserID.String()),
		zap.Float64("tokens", tokens),
		zap.Int("bonuses", len(bonuses)),
	)

	if s.producer != nil {
		event := models.PaymentEvent{
			Type:      models.EventPaymentCredited,
			UserID:    payment.UserID.String(),
			PaymentID: payment.ID.String(),
			Amount:    payment.Amount,
			Currency:  payment.Currency,
			Timestamp: time.Now().UTC(),
		}
		if err := s.producer.SendPaymentEvent(event); err != nil {
			s.logger.Warn("Failed to publish credit event", zap.String("payment_id", payment.ID.String()), zap.Error(err))
		}
	}
	return nil
}

func (s *creditServiceImpl) referralBonuses(ctx context.Context, payment *models.Payment) ([]models.ReferralBonus, error) {
	if s.bonusPct <= 0 || models.RefBalanceColumn(payment.Currency) == "" {
		return nil, nil
	}

	refs, err := s.sales.FindReferrers(ctx, payment.UserID)
	if err != nil {
		return nil, err
	}

	bonuses := make([]models.ReferralBonus, 0, len(refs))
	for _, ref := range refs {
		bonuses = append(bonuses, models.ReferralBonus{
			ReferrerID: ref.ReferrerID,
			Level:      ref.Level,
			Amount:     payment.Amount * s.bonusPct / 100,
			Currency:   payment.Currency,
		})
	}
	return bonuses, nil
}

// Start runs the crediting sweep until the context is cancelled.
func (s *creditServiceImpl) Start(ctx context.Context, interval time.Duration) {
	go func() {
		s.logger.Info("Credit sweep started",
			zap.Duration("interval", interval),
			zap.Int("min_confirms", s.minConfirms),
		)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.logger.Info("Credit sweep stopping")
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()
}

func (s *creditServiceImpl) runOnce(ctx context.Context) {
	payments, err := s.payments.FindCreditable(ctx, s.minConfirms, s.batchSize)
	if err != nil {
		s.logger.Error("Credit sweep query failed", zap.Error(err))
		return
	}

	for i := range payments {
		p := &payments[i]
		if err := s.credit(ctx, p); err != nil {
			if errors.Is(err, repository.ErrAlreadyCredited) {
				continue
			}
			// Leave it for the next sweep.
			s.logger.Error("Credit sweep failed for payment",
				zap.String("payment_id", p.ID.String()),
				zap.Error(err),
			)
		}
	}
}
