package services_test

import (
	"context"
	"testing"
	"time"

	"tokensale-service/models"
	"tokensale-service/repository"
	"tokensale-service/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newCreditService(payments *mockPaymentRepo, wallets *mockWalletRepo, sales *mockSalesRepo, producer *mockProducer) services.CreditService {
	logger, _ := zap.NewDevelopment()
	return services.NewCreditService(payments, wallets, sales, producer, 2, 5, logger)
}

func confirmedPayment() *models.Payment {
	return &models.Payment{
		ID:         uuid.New(),
		UserID:     uuid.New(),
		Address:    "bc1qdeposit",
		Currency:   "BTC",
		Amount:     0.5,
		OrderPrice: 0.0001,
		Confirms:   3,
	}
}

func TestCreditPayment_Success(t *testing.T) {
	payment := confirmedPayment()
	payments := &mockPaymentRepo{findByIDPayment: payment}
	wallets := &mockWalletRepo{}
	producer := &mockProducer{}
	svc := newCreditService(payments, wallets, &mockSalesRepo{}, producer)

	svcErr := svc.CreditPayment(context.Background(), payment.ID)

	assert.Nil(t, svcErr)
	assert.Equal(t, 1, wallets.creditCalls)
	assert.InDelta(t, 5000, wallets.lastTokens, 1e-9)
	assert.Empty(t, wallets.lastBonuses)
	assert.Equal(t, []string{models.EventPaymentCredited}, producer.eventTypes())
}

func TestCreditPayment_PaysReferralBonuses(t *testing.T) {
	payment := confirmedPayment()
	referrer := uuid.New()
	payments := &mockPaymentRepo{findByIDPayment: payment}
	wallets := &mockWalletRepo{}
	sales := &mockSalesRepo{referrers: []models.Referral{{UserID: payment.UserID, ReferrerID: referrer, Level: 1}}}
	svc := newCreditService(payments, wallets, sales, &mockProducer{})

	svcErr := svc.CreditPayment(context.Background(), payment.ID)

	assert.Nil(t, svcErr)
	assert.Len(t, wallets.lastBonuses, 1)
	assert.Equal(t, referrer, wallets.lastBonuses[0].ReferrerID)
	assert.InDelta(t, 0.025, wallets.lastBonuses[0].Amount, 1e-9)
	assert.Equal(t, "BTC", wallets.lastBonuses[0].Currency)
}

func TestCreditPayment_NotFound(t *testing.T) {
	payments := &mockPaymentRepo{findByIDErr: gorm.ErrRecordNotFound}
	svc := newCreditService(payments, &mockWalletRepo{}, &mockSalesRepo{}, &mockProducer{})

	svcErr := svc.CreditPayment(context.Background(), uuid.New())

	assert.Equal(t, 404, svcErr.StatusCode)
}

func TestCreditPayment_AlreadyCredited(t *testing.T) {
	payment := confirmedPayment()
	payment.Credited = true
	payments := &mockPaymentRepo{findByIDPayment: payment}
	wallets := &mockWalletRepo{}
	svc := newCreditService(payments, wallets, &mockSalesRepo{}, &mockProducer{})

	svcErr := svc.CreditPayment(context.Background(), payment.ID)

	assert.Equal(t, 409, svcErr.StatusCode)
	assert.Equal(t, 0, wallets.creditCalls)
}

func TestCreditPayment_AlreadyCreditedRace(t *testing.T) {
	payment := confirmedPayment()
	payments := &mockPaymentRepo{findByIDPayment: payment}
	wallets := &mockWalletRepo{creditErr: repository.ErrAlreadyCredited}
	svc := newCreditService(payments, wallets, &mockSalesRepo{}, &mockProducer{})

	svcErr := svc.CreditPayment(context.Background(), payment.ID)

	assert.Equal(t, 409, svcErr.StatusCode)
}

func TestCreditPayment_BelowConfirmationThreshold(t *testing.T) {
	payment := confirmedPayment()
	payment.Confirms = 1
	payments := &mockPaymentRepo{findByIDPayment: payment}
	wallets := &mockWalletRepo{}
	svc := newCreditService(payments, wallets, &mockSalesRepo{}, &mockProducer{})

	svcErr := svc.CreditPayment(context.Background(), payment.ID)

	assert.Equal(t, 409, svcErr.StatusCode)
	assert.Equal(t, 0, wallets.creditCalls)
}

func TestCreditPayment_FiatBypassesThreshold(t *testing.T) {
	payment := confirmedPayment()
	payment.Currency = "USD"
	payment.Confirms = 1
	payments := &mockPaymentRepo{findByIDPayment: payment}
	wallets := &mockWalletRepo{}
	svc := newCreditService(payments, wallets, &mockSalesRepo{}, &mockProducer{})

	svcErr := svc.CreditPayment(context.Background(), payment.ID)

	assert.Nil(t, svcErr)
	assert.Equal(t, 1, wallets.creditCalls)
}

func TestCreditPayment_MissingOrderPrice(t *testing.T) {
	payment := confirmedPayment()
	payment.OrderPrice = 0
	payments := &mockPaymentRepo{findByIDPayment: payment}
	wallets := &mockWalletRepo{}
	svc := newCreditService(payments, wallets, &mockSalesRepo{}, &mockProducer{})

	svcErr := svc.CreditPayment(context.Background(), payment.ID)

	assert.Equal(t, 500, svcErr.StatusCode)
	assert.Equal(t, 0, wallets.creditCalls)
}

func TestStart_SweepCreditsEligiblePayments(t *testing.T) {
	payment := confirmedPayment()
	payments := &mockPaymentRepo{creditable: []models.Payment{*payment}}
	wallets := &mockWalletRepo{}
	svc := newCreditService(payments, wallets, &mockSalesRepo{}, &mockProducer{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		return wallets.creditCount() > 0
	}, time.Second, 10*time.Millisecond)
}
