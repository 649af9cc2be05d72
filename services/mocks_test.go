package services_test

import (
	"context"
	"sync"

	"tokensale-service/models"
	"tokensale-service/providers"
	"tokensale-service/sender"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ---- mock order repository ----

type mockOrderRepo struct {
	createErr        error
	created          []*models.Order
	findByIDOrder    *models.Order
	findByIDErr      error
	findByAddrOrder  *models.Order
	findByAddrErr    error
	findByUserOrders []models.Order
	findByUserErr    error
	findAllOrders    []models.Order
	findAllTotal     int64
	findAllErr       error
	markPaidErr      error
	markPaidCalls    int
	countActive      int64
	countActiveErr   error
}

func (m *mockOrderRepo) Create(_ context.Context, o *models.Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, o)
	return nil
}
func (m *mockOrderRepo) FindByID(_ context.Context, _ uuid.UUID) (*models.Order, error) {
	return m.findByIDOrder, m.findByIDErr
}
func (m *mockOrderRepo) FindByAddress(_ context.Context, _ string) (*models.Order, error) {
	return m.findByAddrOrder, m.findByAddrErr
}
func (m *mockOrderRepo) FindByUserID(_ context.Context, _ uuid.UUID) ([]models.Order, error) {
	return m.findByUserOrders, m.findByUserErr
}
func (m *mockOrderRepo) FindByCurrency(_ context.Context, _ string) ([]models.Order, error) {
	return nil, nil
}
func (m *mockOrderRepo) FindAll(_ context.Context, _, _ int) ([]models.Order, int64, error) {
	return m.findAllOrders, m.findAllTotal, m.findAllErr
}
func (m *mockOrderRepo) MarkPaid(_ context.Context, _, _ uuid.UUID) error {
	m.markPaidCalls++
	return m.markPaidErr
}
func (m *mockOrderRepo) CountActive(_ context.Context) (int64, error) {
	return m.countActive, m.countActiveErr
}

// ---- mock payment repository ----

type mockPaymentRepo struct {
	createErr           error
	created             []*models.Payment
	createWithOrderErr  error
	createWithOrderRuns int
	findByIDPayment     *models.Payment
	findByIDErr         error
	findByIpnPayment    *models.Payment
	findByIpnErr        error
	creditable          []models.Payment
	creditableErr       error
	countCredited       int64
	countCreditedErr    error
}

func (m *mockPaymentRepo) Create(_ context.Context, p *models.Payment) error {
	if m.createErr != nil {
		return m.createErr
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.created = append(m.created, p)
	return nil
}
func (m *mockPaymentRepo) CreateWithOrder(_ context.Context, p *models.Payment, o *models.Order) error {
	if m.createWithOrderErr != nil {
		return m.createWithOrderErr
	}
	m.createWithOrderRuns++
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	o.Paid = true
	o.PaymentID = &p.ID
	return nil
}
func (m *mockPaymentRepo) FindByID(_ context.Context, _ uuid.UUID) (*models.Payment, error) {
	return m.findByIDPayment, m.findByIDErr
}
func (m *mockPaymentRepo) FindByIpnID(_ context.Context, _ string) (*models.Payment, error) {
	return m.findByIpnPayment, m.findByIpnErr
}
func (m *mockPaymentRepo) FindByUserID(_ context.Context, _ uuid.UUID) ([]models.Payment, error) {
	return nil, nil
}
func (m *mockPaymentRepo) FindCreditable(_ context.Context, _, _ int) ([]models.Payment, error) {
	return m.creditable, m.creditableErr
}
func (m *mockPaymentRepo) CountCredited(_ context.Context) (int64, error) {
	return m.countCredited, m.countCreditedErr
}

// ---- mock wallet repository ----

type walletFindResult struct {
	wallet *models.Wallet
	err    error
}

type mockWalletRepo struct {
	mu          sync.Mutex
	findResults []walletFindResult
	findCalls   int
	createErrs  []error
	createCalls int
	updateErr   error
	log         *models.WalletLog
	logErr      error
	refLogs     []models.WalletRefLog
	refLogsErr  error
	creditErr   error
	creditCalls int
	lastTokens  float64
	lastBonuses []models.ReferralBonus
}

func (m *mockWalletRepo) FindByUserID(_ context.Context, _ uuid.UUID, _ string) (*models.Wallet, error) {
	i := m.findCalls
	m.findCalls++
	if i >= len(m.findResults) {
		if len(m.findResults) == 0 {
			return nil, gorm.ErrRecordNotFound
		}
		i = len(m.findResults) - 1
	}
	return m.findResults[i].wallet, m.findResults[i].err
}
func (m *mockWalletRepo) Create(_ context.Context, w *models.Wallet) error {
	i := m.createCalls
	m.createCalls++
	if i < len(m.createErrs) {
		return m.createErrs[i]
	}
	return nil
}
func (m *mockWalletRepo) UpdateAddress(_ context.Context, _ uuid.UUID, _ string) error {
	return m.updateErr
}
func (m *mockWalletRepo) FindLogByPaymentID(_ context.Context, _ uuid.UUID) (*models.WalletLog, error) {
	return m.log, m.logErr
}
func (m *mockWalletRepo) FindRefLogs(_ context.Context, _ uuid.UUID) ([]models.WalletRefLog, error) {
	return m.refLogs, m.refLogsErr
}
func (m *mockWalletRepo) Credit(_ context.Context, _ uuid.UUID, tokens float64, bonuses []models.ReferralBonus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.creditErr != nil {
		return m.creditErr
	}
	m.creditCalls++
	m.lastTokens = tokens
	m.lastBonuses = bonuses
	return nil
}

func (m *mockWalletRepo) creditCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creditCalls
}

// ---- mock sales repository ----

type mockSalesRepo struct {
	stats         *models.Stats
	statsErr      error
	currencies    []models.Currency
	currenciesErr error
	referrers     []models.Referral
	referrersErr  error
}

func (m *mockSalesRepo) GetProdStats(_ context.Context) (*models.Stats, error) {
	return m.stats, m.statsErr
}
func (m *mockSalesRepo) ListCurrencies(_ context.Context) ([]models.Currency, error) {
	return m.currencies, m.currenciesErr
}
func (m *mockSalesRepo) FindReferrers(_ context.Context, _ uuid.UUID) ([]models.Referral, error) {
	return m.referrers, m.referrersErr
}

// ---- mock event publisher and SNS ----

type mockProducer struct {
	mu     sync.Mutex
	events []models.PaymentEvent
	err    error
}

func (m *mockProducer) SendPaymentEvent(event models.PaymentEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockProducer) eventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, 0, len(m.events))
	for _, e := range m.events {
		types = append(types, e.Type)
	}
	return types
}

type mockSNS struct {
	mu         sync.Mutex
	calls      int
	publishErr error
}

func (m *mockSNS) Publish(_ context.Context, _ string, _ []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.publishErr
}

// ---- mock payment providers ----

type mockCard struct {
	charge     *providers.CardCharge
	err        error
	lastAmount int64
}

func (m *mockCard) Charge(_ context.Context, amount int64, _, _, _ string) (*providers.CardCharge, error) {
	m.lastAmount = amount
	return m.charge, m.err
}

type mockCrypto struct {
	address string
	err     error
}

func (m *mockCrypto) GetCallbackAddress(_ context.Context, _ string) (string, error) {
	return m.address, m.err
}

// ---- mock email sender ----

type mockMailer struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (m *mockMailer) SendEmail(_ context.Context, to, _, _ string) (sender.SendResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return sender.SendResult{}, m.err
	}
	m.sent = append(m.sent, to)
	return sender.SendResult{MessageID: "test"}, nil
}
