package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"tokensale-service/models"
	"tokensale-service/providers"
	"tokensale-service/repository"
	"tokensale-service/sender"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateOrderRequest is a purchase request for the card or crypto rail.
// Token is the card source token and is only required for USD/EUR.
type CreateOrderRequest struct {
	Currency string  `json:"currency" binding:"required"`
	Amount   float64 `json:"amount" binding:"required,gt=0"`
	Price    float64 `json:"price" binding:"required,gt=0"`
	Token    string  `json:"token"`
}

// CreateOrderResponse reports the settled charge (card) or the deposit
// address the buyer must fund (crypto).
type CreateOrderResponse struct {
	Message  string `json:"message,omitempty"`
	Address  string `json:"address,omitempty"`
	Currency string `json:"currency"`
}

// BankDetails are the wire-transfer instructions sent for bank orders.
type BankDetails struct {
	Name      string
	Number    string
	SwiftCode string
}

// PurchaseService creates orders across the card, crypto and bank rails and
// serves the order read side.
type PurchaseService interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, req *CreateOrderRequest) (*CreateOrderResponse, *ServiceError)
	CreateBankOrder(ctx context.Context, userID uuid.UUID, email string, req *CreateOrderRequest) *ServiceError
	GetUserOrders(ctx context.Context, userID uuid.UUID) ([]models.OrderView, *ServiceError)
	GetOrderByID(ctx context.Context, userID, orderID uuid.UUID) (*models.OrderView, *ServiceError)
	GetAllOrders(ctx context.Context, page, limit int) ([]models.Order, int64, *ServiceError)
	GetOrdersByCurrency(ctx context.Context, currency string) ([]models.Order, *ServiceError)
}

type purchaseServiceImpl struct {
	orders     repository.OrderRepository
	payments   repository.PaymentRepository
	wallets    WalletService
	walletRepo repository.WalletRepository
	card       providers.CardProcessor
	crypto     providers.CryptoProcessor
	mailer     sender.EmailSender
	bank       BankDetails
	uiDomain   string
	logger     *zap.Logger
}

// NewPurchaseService creates a new PurchaseService.
func NewPurchaseService(
	orders repository.OrderRepository,
	payments repository.PaymentRepository,
	wallets WalletService,
	walletRepo repository.WalletRepository,
	card providers.CardProcessor,
	crypto providers.CryptoProcessor,
	mailer sender.EmailSender,
	bank BankDetails,
	uiDomain string,
	logger *zap.Logger,
) PurchaseService {
	return &purchaseServiceImpl{
		orders:     orders,
		payments:   payments,
		wallets:    wallets,
		walletRepo: walletRepo,
		card:       card,
		crypto:     crypto,
		mailer:     mailer,
		bank:       bank,
		uiDomain:   uiDomain,
		logger:     logger,
	}
}

func isFiat(currency string) bool {
	return currency == "USD" || currency == "EUR"
}

// CreateOrder routes the purchase to the card or crypto rail.
func (s *purchaseServiceImpl) CreateOrder(ctx context.Context, userID uuid.UUID, req *CreateOrderRequest) (*CreateOrderResponse, *ServiceError) {
	if isFiat(req.Currency) {
		return s.createCardOrder(ctx, userID, req)
	}
	return s.createCryptoOrder(ctx, userID, req)
}

// createCardOrder charges the card synchronously; only a paid charge
// produces any persisted state. A paid charge that later fails to persist is
// logged with the charge id for compensation, never silently dropped.
func (s *purchaseServiceImpl) createCardOrder(ctx context.Context, userID uuid.UUID, req *CreateOrderRequest) (*CreateOrderResponse, *ServiceError) {
	if req.Token == "" {
		return nil, &ServiceError{StatusCode: 400, Message: "Card token is required"}
	}

	// Round, don't truncate: 19.99*100 is 1998.99... in float64.
	amountMinor := int64(math.Round(req.Amount * 100))
	ch, err := s.card.Charge(ctx, amountMinor, req.Currency, req.Token, "Token purchase")
	if err != nil {
		s.logger.Warn("Card charge failed", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 400, Message: "Payment was not successful"}
	}
	if !ch.Paid {
		return nil, &ServiceError{StatusCode: 400, Message: "Payment was not successful"}
	}

	if _, err := s.wallets.Ensure(ctx, userID); err != nil {
		s.logger.Error("Wallet ensure failed after card charge",
			zap.String("user_id", userID.String()),
			zap.String("charge_id", ch.ID),
			zap.Error(err),
		)
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to process order"}
	}

	payment := &models.Payment{
		UserID:     userID,
		Address:    "n/a",
		Currency:   req.Currency,
		Amount:     req.Amount,
		OrderPrice: req.Price,
		CpFee:      0,
		Confirms:   1,
		MerchantID: models.AddressStripe,
		IpnID:      ch.ID,
		TxnID:      ch.TxnID,
	}
	order := &models.Order{
		UserID:   userID,
		Address:  models.AddressStripe,
		Currency: req.Currency,
		Price:    req.Price,
		Amount:   req.Amount,
	}
	if err := s.payments.CreateWithOrder(ctx, payment, order); err != nil {
		// Funds are already captured; the charge id in this log entry is the
		// compensation record for manual reconciliation.
		s.logger.Error("Order persistence failed after card charge",
			zap.String("user_id", userID.String()),
			zap.String("charge_id", ch.ID),
			zap.Error(err),
		)
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to record order"}
	}

	return &CreateOrderResponse{
		Message:  fmt.Sprintf("Successfully paid %g %s", float64(ch.Amount)/100, ch.Currency),
		Currency: req.Currency,
	}, nil
}

// createCryptoOrder requests a deposit address; the order stays unpaid until
// the processor notifies us of a matching deposit.
func (s *purchaseServiceImpl) createCryptoOrder(ctx context.Context, userID uuid.UUID, req *CreateOrderRequest) (*CreateOrderResponse, *ServiceError) {
	address, err := s.crypto.GetCallbackAddress(ctx, req.Currency)
	if err != nil {
		s.logger.Warn("Crypto processor unavailable", zap.String("currency", req.Currency), zap.Error(err))
		return nil, &ServiceError{StatusCode: 422, Message: "Payment processor is unavailable"}
	}

	if _, err := s.wallets.Ensure(ctx, userID); err != nil {
		s.logger.Error("Wallet ensure failed", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to process order"}
	}

	order := &models.Order{
		UserID:   userID,
		Address:  address,
		Currency: req.Currency,
		Price:    req.Price,
		Amount:   req.Amount,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		s.logger.Error("Order persistence failed after address issue",
			zap.String("user_id", userID.String()),
			zap.String("address", address),
			zap.Error(err),
		)
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to record order"}
	}

	return &CreateOrderResponse{
		Address:  address,
		Currency: req.Currency,
	}, nil
}

// CreateBankOrder records a bank-transfer intent and emails wire
// instructions. The order is settled manually out of band, so paid stays
// false here.
func (s *purchaseServiceImpl) CreateBankOrder(ctx context.Context, userID uuid.UUID, email string, req *CreateOrderRequest) *ServiceError {
	if _, err := s.wallets.Ensure(ctx, userID); err != nil {
		s.logger.Error("Wallet ensure failed", zap.String("user_id", userID.String()), zap.Error(err))
		return &ServiceError{StatusCode: 500, Message: "Failed to process order"}
	}

	order := &models.Order{
		UserID:   userID,
		Address:  models.AddressBankTransfer,
		Currency: req.Currency,
		Price:    req.Price,
		Amount:   req.Amount,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		s.logger.Error("Bank order persistence failed", zap.String("user_id", userID.String()), zap.Error(err))
		return &ServiceError{StatusCode: 500, Message: "Failed to record order"}
	}

	// Fire-and-forget: a lost email never invalidates the recorded order.
	go func() {
		subject := "Bank transfer instructions"
		body := bankOrderBody(s.uiDomain, req.Amount, req.Currency, s.bank)
		if _, err := s.mailer.SendEmail(context.Background(), email, subject, body); err != nil {
			s.logger.Warn("Bank order email failed", zap.String("to", email), zap.Error(err))
		}
	}()

	return nil
}

func bankOrderBody(host string, amount float64, currency string, bank BankDetails) string {
	return fmt.Sprintf(
		"<p>Thank you for your order of %g %s on %s.</p>"+
			"<p>Please transfer the amount to:</p>"+
			"<p>%s<br>IBAN: %s<br>SWIFT/BIC: %s</p>"+
			"<p>Your order is marked as paid once the transfer arrives.</p>",
		amount, currency, host, bank.Name, bank.Number, bank.SwiftCode,
	)
}

// GetUserOrders returns the user's orders joined with their payment and any
// wallet log crediting that payment.
func (s *purchaseServiceImpl) GetUserOrders(ctx context.Context, userID uuid.UUID) ([]models.OrderView, *ServiceError) {
	orders, err := s.orders.FindByUserID(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to fetch orders", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch orders"}
	}

	views := make([]models.OrderView, 0, len(orders))
	for i := range orders {
		view, svcErr := s.buildOrderView(ctx, &orders[i])
		if svcErr != nil {
			return nil, svcErr
		}
		views = append(views, *view)
	}
	return views, nil
}

func (s *purchaseServiceImpl) GetOrderByID(ctx context.Context, userID, orderID uuid.UUID) (*models.OrderView, *ServiceError) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ServiceError{StatusCode: 404, Message: "Order not found"}
		}
		s.logger.Error("Failed to fetch order", zap.String("order_id", orderID.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch order"}
	}
	if order.UserID != userID {
		return nil, &ServiceError{StatusCode: 404, Message: "Order not found"}
	}
	return s.buildOrderView(ctx, order)
}

func (s *purchaseServiceImpl) buildOrderView(ctx context.Context, order *models.Order) (*models.OrderView, *ServiceError) {
	view := &models.OrderView{Order: *order}
	if !order.Paid || order.PaymentID == nil {
		return view, nil
	}

	payment, err := s.payments.FindByID(ctx, *order.PaymentID)
	if err != nil {
		s.logger.Error("Failed to fetch payment for order",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch orders"}
	}

	view.PaidAmount = payment.Amount
	view.Credited = payment.Credited
	view.PaidTx = &payment.TxnID

	if payment.Credited {
		log, err := s.walletRepo.FindLogByPaymentID(ctx, payment.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("Failed to fetch wallet log",
				zap.String("payment_id", payment.ID.String()),
				zap.Error(err),
			)
			return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch orders"}
		}
		view.Log = log
	}
	return view, nil
}

// GetAllOrders lists every order, newest first (admin).
func (s *purchaseServiceImpl) GetAllOrders(ctx context.Context, page, limit int) ([]models.Order, int64, *ServiceError) {
	orders, total, err := s.orders.FindAll(ctx, page, limit)
	if err != nil {
		s.logger.Error("Failed to fetch all orders", zap.Error(err))
		return nil, 0, &ServiceError{StatusCode: 500, Message: "Failed to fetch orders"}
	}
	return orders, total, nil
}

// GetOrdersByCurrency lists orders in one currency, newest first (admin).
func (s *purchaseServiceImpl) GetOrdersByCurrency(ctx context.Context, currency string) ([]models.Order, *ServiceError) {
	orders, err := s.orders.FindByCurrency(ctx, currency)
	if err != nil {
		s.logger.Error("Failed to fetch orders by currency", zap.String("currency", currency), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch orders"}
	}
	return orders, nil
}
