package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"tokensale-service/models"
	"tokensale-service/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// IPNOutcome names the terminal result of processing one notification.
type IPNOutcome string

const (
	IPNCompleted        IPNOutcome = "completed"
	IPNIgnored          IPNOutcome = "ignored"
	IPNDuplicate        IPNOutcome = "duplicate"
	IPNOrderNotFound    IPNOutcome = "order_not_found"
	IPNAlreadyPaid      IPNOutcome = "already_paid"
	IPNExpired          IPNOutcome = "expired"
	IPNCurrencyMismatch IPNOutcome = "currency_mismatch"
)

// IPNResult is the explicit outcome of one notification. Every outcome is
// terminal: re-delivery of the same notification reproduces it without
// mutating state again.
type IPNResult struct {
	Outcome IPNOutcome      `json:"outcome"`
	Order   *models.Order   `json:"-"`
	Payment *models.Payment `json:"-"`
}

// EventPublisher sends standardized payment events downstream.
type EventPublisher interface {
	SendPaymentEvent(event models.PaymentEvent) error
}

// SNSPublisher mirrors the aws package publisher so tests can stub it.
type SNSPublisher interface {
	Publish(ctx context.Context, topicArn string, message []byte) error
}

// IPNService ingests deposit notifications from the crypto processor and
// drives the Order → Payment state transition.
type IPNService interface {
	Process(ctx context.Context, n *models.IPNNotification) (*IPNResult, error)
}

type ipnServiceImpl struct {
	orders      repository.OrderRepository
	payments    repository.PaymentRepository
	producer    EventPublisher
	snsClient   SNSPublisher
	snsTopicArn string
	logger      *zap.Logger
}

// NewIPNService creates a new IPNService. producer and snsClient may be nil;
// event fan-out is best-effort and never affects the reconciliation result.
func NewIPNService(
	orders repository.OrderRepository,
	payments repository.PaymentRepository,
	producer EventPublisher,
	snsClient SNSPublisher,
	snsTopicArn string,
	logger *zap.Logger,
) IPNService {
	return &ipnServiceImpl{
		orders:      orders,
		payments:    payments,
		producer:    producer,
		snsClient:   snsClient,
		snsTopicArn: snsTopicArn,
		logger:      logger,
	}
}

// Process runs the reconciliation state machine for one verified
// notification. A non-nil error means a store failure: nothing was decided
// and the processor should retry delivery. A nil error with a terminal
// outcome means re-delivery is safe and will change nothing.
func (s *ipnServiceImpl) Process(ctx context.Context, n *models.IPNNotification) (*IPNResult, error) {
	if n.IpnType != "deposit" || n.Amount <= 0 {
		s.logger.Info("Ignoring notification",
			zap.String("ipn_type", n.IpnType),
			zap.Float64("amount", n.Amount),
		)
		return &IPNResult{Outcome: IPNIgnored}, nil
	}

	// Dedup by provider notification id. The unique index on ipn_id is the
	// real guard; this read just avoids burning an insert on replays.
	if existing, err := s.payments.FindByIpnID(ctx, n.IpnID); err == nil {
		s.logger.Info("Duplicate notification",
			zap.String("ipn_id", n.IpnID),
			zap.String("payment_id", existing.ID.String()),
		)
		return &IPNResult{Outcome: IPNDuplicate, Payment: existing}, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("Failed to look up payment by ipn id", zap.String("ipn_id", n.IpnID), zap.Error(err))
		return nil, err
	}

	order, err := s.orders.FindByAddress(ctx, n.Address)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("No order for deposit address", zap.String("address", n.Address))
			s.publishRejected(n, string(IPNOrderNotFound))
			return &IPNResult{Outcome: IPNOrderNotFound}, nil
		}
		s.logger.Error("Failed to look up order by address", zap.String("address", n.Address), zap.Error(err))
		return nil, err
	}

	switch {
	case order.Paid:
		s.logger.Warn("Order already paid", zap.String("address", order.Address), zap.String("order_id", order.ID.String()))
		s.publishRejected(n, string(IPNAlreadyPaid))
		return &IPNResult{Outcome: IPNAlreadyPaid, Order: order}, nil
	case order.Expired:
		s.logger.Warn("Order already expired", zap.String("address", order.Address), zap.String("order_id", order.ID.String()))
		s.publishRejected(n, string(IPNExpired))
		return &IPNResult{Outcome: IPNExpired, Order: order}, nil
	case order.Currency != n.Currency:
		s.logger.Warn("Currency mismatch",
			zap.String("order_id", order.ID.String()),
			zap.String("deposited", n.Currency),
			zap.String("expected", order.Currency),
		)
		s.publishRejected(n, string(IPNCurrencyMismatch))
		return &IPNResult{Outcome: IPNCurrencyMismatch, Order: order}, nil
	}

	payment := &models.Payment{
		UserID:     order.UserID,
		Address:    n.Address,
		Currency:   n.Currency,
		Amount:     n.Amount,
		OrderPrice: order.Price,
		CpFee:      n.Fee,
		Confirms:   n.Confirms,
		MerchantID: n.Merchant,
		IpnID:      n.IpnID,
		TxnID:      n.TxnID,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race against a concurrent delivery of the same ipn_id.
			s.logger.Info("Duplicate notification (insert race)", zap.String("ipn_id", n.IpnID))
			return &IPNResult{Outcome: IPNDuplicate, Order: order}, nil
		}
		s.logger.Error("Failed to create payment", zap.String("ipn_id", n.IpnID), zap.Error(err))
		return nil, err
	}
	s.logger.Info("Created payment",
		zap.String("ipn_id", n.IpnID),
		zap.String("payment_id", payment.ID.String()),
	)

	if err := s.orders.MarkPaid(ctx, order.ID, payment.ID); err != nil {
		// The payment row exists but the order stayed unpaid; the processor's
		// retry hits the dedup path, so this intermediate state is left for
		// the reconciliation sweep.
		s.logger.Error("Failed to mark order paid",
			zap.String("order_id", order.ID.String()),
			zap.String("payment_id", payment.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}
	s.logger.Info("Order settled",
		zap.String("order_id", order.ID.String()),
		zap.String("address", order.Address),
	)

	s.publish(models.PaymentEvent{
		Type:      models.EventPaymentConfirmed,
		OrderID:   order.ID.String(),
		UserID:    order.UserID.String(),
		PaymentID: payment.ID.String(),
		Address:   n.Address,
		Amount:    n.Amount,
		Currency:  n.Currency,
		Timestamp: time.Now().UTC(),
	})

	return &IPNResult{Outcome: IPNCompleted, Order: order, Payment: payment}, nil
}

func (s *ipnServiceImpl) publishRejected(n *models.IPNNotification, reason string) {
	s.publish(models.PaymentEvent{
		Type:      models.EventPaymentRejected,
		Address:   n.Address,
		Amount:    n.Amount,
		Currency:  n.Currency,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	})
}

// publish fans the event out to Kafka and SNS, best-effort.
func (s *ipnServiceImpl) publish(event models.PaymentEvent) {
	if s.producer != nil {
		if err := s.producer.SendPaymentEvent(event); err != nil {
			s.logger.Warn("Failed to publish payment event", zap.String("type", event.Type), zap.Error(err))
		}
	}
	if s.snsClient != nil && s.snsTopicArn != "" {
		payload, _ := json.Marshal(event)
		if err := s.snsClient.Publish(context.Background(), s.snsTopicArn, payload); err != nil {
			s.logger.Warn("SNS publish failed", zap.String("type", event.Type), zap.Error(err))
		}
	}
}
