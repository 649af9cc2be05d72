package models

import "time"

// IPNNotification is the wire shape of a deposit notification from the
// crypto payment processor.
type IPNNotification struct {
	IpnType  string  `json:"ipn_type"`
	IpnID    string  `json:"ipn_id"`
	Address  string  `json:"address"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Fee      float64 `json:"fee"`
	Confirms int     `json:"confirms"`
	Merchant string  `json:"merchant"`
	TxnID    string  `json:"txn_id"`
}

// Payment event types published to Kafka/SNS.
const (
	EventPaymentConfirmed = "payment_confirmed"
	EventPaymentRejected  = "payment_rejected"
	EventPaymentCredited  = "payment_credited"
)

// PaymentEvent is the standardized event emitted on payment outcomes.
type PaymentEvent struct {
	Type      string    `json:"type"`
	OrderID   string    `json:"order_id,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	PaymentID string    `json:"payment_id,omitempty"`
	Address   string    `json:"address,omitempty"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
