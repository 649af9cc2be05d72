package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Rail addresses used for non-crypto orders. Crypto orders carry the deposit
// address issued by the payment processor.
const (
	AddressStripe       = "Stripe"
	AddressBankTransfer = "Bank Transfer"
)

// Order is a purchase intent. A crypto order stays unpaid until the processor
// delivers a matching deposit notification; card orders are paid synchronously.
type Order struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	// At most one non-expired order may own a deposit address; the address is
	// the correlation key for incoming payment notifications. The fiat
	// sentinel addresses are excluded so card and bank orders can repeat.
	Address   string         `gorm:"not null;uniqueIndex:idx_orders_active_address,where:expired = false AND address <> 'Stripe' AND address <> 'Bank Transfer'" json:"address"`
	Currency  string         `gorm:"type:varchar(10);not null;index" json:"currency"`
	Price     float64        `gorm:"not null" json:"price"`
	Amount    float64        `gorm:"not null" json:"amount"`
	Paid      bool           `gorm:"not null;default:false" json:"paid"`
	Expired   bool           `gorm:"not null;default:false" json:"expired"`
	PaymentID *uuid.UUID     `gorm:"type:uuid" json:"payment_id,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// OrderView is the read-side projection of an order joined with its payment
// and any wallet log that credited it.
type OrderView struct {
	Order
	PaidAmount float64    `json:"paid_amount"`
	Credited   bool       `json:"credited"`
	PaidTx     *string    `json:"paid_tx,omitempty"`
	Log        *WalletLog `json:"log,omitempty"`
}
