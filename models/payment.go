package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment is a confirmed funds-received event. Exactly one row exists per
// provider notification id; the unique index on ipn_id is the enforcement
// point, handler-side checks are an optimization.
type Payment struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Address    string         `gorm:"not null;index" json:"address"`
	Currency   string         `gorm:"type:varchar(10);not null;index" json:"currency"`
	Amount     float64        `gorm:"not null" json:"amount"`
	OrderPrice float64        `gorm:"not null" json:"order_price"`
	CpFee      float64        `gorm:"not null;default:0" json:"cp_fee"`
	Confirms   int            `json:"confirms"`
	MerchantID string         `gorm:"not null" json:"merchant_id"`
	IpnID      string         `gorm:"not null;uniqueIndex" json:"ipn_id"`
	TxnID      string         `gorm:"not null" json:"txn_id"`
	Credited   bool           `gorm:"not null;default:false" json:"credited"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}
