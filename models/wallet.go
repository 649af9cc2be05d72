package models

import (
	"time"

	"github.com/google/uuid"
)

// WalletLabelToken is the default wallet label; one wallet exists per
// (user, label) pair, enforced by a composite unique index.
const WalletLabelToken = "token"

// Referral bonus statuses.
const (
	RefStatusNot     = "not"
	RefStatusPending = "pending"
	RefStatusPaid    = "paid"
)

// RefBalance tracks referral bonuses owed per payment currency.
type RefBalance struct {
	BTC  float64 `gorm:"not null;default:0" json:"BTC"`
	LTC  float64 `gorm:"not null;default:0" json:"LTC"`
	ETH  float64 `gorm:"not null;default:0" json:"ETH"`
	DASH float64 `gorm:"not null;default:0" json:"DASH"`
	USD  float64 `gorm:"not null;default:0" json:"USD"`
	EUR  float64 `gorm:"not null;default:0" json:"EUR"`
	LTCT float64 `gorm:"not null;default:0" json:"LTCT"`
}

// RefBalanceColumn returns the database column holding the referral balance
// for a currency, or "" if the currency is unsupported.
func RefBalanceColumn(currency string) string {
	switch currency {
	case "BTC", "LTC", "ETH", "DASH", "USD", "EUR", "LTCT":
		return "ref_balance_" + toSnakeLower(currency)
	}
	return ""
}

func toSnakeLower(s string) string {
	b := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		b[i] = c
	}
	return string(b)
}

// Wallet is a user's token ledger: credited balance plus append-only credit
// and referral logs.
type Wallet struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_wallets_user_label" json:"user_id"`
	Label      string     `gorm:"not null;default:'token';uniqueIndex:idx_wallets_user_label" json:"label"`
	Address    *string    `json:"address,omitempty"`
	Balance    float64    `gorm:"not null;default:0" json:"balance"`
	RefBalance RefBalance `gorm:"embedded;embeddedPrefix:ref_balance_" json:"ref_balance"`
	Disabled   bool       `gorm:"not null;default:false" json:"disabled"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Logs    []WalletLog    `gorm:"foreignKey:WalletID" json:"logs"`
	RefLogs []WalletRefLog `gorm:"foreignKey:WalletID" json:"ref_logs"`
}

// WalletLog records one credit applied to the wallet balance. The unique
// index on payment_id keeps log entries 1:1 with credited payments.
type WalletLog struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	WalletID  uuid.UUID `gorm:"type:uuid;not null;index" json:"wallet_id"`
	PaymentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"payment_id"`
	Addition  float64   `gorm:"not null;default:0" json:"addition"`
	TxHash    *string   `json:"tx_hash,omitempty"`
	Timestamp time.Time `gorm:"not null" json:"timestamp"`
}

// WalletRefLog records one referral bonus earned from a referred user's payment.
type WalletRefLog struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	WalletID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"wallet_id"`
	RefUserID uuid.UUID  `gorm:"type:uuid;not null;index" json:"ref_user_id"`
	PaymentID *uuid.UUID `gorm:"type:uuid" json:"payment_id,omitempty"`
	Addition  float64    `gorm:"not null;default:0" json:"addition"`
	Currency  string     `gorm:"type:varchar(10)" json:"currency"`
	Paid      bool       `gorm:"not null;default:false" json:"paid"`
	Status    string     `gorm:"type:varchar(10);not null;default:'not'" json:"status"`
	Timestamp time.Time  `json:"timestamp"`
}
