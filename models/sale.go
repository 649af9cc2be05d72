package models

import (
	"time"

	"github.com/google/uuid"
)

// Currency is a fetched market price entry; prices come from an external
// feed, this service only serves them.
type Currency struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Slug        string    `gorm:"not null;uniqueIndex" json:"slug"`
	Symbol      string    `gorm:"type:varchar(10);not null" json:"symbol"`
	PriceEUR    string    `gorm:"column:price_eur" json:"price_eur"`
	PriceUSD    string    `gorm:"column:price_usd" json:"price_usd"`
	LastUpdated string    `json:"last_updated"`
	Exponent    int       `json:"exponent"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"-"`
}

// Stats is the running sale counters row; the production row has Prod=true.
type Stats struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Sold         float64    `gorm:"not null;default:0" json:"sold"`
	Fund         RefBalance `gorm:"embedded;embeddedPrefix:fund_" json:"fund"`
	Contributors int        `gorm:"not null;default:0" json:"contributors"`
	Prod         bool       `gorm:"not null;default:true" json:"prod"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"-"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"-"`
}

// SaleStats is the aggregate served to the sale dashboard.
type SaleStats struct {
	Fund         RefBalance `json:"fund"`
	Sold         float64    `json:"sold"`
	Contributors int        `json:"contributors"`
	Orders       int64      `json:"orders"`
	Credits      int64      `json:"credits"`
}

// ReferralBonus is a computed bonus to apply to a referrer's wallet when a
// referred user's payment is credited.
type ReferralBonus struct {
	ReferrerID uuid.UUID
	Level      int
	Amount     float64
	Currency   string
}

// Referral links a buyer to the users who referred them. Bonus percentages
// are resolved from the level at crediting time.
type Referral struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index:idx_referrals_user_referrer,unique" json:"user_id"`
	ReferrerID uuid.UUID `gorm:"type:uuid;not null;index:idx_referrals_user_referrer,unique" json:"referrer_id"`
	Level      int       `gorm:"not null;default:1" json:"level"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"-"`
}
