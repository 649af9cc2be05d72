package providers

import "context"

// CardCharge is the outcome of a synchronous card charge.
type CardCharge struct {
	ID       string
	Paid     bool
	Amount   int64
	Currency string
	TxnID    string
}

// CardProcessor charges a tokenized card synchronously.
type CardProcessor interface {
	Charge(ctx context.Context, amountMinor int64, currency, token, description string) (*CardCharge, error)
}

// CryptoProcessor issues deposit addresses and authenticates the asynchronous
// deposit notifications that later arrive for them.
type CryptoProcessor interface {
	GetCallbackAddress(ctx context.Context, currency string) (string, error)
}
