package providers

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/charge"
)

// StripeProvider implements CardProcessor using the Stripe charges API.
type StripeProvider struct {
	secretKey string
}

// NewStripeProvider creates a new StripeProvider.
func NewStripeProvider(secretKey string) *StripeProvider {
	stripe.Key = secretKey
	return &StripeProvider{secretKey: secretKey}
}

// Charge charges the card source for the given amount in minor units.
func (s *StripeProvider) Charge(ctx context.Context, amountMinor int64, currency, token, description string) (*CardCharge, error) {
	params := &stripe.ChargeParams{
		Amount:      stripe.Int64(amountMinor),
		Currency:    stripe.String(currency),
		Description: stripe.String(description),
	}
	params.Context = ctx
	if err := params.SetSource(token); err != nil {
		return nil, fmt.Errorf("stripe charge source: %w", err)
	}

	ch, err := charge.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe charge: %w", err)
	}

	txnID := ""
	if ch.BalanceTransaction != nil {
		txnID = ch.BalanceTransaction.ID
	}

	return &CardCharge{
		ID:       ch.ID,
		Paid:     ch.Paid,
		Amount:   ch.Amount,
		Currency: string(ch.Currency),
		TxnID:    txnID,
	}, nil
}
