package providers

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tokensale-service/models"
)

const coinPaymentsAPIURL = "https://www.coinpayments.net/api.php"

// CoinPaymentsProvider implements CryptoProcessor against the CoinPayments
// HTTP API and verifies the IPN callbacks it sends back.
type CoinPaymentsProvider struct {
	publicKey      string
	privateKey     string
	merchantID     string
	merchantSecret string
	httpClient     *http.Client
}

// NewCoinPaymentsProvider creates a new CoinPaymentsProvider. The key pair
// signs outbound API calls; the merchant id/secret authenticate inbound IPNs.
func NewCoinPaymentsProvider(publicKey, privateKey, merchantID, merchantSecret string) *CoinPaymentsProvider {
	return &CoinPaymentsProvider{
		publicKey:      publicKey,
		privateKey:     privateKey,
		merchantID:     merchantID,
		merchantSecret: merchantSecret,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type callbackAddressResponse struct {
	Error  string `json:"error"`
	Result struct {
		Address string `json:"address"`
	} `json:"result"`
}

// GetCallbackAddress requests a fresh deposit address for the currency.
func (c *CoinPaymentsProvider) GetCallbackAddress(ctx context.Context, currency string) (string, error) {
	form := url.Values{}
	form.Set("version", "1")
	form.Set("cmd", "get_callback_address")
	form.Set("key", c.publicKey)
	form.Set("currency", currency)
	form.Set("format", "json")
	body := form.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, coinPaymentsAPIURL, strings.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HMAC", signHMAC(body, c.privateKey))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("coinpayments get_callback_address: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("coinpayments read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("coinpayments status %d: %s", resp.StatusCode, raw)
	}

	var parsed callbackAddressResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("coinpayments decode response: %w", err)
	}
	if parsed.Error != "ok" {
		return "", fmt.Errorf("coinpayments error: %s", parsed.Error)
	}

	return parsed.Result.Address, nil
}

// ParseIPN verifies and decodes an inbound payment notification. The raw
// body must match the HMAC header signed with the merchant secret, and the
// notification's merchant field must match our merchant id.
func (c *CoinPaymentsProvider) ParseIPN(r *http.Request) (*models.IPNNotification, error) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("read ipn body: %w", err)
	}

	sig := r.Header.Get("HMAC")
	if sig == "" {
		return nil, fmt.Errorf("missing HMAC header")
	}
	expected := signHMAC(string(payload), c.merchantSecret)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return nil, fmt.Errorf("ipn signature mismatch")
	}

	form, err := url.ParseQuery(string(payload))
	if err != nil {
		return nil, fmt.Errorf("parse ipn body: %w", err)
	}
	if form.Get("merchant") != c.merchantID {
		return nil, fmt.Errorf("ipn merchant mismatch")
	}

	n := &models.IPNNotification{
		IpnType:  form.Get("ipn_type"),
		IpnID:    form.Get("ipn_id"),
		Address:  form.Get("address"),
		Currency: form.Get("currency"),
		Merchant: form.Get("merchant"),
		TxnID:    form.Get("txn_id"),
	}

	// Numeric fields are absent on some notification types; absent is fine,
	// malformed is not. A broken amount must never degrade to zero.
	if v := form.Get("amount"); v != "" {
		if n.Amount, err = strconv.ParseFloat(v, 64); err != nil {
			return nil, fmt.Errorf("parse ipn amount %q: %w", v, err)
		}
	}
	if v := form.Get("fee"); v != "" {
		if n.Fee, err = strconv.ParseFloat(v, 64); err != nil {
			return nil, fmt.Errorf("parse ipn fee %q: %w", v, err)
		}
	}
	if v := form.Get("confirms"); v != "" {
		if n.Confirms, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("parse ipn confirms %q: %w", v, err)
		}
	}

	return n, nil
}

func signHMAC(body, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}
