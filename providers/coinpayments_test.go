package providers_test

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"tokensale-service/providers"

	"github.com/stretchr/testify/assert"
)

const (
	testMerchantID = "merchant-1"
	testIPNSecret  = "super-secret"
)

func newTestProvider() *providers.CoinPaymentsProvider {
	return providers.NewCoinPaymentsProvider("pub", "priv", testMerchantID, testIPNSecret)
}

func sign(body, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func ipnBody(merchant string) string {
	form := url.Values{}
	form.Set("ipn_type", "deposit")
	form.Set("ipn_id", "ipn-1")
	form.Set("address", "bc1qdeposit")
	form.Set("amount", "0.5")
	form.Set("currency", "BTC")
	form.Set("fee", "0.0005")
	form.Set("confirms", "3")
	form.Set("merchant", merchant)
	form.Set("txn_id", "tx-abc")
	return form.Encode()
}

func signedRequest(body, sig string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/ipn", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if sig != "" {
		req.Header.Set("HMAC", sig)
	}
	return req
}

func TestParseIPN_Valid(t *testing.T) {
	p := newTestProvider()
	body := ipnBody(testMerchantID)

	n, err := p.ParseIPN(signedRequest(body, sign(body, testIPNSecret)))

	assert.NoError(t, err)
	assert.Equal(t, "deposit", n.IpnType)
	assert.Equal(t, "ipn-1", n.IpnID)
	assert.Equal(t, "bc1qdeposit", n.Address)
	assert.Equal(t, 0.5, n.Amount)
	assert.Equal(t, "BTC", n.Currency)
	assert.Equal(t, 0.0005, n.Fee)
	assert.Equal(t, 3, n.Confirms)
	assert.Equal(t, "tx-abc", n.TxnID)
}

func TestParseIPN_MissingSignature(t *testing.T) {
	p := newTestProvider()
	body := ipnBody(testMerchantID)

	n, err := p.ParseIPN(signedRequest(body, ""))

	assert.Error(t, err)
	assert.Nil(t, n)
}

func TestParseIPN_BadSignature(t *testing.T) {
	p := newTestProvider()
	body := ipnBody(testMerchantID)

	n, err := p.ParseIPN(signedRequest(body, sign(body, "wrong-secret")))

	assert.Error(t, err)
	assert.Nil(t, n)
}

func TestParseIPN_TamperedBody(t *testing.T) {
	p := newTestProvider()
	body := ipnBody(testMerchantID)
	sig := sign(body, testIPNSecret)
	tampered := strings.Replace(body, "0.5", "50", 1)

	n, err := p.ParseIPN(signedRequest(tampered, sig))

	assert.Error(t, err)
	assert.Nil(t, n)
}

func TestParseIPN_MalformedAmount(t *testing.T) {
	p := newTestProvider()
	form := url.Values{}
	form.Set("ipn_type", "deposit")
	form.Set("ipn_id", "ipn-1")
	form.Set("address", "bc1qdeposit")
	form.Set("amount", "not-a-number")
	form.Set("currency", "BTC")
	form.Set("merchant", testMerchantID)
	body := form.Encode()

	n, err := p.ParseIPN(signedRequest(body, sign(body, testIPNSecret)))

	assert.Error(t, err)
	assert.Nil(t, n)
}

func TestParseIPN_AbsentNumericFields(t *testing.T) {
	p := newTestProvider()
	form := url.Values{}
	form.Set("ipn_type", "api")
	form.Set("ipn_id", "ipn-2")
	form.Set("merchant", testMerchantID)
	body := form.Encode()

	n, err := p.ParseIPN(signedRequest(body, sign(body, testIPNSecret)))

	assert.NoError(t, err)
	assert.Equal(t, float64(0), n.Amount)
	assert.Equal(t, 0, n.Confirms)
}

func TestParseIPN_MerchantMismatch(t *testing.T) {
	p := newTestProvider()
	body := ipnBody("someone-else")

	n, err := p.ParseIPN(signedRequest(body, sign(body, testIPNSecret)))

	assert.Error(t, err)
	assert.Nil(t, n)
}
