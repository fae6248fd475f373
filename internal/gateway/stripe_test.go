package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChargeSendsCents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/charges", r.URL.Path)

		user, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "sk_test", user)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "1250", r.PostForm.Get("amount"))
		assert.Equal(t, "usd", r.PostForm.Get("currency"))
		assert.Equal(t, "tok_visa", r.PostForm.Get("source"))
		assert.Equal(t, "acct_1", r.PostForm.Get("destination[account]"))
		assert.Equal(t, "50", r.PostForm.Get("application_fee_amount"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"ch_1","amount":1250,"currency":"usd","status":"succeeded","paid":true}`))
	}))
	defer srv.Close()

	charge, err := NewClient(srv.URL, "sk_test").Charge(context.Background(), ChargeRequest{
		Amount:         decimal.RequireFromString("12.50"),
		Source:         "tok_visa",
		Destination:    "acct_1",
		ApplicationFee: decimal.RequireFromString("0.50"),
	})

	require.NoError(t, err)
	assert.Equal(t, "ch_1", charge.ID)
	assert.Equal(t, int64(1250), charge.Amount)
	assert.True(t, charge.Paid)
}

func TestChargeReturnsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"type":"card_error","code":"card_declined","message":"Your card was declined."}}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "sk_test").Charge(context.Background(), ChargeRequest{Amount: decimal.NewFromInt(5), Source: "tok"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusPaymentRequired, apiErr.Status)
	assert.Equal(t, "card_declined", apiErr.Code)
}

func TestChargeWithoutKey(t *testing.T) {
	_, err := NewClient("", "").Charge(context.Background(), ChargeRequest{Amount: decimal.NewFromInt(5)})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
