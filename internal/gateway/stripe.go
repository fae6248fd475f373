// Package gateway talks to the card processor that charges players.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const defaultBaseURL = "https://api.stripe.com"

var ErrNotConfigured = errors.New("payment gateway is not configured")

// Charge is the part of a processor charge the handlers hand back to clients.
type Charge struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	Paid     bool   `json:"paid"`
}

// ChargeRequest describes a card charge. Destination and ApplicationFee are
// only set for charges routed to a connected host account.
type ChargeRequest struct {
	Amount         decimal.Decimal
	Source         string
	Description    string
	Destination    string
	ApplicationFee decimal.Decimal
}

// APIError is returned when the processor answers with a non-2xx status.
type APIError struct {
	Status  int
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stripe: %d %s: %s", e.Status, e.Type, e.Message)
}

type Client struct {
	baseURL   string
	secretKey string
	http      *http.Client
}

func NewClient(baseURL, secretKey string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		http:      &http.Client{Timeout: 20 * time.Second},
	}
}

// Charge creates a USD charge. Amounts are dollars and sent as cents.
func (c *Client) Charge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	if c.secretKey == "" {
		return nil, ErrNotConfigured
	}

	form := url.Values{}
	form.Set("amount", toCents(req.Amount))
	form.Set("currency", "usd")
	form.Set("source", req.Source)
	if req.Description != "" {
		form.Set("description", req.Description)
	}
	if req.Destination != "" {
		form.Set("destination[account]", req.Destination)
	}
	if req.ApplicationFee.IsPositive() {
		form.Set("application_fee_amount", toCents(req.ApplicationFee))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/charges", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.SetBasicAuth(c.secretKey, "")
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("stripe request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var body struct {
			Error APIError `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			log.Warnf("unreadable stripe error body: %s", err)
		}
		body.Error.Status = resp.StatusCode
		return nil, &body.Error
	}

	var charge Charge
	if err := json.NewDecoder(resp.Body).Decode(&charge); err != nil {
		return nil, fmt.Errorf("decoding charge: %w", err)
	}
	log.WithFields(log.Fields{"charge_id": charge.ID, "amount": charge.Amount, "status": charge.Status}).Info("card charged")
	return &charge, nil
}

func toCents(amount decimal.Decimal) string {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).String()
}
