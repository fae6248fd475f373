package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/avvvet/pickup-services/internal/gateway"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type stripeTokenRequest struct {
	Token struct {
		ID string `json:"id"`
	} `json:"token"`
	Amount decimal.Decimal `json:"amount"`
	Game   string          `json:"game"`
	User   string          `json:"user"`
}

type createPaymentRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	Source         string          `json:"source"`
	Destination    string          `json:"destination"`
	ApplicationFee decimal.Decimal `json:"applicationFee"`
}

type payoutsRequest struct {
	PaymentIDs []string `json:"paymentIds"`
}

func (h *Handler) ActivePayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.payments.ListActive(r.Context())
	if err != nil {
		h.fail(w, "Handler.ActivePayments", err)
		return
	}
	h.ok(w, "active payments", payments)
}

// Payouts is called back by the payout processor once hosts have been paid.
func (h *Handler) Payouts(w http.ResponseWriter, r *http.Request) {
	var req payoutsRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.fail(w, "Handler.Payouts", err)
		return
	}

	n, err := h.payments.Settle(r.Context(), req.PaymentIDs)
	if err != nil {
		h.fail(w, "Handler.Payouts", err)
		return
	}
	h.ok(w, "payments settled", map[string]int64{"settled": n})
}

func (h *Handler) SaveStripeToken(w http.ResponseWriter, r *http.Request) {
	var req stripeTokenRequest
	if err := decodeJSON(r, &req, false); err != nil || req.Token.ID == "" {
		h.badRequest(w, "payment info not valid or not provided")
		return
	}
	if !req.Amount.IsPositive() {
		h.badRequest(w, "amount must be positive")
		return
	}

	charge, err := h.charger.Charge(r.Context(), gateway.ChargeRequest{
		Amount:      req.Amount,
		Source:      req.Token.ID,
		Description: fmt.Sprintf("%s joined %s", req.User, req.Game),
	})
	if err != nil {
		h.chargeFailed(w, "Handler.SaveStripeToken", err)
		return
	}
	h.ok(w, "payment successful", charge)
}

func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.fail(w, "Handler.CreatePayment", err)
		return
	}
	if req.Source == "" || req.Destination == "" || !req.Amount.IsPositive() {
		h.badRequest(w, "payment info not valid or not provided")
		return
	}

	charge, err := h.charger.Charge(r.Context(), gateway.ChargeRequest{
		Amount:         req.Amount,
		Source:         req.Source,
		Destination:    req.Destination,
		ApplicationFee: req.ApplicationFee,
	})
	if err != nil {
		h.chargeFailed(w, "Handler.CreatePayment", err)
		return
	}
	h.ok(w, "payment successful", charge)
}

// chargeFailed passes processor declines on to the client as 402.
func (h *Handler) chargeFailed(w http.ResponseWriter, op string, err error) {
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) {
		log.WithError(err).Warnf("Error [%s] charge declined", op)
		h.CreateResponse(w, Response{Message: apiErr.Message, Code: http.StatusPaymentRequired, Error: apiErr.Message})
		return
	}
	h.fail(w, op, err)
}
