package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/avvvet/pickup-services/internal/apperror"
	"github.com/avvvet/pickup-services/internal/gamesvc/service"
	"github.com/avvvet/pickup-services/internal/gateway"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"
)

// Charger creates card charges with the payment processor.
type Charger interface {
	Charge(ctx context.Context, req gateway.ChargeRequest) (*gateway.Charge, error)
}

type Handler struct {
	tokenAuth *jwtauth.JWTAuth
	port      string

	games    *service.GameService
	users    *service.UserService
	venues   *service.VenueService
	payments *service.PaymentService
	charger  Charger
}

func NewHandler(tokenAuth *jwtauth.JWTAuth, port string, games *service.GameService, users *service.UserService,
	venues *service.VenueService, payments *service.PaymentService, charger Charger) *Handler {
	return &Handler{
		tokenAuth: tokenAuth,
		port:      port,
		games:     games,
		users:     users,
		venues:    venues,
		payments:  payments,
		charger:   charger,
	}
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error"`
}

func (rs *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)

	json.NewEncoder(w).Encode(rsp)
}

func (h *Handler) ok(w http.ResponseWriter, message string, data interface{}) {
	h.CreateResponse(w, Response{Message: message, Code: http.StatusOK, Data: data})
}

// fail maps err onto a status code. Errors without a known kind are logged
// and answered with a generic message.
func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, apperror.ErrValidation):
		code = http.StatusBadRequest
	case errors.Is(err, apperror.ErrConflict):
		code = http.StatusConflict
	case errors.Is(err, apperror.ErrForbidden):
		code = http.StatusForbidden
	case errors.Is(err, apperror.ErrUnauthorized):
		code = http.StatusUnauthorized
	}

	msg := apperror.Message(err, "something went wrong")
	if code == http.StatusInternalServerError {
		log.Errorf("Error [%s] %s", op, err)
	}
	h.CreateResponse(w, Response{Message: msg, Code: code, Error: msg})
}

func (h *Handler) badRequest(w http.ResponseWriter, msg string) {
	h.CreateResponse(w, Response{Message: msg, Code: http.StatusBadRequest, Error: msg})
}

// decodeJSON reads the request body into v. With strict set, unknown fields are an error.
func decodeJSON(r *http.Request, v interface{}, strict bool) error {
	dec := json.NewDecoder(r.Body)
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(v); err != nil {
		return apperror.ValidationFailed("body", fmt.Sprintf("invalid request body: %s", err))
	}
	return nil
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.ok(w, "game service is running at port "+h.port, nil)
}
