package handlers

import (
	"net/http"

	"github.com/avvvet/pickup-services/internal/gamesvc/models"
	"github.com/avvvet/pickup-services/internal/gamesvc/service"
	"github.com/go-chi/chi"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var reg service.Registration
	if err := decodeJSON(r, &reg, false); err != nil {
		h.fail(w, "Handler.Register", err)
		return
	}

	user, err := h.users.Register(r.Context(), reg)
	if err != nil {
		h.fail(w, "Handler.Register", err)
		return
	}

	token, err := h.issueToken(user)
	if err != nil {
		h.fail(w, "Handler.Register", err)
		return
	}
	h.CreateResponse(w, Response{Message: "user registered", Code: http.StatusCreated, Data: authResponse{Token: token, User: user}})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.fail(w, "Handler.Login", err)
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, "Handler.Login", err)
		return
	}

	token, err := h.issueToken(user)
	if err != nil {
		h.fail(w, "Handler.Login", err)
		return
	}
	h.ok(w, "logged in", authResponse{Token: token, User: user})
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if err := authorizeUser(r.Context(), username); err != nil {
		h.fail(w, "Handler.GetUser", err)
		return
	}

	user, err := h.users.GetByUsername(r.Context(), username)
	if err != nil {
		h.fail(w, "Handler.GetUser", err)
		return
	}
	h.ok(w, "user", user)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if err := authorizeUser(r.Context(), username); err != nil {
		h.fail(w, "Handler.UpdateProfile", err)
		return
	}

	var patch models.ProfilePatch
	if err := decodeJSON(r, &patch, true); err != nil {
		h.fail(w, "Handler.UpdateProfile", err)
		return
	}

	profile, err := h.users.UpdateProfile(r.Context(), username, patch)
	if err != nil {
		h.fail(w, "Handler.UpdateProfile", err)
		return
	}
	h.ok(w, "profile updated", profile)
}
