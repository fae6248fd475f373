package handlers

import (
	"net/http"
	"strings"

	"github.com/avvvet/pickup-services/internal/apperror"
	"github.com/avvvet/pickup-services/internal/gamesvc/models"
	"github.com/go-chi/chi"
)

type dropRequest struct {
	Username string `json:"username"`
}

func (h *Handler) ListGames(w http.ResponseWriter, r *http.Request) {
	games, err := h.games.List(r.Context())
	if err != nil {
		h.fail(w, "Handler.ListGames", err)
		return
	}
	h.ok(w, "games", games)
}

func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	game, err := h.games.GetGameByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Handler.GetGame", err)
		return
	}
	h.ok(w, "game", game)
}

func (h *Handler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var in models.GameInput
	if err := decodeJSON(r, &in, false); err != nil {
		h.fail(w, "Handler.CreateGame", err)
		return
	}
	caller, _ := claimUsername(r.Context())
	if in.Host == "" {
		in.Host = caller
	}
	if in.Host != caller && !isAdmin(r.Context()) {
		h.fail(w, "Handler.CreateGame", apperror.Forbidden("games can only be hosted by the caller"))
		return
	}

	game, err := h.games.CreateGame(r.Context(), in)
	if err != nil {
		h.fail(w, "Handler.CreateGame", err)
		return
	}
	h.CreateResponse(w, Response{Message: "game created", Code: http.StatusCreated, Data: game})
}

func (h *Handler) UpdateGame(w http.ResponseWriter, r *http.Request) {
	var patch models.GamePatch
	if err := decodeJSON(r, &patch, false); err != nil {
		h.fail(w, "Handler.UpdateGame", err)
		return
	}

	if !h.allowHost(w, r, "Handler.UpdateGame") {
		return
	}

	game, err := h.games.UpdateGame(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.fail(w, "Handler.UpdateGame", err)
		return
	}
	h.ok(w, "game updated", game)
}

func (h *Handler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	if !h.allowHost(w, r, "Handler.DeleteGame") {
		return
	}

	game, err := h.games.DeleteGame(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Handler.DeleteGame", err)
		return
	}
	h.ok(w, "game deleted", game)
}

func (h *Handler) JoinGame(w http.ResponseWriter, r *http.Request) {
	var req models.JoinRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.fail(w, "Handler.JoinGame", err)
		return
	}

	if req.Username == "" {
		req.Username, _ = claimUsername(r.Context())
	}
	if !h.allowPlayer(w, r, "Handler.JoinGame", req.Username) {
		return
	}

	game, err := h.games.JoinPlayer(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.fail(w, "Handler.JoinGame", err)
		return
	}
	h.ok(w, "player added", game)
}

func (h *Handler) DropPlayer(w http.ResponseWriter, r *http.Request) {
	var req dropRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.fail(w, "Handler.DropPlayer", err)
		return
	}

	if !h.allowPlayer(w, r, "Handler.DropPlayer", req.Username) {
		return
	}

	game, err := h.games.DropPlayer(r.Context(), chi.URLParam(r, "id"), req.Username)
	if err != nil {
		h.fail(w, "Handler.DropPlayer", err)
		return
	}
	h.ok(w, "player dropped", game)
}

func (h *Handler) CancelGame(w http.ResponseWriter, r *http.Request) {
	if !h.allowHost(w, r, "Handler.CancelGame") {
		return
	}

	game, err := h.games.CancelGame(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Handler.CancelGame", err)
		return
	}
	h.ok(w, "game cancelled", game)
}

func (h *Handler) Broadcast(w http.ResponseWriter, r *http.Request) {
	var b models.Broadcast
	if err := decodeJSON(r, &b, false); err != nil {
		h.fail(w, "Handler.Broadcast", err)
		return
	}

	if err := h.games.Broadcast(r.Context(), chi.URLParam(r, "id"), b); err != nil {
		h.fail(w, "Handler.Broadcast", err)
		return
	}
	h.ok(w, "Message Sent", nil)
}

// allowHost answers 403 unless the caller hosts the game in the URL or is an admin.
func (h *Handler) allowHost(w http.ResponseWriter, r *http.Request, op string) bool {
	game, err := h.games.GetGameByID(r.Context(), chi.URLParam(r, "id"))
	if err == nil {
		err = authorizeHost(r.Context(), game)
	}
	if err != nil {
		h.fail(w, op, err)
		return false
	}
	return true
}

// allowPlayer is allowHost that also lets the player act on their own spot.
func (h *Handler) allowPlayer(w http.ResponseWriter, r *http.Request, op, username string) bool {
	game, err := h.games.GetGameByID(r.Context(), chi.URLParam(r, "id"))
	if err == nil {
		err = authorizePlayer(r.Context(), game, strings.TrimSpace(username))
	}
	if err != nil {
		h.fail(w, op, err)
		return false
	}
	return true
}
