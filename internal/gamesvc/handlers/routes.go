package handlers

import (
	"context"
	"time"

	"github.com/avvvet/pickup-services/internal/apperror"
	"github.com/avvvet/pickup-services/internal/gamesvc/models"
	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
)

const tokenTTL = 7 * 24 * time.Hour

func (h *Handler) SetRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {

		// public routes here
		r.Get("/health", h.HealthHandler)
		r.Post("/login", h.Login)
		r.Post("/register", h.Register)
		r.Get("/games", h.ListGames)
		r.Get("/games/{id}", h.GetGame)
		r.Get("/venues", h.ListVenues)

		// Secure routes
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(h.tokenAuth))
			r.Use(jwtauth.Authenticator)

			r.Post("/games", h.CreateGame)
			r.Put("/games/{id}", h.UpdateGame)
			r.Delete("/games/{id}", h.DeleteGame)
			r.Put("/games/{id}/add", h.JoinGame)
			r.Put("/games/{id}/drop", h.DropPlayer)
			r.Put("/games/{id}/cancel", h.CancelGame)
			r.Post("/games/{id}/notification", h.Broadcast)

			r.Post("/venues", h.CreateVenue)
			r.Post("/venue", h.CreateVenue)

			r.Get("/user/{username}", h.GetUser)
			r.Put("/user/{username}", h.UpdateProfile)

			r.Get("/activePayments", h.ActivePayments)
			r.Post("/payouts", h.Payouts)
			r.Post("/save-stripe-token", h.SaveStripeToken)
			r.Post("/create-payment", h.CreatePayment)
		})
	})
}

// NewTokenAuth builds the HS256 signer and verifier for user tokens.
func NewTokenAuth(secret string) *jwtauth.JWTAuth {
	return jwtauth.New("HS256", []byte(secret), nil)
}

func (h *Handler) issueToken(user *models.User) (string, error) {
	_, tokenString, err := h.tokenAuth.Encode(map[string]interface{}{
		"sub":      user.ID.Hex(),
		"username": user.Username,
		"role":     user.Role,
		"exp":      time.Now().Add(tokenTTL).Unix(),
	})
	return tokenString, err
}

// claimUsername returns the username carried by the verified token.
func claimUsername(ctx context.Context) (string, bool) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", false
	}
	username, ok := claims["username"].(string)
	return username, ok && username != ""
}

func isAdmin(ctx context.Context) bool {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return false
	}
	role, ok := claims["role"].(float64)
	return ok && int(role) == models.RoleAdmin
}

// authorizeUser allows the account owner and admins.
func authorizeUser(ctx context.Context, username string) error {
	if isAdmin(ctx) {
		return nil
	}
	if current, ok := claimUsername(ctx); ok && current == username {
		return nil
	}
	return apperror.Forbidden("not allowed to access another user's account")
}

// authorizeHost allows the host of game and admins.
func authorizeHost(ctx context.Context, game *models.Game) error {
	if isAdmin(ctx) {
		return nil
	}
	if current, ok := claimUsername(ctx); ok && current == game.Host {
		return nil
	}
	return apperror.Forbidden("only the host can change this game")
}

// authorizePlayer allows the player themselves, the host of game and admins.
func authorizePlayer(ctx context.Context, game *models.Game, username string) error {
	if current, ok := claimUsername(ctx); ok && current == username {
		return nil
	}
	return authorizeHost(ctx, game)
}
