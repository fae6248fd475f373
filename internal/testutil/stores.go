// Package testutil holds in-memory stand-ins for the mongo stores and the
// NATS publishers, plus fixtures shared by the service and handler tests.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/avvvet/pickup-services/internal/apperror"
	"github.com/avvvet/pickup-services/internal/gamesvc/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type GameStore struct {
	mu    sync.Mutex
	games map[primitive.ObjectID]*models.Game
	Saves int
}

func NewGameStore(games ...*models.Game) *GameStore {
	s := &GameStore{games: map[primitive.ObjectID]*models.Game{}}
	for _, g := range games {
		if g.ID.IsZero() {
			g.ID = primitive.NewObjectID()
		}
		s.games[g.ID] = cloneGame(g)
	}
	return s
}

func (s *GameStore) List(ctx context.Context) ([]*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Game, 0, len(s.games))
	for _, g := range s.games {
		out = append(out, cloneGame(g))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *GameStore) GetByID(ctx context.Context, id string) (*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperror.NotFound("game", id)
	}
	g, ok := s.games[oid]
	if !ok {
		return nil, apperror.NotFound("game", id)
	}
	return cloneGame(g), nil
}

func (s *GameStore) Create(ctx context.Context, game *models.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	game.ID = primitive.NewObjectID()
	game.CreatedAt = time.Now().UTC()
	game.UpdatedAt = game.CreatedAt
	s.games[game.ID] = cloneGame(game)
	return nil
}

func (s *GameStore) Save(ctx context.Context, game *models.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.games[game.ID]; !ok {
		return apperror.NotFound("game", game.ID.Hex())
	}
	game.UpdatedAt = time.Now().UTC()
	s.games[game.ID] = cloneGame(game)
	s.Saves++
	return nil
}

func (s *GameStore) Delete(ctx context.Context, id string) (*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperror.NotFound("game", id)
	}
	g, ok := s.games[oid]
	if !ok {
		return nil, apperror.NotFound("game", id)
	}
	delete(s.games, oid)
	return g, nil
}

// Get returns the stored copy of a game, or nil.
func (s *GameStore) Get(id primitive.ObjectID) *models.Game {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.games[id]; ok {
		return cloneGame(g)
	}
	return nil
}

type UserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func NewUserStore(users ...*models.User) *UserStore {
	s := &UserStore{users: map[string]*models.User{}}
	for _, u := range users {
		if u.ID.IsZero() {
			u.ID = primitive.NewObjectID()
		}
		s.users[u.Username] = cloneUser(u)
	}
	return s
}

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == user.Username || u.Email == user.Email {
			return apperror.Conflict("username or email already in use")
		}
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	s.users[user.Username] = cloneUser(user)
	return nil
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return nil, apperror.NotFound("user", username)
	}
	return cloneUser(u), nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = strings.ToLower(email)
	for _, u := range s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (s *UserStore) FindByUsernames(ctx context.Context, usernames []string) ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.User
	for _, name := range usernames {
		if u, ok := s.users[name]; ok {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func (s *UserStore) ListNotifiable(ctx context.Context) ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.User
	for _, u := range s.users {
		if u.Profile.Notify {
			out = append(out, cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *UserStore) Save(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.Username]; !ok {
		return apperror.NotFound("user", user.Username)
	}
	s.users[user.Username] = cloneUser(user)
	return nil
}

func (s *UserStore) AddPayment(ctx context.Context, username string, p models.ProfilePayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return apperror.NotFound("user", username)
	}
	u.Profile.Payments = append(u.Profile.Payments, p)
	return nil
}

func (s *UserStore) RemovePayment(ctx context.Context, username string, gameID primitive.ObjectID, from string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return apperror.NotFound("user", username)
	}
	kept := u.Profile.Payments[:0]
	for _, p := range u.Profile.Payments {
		if p.GameID == gameID && p.From == from {
			continue
		}
		kept = append(kept, p)
	}
	u.Profile.Payments = kept
	return nil
}

func (s *UserStore) IncrementLoginCount(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return apperror.NotFound("user", username)
	}
	u.Metrics.LoginCount++
	return nil
}

type PaymentStore struct {
	mu       sync.Mutex
	payments []*models.Payment
	// Err, when set, is returned by Create.
	Err error
}

func NewPaymentStore(payments ...*models.Payment) *PaymentStore {
	s := &PaymentStore{}
	for _, p := range payments {
		if p.ID.IsZero() {
			p.ID = primitive.NewObjectID()
		}
		c := *p
		s.payments = append(s.payments, &c)
	}
	return s
}

func (s *PaymentStore) Create(ctx context.Context, p *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}
	p.ID = primitive.NewObjectID()
	p.CreatedAt = time.Now().UTC()
	c := *p
	s.payments = append(s.payments, &c)
	return nil
}

func (s *PaymentStore) ListUnpaid(ctx context.Context) ([]*models.Payment, error) {
	return s.filter(func(p *models.Payment) bool { return !p.Paid && p.VoidedAt == nil }), nil
}

func (s *PaymentStore) ListDue(ctx context.Context, before time.Time) ([]*models.Payment, error) {
	return s.filter(func(p *models.Payment) bool {
		return !p.Paid && p.RequestedAt == nil && p.VoidedAt == nil && !p.PayoutDate.After(before)
	}), nil
}

func (s *PaymentStore) DeleteUnpaid(ctx context.Context, gameID primitive.ObjectID, payer string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	kept := s.payments[:0]
	for _, p := range s.payments {
		if p.GameID == gameID && p.Payer == payer && !p.Paid {
			n++
			continue
		}
		kept = append(kept, p)
	}
	s.payments = kept
	return n, nil
}

func (s *PaymentStore) MarkRequested(ctx context.Context, ids []primitive.ObjectID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.payments {
		if containsID(ids, p.ID) {
			t := at
			p.RequestedAt = &t
		}
	}
	return nil
}

func (s *PaymentStore) MarkPaid(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, p := range s.payments {
		if containsID(ids, p.ID) && !p.Paid {
			p.Paid = true
			n++
		}
	}
	return n, nil
}

func (s *PaymentStore) Void(ctx context.Context, ids []primitive.ObjectID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.payments {
		if containsID(ids, p.ID) {
			t := at
			p.VoidedAt = &t
		}
	}
	return nil
}

func (s *PaymentStore) Reschedule(ctx context.Context, gameID primitive.ObjectID, payoutDate time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, p := range s.payments {
		if p.GameID == gameID && !p.Paid && p.RequestedAt == nil && p.VoidedAt == nil {
			p.PayoutDate = payoutDate
			n++
		}
	}
	return n, nil
}

// All returns a copy of every stored payment.
func (s *PaymentStore) All() []*models.Payment {
	return s.filter(func(*models.Payment) bool { return true })
}

func (s *PaymentStore) filter(keep func(*models.Payment) bool) []*models.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*models.Payment{}
	for _, p := range s.payments {
		if keep(p) {
			c := *p
			out = append(out, &c)
		}
	}
	return out
}

type EmailQueueStore struct {
	mu      sync.Mutex
	entries []*models.EmailQueue
}

func (s *EmailQueueStore) Enqueue(ctx context.Context, e *models.EmailQueue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.ID = primitive.NewObjectID()
	e.CreatedAt = time.Now().UTC()
	c := *e
	s.entries = append(s.entries, &c)
	return nil
}

func (s *EmailQueueStore) ListDue(ctx context.Context, now time.Time) ([]*models.EmailQueue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.EmailQueue
	for _, e := range s.entries {
		if !e.Sent && !e.SendDate.After(now) {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *EmailQueueStore) MarkSent(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.ID == id {
			e.Sent = true
			sentAt := at
			e.SentAt = &sentAt
			return nil
		}
	}
	return apperror.NotFound("email queue entry", id.Hex())
}

func (s *EmailQueueStore) Reschedule(ctx context.Context, gameID primitive.ObjectID, sendDate time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, e := range s.entries {
		if e.GameID == gameID && !e.Sent {
			e.SendDate = sendDate
			n++
		}
	}
	return n, nil
}

func (s *EmailQueueStore) All() []models.EmailQueue {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.EmailQueue, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, *e)
	}
	return out
}

type VenueStore struct {
	mu     sync.Mutex
	venues []*models.Venue
}

func (s *VenueStore) List(ctx context.Context) ([]*models.Venue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Venue, 0, len(s.venues))
	for _, v := range s.venues {
		c := *v
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *VenueStore) Create(ctx context.Context, v *models.Venue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v.ID = primitive.NewObjectID()
	c := *v
	s.venues = append(s.venues, &c)
	return nil
}

func cloneGame(g *models.Game) *models.Game {
	c := *g
	c.Players = append([]string(nil), g.Players...)
	c.Invited = append([]string(nil), g.Invited...)
	return &c
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Profile.EmailList = append([]string(nil), u.Profile.EmailList...)
	c.Profile.Payments = append([]models.ProfilePayment(nil), u.Profile.Payments...)
	return &c
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
