package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/avvvet/pickup-services/internal/apperror"
	"github.com/avvvet/pickup-services/internal/comm"
	"github.com/avvvet/pickup-services/internal/gamesvc/models"
	"github.com/avvvet/pickup-services/internal/gamesvc/notify"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// reminders for public games go out this long before the game starts
const reminderLead = 24 * time.Hour

// GameService applies roster operations to games and fires their side effects.
// Side effects never fail the request: they are logged and left as they are.
type GameService struct {
	games    GameStore
	users    UserStore
	queue    EmailQueueStore
	payments *PaymentService
	mailer   Mailer
	events   EventPublisher
	policy   *notify.Policy
	tasks    *Tasks
}

func NewGameService(games GameStore, users UserStore, queue EmailQueueStore, payments *PaymentService,
	mailer Mailer, events EventPublisher, policy *notify.Policy, tasks *Tasks) *GameService {
	return &GameService{
		games:    games,
		users:    users,
		queue:    queue,
		payments: payments,
		mailer:   mailer,
		events:   events,
		policy:   policy,
		tasks:    tasks,
	}
}

func (s *GameService) List(ctx context.Context) ([]*models.Game, error) {
	return s.games.List(ctx)
}

func (s *GameService) GetGameByID(ctx context.Context, id string) (*models.Game, error) {
	return s.games.GetByID(ctx, id)
}

// CreateGame stores a new game with the host as its only player.
func (s *GameService) CreateGame(ctx context.Context, in models.GameInput) (*models.Game, error) {
	gameType, err := normalizeGameType(in.Type)
	if err != nil {
		return nil, err
	}

	game := &models.Game{
		Name:          strings.TrimSpace(in.Name),
		Date:          in.Date,
		Type:          gameType,
		Location:      strings.TrimSpace(in.Location),
		Host:          strings.TrimSpace(in.Host),
		MaxPlayers:    in.MaxPlayers,
		CostPerPlayer: in.CostPerPlayer,
		Invited:       []string{},
		Active:        true,
	}
	if len(in.EmailList) > 0 {
		game.Invited = in.EmailList
	} else if len(in.Invited) > 0 {
		game.Invited = in.Invited
	}
	game.Players = []string{game.Host}

	if err := validateGame(game); err != nil {
		return nil, err
	}

	if err := s.games.Create(ctx, game); err != nil {
		return nil, fmt.Errorf("creating game: %w", err)
	}
	log.WithFields(log.Fields{"game_id": game.ID.Hex(), "host": game.Host, "type": game.Type}).Info("game created")

	s.publish(comm.TypeGameCreated, game, game.Host)

	if game.IsPrivate() {
		if msg, ok := s.policy.PrivateInvite(game); ok {
			s.dispatch(game, msg)
		}
		return game, nil
	}

	entry := &models.EmailQueue{GameID: game.ID, SendDate: game.Date.Add(-reminderLead)}
	if err := s.queue.Enqueue(context.WithoutCancel(ctx), entry); err != nil {
		log.WithError(err).WithField("game_id", game.ID.Hex()).Error("Error [GameService.CreateGame] queueing reminder")
	}

	return game, nil
}

// UpdateGame overwrites the fields present in patch. Players are e-mailed only
// when the location or the date changed.
func (s *GameService) UpdateGame(ctx context.Context, id string, patch models.GamePatch) (*models.Game, error) {
	game, err := s.games.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previousDate := game.Date
	meaningful := applyPatch(game, patch)
	gameType, err := normalizeGameType(game.Type)
	if err != nil {
		return nil, err
	}
	game.Type = gameType
	if err := validateGame(game); err != nil {
		return nil, err
	}
	if (patch.Players != nil || patch.Host != nil) && !game.HasPlayer(game.Host) {
		return nil, apperror.ValidationFailed("players", "host must stay on the roster")
	}

	if err := s.games.Save(ctx, game); err != nil {
		return nil, fmt.Errorf("updating game: %w", err)
	}

	s.publish(comm.TypeGameUpdated, game, "")

	if !game.Date.Equal(previousDate) {
		s.reschedule(context.WithoutCancel(ctx), copyGame(game))
	}
	if meaningful {
		s.notifyRoster(game, s.policy.GameUpdated)
	}
	return game, nil
}

// JoinPlayer appends a player to the roster. For anyone but the host it also
// e-mails the player and the host and records the fee owed to the host.
func (s *GameService) JoinPlayer(ctx context.Context, id string, req models.JoinRequest) (*models.Game, error) {
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}

	game, err := s.games.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch {
	case !game.Active:
		return nil, apperror.Conflict("game has been cancelled")
	case game.HasPlayer(req.Username):
		return nil, apperror.Conflict(fmt.Sprintf("%s is already on the roster", req.Username))
	case game.IsFull():
		return nil, apperror.Conflict("game is full")
	}

	game.Players = append(game.Players, req.Username)
	if err := s.games.Save(ctx, game); err != nil {
		return nil, fmt.Errorf("joining game: %w", err)
	}
	log.WithFields(log.Fields{"game_id": id, "username": req.Username, "players": len(game.Players)}).Info("player joined")

	s.publish(comm.TypePlayerJoined, game, req.Username)

	if req.Username == game.Host {
		return game, nil
	}

	snapshot := copyGame(game)
	s.sendJoinEmail(snapshot, req)
	s.sendHostEmail(snapshot, req)
	s.payments.RecordJoin(context.WithoutCancel(ctx), snapshot, req.Username)

	return game, nil
}

// DropPlayer removes a player from the roster. Dropping someone who is not on
// the roster returns the game untouched.
func (s *GameService) DropPlayer(ctx context.Context, id, username string) (*models.Game, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}

	game, err := s.games.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !game.RemovePlayer(username) {
		return game, nil
	}

	if err := s.games.Save(ctx, game); err != nil {
		return nil, fmt.Errorf("dropping player: %w", err)
	}
	log.WithFields(log.Fields{"game_id": id, "username": username, "players": len(game.Players)}).Info("player dropped")

	s.publish(comm.TypePlayerDropped, game, username)

	if username != game.Host {
		s.payments.RetractDrop(context.WithoutCancel(ctx), copyGame(game), username)
	}
	return game, nil
}

// CancelGame deactivates the game and tells the roster.
func (s *GameService) CancelGame(ctx context.Context, id string) (*models.Game, error) {
	game, err := s.games.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !game.Active {
		return game, nil
	}

	game.Active = false
	if err := s.games.Save(ctx, game); err != nil {
		return nil, fmt.Errorf("cancelling game: %w", err)
	}
	log.WithField("game_id", id).Info("game cancelled")

	s.publish(comm.TypeGameCancelled, game, "")
	s.notifyRoster(game, s.policy.GameCancelled)

	return game, nil
}

func (s *GameService) DeleteGame(ctx context.Context, id string) (*models.Game, error) {
	game, err := s.games.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	log.WithField("game_id", id).Info("game deleted")

	s.publish(comm.TypeGameDeleted, game, "")
	return game, nil
}

// Broadcast sends a player's message to the host of a private game, or
// announces a public game to every opted-in user not already playing.
func (s *GameService) Broadcast(ctx context.Context, id string, b models.Broadcast) error {
	game, err := s.games.GetByID(ctx, id)
	if err != nil {
		return err
	}
	fillBroadcast(&b, game)

	if notify.IsPrivateBroadcast(b) {
		host, err := s.users.GetByUsername(ctx, b.Host)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{"game_id": id, "host": b.Host}).Error("Error [GameService.Broadcast] host lookup")
			return nil
		}
		s.dispatch(game, s.policy.ContactHost(host.Email, b))
		return nil
	}

	users, err := s.users.ListNotifiable(ctx)
	if err != nil {
		return fmt.Errorf("listing notifiable users: %w", err)
	}

	bcc := notify.BroadcastRecipients(users, b.Players)
	if len(bcc) == 0 {
		log.WithField("game_id", id).Info("broadcast has no recipients")
		return nil
	}
	s.dispatch(game, s.policy.NotifyAll(id, b, bcc))
	return nil
}

// Wait blocks until pending notifications are handed off.
func (s *GameService) Wait() {
	s.tasks.Wait()
}

// reschedule moves the pending reminder and payouts of a game to its new date.
func (s *GameService) reschedule(ctx context.Context, game *models.Game) {
	sendDate := game.Date.Add(-reminderLead)
	n, err := s.queue.Reschedule(ctx, game.ID, sendDate)
	switch {
	case err != nil:
		log.WithError(err).WithField("game_id", game.ID.Hex()).Error("Error [GameService.UpdateGame] rescheduling reminder")
	case n == 0 && !game.IsPrivate() && game.Active:
		entry := &models.EmailQueue{GameID: game.ID, SendDate: sendDate}
		if err := s.queue.Enqueue(ctx, entry); err != nil {
			log.WithError(err).WithField("game_id", game.ID.Hex()).Error("Error [GameService.UpdateGame] queueing reminder")
		}
	}

	s.payments.Reschedule(ctx, game)
}

func (s *GameService) sendJoinEmail(game *models.Game, req models.JoinRequest) {
	s.tasks.Go("join-email", log.Fields{"game_id": game.ID.Hex(), "username": req.Username}, func(ctx context.Context) error {
		to := normalizeEmail(req.Email)
		if to == "" {
			player, err := s.users.GetByUsername(ctx, req.Username)
			if err != nil {
				return fmt.Errorf("player lookup: %w", err)
			}
			to = player.Email
		}
		return s.mailer.SendEmail(ctx, s.policy.JoinGame(game, to))
	})
}

func (s *GameService) sendHostEmail(game *models.Game, req models.JoinRequest) {
	s.tasks.Go("host-email", log.Fields{"game_id": game.ID.Hex(), "host": game.Host}, func(ctx context.Context) error {
		host, err := s.users.GetByUsername(ctx, game.Host)
		if err != nil {
			return fmt.Errorf("host lookup: %w", err)
		}
		return s.mailer.SendEmail(ctx, s.policy.NewPlayerToHost(game, host.Email, req))
	})
}

// notifyRoster e-mails every rostered player with the message built by build.
func (s *GameService) notifyRoster(game *models.Game, build func(*models.Game, []string) comm.Email) {
	snapshot := copyGame(game)
	fields := log.Fields{"game_id": snapshot.ID.Hex(), "players": len(snapshot.Players)}

	s.tasks.Go("roster-email", fields, func(ctx context.Context) error {
		users, err := s.users.FindByUsernames(ctx, snapshot.Players)
		if err != nil {
			return fmt.Errorf("roster lookup: %w", err)
		}

		emails, missing := notify.RosterEmails(users, snapshot.Players)
		if len(missing) > 0 {
			log.WithFields(fields).WithField("missing", missing).Warn("roster players without a user record")
		}
		if len(emails) == 0 {
			return nil
		}
		return s.mailer.SendEmail(ctx, build(snapshot, emails))
	})
}

func (s *GameService) dispatch(game *models.Game, msg comm.Email) {
	fields := log.Fields{"game_id": game.ID.Hex(), "template": msg.Template, "recipients": msg.Recipients()}
	s.tasks.Go("email", fields, func(ctx context.Context) error {
		return s.mailer.SendEmail(ctx, msg)
	})
}

func (s *GameService) publish(eventType string, game *models.Game, username string) {
	snapshot := copyGame(game)
	s.tasks.Go("game-event", log.Fields{"game_id": snapshot.ID.Hex(), "event": eventType}, func(ctx context.Context) error {
		return s.events.PublishGameEvent(ctx, eventType, snapshot, username)
	})
}

// applyPatch copies the changed fields of patch onto game and reports whether
// the change is worth telling the players about.
func applyPatch(game *models.Game, patch models.GamePatch) bool {
	meaningful := false

	if patch.Name != nil && *patch.Name != game.Name {
		game.Name = *patch.Name
	}
	if patch.Date != nil && !patch.Date.Equal(game.Date) {
		game.Date = *patch.Date
		meaningful = true
	}
	if patch.Type != nil && *patch.Type != game.Type {
		game.Type = *patch.Type
	}
	if patch.Invited != nil {
		game.Invited = *patch.Invited
	}
	if patch.Location != nil && *patch.Location != game.Location {
		game.Location = *patch.Location
		meaningful = true
	}
	if patch.Host != nil && *patch.Host != game.Host {
		game.Host = *patch.Host
	}
	if patch.MaxPlayers != nil && *patch.MaxPlayers != game.MaxPlayers {
		game.MaxPlayers = *patch.MaxPlayers
	}
	if patch.Players != nil {
		game.Players = *patch.Players
	}
	if patch.CostPerPlayer != nil && !patch.CostPerPlayer.Equal(game.CostPerPlayer) {
		game.CostPerPlayer = *patch.CostPerPlayer
	}
	if patch.Active != nil && *patch.Active != game.Active {
		game.Active = *patch.Active
	}

	return meaningful
}

func normalizeGameType(t string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "", models.GameTypePublic:
		return models.GameTypePublic, nil
	case models.GameTypePrivate:
		return models.GameTypePrivate, nil
	default:
		return "", apperror.ValidationFailed("type", "type must be public or private")
	}
}

func validateGame(g *models.Game) error {
	switch {
	case g.Name == "":
		return apperror.ValidationFailed("name", "game name is required")
	case g.Host == "":
		return apperror.ValidationFailed("host", "host is required")
	case g.Date.IsZero():
		return apperror.ValidationFailed("date", "date is required")
	case g.MaxPlayers < 1:
		return apperror.ValidationFailed("maxPlayers", "maxPlayers must be at least 1")
	case g.CostPerPlayer.LessThan(decimal.Zero):
		return apperror.ValidationFailed("costPerPlayer", "costPerPlayer cannot be negative")
	case len(g.Players) > g.MaxPlayers:
		return apperror.ValidationFailed("players", "players cannot outnumber maxPlayers")
	}

	seen := make(map[string]bool, len(g.Players))
	for _, p := range g.Players {
		switch {
		case strings.TrimSpace(p) == "":
			return apperror.ValidationFailed("players", "player username is required")
		case seen[p]:
			return apperror.ValidationFailed("players", fmt.Sprintf("%s is on the roster twice", p))
		}
		seen[p] = true
	}
	return nil
}

// fillBroadcast completes a broadcast body with the stored game where the client left fields out.
func fillBroadcast(b *models.Broadcast, game *models.Game) {
	if b.Host == "" {
		b.Host = game.Host
	}
	if b.Players == nil {
		b.Players = game.Players
	}
	if b.Name == "" {
		b.Name = game.Name
	}
	if b.Date.IsZero() {
		b.Date = game.Date
	}
	if b.Location == "" {
		b.Location = game.Location
	}
}

func copyGame(g *models.Game) *models.Game {
	c := *g
	c.Players = append([]string(nil), g.Players...)
	c.Invited = append([]string(nil), g.Invited...)
	return &c
}
