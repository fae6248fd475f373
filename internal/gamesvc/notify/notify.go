// Package notify decides which template each roster operation uses and who receives it.
// Rendering and delivery belong to the notification service.
package notify

import (
	"strings"
	"time"

	"github.com/avvvet/pickup-services/internal/comm"
	"github.com/avvvet/pickup-services/internal/gamesvc/models"
)

const (
	TemplateNotifyPrivate   = "notify-private"
	TemplateGameUpdated     = "game-updated"
	TemplateGameCancelled   = "game-cancelled"
	TemplateGameReminder    = "game-reminder"
	TemplateJoinGame        = "join-game"
	TemplateNewPlayerToHost = "new-player-email-to-host"
	TemplateContactHost     = "contact-host"
	TemplateNotifyAll       = "notify-all"
)

const DateLayout = "01/02/2006 3:04PM"

type Policy struct {
	rootURL string
	noReply string
	loc     *time.Location
}

func NewPolicy(rootURL, noReply string, loc *time.Location) *Policy {
	if loc == nil {
		loc = time.UTC
	}
	return &Policy{rootURL: rootURL, noReply: noReply, loc: loc}
}

func (p *Policy) FormatDate(t time.Time) string {
	return t.In(p.loc).Format(DateLayout)
}

// PrivateInvite returns false when the game has nobody to invite.
func (p *Policy) PrivateInvite(g *models.Game) (comm.Email, bool) {
	if len(g.Invited) == 0 {
		return comm.Email{}, false
	}
	locals := p.gameLocals(g)
	locals["host"] = g.Host

	return comm.Email{
		Template: TemplateNotifyPrivate,
		To:       p.noReply,
		Bcc:      append([]string(nil), g.Invited...),
		Locals:   locals,
	}, true
}

func (p *Policy) GameUpdated(g *models.Game, emails []string) comm.Email {
	return p.rosterEmail(TemplateGameUpdated, g, emails)
}

func (p *Policy) GameCancelled(g *models.Game, emails []string) comm.Email {
	return p.rosterEmail(TemplateGameCancelled, g, emails)
}

func (p *Policy) GameReminder(g *models.Game, emails []string) comm.Email {
	return p.rosterEmail(TemplateGameReminder, g, emails)
}

func (p *Policy) JoinGame(g *models.Game, to string) comm.Email {
	return comm.Email{
		Template: TemplateJoinGame,
		To:       to,
		Locals:   p.gameLocals(g),
	}
}

func (p *Policy) NewPlayerToHost(g *models.Game, hostEmail string, join models.JoinRequest) comm.Email {
	locals := p.gameLocals(g)
	locals["numOfPlayers"] = len(g.Players)
	locals["openings"] = g.MaxPlayers - len(g.Players)
	locals["first"] = join.First
	locals["last"] = join.Last

	return comm.Email{
		Template: TemplateNewPlayerToHost,
		To:       hostEmail,
		Locals:   locals,
	}
}

func (p *Policy) ContactHost(hostEmail string, b models.Broadcast) comm.Email {
	return comm.Email{
		Template: TemplateContactHost,
		To:       hostEmail,
		ReplyTo:  b.Email,
		Locals: map[string]interface{}{
			"name":       b.Name,
			"playerName": b.PlayerName,
			"message":    b.Message,
		},
	}
}

func (p *Policy) NotifyAll(gameID string, b models.Broadcast, bcc []string) comm.Email {
	return comm.Email{
		Template: TemplateNotifyAll,
		To:       p.noReply,
		Bcc:      bcc,
		Locals: map[string]interface{}{
			"name":     b.Name,
			"date":     p.FormatDate(b.Date),
			"location": b.Location,
			"url":      p.rootURL,
			"id":       gameID,
		},
	}
}

func (p *Policy) rosterEmail(template string, g *models.Game, emails []string) comm.Email {
	return comm.Email{
		Template: template,
		To:       p.noReply,
		Bcc:      emails,
		Locals:   p.gameLocals(g),
	}
}

func (p *Policy) gameLocals(g *models.Game) map[string]interface{} {
	return map[string]interface{}{
		"name":     g.Name,
		"date":     p.FormatDate(g.Date),
		"location": g.Location,
		"url":      p.rootURL,
		"id":       g.ID.Hex(),
	}
}

// IsPrivateBroadcast reports whether a broadcast goes to the host only.
func IsPrivateBroadcast(b models.Broadcast) bool {
	return strings.EqualFold(strings.TrimSpace(b.Type), models.GameTypePrivate)
}

// BroadcastRecipients returns the e-mails of opted-in users that are not on the roster.
func BroadcastRecipients(users []*models.User, roster []string) []string {
	rostered := make(map[string]struct{}, len(roster))
	for _, username := range roster {
		rostered[username] = struct{}{}
	}

	emails := []string{}
	for _, u := range users {
		if !u.Profile.Notify {
			continue
		}
		if _, ok := rostered[u.Username]; ok {
			continue
		}
		emails = append(emails, u.Email)
	}
	return emails
}

// RosterEmails orders the e-mails of users by their roster position and
// returns the usernames that had no matching user.
func RosterEmails(users []*models.User, roster []string) (emails []string, missing []string) {
	byName := make(map[string]string, len(users))
	for _, u := range users {
		byName[u.Username] = u.Email
	}

	emails = make([]string, 0, len(roster))
	for _, username := range roster {
		email, ok := byName[username]
		if !ok || email == "" {
			missing = append(missing, username)
			continue
		}
		emails = append(emails, email)
	}
	return emails, missing
}
