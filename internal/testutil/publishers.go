package testutil

import (
	"context"
	"sync"

	"github.com/avvvet/pickup-services/internal/comm"
	"github.com/avvvet/pickup-services/internal/gamesvc/models"
)

// Mailer records every e-mail handed to it.
type Mailer struct {
	mu     sync.Mutex
	emails []comm.Email
	Err    error
}

func (m *Mailer) SendEmail(ctx context.Context, msg comm.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	m.emails = append(m.emails, msg)
	return nil
}

func (m *Mailer) Emails() []comm.Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]comm.Email(nil), m.emails...)
}

// ByTemplate returns the recorded e-mails rendered with template.
func (m *Mailer) ByTemplate(template string) []comm.Email {
	var out []comm.Email
	for _, e := range m.Emails() {
		if e.Template == template {
			out = append(out, e)
		}
	}
	return out
}

type Event struct {
	Type     string
	GameID   string
	Username string
}

// Events records published game events.
type Events struct {
	mu     sync.Mutex
	events []Event
}

func (e *Events) PublishGameEvent(ctx context.Context, eventType string, game *models.Game, username string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, Event{Type: eventType, GameID: game.ID.Hex(), Username: username})
	return nil
}

func (e *Events) All() []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Event(nil), e.events...)
}

// Payouts records payout requests.
type Payouts struct {
	mu       sync.Mutex
	requests []comm.PayoutRequest
	Err      error
}

func (p *Payouts) RequestPayout(ctx context.Context, req comm.PayoutRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Err != nil {
		return p.Err
	}
	p.requests = append(p.requests, req)
	return nil
}

func (p *Payouts) Requests() []comm.PayoutRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]comm.PayoutRequest(nil), p.requests...)
}
