package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avvvet/pickup-services/internal/comm"
	log "github.com/sirupsen/logrus"
	mail "gopkg.in/mail.v2"
)

var ErrNoRecipients = errors.New("e-mail has no recipients")

// Envelope is a rendered e-mail ready for the wire.
type Envelope struct {
	From    string
	To      string
	Bcc     []string
	ReplyTo string
	Subject string
	HTML    string
}

type Transport interface {
	Send(ctx context.Context, env Envelope) error
}

// Mailer renders comm.Email requests and sends them through a Transport.
type Mailer struct {
	renderer  *Renderer
	transport Transport
	from      string
	noReply   string
}

func NewMailer(renderer *Renderer, transport Transport, from, noReply string) *Mailer {
	return &Mailer{renderer: renderer, transport: transport, from: from, noReply: noReply}
}

func (m *Mailer) Deliver(ctx context.Context, msg comm.Email) error {
	if msg.Recipients() == 0 {
		return ErrNoRecipients
	}

	subject, body, err := m.renderer.Render(msg.Template, msg.Locals)
	if err != nil {
		return err
	}

	to := msg.To
	if to == "" {
		to = m.noReply
	}

	env := Envelope{
		From:    m.from,
		To:      to,
		Bcc:     msg.Bcc,
		ReplyTo: msg.ReplyTo,
		Subject: subject,
		HTML:    body,
	}
	if err := m.transport.Send(ctx, env); err != nil {
		return fmt.Errorf("sending %s: %w", msg.Template, err)
	}

	log.WithFields(log.Fields{"template": msg.Template, "recipients": msg.Recipients()}).Info("e-mail sent")
	return nil
}

// SMTPTransport delivers envelopes through an SMTP relay.
type SMTPTransport struct {
	dialer *mail.Dialer
}

// NewSMTPTransport dials host with timeout bounding the connection and every
// SMTP command.
func NewSMTPTransport(host string, port int, username, password string, timeout time.Duration) *SMTPTransport {
	d := mail.NewDialer(host, port, username, password)
	d.Timeout = timeout
	return &SMTPTransport{dialer: d}
}

func (t *SMTPTransport) Send(ctx context.Context, env Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.dialerFor(ctx).DialAndSend(buildMessage(env))
}

// dialerFor shortens the dial timeout to what is left of ctx.
func (t *SMTPTransport) dialerFor(ctx context.Context) *mail.Dialer {
	deadline, ok := ctx.Deadline()
	if !ok {
		return t.dialer
	}
	left := time.Until(deadline)
	if t.dialer.Timeout > 0 && left >= t.dialer.Timeout {
		return t.dialer
	}
	d := *t.dialer
	d.Timeout = left
	return &d
}

func buildMessage(env Envelope) *mail.Message {
	m := mail.NewMessage()
	m.SetHeader("From", env.From)
	m.SetHeader("To", env.To)
	if len(env.Bcc) > 0 {
		m.SetHeader("Bcc", env.Bcc...)
	}
	if env.ReplyTo != "" {
		m.SetHeader("Reply-To", env.ReplyTo)
	}
	m.SetHeader("Subject", env.Subject)
	m.SetBody("text/html", env.HTML)
	return m
}
