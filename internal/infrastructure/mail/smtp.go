package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"github.com/meetup-social/meetup-api/internal/api/metrics"
	"github.com/meetup-social/meetup-api/internal/core/ports"
)

// Config holds the SMTP relay settings. Password must never be logged.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
}

// dialer is satisfied by *gomail.Dialer.
type dialer interface {
	Dial() (gomail.SendCloser, error)
}

// SMTPDispatcher delivers mail through an SMTP relay with gomail. A recipient
// counts as accepted when the relay takes the message for it.
type SMTPDispatcher struct {
	dialer dialer
	log    zerolog.Logger
}

func NewSMTPDispatcher(cfg Config, log zerolog.Logger) *SMTPDispatcher {
	return &SMTPDispatcher{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		log:    log,
	}
}

type sendResult struct {
	delivery ports.Delivery
	err      error
}

// Send dials the relay and sends msg. gomail has no context support, so the
// exchange runs in its own goroutine and Send returns once ctx is done.
func (d *SMTPDispatcher) Send(ctx context.Context, msg ports.MailMessage) (ports.Delivery, error) {
	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	start := time.Now()
	done := make(chan sendResult, 1)
	go func() {
		delivery, err := d.deliver(msg.From, []string{msg.To}, m)
		done <- sendResult{delivery: delivery, err: err}
	}()

	select {
	case <-ctx.Done():
		metrics.MailDispatchDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return ports.Delivery{}, fmt.Errorf("smtp send: %w", ctx.Err())
	case res := <-done:
		result := "accepted"
		switch {
		case res.err != nil:
			result = "error"
		case !res.delivery.AcceptedFor(msg.To):
			result = "rejected"
		}
		metrics.MailDispatchDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
		return res.delivery, res.err
	}
}

func (d *SMTPDispatcher) deliver(from string, to []string, m *gomail.Message) (ports.Delivery, error) {
	sc, err := d.dialer.Dial()
	if err != nil {
		return ports.Delivery{}, fmt.Errorf("smtp dial: %w", err)
	}
	defer sc.Close()

	delivery := ports.Delivery{Accepted: make([]string, 0, len(to))}
	for _, rcpt := range to {
		if err := sc.Send(from, []string{rcpt}, m); err != nil {
			d.log.Warn().Err(err).Str("recipient", rcpt).Msg("smtp relay refused recipient")
			continue
		}
		delivery.Accepted = append(delivery.Accepted, rcpt)
	}
	return delivery, nil
}
