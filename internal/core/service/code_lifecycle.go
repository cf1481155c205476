package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/meetup-social/meetup-api/internal/core/domain"
	"github.com/meetup-social/meetup-api/internal/core/ports"
	"github.com/meetup-social/meetup-api/internal/pkg/security"
)

const (
	// DefaultCodeTTL is the window in which an issued code can be redeemed.
	DefaultCodeTTL = 5 * time.Minute
	// DefaultDispatchTimeout bounds a single mail dispatch.
	DefaultDispatchTimeout = 10 * time.Second
)

// CodeOptions configures a one-time code lifecycle.
type CodeOptions struct {
	// From is the sender address used for code mails.
	From            string
	TTL             time.Duration
	DispatchTimeout time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
	// Generator defaults to a crypto/rand backed generator.
	Generator *security.CodeGenerator
}

func (o CodeOptions) withDefaults() CodeOptions {
	if o.TTL <= 0 {
		o.TTL = DefaultCodeTTL
	}
	if o.DispatchTimeout <= 0 {
		o.DispatchTimeout = DefaultDispatchTimeout
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Generator == nil {
		o.Generator = security.NewCodeGenerator(nil)
	}
	return o
}

// codeMail renders the subject and HTML body carrying a plaintext code.
type codeMail func(code string) (subject, html string)

// codeLifecycle holds the issue and check steps shared by the verification
// and forgot-password flows. Persisting the resulting slot is left to the
// caller because each flow writes a different field pair.
type codeLifecycle struct {
	purpose string
	signer  *security.CodeSigner
	mailer  ports.MailDispatcher
	render  codeMail
	opts    CodeOptions
	log     zerolog.Logger
}

func newCodeLifecycle(purpose string, key []byte, mailer ports.MailDispatcher, render codeMail, opts CodeOptions, log zerolog.Logger) *codeLifecycle {
	return &codeLifecycle{
		purpose: purpose,
		signer:  security.NewCodeSigner(key),
		mailer:  mailer,
		render:  render,
		opts:    opts.withDefaults(),
		log:     log,
	}
}

// issue generates a code, mails it to email and returns the slot to persist.
// No slot is returned unless the transport accepted email as a recipient.
func (l *codeLifecycle) issue(ctx context.Context, email string) (domain.CodeSlot, error) {
	code, err := l.opts.Generator.Generate()
	if err != nil {
		return domain.CodeSlot{}, fmt.Errorf("%s: %w", l.purpose, err)
	}

	subject, html := l.render(code)
	sendCtx, cancel := context.WithTimeout(ctx, l.opts.DispatchTimeout)
	defer cancel()

	delivery, err := l.mailer.Send(sendCtx, ports.MailMessage{
		From:    l.opts.From,
		To:      email,
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		l.log.Warn().Err(err).Str("purpose", l.purpose).Msg("code dispatch failed")
		return domain.CodeSlot{}, fmt.Errorf("%s: %w", l.purpose, domain.ErrDispatchFailed)
	}
	if !delivery.AcceptedFor(email) {
		l.log.Warn().Str("purpose", l.purpose).Msg("code dispatch not accepted for recipient")
		return domain.CodeSlot{}, fmt.Errorf("%s: %w", l.purpose, domain.ErrDispatchFailed)
	}

	return domain.IssuedCode(l.signer.Sign(code), l.opts.Now()), nil
}

// check validates provided against slot. ErrCodeExpired tells the caller to
// clear the slot; ErrCodeIncorrect leaves it live.
func (l *codeLifecycle) check(slot domain.CodeSlot, provided string) error {
	digest, issuedAt, ok := slot.Get()
	if !ok {
		return domain.ErrNoActiveCode
	}
	if l.opts.Now().Sub(issuedAt) > l.opts.TTL {
		return domain.ErrCodeExpired
	}
	normalized, err := security.NormalizeCode(provided)
	if err != nil {
		return domain.ErrCodeIncorrect
	}
	if !l.signer.Matches(normalized, digest) {
		return domain.ErrCodeIncorrect
	}
	return nil
}
