package ports

import (
	"context"
	"strings"
)

// MailMessage is a single outbound HTML mail.
type MailMessage struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// Delivery is the transport's acceptance result.
type Delivery struct {
	Accepted []string
}

// AcceptedFor reports whether addr appears among the accepted recipients.
func (d Delivery) AcceptedFor(addr string) bool {
	for _, a := range d.Accepted {
		if strings.EqualFold(a, addr) {
			return true
		}
	}
	return false
}

// MailDispatcher delivers mail. Send must honour ctx cancellation.
type MailDispatcher interface {
	Send(ctx context.Context, msg MailMessage) (Delivery, error)
}
