package notify

import (
	"context"
	"strings"
)

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Notifier sends a message. Implementations may block on network I/O.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, msg Message) error

// Send calls f(ctx, msg).
func (f NotifierFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// NoOp discards every message.
type NoOp struct{}

func (NoOp) Send(context.Context, Message) error { return nil }

// LogNotifier writes messages to the package logger instead of delivering
// them. It is used when no SMTP server is configured.
type LogNotifier struct{}

func (LogNotifier) Send(_ context.Context, msg Message) error {
	log.Infof("Mail to %v: %v (%d bytes)", msg.To, msg.Subject, len(msg.HTML))
	log.Debugf("Mail body: %v", strings.TrimSpace(msg.HTML))
	return nil
}
