// internal/notify/smtp.go
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"time"

	"github.com/sony/gobreaker"
)

// SMTPConfig holds the mail server settings.
type SMTPConfig struct {
	Host     string
	Port     string
	Sender   string
	Password string
}

// SMTPNotifier sends notifications as plain-text mail. Sends go through a
// circuit breaker so a dead mail server cannot stall every borrow and return.
type SMTPNotifier struct {
	cfg     SMTPConfig
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger

	// send is swappable for tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPNotifier creates a mail notifier for the given server.
func NewSMTPNotifier(cfg SMTPConfig, logger *slog.Logger) *SMTPNotifier {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "smtp",
		Timeout: 2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("smtp breaker state changed", "from", from.String(), "to", to.String())
		},
	})

	return &SMTPNotifier{
		cfg:     cfg,
		breaker: breaker,
		logger:  logger,
		send:    smtp.SendMail,
	}
}

// Send delivers the message to its recipient.
func (n *SMTPNotifier) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	mail := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		n.cfg.Sender, msg.Recipient, msg.Subject(), msg.Body()))

	addr := n.cfg.Host + ":" + n.cfg.Port
	auth := smtp.PlainAuth("", n.cfg.Sender, n.cfg.Password, n.cfg.Host)

	_, err := n.breaker.Execute(func() (interface{}, error) {
		return nil, n.send(addr, auth, n.cfg.Sender, []string{msg.Recipient}, mail)
	})
	if err != nil {
		return fmt.Errorf("send %s mail to %s: %w", msg.Event, msg.Recipient, err)
	}

	return nil
}
