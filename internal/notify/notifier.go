// internal/notify/notifier.go
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// EventType identifies the kind of borrowing event a message is about.
type EventType string

const (
	EventBookIssued   EventType = "book_issued"
	EventBookReturned EventType = "book_returned"
	EventDueTomorrow  EventType = "due_tomorrow"
	EventOverdue      EventType = "overdue_reminder"
)

// Message is one notification to one recipient.
type Message struct {
	Event      EventType
	Recipient  string
	UserName   string
	BookTitle  string
	BorrowDate time.Time
	DueDate    time.Time
	ReturnDate time.Time
	FineAmount int
	FinePerDay int
}

// Notifier dispatches a notification. Sends are best-effort relative to the
// loan transaction: callers log failures and move on, never roll back.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// Subject builds the mail subject line for the message's event type.
func (m Message) Subject() string {
	switch m.Event {
	case EventBookIssued:
		return "Book Issued Notification"
	case EventBookReturned:
		return "Book Returned Notification"
	case EventDueTomorrow:
		return "Book Due Tomorrow"
	case EventOverdue:
		return "Overdue Book Reminder"
	default:
		return "Library Notification"
	}
}

// Body renders the plain-text mail body.
func (m Message) Body() string {
	const dateFormat = "02 Jan 2006"

	switch m.Event {
	case EventBookIssued:
		return fmt.Sprintf(
			"Hello %s,\n\n%q was issued to you on %s. It is due back on %s.\nLate returns are fined %d per day.\n",
			m.UserName, m.BookTitle, m.BorrowDate.Format(dateFormat), m.DueDate.Format(dateFormat), m.FinePerDay)
	case EventBookReturned:
		body := fmt.Sprintf(
			"Hello %s,\n\n%q borrowed on %s was returned on %s.\n",
			m.UserName, m.BookTitle, m.BorrowDate.Format(dateFormat), m.ReturnDate.Format(dateFormat))
		if m.FineAmount > 0 {
			body += fmt.Sprintf("A late fine of %d was charged.\n", m.FineAmount)
		}
		return body
	case EventDueTomorrow:
		return fmt.Sprintf(
			"Hello %s,\n\n%q is due back tomorrow, %s. Return it on time to avoid a fine of %d per day.\n",
			m.UserName, m.BookTitle, m.DueDate.Format(dateFormat), m.FinePerDay)
	case EventOverdue:
		return fmt.Sprintf(
			"Hello %s,\n\n%q was due on %s and is now overdue. A fine of %d per day is accruing, please return it as soon as possible.\n",
			m.UserName, m.BookTitle, m.DueDate.Format(dateFormat), m.FinePerDay)
	default:
		return ""
	}
}

// LogNotifier writes notifications to the log instead of sending them. Used
// in development and tests when no SMTP server is configured.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n *LogNotifier) Send(_ context.Context, msg Message) error {
	n.Logger.Info("notification",
		"event", string(msg.Event),
		"recipient", msg.Recipient,
		"subject", msg.Subject(),
	)
	return nil
}
