// internal/notify/notifier_test.go
package notify

import (
	"context"
	"errors"
	"log/slog"
	"net/smtp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMessage(event EventType) Message {
	return Message{
		Event:      event,
		Recipient:  "jane@example.com",
		UserName:   "Jane Reader",
		BookTitle:  "Pride and Prejudice",
		BorrowDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:    time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		ReturnDate: time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC),
		FinePerDay: 5,
	}
}

func TestMessageSubject(t *testing.T) {
	cases := []struct {
		event EventType
		want  string
	}{
		{EventBookIssued, "Book Issued Notification"},
		{EventBookReturned, "Book Returned Notification"},
		{EventDueTomorrow, "Book Due Tomorrow"},
		{EventOverdue, "Overdue Book Reminder"},
		{EventType("unknown"), "Library Notification"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Message{Event: tc.event}.Subject())
	}
}

func TestMessageBody(t *testing.T) {
	t.Run("issued names the due date and fine rate", func(t *testing.T) {
		body := testMessage(EventBookIssued).Body()
		assert.Contains(t, body, "Hello Jane Reader")
		assert.Contains(t, body, `"Pride and Prejudice"`)
		assert.Contains(t, body, "01 Mar 2026")
		assert.Contains(t, body, "15 Mar 2026")
		assert.Contains(t, body, "fined 5 per day")
	})

	t.Run("returned on time omits the fine line", func(t *testing.T) {
		body := testMessage(EventBookReturned).Body()
		assert.Contains(t, body, "returned on 20 Mar 2026")
		assert.NotContains(t, body, "late fine")
	})

	t.Run("late return names the fine charged", func(t *testing.T) {
		msg := testMessage(EventBookReturned)
		msg.FineAmount = 25
		assert.Contains(t, msg.Body(), "A late fine of 25 was charged.")
	})

	t.Run("due tomorrow warns about the fine rate", func(t *testing.T) {
		body := testMessage(EventDueTomorrow).Body()
		assert.Contains(t, body, "due back tomorrow, 15 Mar 2026")
		assert.Contains(t, body, "fine of 5 per day")
	})

	t.Run("overdue reminder names the missed due date", func(t *testing.T) {
		body := testMessage(EventOverdue).Body()
		assert.Contains(t, body, "was due on 15 Mar 2026")
		assert.Contains(t, body, "now overdue")
	})
}

func TestLogNotifier(t *testing.T) {
	n := &LogNotifier{Logger: slog.New(slog.DiscardHandler)}
	assert.NoError(t, n.Send(context.Background(), testMessage(EventBookIssued)))
}

func TestSMTPNotifierSend(t *testing.T) {
	cfg := SMTPConfig{Host: "mail.example.com", Port: "587", Sender: "library@example.com"}

	t.Run("delivers the rendered message", func(t *testing.T) {
		n := NewSMTPNotifier(cfg, slog.New(slog.DiscardHandler))

		var gotAddr, gotFrom string
		var gotTo []string
		var gotMail []byte
		n.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr, gotFrom, gotTo, gotMail = addr, from, to, msg
			return nil
		}

		require.NoError(t, n.Send(context.Background(), testMessage(EventBookIssued)))
		assert.Equal(t, "mail.example.com:587", gotAddr)
		assert.Equal(t, "library@example.com", gotFrom)
		assert.Equal(t, []string{"jane@example.com"}, gotTo)
		assert.Contains(t, string(gotMail), "Subject: Book Issued Notification")
		assert.Contains(t, string(gotMail), "Hello Jane Reader")
	})

	t.Run("cancelled context stops before dialing", func(t *testing.T) {
		n := NewSMTPNotifier(cfg, slog.New(slog.DiscardHandler))
		n.send = func(string, smtp.Auth, string, []string, []byte) error {
			t.Fatal("send must not be called with a cancelled context")
			return nil
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, n.Send(ctx, testMessage(EventBookIssued)), context.Canceled)
	})

	t.Run("breaker opens after consecutive failures", func(t *testing.T) {
		n := NewSMTPNotifier(cfg, slog.New(slog.DiscardHandler))

		calls := 0
		n.send = func(string, smtp.Auth, string, []string, []byte) error {
			calls++
			return errors.New("connection refused")
		}

		for i := 0; i < 5; i++ {
			require.Error(t, n.Send(context.Background(), testMessage(EventOverdue)))
		}
		assert.Equal(t, 5, calls)

		// The sixth attempt fails fast without reaching the server.
		require.Error(t, n.Send(context.Background(), testMessage(EventOverdue)))
		assert.Equal(t, 5, calls)
	})
}
