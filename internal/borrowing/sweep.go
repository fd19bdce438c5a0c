// internal/borrowing/sweep.go
package borrowing

import (
	"context"
	"log/slog"
	"time"

	"librarium/internal/notify"
)

// Sweeper periodically reclassifies borrowed loans past their due date as
// overdue and sends due-tomorrow and overdue reminders. It waits the full
// interval after each run, so back-to-back runs cannot overlap.
type Sweeper struct {
	service    Service
	notifier   notify.Notifier
	interval   time.Duration
	finePerDay int
	logger     *slog.Logger
}

func NewSweeper(service Service, notifier notify.Notifier, interval time.Duration, finePerDay int, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		service:    service,
		notifier:   notifier,
		interval:   interval,
		finePerDay: finePerDay,
		logger:     logger,
	}
}

// Run executes the sweep once at startup and then once per interval until the
// context is cancelled. Cancellation is checked between iterations and between
// individual sends, never mid-transaction.
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info("overdue sweep started", "interval", s.interval.String())

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("overdue sweep stopped")
			return
		case <-timer.C:
		}

		s.RunOnce(ctx)
		timer.Reset(s.interval)
	}
}

// RunOnce performs a single sweep iteration.
func (s *Sweeper) RunOnce(ctx context.Context) {
	changed, err := s.service.MarkOverdueLoans(ctx)
	if err != nil {
		s.logger.Error("failed to update overdue statuses", "error", err)
	} else {
		s.logger.Info("overdue statuses updated", "changed", changed)
	}

	dueTomorrow, err := s.service.DueTomorrowNotices(ctx)
	if err != nil {
		s.logger.Error("failed to fetch due-tomorrow notices", "error", err)
	} else {
		s.sendAll(ctx, dueTomorrow, notify.EventDueTomorrow)
	}

	overdue, err := s.service.OverdueNotices(ctx)
	if err != nil {
		s.logger.Error("failed to fetch overdue notices", "error", err)
	} else {
		s.sendAll(ctx, overdue, notify.EventOverdue)
	}
}

func (s *Sweeper) sendAll(ctx context.Context, notices []Notice, event notify.EventType) {
	sent := 0
	for _, notice := range notices {
		if ctx.Err() != nil {
			break
		}

		msg := notify.Message{
			Event:      event,
			Recipient:  notice.UserEmail,
			UserName:   notice.UserName,
			BookTitle:  notice.BookTitle,
			BorrowDate: notice.BorrowDate,
			DueDate:    notice.DueDate,
			FineAmount: notice.FineAmount,
			FinePerDay: s.finePerDay,
		}
		if err := s.notifier.Send(ctx, msg); err != nil {
			s.logger.Error("failed to send reminder", "event", string(event), "recipient", notice.UserEmail, "error", err)
			continue
		}
		sent++
	}

	if len(notices) > 0 {
		s.logger.Info("reminders sent", "event", string(event), "sent", sent, "total", len(notices))
	}
}
