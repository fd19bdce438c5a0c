// internal/borrowing/fine.go
package borrowing

import "time"

// FineCalculator maps (due date, day of return) to a fine amount. It is pure;
// the repository's return path uses the same calculator so the two can never
// disagree.
type FineCalculator struct {
	PerDay int
}

// Fine returns overdue whole days times the per-day rate, never negative.
// Both dates are expected to be day-truncated; partial days floor to zero.
func (c FineCalculator) Fine(dueDate, returnedOn time.Time) int {
	days := int(returnedOn.Sub(dueDate) / (24 * time.Hour))
	if days < 0 {
		days = 0
	}
	return days * c.PerDay
}
