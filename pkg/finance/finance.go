// Package finance holds the pure calculation rules of the loan engine:
// due-date arithmetic, simple-interest amounts, status classification, the
// interest-first payment waterfall, and installment schedule generation.
// Nothing here touches storage or holds state.
package finance

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bmcredit/loanbook/pkg/models"
)

// DueSoonWindowDays is the attention window before a due date. A loan due
// within this many days (inclusive, and including today) is flagged due-soon.
const DueSoonWindowDays = 7

var hundred = decimal.NewFromInt(100)

// DueDate computes the due date for a start date and period kind. Months are
// calendar-aware: adding one month to Jan 31 overflows into March the same
// way the stdlib normalizes it, not a fixed 30 days.
func DueDate(start time.Time, period models.PeriodKind) time.Time {
	switch period {
	case models.PeriodWeek:
		return start.AddDate(0, 0, 7)
	case models.PeriodFortnight:
		return start.AddDate(0, 0, 15)
	default:
		return start.AddDate(0, 1, 0)
	}
}

// DaysUntilDue returns ceil(dueDate_midnight - today_midnight) in days.
// Negative means the due date has passed.
func DaysUntilDue(due, today time.Time) int {
	d := midnight(due)
	t := midnight(today)
	diff := d.Sub(t).Hours() / 24
	return int(math.Ceil(diff))
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// InterestAmount is base * ratePercent / 100. The caller decides whether the
// base is the original principal or the current outstanding balance.
func InterestAmount(base, ratePercent decimal.Decimal) decimal.Decimal {
	return base.Mul(ratePercent).Div(hundred)
}

// ClassifyStatus derives the display status of an unsettled loan from its due
// date. A loan due exactly today is due-soon, not overdue.
func ClassifyStatus(due time.Time, isPaid bool, today time.Time) models.LoanStatus {
	if isPaid {
		return models.StatusSettled
	}
	days := DaysUntilDue(due, today)
	switch {
	case days < 0:
		return models.StatusOverdue
	case days <= DueSoonWindowDays:
		return models.StatusDueSoon
	default:
		return models.StatusPending
	}
}

// Allocation is the result of applying a payment to a loan.
type Allocation struct {
	InterestPortion  decimal.Decimal
	PrincipalPortion decimal.Decimal
	NewOutstanding   decimal.Decimal
}

// Allocate applies the interest-first waterfall: interest is paid before any
// amount reduces principal, partial interest payments leave principal
// untouched, and the new outstanding clamps at zero. The engine rejects
// payments larger than the full balance before calling this, so the clamp is
// an invariant guard rather than a silent loss of funds.
func Allocate(payment, interestDue, outstanding decimal.Decimal) Allocation {
	interest := payment
	if interest.GreaterThan(interestDue) {
		interest = interestDue
	}
	principal := payment.Sub(interestDue)
	if principal.IsNegative() {
		principal = decimal.Zero
	}
	newOutstanding := outstanding.Sub(principal)
	if newOutstanding.IsNegative() {
		newOutstanding = decimal.Zero
	}
	return Allocation{
		InterestPortion:  interest,
		PrincipalPortion: principal,
		NewOutstanding:   newOutstanding,
	}
}

// ScheduleEntry is one generated installment before it becomes an entity.
type ScheduleEntry struct {
	Sequence       int
	DueDate        time.Time
	PrincipalShare decimal.Decimal
	InterestShare  decimal.Decimal
	Total          decimal.Decimal
}

// BuildSchedule generates the monthly installment plan for an installment
// loan. Each period's interest is computed on the original principal, not the
// declining balance. Principal is split evenly to two decimal places with the
// last installment absorbing the rounding remainder, so the shares always sum
// to exactly the principal.
func BuildSchedule(principal, ratePercent decimal.Decimal, count int, start time.Time) []ScheduleEntry {
	if count <= 0 || principal.LessThanOrEqual(decimal.Zero) {
		return nil
	}

	share := principal.Div(decimal.NewFromInt(int64(count))).Round(2)
	interest := InterestAmount(principal, ratePercent)

	entries := make([]ScheduleEntry, 0, count)
	for seq := 1; seq <= count; seq++ {
		p := share
		if seq == count {
			p = principal.Sub(share.Mul(decimal.NewFromInt(int64(count - 1))))
		}
		entries = append(entries, ScheduleEntry{
			Sequence:       seq,
			DueDate:        start.AddDate(0, seq, 0),
			PrincipalShare: p,
			InterestShare:  interest,
			Total:          p.Add(interest),
		})
	}
	return entries
}
