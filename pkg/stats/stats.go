// Package stats derives dashboard summaries from the dataset. Compute is a
// pure reduction: one pass over the loans, no side effects, no caching.
package stats

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bmcredit/loanbook/pkg/finance"
	"github.com/bmcredit/loanbook/pkg/models"
)

// Compute reduces the dataset to the dashboard totals. "Collected" is the sum
// of each loan's cumulative payments and "outstanding" the sum of open
// balances, so interest already folded into a loan's totals is never counted
// twice.
func Compute(d *models.Dataset, now time.Time) models.Statistics {
	s := models.Statistics{
		TotalClients:     len(d.Clients),
		TotalLent:        decimal.Zero,
		TotalCollected:   decimal.Zero,
		TotalOutstanding: decimal.Zero,
		TotalOverdue:     decimal.Zero,
		TotalDueSoon:     decimal.Zero,
	}

	for _, loan := range d.Loans {
		s.TotalLent = s.TotalLent.Add(loan.Principal)
		s.TotalCollected = s.TotalCollected.Add(loan.TotalPaid)

		status := finance.ClassifyStatus(loan.DueDate, loan.Status == models.StatusSettled, now)
		open := loan.OpenBalance()
		switch status {
		case models.StatusSettled:
			s.StatusCounts.Settled++
		case models.StatusOverdue:
			s.StatusCounts.Overdue++
			s.TotalOutstanding = s.TotalOutstanding.Add(open)
			s.TotalOverdue = s.TotalOverdue.Add(open)
		case models.StatusDueSoon:
			s.StatusCounts.DueSoon++
			s.TotalOutstanding = s.TotalOutstanding.Add(open)
			s.TotalDueSoon = s.TotalDueSoon.Add(open)
		default:
			s.StatusCounts.Pending++
			s.TotalOutstanding = s.TotalOutstanding.Add(open)
		}
	}
	return s
}
