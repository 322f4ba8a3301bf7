package finance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmcredit/loanbook/pkg/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDueDate(t *testing.T) {
	start := date(2026, 3, 10)

	assert.Equal(t, date(2026, 3, 17), DueDate(start, models.PeriodWeek))
	assert.Equal(t, date(2026, 3, 25), DueDate(start, models.PeriodFortnight))
	assert.Equal(t, date(2026, 4, 10), DueDate(start, models.PeriodMonth))
}

func TestDueDate_MonthIsCalendarAware(t *testing.T) {
	// +1 month from Jan 31 normalizes past February rather than adding a
	// fixed 30 days.
	got := DueDate(date(2026, 1, 31), models.PeriodMonth)
	assert.Equal(t, date(2026, 3, 3), got)

	// A month boundary without overflow stays on the same day number.
	got = DueDate(date(2026, 4, 15), models.PeriodMonth)
	assert.Equal(t, date(2026, 5, 15), got)
}

func TestDaysUntilDue(t *testing.T) {
	today := date(2026, 3, 10)

	assert.Equal(t, 0, DaysUntilDue(date(2026, 3, 10), today))
	assert.Equal(t, 1, DaysUntilDue(date(2026, 3, 11), today))
	assert.Equal(t, 7, DaysUntilDue(date(2026, 3, 17), today))
	assert.Equal(t, -3, DaysUntilDue(date(2026, 3, 7), today))

	// Time-of-day never shifts the answer: both sides are taken at midnight.
	lateToday := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)
	earlyDue := time.Date(2026, 3, 11, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 1, DaysUntilDue(earlyDue, lateToday))
}

func TestInterestAmount(t *testing.T) {
	got := InterestAmount(decimal.NewFromInt(1000), decimal.NewFromInt(30))
	assert.True(t, got.Equal(decimal.NewFromInt(300)), "got %s", got)

	got = InterestAmount(decimal.NewFromInt(950), decimal.NewFromInt(10))
	assert.True(t, got.Equal(decimal.NewFromInt(95)), "got %s", got)

	got = InterestAmount(decimal.NewFromInt(1000), decimal.Zero)
	assert.True(t, got.IsZero())
}

func TestClassifyStatus(t *testing.T) {
	today := date(2026, 3, 10)

	// Paid wins regardless of dates.
	assert.Equal(t, models.StatusSettled, ClassifyStatus(date(2026, 1, 1), true, today))

	// Due exactly today is due-soon, not overdue.
	assert.Equal(t, models.StatusDueSoon, ClassifyStatus(date(2026, 3, 10), false, today))

	assert.Equal(t, models.StatusOverdue, ClassifyStatus(date(2026, 3, 9), false, today))
	assert.Equal(t, models.StatusDueSoon, ClassifyStatus(date(2026, 3, 17), false, today))
	assert.Equal(t, models.StatusPending, ClassifyStatus(date(2026, 3, 18), false, today))
}

func TestAllocate_InterestFirst(t *testing.T) {
	// Payment covers interest plus part of the principal.
	alloc := Allocate(decimal.NewFromInt(150), decimal.NewFromInt(100), decimal.NewFromInt(1000))
	assert.True(t, alloc.InterestPortion.Equal(decimal.NewFromInt(100)))
	assert.True(t, alloc.PrincipalPortion.Equal(decimal.NewFromInt(50)))
	assert.True(t, alloc.NewOutstanding.Equal(decimal.NewFromInt(950)))
}

func TestAllocate_PartialInterest(t *testing.T) {
	// A payment below the interest due touches no principal.
	alloc := Allocate(decimal.NewFromInt(50), decimal.NewFromInt(100), decimal.NewFromInt(1000))
	assert.True(t, alloc.InterestPortion.Equal(decimal.NewFromInt(50)))
	assert.True(t, alloc.PrincipalPortion.IsZero())
	assert.True(t, alloc.NewOutstanding.Equal(decimal.NewFromInt(1000)))
}

func TestAllocate_ClampsOutstandingAtZero(t *testing.T) {
	alloc := Allocate(decimal.NewFromInt(5000), decimal.NewFromInt(100), decimal.NewFromInt(1000))
	assert.True(t, alloc.NewOutstanding.IsZero())
	assert.True(t, alloc.InterestPortion.Equal(decimal.NewFromInt(100)))
	assert.True(t, alloc.PrincipalPortion.Equal(decimal.NewFromInt(4900)))
}

func TestAllocate_Deterministic(t *testing.T) {
	a := Allocate(decimal.NewFromInt(150), decimal.NewFromInt(100), decimal.NewFromInt(1000))
	b := Allocate(decimal.NewFromInt(150), decimal.NewFromInt(100), decimal.NewFromInt(1000))
	assert.Equal(t, a, b)
}

func TestBuildSchedule(t *testing.T) {
	principal := decimal.NewFromInt(1200)
	rate := decimal.NewFromInt(10)
	start := date(2026, 3, 10)

	entries := BuildSchedule(principal, rate, 12, start)
	require.Len(t, entries, 12)

	for i, e := range entries {
		assert.Equal(t, i+1, e.Sequence)
		assert.Equal(t, start.AddDate(0, i+1, 0), e.DueDate)
		// Interest is computed on the original principal every period.
		assert.True(t, e.InterestShare.Equal(decimal.NewFromInt(120)), "entry %d interest %s", i+1, e.InterestShare)
		assert.True(t, e.Total.Equal(e.PrincipalShare.Add(e.InterestShare)))
	}

	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.PrincipalShare)
	}
	assert.True(t, total.Equal(principal), "principal shares sum to %s", total)
}

func TestBuildSchedule_RoundingRemainderOnLast(t *testing.T) {
	// 1000 / 3 rounds to 333.33; the last share absorbs the remainder.
	entries := BuildSchedule(decimal.NewFromInt(1000), decimal.NewFromInt(5), 3, date(2026, 1, 1))
	require.Len(t, entries, 3)

	assert.True(t, entries[0].PrincipalShare.Equal(decimal.NewFromFloat(333.33)))
	assert.True(t, entries[1].PrincipalShare.Equal(decimal.NewFromFloat(333.33)))
	assert.True(t, entries[2].PrincipalShare.Equal(decimal.NewFromFloat(333.34)))
}

func TestBuildSchedule_InvalidInputs(t *testing.T) {
	assert.Nil(t, BuildSchedule(decimal.NewFromInt(1000), decimal.NewFromInt(5), 0, date(2026, 1, 1)))
	assert.Nil(t, BuildSchedule(decimal.Zero, decimal.NewFromInt(5), 3, date(2026, 1, 1)))
}
