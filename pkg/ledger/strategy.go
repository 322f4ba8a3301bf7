package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bmcredit/loanbook/pkg/finance"
	"github.com/bmcredit/loanbook/pkg/models"
)

// strategy is the per-loan accounting model. initialize fills in the derived
// fields of a freshly validated loan (and generates installments where the
// model has them); applyPayment mutates the given copies and reports the
// resulting allocation. The ledger commits the copies only if everything
// reconciles.
type strategy interface {
	initialize(loan *models.Loan, now time.Time) []*models.Installment
	applyPayment(loan *models.Loan, installments []*models.Installment, amount decimal.Decimal, kind models.PaymentKind, now time.Time) (finance.Allocation, error)
}

func strategyFor(model models.AccountingModel) (strategy, error) {
	switch model {
	case models.ModelFixed:
		return fixedStrategy{}, nil
	case models.ModelRevolving:
		return revolvingStrategy{}, nil
	case models.ModelInstallment:
		return installmentStrategy{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown accounting model %q", ErrValidation, model)
	}
}

// checkKind validates a payment against the interest-first contract shared by
// the fixed and revolving models. Partial interest payments are allowed; the
// uncollected remainder is not carried as arrears.
func checkKind(kind models.PaymentKind, amount, interestDue, outstanding decimal.Decimal) error {
	switch kind {
	case models.PaymentInterestOnly:
		if amount.GreaterThan(interestDue) {
			return fmt.Errorf("%w: interest-only payment of %s exceeds interest due %s", ErrValidation, amount, interestDue)
		}
	case models.PaymentInterestPlusPrincipal:
		principal := amount.Sub(interestDue)
		if principal.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("%w: payment must include a principal portion above the %s interest due", ErrValidation, interestDue)
		}
		if principal.GreaterThan(outstanding) {
			return fmt.Errorf("%w: principal portion %s exceeds outstanding balance %s", ErrValidation, principal, outstanding)
		}
	case models.PaymentFullSettlement:
		expected := interestDue.Add(outstanding)
		if !amount.Equal(expected) {
			return fmt.Errorf("%w: full settlement requires exactly %s (interest %s + outstanding %s)", ErrValidation, expected, interestDue, outstanding)
		}
	default:
		return fmt.Errorf("%w: unknown payment kind %q", ErrValidation, kind)
	}
	return nil
}

// fixedStrategy: interest computed once on the original principal, single due
// date, total amount constant over the loan's life.
type fixedStrategy struct{}

func (fixedStrategy) initialize(loan *models.Loan, now time.Time) []*models.Installment {
	interest := finance.InterestAmount(loan.Principal, loan.InterestRate)
	loan.InterestAmount = interest
	loan.CurrentInterest = interest
	loan.TotalAmount = loan.Principal.Add(interest)
	loan.OutstandingPrincipal = loan.Principal
	loan.DueDate = finance.DueDate(loan.StartDate, loan.PeriodKind)
	return nil
}

func (fixedStrategy) applyPayment(loan *models.Loan, _ []*models.Installment, amount decimal.Decimal, kind models.PaymentKind, _ time.Time) (finance.Allocation, error) {
	interestDue := loan.InterestAmount.Sub(loan.TotalInterestCollected)
	if interestDue.IsNegative() {
		interestDue = decimal.Zero
	}
	if err := checkKind(kind, amount, interestDue, loan.OutstandingPrincipal); err != nil {
		return finance.Allocation{}, err
	}

	alloc := finance.Allocate(amount, interestDue, loan.OutstandingPrincipal)
	loan.OutstandingPrincipal = alloc.NewOutstanding
	loan.TotalInterestCollected = loan.TotalInterestCollected.Add(alloc.InterestPortion)
	loan.TotalPaid = loan.TotalPaid.Add(amount)
	loan.CurrentInterest = interestDue.Sub(alloc.InterestPortion)
	return alloc, nil
}

// revolvingStrategy: the reference semantics. Interest is recomputed on the
// outstanding principal after every payment, and the due date rolls forward
// one period from the payment date while the loan stays open.
type revolvingStrategy struct{}

func (revolvingStrategy) initialize(loan *models.Loan, now time.Time) []*models.Installment {
	interest := finance.InterestAmount(loan.Principal, loan.InterestRate)
	loan.InterestAmount = interest
	loan.CurrentInterest = interest
	loan.TotalAmount = loan.Principal.Add(interest)
	loan.OutstandingPrincipal = loan.Principal
	loan.DueDate = finance.DueDate(loan.StartDate, loan.PeriodKind)
	return nil
}

func (revolvingStrategy) applyPayment(loan *models.Loan, _ []*models.Installment, amount decimal.Decimal, kind models.PaymentKind, now time.Time) (finance.Allocation, error) {
	interestDue := finance.InterestAmount(loan.OutstandingPrincipal, loan.InterestRate)
	if err := checkKind(kind, amount, interestDue, loan.OutstandingPrincipal); err != nil {
		return finance.Allocation{}, err
	}

	alloc := finance.Allocate(amount, interestDue, loan.OutstandingPrincipal)
	loan.OutstandingPrincipal = alloc.NewOutstanding
	loan.CurrentInterest = finance.InterestAmount(alloc.NewOutstanding, loan.InterestRate)
	loan.InterestAmount = loan.CurrentInterest
	loan.TotalAmount = alloc.NewOutstanding.Add(loan.CurrentInterest)
	loan.TotalInterestCollected = loan.TotalInterestCollected.Add(alloc.InterestPortion)
	loan.TotalPaid = loan.TotalPaid.Add(amount)
	if !alloc.NewOutstanding.IsZero() {
		// A payment opens a fresh interest cycle.
		loan.DueDate = finance.DueDate(now, loan.PeriodKind)
	}
	return alloc, nil
}

// installmentStrategy: a fixed monthly schedule generated at creation. Each
// installment's interest is computed on the original principal, not the
// declining balance. Payments settle whole installments in sequence order.
type installmentStrategy struct{}

func (installmentStrategy) initialize(loan *models.Loan, now time.Time) []*models.Installment {
	entries := finance.BuildSchedule(loan.Principal, loan.InterestRate, loan.Installments, loan.StartDate)

	installments := make([]*models.Installment, 0, len(entries))
	total := decimal.Zero
	for _, e := range entries {
		installments = append(installments, &models.Installment{
			ID:             uuid.New(),
			LoanID:         loan.ID,
			Sequence:       e.Sequence,
			DueDate:        e.DueDate,
			PrincipalShare: e.PrincipalShare,
			InterestShare:  e.InterestShare,
			Total:          e.Total,
			Status:         models.InstallmentPending,
			PaidAmount:     decimal.Zero,
		})
		total = total.Add(e.Total)
	}

	loan.OutstandingPrincipal = loan.Principal
	loan.TotalAmount = total
	loan.InterestAmount = finance.InterestAmount(loan.Principal, loan.InterestRate)
	if len(installments) > 0 {
		loan.CurrentInterest = installments[0].InterestShare
		loan.DueDate = installments[0].DueDate
	}
	return installments
}

func (installmentStrategy) applyPayment(loan *models.Loan, installments []*models.Installment, amount decimal.Decimal, kind models.PaymentKind, now time.Time) (finance.Allocation, error) {
	if kind == models.PaymentInterestOnly {
		return finance.Allocation{}, fmt.Errorf("%w: interest-only payments are not supported for installment loans", ErrValidation)
	}
	if kind != models.PaymentInterestPlusPrincipal && kind != models.PaymentFullSettlement {
		return finance.Allocation{}, fmt.Errorf("%w: unknown payment kind %q", ErrValidation, kind)
	}

	var pending []*models.Installment
	for _, inst := range installments {
		if inst.Status != models.InstallmentPaid {
			pending = append(pending, inst)
		}
	}
	if len(pending) == 0 {
		return finance.Allocation{}, fmt.Errorf("%w: loan has no unpaid installments", ErrValidation)
	}

	if kind == models.PaymentFullSettlement {
		expected := decimal.Zero
		for _, inst := range pending {
			expected = expected.Add(inst.Total)
		}
		if !amount.Equal(expected) {
			return finance.Allocation{}, fmt.Errorf("%w: full settlement requires exactly %s", ErrValidation, expected)
		}
	}

	interest := decimal.Zero
	principal := decimal.Zero
	remaining := amount
	for _, inst := range pending {
		if remaining.LessThan(inst.Total) {
			break
		}
		remaining = remaining.Sub(inst.Total)
		interest = interest.Add(inst.InterestShare)
		principal = principal.Add(inst.PrincipalShare)
		paidAt := now
		inst.Status = models.InstallmentPaid
		inst.PaidDate = &paidAt
		inst.PaidAmount = inst.Total
	}
	if principal.IsZero() || !remaining.IsZero() {
		return finance.Allocation{}, fmt.Errorf("%w: payment must cover one or more whole installments", ErrValidation)
	}

	loan.OutstandingPrincipal = loan.OutstandingPrincipal.Sub(principal)
	if loan.OutstandingPrincipal.IsNegative() {
		loan.OutstandingPrincipal = decimal.Zero
	}
	loan.TotalInterestCollected = loan.TotalInterestCollected.Add(interest)
	loan.TotalPaid = loan.TotalPaid.Add(amount)

	loan.CurrentInterest = decimal.Zero
	for _, inst := range installments {
		if inst.Status != models.InstallmentPaid {
			loan.CurrentInterest = inst.InterestShare
			loan.DueDate = inst.DueDate
			break
		}
	}

	return finance.Allocation{
		InterestPortion:  interest,
		PrincipalPortion: principal,
		NewOutstanding:   loan.OutstandingPrincipal,
	}, nil
}
