package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountingModel selects how a loan accrues interest and consumes payments.
type AccountingModel string

const (
	// ModelFixed computes interest once on the original principal with a
	// single due date.
	ModelFixed AccountingModel = "fixed"
	// ModelRevolving recomputes interest on the outstanding principal after
	// every payment.
	ModelRevolving AccountingModel = "revolving"
	// ModelInstallment splits the principal across a fixed monthly schedule.
	ModelInstallment AccountingModel = "installment"
)

// PeriodKind is the due-date offset for fixed and revolving loans.
type PeriodKind string

const (
	PeriodWeek      PeriodKind = "week"      // +7 days
	PeriodFortnight PeriodKind = "fortnight" // +15 days
	PeriodMonth     PeriodKind = "month"     // +1 calendar month
)

// LoanStatus covers both the persisted lifecycle (active/settled) and the
// derived display buckets recomputed from the due date on every read.
type LoanStatus string

const (
	StatusActive  LoanStatus = "active"
	StatusSettled LoanStatus = "settled"
	StatusPending LoanStatus = "pending"
	StatusDueSoon LoanStatus = "due_soon"
	StatusOverdue LoanStatus = "overdue"
)

// PaymentKind is how a recorded payment should be applied.
type PaymentKind string

const (
	PaymentInterestOnly          PaymentKind = "interest_only"
	PaymentInterestPlusPrincipal PaymentKind = "interest_plus_principal"
	PaymentFullSettlement        PaymentKind = "full_settlement"
)

// InstallmentStatus is the persisted state of one scheduled installment.
// Overdue is derived on read, never stored.
type InstallmentStatus string

const (
	InstallmentPending InstallmentStatus = "pending"
	InstallmentPaid    InstallmentStatus = "paid"
	InstallmentOverdue InstallmentStatus = "overdue"
)

type Client struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	TaxID     string    `json:"tax_id"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Loan struct {
	ID           uuid.UUID       `json:"id"`
	ClientID     uuid.UUID       `json:"client_id"`
	Model        AccountingModel `json:"model"`
	Principal    decimal.Decimal `json:"principal"`
	InterestRate decimal.Decimal `json:"interest_rate"` // percent per period
	PeriodKind   PeriodKind      `json:"period_kind,omitempty"`
	Installments int             `json:"installments,omitempty"`
	StartDate    time.Time       `json:"start_date"`
	DueDate      time.Time       `json:"due_date"`

	// InterestAmount is fixed at creation for the fixed model; for the other
	// models it mirrors CurrentInterest for display.
	InterestAmount decimal.Decimal `json:"interest_amount"`
	// TotalAmount is principal+interest for fixed and installment loans, and
	// outstanding+current interest for revolving loans.
	TotalAmount            decimal.Decimal `json:"total_amount"`
	OutstandingPrincipal   decimal.Decimal `json:"outstanding_principal"`
	CurrentInterest        decimal.Decimal `json:"current_interest"`
	TotalInterestCollected decimal.Decimal `json:"total_interest_collected"`
	TotalPaid              decimal.Decimal `json:"total_paid"`

	Status        LoanStatus `json:"status"` // active or settled
	LastPaymentAt *time.Time `json:"last_payment_at,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Read-time projections filled in by the engine, never persisted.
	ClientName    string     `json:"client_name,omitempty"`
	DisplayStatus LoanStatus `json:"display_status,omitempty"`
	DaysUntilDue  int        `json:"days_until_due"`
}

type Installment struct {
	ID             uuid.UUID         `json:"id"`
	LoanID         uuid.UUID         `json:"loan_id"`
	Sequence       int               `json:"sequence"` // 1-based, unique per loan
	DueDate        time.Time         `json:"due_date"`
	PrincipalShare decimal.Decimal   `json:"principal_share"`
	InterestShare  decimal.Decimal   `json:"interest_share"`
	Total          decimal.Decimal   `json:"total"`
	Status         InstallmentStatus `json:"status"`
	PaidDate       *time.Time        `json:"paid_date,omitempty"`
	PaidAmount     decimal.Decimal   `json:"paid_amount"`
}

// Payment is append-only: once recorded it is never mutated, and only a
// cascading loan delete removes it. InterestPortion+PrincipalPortion always
// equals Amount.
type Payment struct {
	ID               uuid.UUID       `json:"id"`
	LoanID           uuid.UUID       `json:"loan_id"`
	Kind             PaymentKind     `json:"kind"`
	Amount           decimal.Decimal `json:"amount"`
	InterestPortion  decimal.Decimal `json:"interest_portion"`
	PrincipalPortion decimal.Decimal `json:"principal_portion"`
	Date             time.Time       `json:"date"`
	Notes            string          `json:"notes,omitempty"`

	// Read-time projection, never persisted.
	ClientName string `json:"client_name,omitempty"`
}

// Dataset is the aggregate root: the four collections the engine owns and the
// persistence gateway loads and saves as a whole.
type Dataset struct {
	Clients      []*Client      `json:"clients"`
	Loans        []*Loan        `json:"loans"`
	Payments     []*Payment     `json:"payments"`
	Installments []*Installment `json:"installments"`
}

// NewDataset returns an empty dataset with non-nil collections.
func NewDataset() *Dataset {
	return &Dataset{
		Clients:      []*Client{},
		Loans:        []*Loan{},
		Payments:     []*Payment{},
		Installments: []*Installment{},
	}
}

// StatusCounts is the per-bucket loan count breakdown for the dashboard.
type StatusCounts struct {
	Pending int `json:"pending"`
	DueSoon int `json:"due_soon"`
	Overdue int `json:"overdue"`
	Settled int `json:"settled"`
}

// Statistics is the reducer output consumed by the dashboard.
type Statistics struct {
	TotalClients     int             `json:"total_clients"`
	TotalLent        decimal.Decimal `json:"total_lent"`
	TotalCollected   decimal.Decimal `json:"total_collected"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	TotalOverdue     decimal.Decimal `json:"total_overdue"`
	TotalDueSoon     decimal.Decimal `json:"total_due_soon"`
	StatusCounts     StatusCounts    `json:"status_counts"`
}

// OpenBalance is the amount still owed on the loan, defined consistently per
// accounting model so the reducer never double counts interest.
func (l *Loan) OpenBalance() decimal.Decimal {
	if l.Status == StatusSettled {
		return decimal.Zero
	}
	if l.Model == ModelRevolving {
		return l.OutstandingPrincipal.Add(l.CurrentInterest)
	}
	open := l.TotalAmount.Sub(l.TotalPaid)
	if open.IsNegative() {
		return decimal.Zero
	}
	return open
}

func (c *Client) Clone() *Client {
	cp := *c
	return &cp
}

func (l *Loan) Clone() *Loan {
	cp := *l
	if l.LastPaymentAt != nil {
		t := *l.LastPaymentAt
		cp.LastPaymentAt = &t
	}
	return &cp
}

func (i *Installment) Clone() *Installment {
	cp := *i
	if i.PaidDate != nil {
		t := *i.PaidDate
		cp.PaidDate = &t
	}
	return &cp
}

func (p *Payment) Clone() *Payment {
	cp := *p
	return &cp
}

// Clone deep-copies the whole dataset.
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{
		Clients:      make([]*Client, len(d.Clients)),
		Loans:        make([]*Loan, len(d.Loans)),
		Payments:     make([]*Payment, len(d.Payments)),
		Installments: make([]*Installment, len(d.Installments)),
	}
	for i, c := range d.Clients {
		out.Clients[i] = c.Clone()
	}
	for i, l := range d.Loans {
		out.Loans[i] = l.Clone()
	}
	for i, p := range d.Payments {
		out.Payments[i] = p.Clone()
	}
	for i, inst := range d.Installments {
		out.Installments[i] = inst.Clone()
	}
	return out
}
