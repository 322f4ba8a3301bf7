// Package ledger is the loan accounting engine. It owns the in-memory
// dataset, is the only writer of clients, loans, payments, and installments,
// and keeps them consistent: validated mutations, cascading deletes, and
// all-or-nothing payment application. Every read hands out copies decorated
// with derived display fields, so callers can never corrupt engine state.
package ledger

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bmcredit/loanbook/pkg/finance"
	"github.com/bmcredit/loanbook/pkg/models"
	"github.com/bmcredit/loanbook/pkg/stats"
	"github.com/bmcredit/loanbook/pkg/store"
)

// Ledger handles the business logic for clients, loans, and payments.
type Ledger struct {
	storage store.Storage
	data    *models.Dataset
	now     func() time.Time // injectable clock
}

// NewLedger loads the dataset from the given storage and returns an engine
// bound to it. A fresh store yields empty collections.
func NewLedger(s store.Storage) (*Ledger, error) {
	data, err := s.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	if data == nil {
		data = models.NewDataset()
	}
	return &Ledger{
		storage: s,
		data:    data,
		now:     time.Now,
	}, nil
}

// persist saves the whole dataset after a mutation. Persistence is
// fire-and-forget: a failed save is logged, not surfaced, since the in-memory
// state is authoritative for the process lifetime.
func (l *Ledger) persist() {
	if err := l.storage.Save(l.data); err != nil {
		log.Printf("failed to persist dataset: %v", err)
	}
}

// ---- Clients ----

// CreateClient validates and appends a new client.
func (l *Ledger) CreateClient(name, taxID, phone, email, address string) (*models.Client, error) {
	name = strings.TrimSpace(name)
	taxID = strings.TrimSpace(taxID)
	phone = strings.TrimSpace(phone)
	email = strings.TrimSpace(email)
	if name == "" || taxID == "" || phone == "" || email == "" {
		return nil, fmt.Errorf("%w: name, tax id, phone, and email are required", ErrValidation)
	}

	client := &models.Client{
		ID:        uuid.New(),
		Name:      name,
		TaxID:     taxID,
		Phone:     phone,
		Email:     email,
		Address:   strings.TrimSpace(address),
		CreatedAt: l.now(),
	}
	l.data.Clients = append(l.data.Clients, client)
	l.persist()
	return client.Clone(), nil
}

// ClientUpdate carries the fields of a partial client edit. Nil means leave
// unchanged.
type ClientUpdate struct {
	Name    *string
	TaxID   *string
	Phone   *string
	Email   *string
	Address *string
}

// UpdateClient merges the given fields into an existing client. Unlike the
// original system, a missing id is an explicit error rather than a silent
// no-op.
func (l *Ledger) UpdateClient(id uuid.UUID, update ClientUpdate) (*models.Client, error) {
	client := l.findClient(id)
	if client == nil {
		return nil, fmt.Errorf("%w: client %s", ErrNotFound, id)
	}

	set := func(dst *string, src *string, field string) error {
		if src == nil {
			return nil
		}
		v := strings.TrimSpace(*src)
		if v == "" && field != "address" {
			return fmt.Errorf("%w: %s cannot be empty", ErrValidation, field)
		}
		*dst = v
		return nil
	}
	work := client.Clone()
	if err := set(&work.Name, update.Name, "name"); err != nil {
		return nil, err
	}
	if err := set(&work.TaxID, update.TaxID, "tax id"); err != nil {
		return nil, err
	}
	if err := set(&work.Phone, update.Phone, "phone"); err != nil {
		return nil, err
	}
	if err := set(&work.Email, update.Email, "email"); err != nil {
		return nil, err
	}
	if err := set(&work.Address, update.Address, "address"); err != nil {
		return nil, err
	}

	*client = *work
	l.persist()
	return client.Clone(), nil
}

// DeleteClient removes the client and cascades to every loan belonging to it,
// along with those loans' payments and installments. The dataset is rebuilt
// in memory and swapped in one step, so no partially cascaded state is ever
// observable.
func (l *Ledger) DeleteClient(id uuid.UUID) error {
	if l.findClient(id) == nil {
		return fmt.Errorf("%w: client %s", ErrNotFound, id)
	}

	doomed := map[uuid.UUID]bool{}
	loans := l.data.Loans[:0:0]
	for _, loan := range l.data.Loans {
		if loan.ClientID == id {
			doomed[loan.ID] = true
			continue
		}
		loans = append(loans, loan)
	}

	clients := l.data.Clients[:0:0]
	for _, c := range l.data.Clients {
		if c.ID != id {
			clients = append(clients, c)
		}
	}
	payments := l.data.Payments[:0:0]
	for _, p := range l.data.Payments {
		if !doomed[p.LoanID] {
			payments = append(payments, p)
		}
	}
	installments := l.data.Installments[:0:0]
	for _, inst := range l.data.Installments {
		if !doomed[inst.LoanID] {
			installments = append(installments, inst)
		}
	}

	l.data.Clients = clients
	l.data.Loans = loans
	l.data.Payments = payments
	l.data.Installments = installments
	l.persist()
	return nil
}

// GetClient retrieves a client by id.
func (l *Ledger) GetClient(id uuid.UUID) (*models.Client, error) {
	client := l.findClient(id)
	if client == nil {
		return nil, fmt.Errorf("%w: client %s", ErrNotFound, id)
	}
	return client.Clone(), nil
}

// ListClients returns all clients.
func (l *Ledger) ListClients() []*models.Client {
	out := make([]*models.Client, 0, len(l.data.Clients))
	for _, c := range l.data.Clients {
		out = append(out, c.Clone())
	}
	return out
}

// ---- Loans ----

// CreateLoanParams are the inputs to CreateLoan. PeriodKind applies to the
// fixed and revolving models, Installments to the installment model.
type CreateLoanParams struct {
	ClientID     uuid.UUID
	Model        models.AccountingModel
	Principal    decimal.Decimal
	InterestRate decimal.Decimal
	PeriodKind   models.PeriodKind
	Installments int
	Notes        string
}

// CreateLoan validates the parameters, initializes the loan under its
// accounting model (including the full installment schedule, generated
// eagerly), and appends it. The client must exist: orphan loans are not
// allowed.
func (l *Ledger) CreateLoan(params CreateLoanParams) (*models.Loan, error) {
	client := l.findClient(params.ClientID)
	if client == nil {
		return nil, fmt.Errorf("%w: client %s", ErrNotFound, params.ClientID)
	}
	if params.Principal.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: principal must be positive", ErrValidation)
	}
	if params.InterestRate.IsNegative() {
		return nil, fmt.Errorf("%w: interest rate cannot be negative", ErrValidation)
	}

	strat, err := strategyFor(params.Model)
	if err != nil {
		return nil, err
	}
	switch params.Model {
	case models.ModelInstallment:
		if params.Installments <= 0 {
			return nil, fmt.Errorf("%w: installment count must be positive", ErrValidation)
		}
	default:
		switch params.PeriodKind {
		case models.PeriodWeek, models.PeriodFortnight, models.PeriodMonth:
		default:
			return nil, fmt.Errorf("%w: unknown period kind %q", ErrValidation, params.PeriodKind)
		}
	}

	now := l.now()
	loan := &models.Loan{
		ID:                     uuid.New(),
		ClientID:               params.ClientID,
		Model:                  params.Model,
		Principal:              params.Principal,
		InterestRate:           params.InterestRate,
		PeriodKind:             params.PeriodKind,
		Installments:           params.Installments,
		StartDate:              now,
		TotalInterestCollected: decimal.Zero,
		TotalPaid:              decimal.Zero,
		Status:                 models.StatusActive,
		Notes:                  strings.TrimSpace(params.Notes),
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	installments := strat.initialize(loan, now)

	l.data.Loans = append(l.data.Loans, loan)
	l.data.Installments = append(l.data.Installments, installments...)
	l.persist()
	return l.loanSnapshot(loan, now), nil
}

// DeleteLoan removes the loan together with its payments and installments.
func (l *Ledger) DeleteLoan(id uuid.UUID) error {
	if l.findLoan(id) == nil {
		return fmt.Errorf("%w: loan %s", ErrNotFound, id)
	}

	loans := l.data.Loans[:0:0]
	for _, loan := range l.data.Loans {
		if loan.ID != id {
			loans = append(loans, loan)
		}
	}
	payments := l.data.Payments[:0:0]
	for _, p := range l.data.Payments {
		if p.LoanID != id {
			payments = append(payments, p)
		}
	}
	installments := l.data.Installments[:0:0]
	for _, inst := range l.data.Installments {
		if inst.LoanID != id {
			installments = append(installments, inst)
		}
	}

	l.data.Loans = loans
	l.data.Payments = payments
	l.data.Installments = installments
	l.persist()
	return nil
}

// GetLoan retrieves a loan by id.
func (l *Ledger) GetLoan(id uuid.UUID) (*models.Loan, error) {
	loan := l.findLoan(id)
	if loan == nil {
		return nil, fmt.Errorf("%w: loan %s", ErrNotFound, id)
	}
	return l.loanSnapshot(loan, l.now()), nil
}

// ListLoans returns all loans.
func (l *Ledger) ListLoans() []*models.Loan {
	now := l.now()
	out := make([]*models.Loan, 0, len(l.data.Loans))
	for _, loan := range l.data.Loans {
		out = append(out, l.loanSnapshot(loan, now))
	}
	return out
}

// LoansForClient returns the loans owned by the given client.
func (l *Ledger) LoansForClient(clientID uuid.UUID) []*models.Loan {
	now := l.now()
	out := []*models.Loan{}
	for _, loan := range l.data.Loans {
		if loan.ClientID == clientID {
			out = append(out, l.loanSnapshot(loan, now))
		}
	}
	return out
}

// ---- Payments ----

// RecordPayment applies a payment to a loan under its accounting model and
// appends the payment record carrying the interest/principal breakdown. The
// loan update and the payment insertion happen together or not at all: the
// strategy works on copies, which are committed only after the breakdown
// reconciles exactly.
func (l *Ledger) RecordPayment(loanID uuid.UUID, amount decimal.Decimal, kind models.PaymentKind, notes string) (*models.Payment, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: payment amount must be positive", ErrValidation)
	}
	loan := l.findLoan(loanID)
	if loan == nil {
		return nil, fmt.Errorf("%w: loan %s", ErrNotFound, loanID)
	}
	if loan.Status == models.StatusSettled {
		return nil, fmt.Errorf("%w: loan is already settled", ErrValidation)
	}

	strat, err := strategyFor(loan.Model)
	if err != nil {
		return nil, err
	}

	now := l.now()
	work := loan.Clone()
	workInstallments := l.cloneInstallmentsFor(loanID)

	alloc, err := strat.applyPayment(work, workInstallments, amount, kind, now)
	if err != nil {
		return nil, err
	}

	// Invariant checks before anything is committed.
	if !alloc.InterestPortion.Add(alloc.PrincipalPortion).Equal(amount) {
		return nil, fmt.Errorf("%w: breakdown %s + %s does not equal payment %s",
			ErrConsistency, alloc.InterestPortion, alloc.PrincipalPortion, amount)
	}
	expectedOutstanding := loan.OutstandingPrincipal.Sub(alloc.PrincipalPortion)
	if expectedOutstanding.IsNegative() {
		expectedOutstanding = decimal.Zero
	}
	if !work.OutstandingPrincipal.Equal(expectedOutstanding) {
		return nil, fmt.Errorf("%w: outstanding %s does not match expected %s",
			ErrConsistency, work.OutstandingPrincipal, expectedOutstanding)
	}
	if work.OutstandingPrincipal.IsNegative() {
		return nil, fmt.Errorf("%w: outstanding principal went negative", ErrConsistency)
	}

	work.LastPaymentAt = &now
	work.UpdatedAt = now
	if work.OutstandingPrincipal.IsZero() {
		work.Status = models.StatusSettled
	}

	payment := &models.Payment{
		ID:               uuid.New(),
		LoanID:           loanID,
		Kind:             kind,
		Amount:           amount,
		InterestPortion:  alloc.InterestPortion,
		PrincipalPortion: alloc.PrincipalPortion,
		Date:             now,
		Notes:            strings.TrimSpace(notes),
	}

	// Commit.
	*loan = *work
	l.replaceInstallments(loanID, workInstallments)
	l.data.Payments = append(l.data.Payments, payment)
	l.persist()

	snap := payment.Clone()
	if client := l.findClient(loan.ClientID); client != nil {
		snap.ClientName = client.Name
	}
	return snap, nil
}

// PaymentsForLoan returns the loan's payments, newest first.
func (l *Ledger) PaymentsForLoan(loanID uuid.UUID) []*models.Payment {
	out := []*models.Payment{}
	var clientName string
	if loan := l.findLoan(loanID); loan != nil {
		if client := l.findClient(loan.ClientID); client != nil {
			clientName = client.Name
		}
	}
	for _, p := range l.data.Payments {
		if p.LoanID == loanID {
			snap := p.Clone()
			snap.ClientName = clientName
			out = append(out, snap)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

// InstallmentsForLoan returns the loan's installments in sequence order. An
// unpaid installment past its due date reads as overdue; that state is
// derived from "now", never stored.
func (l *Ledger) InstallmentsForLoan(loanID uuid.UUID) []*models.Installment {
	now := l.now()
	out := []*models.Installment{}
	for _, inst := range l.data.Installments {
		if inst.LoanID != loanID {
			continue
		}
		snap := inst.Clone()
		if snap.Status == models.InstallmentPending && finance.DaysUntilDue(snap.DueDate, now) < 0 {
			snap.Status = models.InstallmentOverdue
		}
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Sequence < out[j].Sequence
	})
	return out
}

// Statistics recomputes the dashboard totals from current state.
func (l *Ledger) Statistics() models.Statistics {
	return stats.Compute(l.data, l.now())
}

// ---- internals ----

func (l *Ledger) findClient(id uuid.UUID) *models.Client {
	for _, c := range l.data.Clients {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (l *Ledger) findLoan(id uuid.UUID) *models.Loan {
	for _, loan := range l.data.Loans {
		if loan.ID == id {
			return loan
		}
	}
	return nil
}

func (l *Ledger) cloneInstallmentsFor(loanID uuid.UUID) []*models.Installment {
	var out []*models.Installment
	for _, inst := range l.data.Installments {
		if inst.LoanID == loanID {
			out = append(out, inst.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Sequence < out[j].Sequence
	})
	return out
}

func (l *Ledger) replaceInstallments(loanID uuid.UUID, updated []*models.Installment) {
	if len(updated) == 0 {
		return
	}
	byID := make(map[uuid.UUID]*models.Installment, len(updated))
	for _, inst := range updated {
		byID[inst.ID] = inst
	}
	for i, inst := range l.data.Installments {
		if repl, ok := byID[inst.ID]; ok {
			l.data.Installments[i] = repl
		}
	}
}

// loanSnapshot clones a loan and fills in the read-time projections: the
// owning client's name (looked up, never cached on the loan) and the display
// status derived from the due date.
func (l *Ledger) loanSnapshot(loan *models.Loan, now time.Time) *models.Loan {
	snap := loan.Clone()
	if client := l.findClient(loan.ClientID); client != nil {
		snap.ClientName = client.Name
	}
	snap.DaysUntilDue = finance.DaysUntilDue(loan.DueDate, now)
	snap.DisplayStatus = finance.ClassifyStatus(loan.DueDate, loan.Status == models.StatusSettled, now)
	return snap
}
