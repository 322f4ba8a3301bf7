package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmcredit/loanbook/pkg/models"
)

func testDataset(now time.Time) *models.Dataset {
	clientID := uuid.New()
	loanID := uuid.New()
	paidAt := now.Add(-time.Hour)

	d := models.NewDataset()
	d.Clients = append(d.Clients, &models.Client{
		ID:        clientID,
		Name:      "Maria Souza",
		TaxID:     "123.456.789-00",
		Phone:     "+55 11 98888-7777",
		Email:     "maria@example.com",
		Address:   "Rua A, 10",
		CreatedAt: now,
	})
	d.Loans = append(d.Loans, &models.Loan{
		ID:                     loanID,
		ClientID:               clientID,
		Model:                  models.ModelRevolving,
		Principal:              decimal.NewFromInt(1000),
		InterestRate:           decimal.NewFromInt(10),
		PeriodKind:             models.PeriodMonth,
		StartDate:              now,
		DueDate:                now.AddDate(0, 1, 0),
		InterestAmount:         decimal.NewFromInt(95),
		TotalAmount:            decimal.NewFromInt(1045),
		OutstandingPrincipal:   decimal.NewFromInt(950),
		CurrentInterest:        decimal.NewFromInt(95),
		TotalInterestCollected: decimal.NewFromInt(100),
		TotalPaid:              decimal.NewFromInt(150),
		Status:                 models.StatusActive,
		LastPaymentAt:          &paidAt,
		Notes:                  "first loan",
		CreatedAt:              now,
		UpdatedAt:              now,
	})
	d.Payments = append(d.Payments, &models.Payment{
		ID:               uuid.New(),
		LoanID:           loanID,
		Kind:             models.PaymentInterestPlusPrincipal,
		Amount:           decimal.NewFromInt(150),
		InterestPortion:  decimal.NewFromInt(100),
		PrincipalPortion: decimal.NewFromInt(50),
		Date:             paidAt,
	})
	d.Installments = append(d.Installments, &models.Installment{
		ID:             uuid.New(),
		LoanID:         loanID,
		Sequence:       1,
		DueDate:        now.AddDate(0, 1, 0),
		PrincipalShare: decimal.NewFromInt(100),
		InterestShare:  decimal.NewFromInt(120),
		Total:          decimal.NewFromInt(220),
		Status:         models.InstallmentPending,
		PaidAmount:     decimal.Zero,
	})
	return d
}

func TestSQLiteStore_SaveAndLoadRoundTrip(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "loanbook_test.db"))
	require.NoError(t, err)
	defer s.Close()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	data := testDataset(now)
	require.NoError(t, s.Save(data))

	loaded, err := s.Load()
	require.NoError(t, err)
	require.Len(t, loaded.Clients, 1)
	require.Len(t, loaded.Loans, 1)
	require.Len(t, loaded.Payments, 1)
	require.Len(t, loaded.Installments, 1)

	client := loaded.Clients[0]
	assert.Equal(t, data.Clients[0].ID, client.ID)
	assert.Equal(t, "Maria Souza", client.Name)
	assert.Equal(t, "Rua A, 10", client.Address)

	loan := loaded.Loans[0]
	assert.Equal(t, data.Loans[0].ID, loan.ID)
	assert.Equal(t, client.ID, loan.ClientID)
	assert.Equal(t, models.ModelRevolving, loan.Model)
	assert.True(t, loan.Principal.Equal(decimal.NewFromInt(1000)))
	assert.True(t, loan.OutstandingPrincipal.Equal(decimal.NewFromInt(950)))
	assert.True(t, loan.TotalPaid.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, models.StatusActive, loan.Status)
	require.NotNil(t, loan.LastPaymentAt)
	assert.Equal(t, "first loan", loan.Notes)

	payment := loaded.Payments[0]
	assert.True(t, payment.InterestPortion.Add(payment.PrincipalPortion).Equal(payment.Amount))

	inst := loaded.Installments[0]
	assert.Equal(t, 1, inst.Sequence)
	assert.True(t, inst.Total.Equal(decimal.NewFromInt(220)))
	assert.Nil(t, inst.PaidDate)
}

func TestSQLiteStore_SaveOverwrites(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "loanbook_test.db"))
	require.NoError(t, err)
	defer s.Close()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Save(testDataset(now)))

	// A second save fully replaces the first, not appends to it.
	replacement := models.NewDataset()
	replacement.Clients = append(replacement.Clients, &models.Client{
		ID:        uuid.New(),
		Name:      "Jorge Prado",
		TaxID:     "987",
		Phone:     "555",
		Email:     "jorge@example.com",
		CreatedAt: now,
	})
	require.NoError(t, s.Save(replacement))

	loaded, err := s.Load()
	require.NoError(t, err)
	require.Len(t, loaded.Clients, 1)
	assert.Equal(t, "Jorge Prado", loaded.Clients[0].Name)
	assert.Empty(t, loaded.Loans)
	assert.Empty(t, loaded.Payments)
	assert.Empty(t, loaded.Installments)
}

func TestSQLiteStore_FreshDatabaseIsEmpty(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "loanbook_test.db"))
	require.NoError(t, err)
	defer s.Close()

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.NotNil(t, loaded.Clients)
	assert.Empty(t, loaded.Clients)
	assert.Empty(t, loaded.Loans)
	assert.Empty(t, loaded.Payments)
	assert.Empty(t, loaded.Installments)
}

func TestMemoryStore_IsolatesItsCopy(t *testing.T) {
	m := NewMemoryStore()

	now := time.Now()
	data := testDataset(now)
	require.NoError(t, m.Save(data))

	// Mutating the saved dataset must not leak into the store.
	data.Clients[0].Name = "Mallory"

	loaded, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, "Maria Souza", loaded.Clients[0].Name)

	// And mutating a loaded copy must not leak either.
	loaded.Clients[0].Name = "Mallory"
	again, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, "Maria Souza", again.Clients[0].Name)
}
