package store

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/bmcredit/loanbook/pkg/models"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists the dataset in a local SQLite file. It implements the
// whole-dataset contract: Save rewrites all four tables inside a single
// transaction, Load reads everything back.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database file and initializes the
// schema.
func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("could not initialize schema: %w", err)
	}
	log.Println("Database connection established and schema initialized.")
	return s, nil
}

// initSchema creates the tables if they don't already exist. Decimal fields
// are TEXT so no precision is lost.
func (s *SQLiteStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		tax_id TEXT NOT NULL,
		phone TEXT NOT NULL,
		email TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS loans (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL,
		model TEXT NOT NULL,
		principal TEXT NOT NULL,
		interest_rate TEXT NOT NULL,
		period_kind TEXT NOT NULL DEFAULT '',
		installments INTEGER NOT NULL DEFAULT 0,
		start_date DATETIME NOT NULL,
		due_date DATETIME NOT NULL,
		interest_amount TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		outstanding_principal TEXT NOT NULL,
		current_interest TEXT NOT NULL,
		total_interest_collected TEXT NOT NULL,
		total_paid TEXT NOT NULL,
		status TEXT NOT NULL,
		last_payment_at DATETIME,
		notes TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY(client_id) REFERENCES clients(id)
	);
	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		loan_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		amount TEXT NOT NULL,
		interest_portion TEXT NOT NULL,
		principal_portion TEXT NOT NULL,
		date DATETIME NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		FOREIGN KEY(loan_id) REFERENCES loans(id)
	);
	CREATE TABLE IF NOT EXISTS installments (
		id TEXT PRIMARY KEY,
		loan_id TEXT NOT NULL,
		sequence INTEGER NOT NULL,
		due_date DATETIME NOT NULL,
		principal_share TEXT NOT NULL,
		interest_share TEXT NOT NULL,
		total TEXT NOT NULL,
		status TEXT NOT NULL,
		paid_date DATETIME,
		paid_amount TEXT NOT NULL DEFAULT '0',
		FOREIGN KEY(loan_id) REFERENCES loans(id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Load reads the whole dataset. An empty database yields empty collections.
func (s *SQLiteStore) Load() (*models.Dataset, error) {
	data := models.NewDataset()

	if err := s.loadClients(data); err != nil {
		return nil, err
	}
	if err := s.loadLoans(data); err != nil {
		return nil, err
	}
	if err := s.loadPayments(data); err != nil {
		return nil, err
	}
	if err := s.loadInstallments(data); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *SQLiteStore) loadClients(data *models.Dataset) error {
	rows, err := s.db.Query(`SELECT id, name, tax_id, phone, email, address, created_at FROM clients`)
	if err != nil {
		return fmt.Errorf("failed to load clients: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c models.Client
		var idStr string
		if err := rows.Scan(&idStr, &c.Name, &c.TaxID, &c.Phone, &c.Email, &c.Address, &c.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan client row: %w", err)
		}
		c.ID, err = uuid.Parse(idStr)
		if err != nil {
			return fmt.Errorf("bad client id %q: %w", idStr, err)
		}
		data.Clients = append(data.Clients, &c)
	}
	return rows.Err()
}

func (s *SQLiteStore) loadLoans(data *models.Dataset) error {
	rows, err := s.db.Query(`SELECT id, client_id, model, principal, interest_rate, period_kind, installments,
		start_date, due_date, interest_amount, total_amount, outstanding_principal, current_interest,
		total_interest_collected, total_paid, status, last_payment_at, notes, created_at, updated_at FROM loans`)
	if err != nil {
		return fmt.Errorf("failed to load loans: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l models.Loan
		var idStr, clientIDStr string
		var lastPayment sql.NullTime
		if err := rows.Scan(&idStr, &clientIDStr, &l.Model, &l.Principal, &l.InterestRate, &l.PeriodKind,
			&l.Installments, &l.StartDate, &l.DueDate, &l.InterestAmount, &l.TotalAmount,
			&l.OutstandingPrincipal, &l.CurrentInterest, &l.TotalInterestCollected, &l.TotalPaid,
			&l.Status, &lastPayment, &l.Notes, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return fmt.Errorf("failed to scan loan row: %w", err)
		}
		if l.ID, err = uuid.Parse(idStr); err != nil {
			return fmt.Errorf("bad loan id %q: %w", idStr, err)
		}
		if l.ClientID, err = uuid.Parse(clientIDStr); err != nil {
			return fmt.Errorf("bad loan client id %q: %w", clientIDStr, err)
		}
		if lastPayment.Valid {
			t := lastPayment.Time
			l.LastPaymentAt = &t
		}
		data.Loans = append(data.Loans, &l)
	}
	return rows.Err()
}

func (s *SQLiteStore) loadPayments(data *models.Dataset) error {
	rows, err := s.db.Query(`SELECT id, loan_id, kind, amount, interest_portion, principal_portion, date, notes FROM payments`)
	if err != nil {
		return fmt.Errorf("failed to load payments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Payment
		var idStr, loanIDStr string
		if err := rows.Scan(&idStr, &loanIDStr, &p.Kind, &p.Amount, &p.InterestPortion, &p.PrincipalPortion, &p.Date, &p.Notes); err != nil {
			return fmt.Errorf("failed to scan payment row: %w", err)
		}
		if p.ID, err = uuid.Parse(idStr); err != nil {
			return fmt.Errorf("bad payment id %q: %w", idStr, err)
		}
		if p.LoanID, err = uuid.Parse(loanIDStr); err != nil {
			return fmt.Errorf("bad payment loan id %q: %w", loanIDStr, err)
		}
		data.Payments = append(data.Payments, &p)
	}
	return rows.Err()
}

func (s *SQLiteStore) loadInstallments(data *models.Dataset) error {
	rows, err := s.db.Query(`SELECT id, loan_id, sequence, due_date, principal_share, interest_share, total, status, paid_date, paid_amount FROM installments`)
	if err != nil {
		return fmt.Errorf("failed to load installments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var inst models.Installment
		var idStr, loanIDStr string
		var paidDate sql.NullTime
		if err := rows.Scan(&idStr, &loanIDStr, &inst.Sequence, &inst.DueDate, &inst.PrincipalShare,
			&inst.InterestShare, &inst.Total, &inst.Status, &paidDate, &inst.PaidAmount); err != nil {
			return fmt.Errorf("failed to scan installment row: %w", err)
		}
		if inst.ID, err = uuid.Parse(idStr); err != nil {
			return fmt.Errorf("bad installment id %q: %w", idStr, err)
		}
		if inst.LoanID, err = uuid.Parse(loanIDStr); err != nil {
			return fmt.Errorf("bad installment loan id %q: %w", loanIDStr, err)
		}
		if paidDate.Valid {
			t := paidDate.Time
			inst.PaidDate = &t
		}
		data.Installments = append(data.Installments, &inst)
	}
	return rows.Err()
}

// Save overwrites the stored dataset with the given one, all four tables in a
// single transaction.
func (s *SQLiteStore) Save(data *models.Dataset) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Children first so the foreign keys hold during the wipe.
	for _, table := range []string{"installments", "payments", "loans", "clients"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, c := range data.Clients {
		if _, err := tx.Exec(
			`INSERT INTO clients (id, name, tax_id, phone, email, address, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			c.ID.String(), c.Name, c.TaxID, c.Phone, c.Email, c.Address, c.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to save client: %w", err)
		}
	}
	for _, l := range data.Loans {
		var lastPayment interface{}
		if l.LastPaymentAt != nil {
			lastPayment = *l.LastPaymentAt
		}
		if _, err := tx.Exec(
			`INSERT INTO loans (id, client_id, model, principal, interest_rate, period_kind, installments,
				start_date, due_date, interest_amount, total_amount, outstanding_principal, current_interest,
				total_interest_collected, total_paid, status, last_payment_at, notes, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.ID.String(), l.ClientID.String(), l.Model, l.Principal, l.InterestRate, l.PeriodKind,
			l.Installments, l.StartDate, l.DueDate, l.InterestAmount, l.TotalAmount,
			l.OutstandingPrincipal, l.CurrentInterest, l.TotalInterestCollected, l.TotalPaid,
			l.Status, lastPayment, l.Notes, l.CreatedAt, l.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to save loan: %w", err)
		}
	}
	for _, p := range data.Payments {
		if _, err := tx.Exec(
			`INSERT INTO payments (id, loan_id, kind, amount, interest_portion, principal_portion, date, notes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID.String(), p.LoanID.String(), p.Kind, p.Amount, p.InterestPortion, p.PrincipalPortion, p.Date, p.Notes,
		); err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}
	}
	for _, inst := range data.Installments {
		var paidDate interface{}
		if inst.PaidDate != nil {
			paidDate = *inst.PaidDate
		}
		if _, err := tx.Exec(
			`INSERT INTO installments (id, loan_id, sequence, due_date, principal_share, interest_share, total, status, paid_date, paid_amount)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			inst.ID.String(), inst.LoanID.String(), inst.Sequence, inst.DueDate, inst.PrincipalShare,
			inst.InterestShare, inst.Total, inst.Status, paidDate, inst.PaidAmount,
		); err != nil {
			return fmt.Errorf("failed to save installment: %w", err)
		}
	}

	return tx.Commit()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
