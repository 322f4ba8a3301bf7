package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/bmcredit/loanbook/pkg/ledger"
	"github.com/bmcredit/loanbook/pkg/models"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the engine's error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrValidation):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func pathID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	return id, err == nil
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Passphrase string `json:"passphrase"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	token, err := s.gate.Login(req.Passphrase)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid passphrase"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) createClientHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		TaxID   string `json:"tax_id"`
		Phone   string `json:"phone"`
		Email   string `json:"email"`
		Address string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	client, err := s.ledger.CreateClient(req.Name, req.TaxID, req.Phone, req.Email, req.Address)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, client)
}

func (s *Server) getClientHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid client ID", http.StatusBadRequest)
		return
	}
	client, err := s.ledger.GetClient(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

func (s *Server) listClientsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.ListClients())
}

func (s *Server) updateClientHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid client ID", http.StatusBadRequest)
		return
	}
	var req struct {
		Name    *string `json:"name"`
		TaxID   *string `json:"tax_id"`
		Phone   *string `json:"phone"`
		Email   *string `json:"email"`
		Address *string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	client, err := s.ledger.UpdateClient(id, ledger.ClientUpdate{
		Name:    req.Name,
		TaxID:   req.TaxID,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

func (s *Server) deleteClientHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid client ID", http.StatusBadRequest)
		return
	}
	if err := s.ledger.DeleteClient(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) clientLoansHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid client ID", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.ledger.LoansForClient(id))
}

func (s *Server) createLoanHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientID     uuid.UUID              `json:"client_id"`
		Model        models.AccountingModel `json:"model"`
		Principal    decimal.Decimal        `json:"principal"`
		InterestRate decimal.Decimal        `json:"interest_rate"`
		PeriodKind   models.PeriodKind      `json:"period_kind"`
		Installments int                    `json:"installments"`
		Notes        string                 `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Model == "" {
		req.Model = models.ModelRevolving
	}

	loan, err := s.ledger.CreateLoan(ledger.CreateLoanParams{
		ClientID:     req.ClientID,
		Model:        req.Model,
		Principal:    req.Principal,
		InterestRate: req.InterestRate,
		PeriodKind:   req.PeriodKind,
		Installments: req.Installments,
		Notes:        req.Notes,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, loan)
}

func (s *Server) getLoanHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}
	loan, err := s.ledger.GetLoan(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loan)
}

func (s *Server) listLoansHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.ListLoans())
}

func (s *Server) deleteLoanHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}
	if err := s.ledger.DeleteLoan(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) recordPaymentHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}
	var req struct {
		Amount decimal.Decimal    `json:"amount"`
		Kind   models.PaymentKind `json:"kind"`
		Notes  string             `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Kind == "" {
		req.Kind = models.PaymentInterestPlusPrincipal
	}

	payment, err := s.ledger.RecordPayment(id, req.Amount, req.Kind, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

func (s *Server) loanPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.ledger.PaymentsForLoan(id))
}

func (s *Server) loanInstallmentsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.ledger.InstallmentsForLoan(id))
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.Statistics())
}
