package main

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bmcredit/loanbook/pkg/auth"
	"github.com/bmcredit/loanbook/pkg/config"
	"github.com/bmcredit/loanbook/pkg/ledger"
	"github.com/bmcredit/loanbook/pkg/store"
)

// Server holds the engine and its collaborators.
type Server struct {
	ledger  *ledger.Ledger
	storage store.Storage // kept to close it on shutdown
	gate    *auth.Gate
}

func NewServer(s store.Storage, gate *auth.Gate) (*Server, error) {
	l, err := ledger.NewLedger(s)
	if err != nil {
		return nil, err
	}
	return &Server{
		ledger:  l,
		storage: s,
		gate:    gate,
	}, nil
}

// routes wires every handler. Everything except login sits behind the access
// gate.
func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/login", s.loginHandler).Methods("POST")

	api := router.PathPrefix("/").Subrouter()
	api.Use(s.gate.Middleware)

	api.HandleFunc("/clients", s.listClientsHandler).Methods("GET")
	api.HandleFunc("/clients", s.createClientHandler).Methods("POST")
	api.HandleFunc("/clients/{id}", s.getClientHandler).Methods("GET")
	api.HandleFunc("/clients/{id}", s.updateClientHandler).Methods("PUT")
	api.HandleFunc("/clients/{id}", s.deleteClientHandler).Methods("DELETE")
	api.HandleFunc("/clients/{id}/loans", s.clientLoansHandler).Methods("GET")

	api.HandleFunc("/loans", s.listLoansHandler).Methods("GET")
	api.HandleFunc("/loans", s.createLoanHandler).Methods("POST")
	api.HandleFunc("/loans/{id}", s.getLoanHandler).Methods("GET")
	api.HandleFunc("/loans/{id}", s.deleteLoanHandler).Methods("DELETE")
	api.HandleFunc("/loans/{id}/payments", s.recordPaymentHandler).Methods("POST")
	api.HandleFunc("/loans/{id}/payments", s.loanPaymentsHandler).Methods("GET")
	api.HandleFunc("/loans/{id}/installments", s.loanInstallmentsHandler).Methods("GET")

	api.HandleFunc("/stats", s.statsHandler).Methods("GET")
	return router
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	sqliteStore, err := store.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize SQLite store: %v", err)
	}
	defer sqliteStore.Close()

	gate := auth.NewGate(cfg.Passphrase, cfg.JWTSecret, cfg.TokenTTL)
	server, err := NewServer(sqliteStore, gate)
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}

	log.Printf("Server starting on %s", cfg.Addr)
	log.Fatal(http.ListenAndServe(cfg.Addr, server.routes()))
}
