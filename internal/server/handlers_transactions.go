package server

import (
	"net/http"

	"github.com/dvalverde/tradevault/internal/models"
)

// handleTransactionsRoot handles GET /api/transactions and POST
// /api/transactions.
func (s *Server) handleTransactionsRoot(w http.ResponseWriter, r *http.Request) {
	userID, accountID, ok := requireScope(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		transactions, err := s.app.TransactionService.List(r.Context(), userID, accountID)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, transactions)

	case http.MethodPost:
		var input models.NewTransactionInput
		if !DecodeJSON(w, r, &input) {
			return
		}
		tx, err := s.app.TransactionService.Create(r.Context(), userID, accountID, input)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, tx)

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleTransaction handles DELETE /api/transactions/{id}.
func (s *Server) handleTransaction(w http.ResponseWriter, r *http.Request, transactionID string) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}
	userID, accountID, ok := requireScope(w, r)
	if !ok {
		return
	}

	if err := s.app.TransactionService.Remove(r.Context(), userID, accountID, transactionID); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
