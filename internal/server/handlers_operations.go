package server

import (
	"net/http"

	"github.com/dvalverde/tradevault/internal/models"
)

// handleOperationsRoot handles GET /api/operations (list) and POST
// /api/operations (create, optionally with the first entry).
func (s *Server) handleOperationsRoot(w http.ResponseWriter, r *http.Request) {
	userID, accountID, ok := requireScope(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		filter := models.OperationFilter{
			Status:   models.OperationStatus(r.URL.Query().Get("status")),
			Product:  models.Product(r.URL.Query().Get("product")),
			SymbolID: r.URL.Query().Get("symbolId"),
		}
		ops, err := s.app.OperationService.List(r.Context(), userID, accountID, filter)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, ops)

	case http.MethodPost:
		var input models.NewOperationInput
		if !DecodeJSON(w, r, &input) {
			return
		}
		op, err := s.app.OperationService.Create(r.Context(), userID, accountID, input)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, op)

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleOperation handles GET and DELETE /api/operations/{id}.
func (s *Server) handleOperation(w http.ResponseWriter, r *http.Request, operationID string) {
	userID, accountID, ok := requireScope(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		detail, err := s.app.OperationService.Get(r.Context(), userID, accountID, operationID)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, detail)

	case http.MethodDelete:
		if err := s.app.OperationService.Remove(r.Context(), userID, accountID, operationID); err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodDelete)
	}
}

// handleOperationStatus handles PUT /api/operations/{id}/status, the manual
// open/close override.
func (s *Server) handleOperationStatus(w http.ResponseWriter, r *http.Request, operationID string) {
	if !RequireMethod(w, r, http.MethodPut) {
		return
	}
	userID, accountID, ok := requireScope(w, r)
	if !ok {
		return
	}

	var body struct {
		Status models.OperationStatus `json:"status"`
	}
	if !DecodeJSON(w, r, &body) {
		return
	}

	op, err := s.app.OperationService.SetStatus(r.Context(), userID, accountID, operationID, body.Status)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, op)
}

// handleEntryCreate handles POST /api/operations/{id}/entries.
func (s *Server) handleEntryCreate(w http.ResponseWriter, r *http.Request, operationID string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	userID, accountID, ok := requireScope(w, r)
	if !ok {
		return
	}

	var input models.EntryInput
	if !DecodeJSON(w, r, &input) {
		return
	}

	op, err := s.app.OperationService.AddEntry(r.Context(), userID, accountID, operationID, input)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, op)
}

// handleEntry handles PUT and DELETE /api/operations/{id}/entries/{entryId}.
func (s *Server) handleEntry(w http.ResponseWriter, r *http.Request, operationID, entryID string) {
	userID, accountID, ok := requireScope(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodPut:
		var patch models.EntryPatch
		if !DecodeJSON(w, r, &patch) {
			return
		}
		op, err := s.app.OperationService.UpdateEntry(r.Context(), userID, accountID, operationID, entryID, patch)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, op)

	case http.MethodDelete:
		op, err := s.app.OperationService.RemoveEntry(r.Context(), userID, accountID, operationID, entryID)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, op)

	default:
		RequireMethod(w, r, http.MethodPut, http.MethodDelete)
	}
}
