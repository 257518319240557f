package server

import (
	"net/http"

	"github.com/dvalverde/tradevault/internal/models"
)

// handleSymbolsRoot handles GET /api/symbols (list) and POST /api/symbols.
func (s *Server) handleSymbolsRoot(w http.ResponseWriter, r *http.Request) {
	userID, accountID, ok := requireScope(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		symbols, err := s.app.SymbolService.List(r.Context(), userID, accountID)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, symbols)

	case http.MethodPost:
		var input models.NewSymbolInput
		if !DecodeJSON(w, r, &input) {
			return
		}
		symbol, err := s.app.SymbolService.Create(r.Context(), userID, accountID, input)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, symbol)

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleSymbolSearch handles GET /api/symbols/search?q=.
func (s *Server) handleSymbolSearch(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID, accountID, ok := requireScope(w, r)
	if !ok {
		return
	}

	symbols, err := s.app.SymbolService.Search(r.Context(), userID, accountID, r.URL.Query().Get("q"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, symbols)
}

// handleSymbolReorder handles PUT /api/symbols/reorder.
func (s *Server) handleSymbolReorder(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPut) {
		return
	}
	userID, accountID, ok := requireScope(w, r)
	if !ok {
		return
	}

	var body struct {
		SymbolIDs []string `json:"symbolIds"`
	}
	if !DecodeJSON(w, r, &body) {
		return
	}

	if err := s.app.SymbolService.Reorder(r.Context(), userID, accountID, body.SymbolIDs); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "reordered"})
}

// handleSymbolSyncAll handles POST /api/symbols/sync, the sweep over every
// symbol referenced by an open operation.
func (s *Server) handleSymbolSyncAll(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if _, _, ok := requireScope(w, r); !ok {
		return
	}

	if err := s.app.SymbolService.SyncOpenOperationPrices(r.Context()); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "synced"})
}

// handleSymbol handles GET, PUT, and DELETE /api/symbols/{id}.
func (s *Server) handleSymbol(w http.ResponseWriter, r *http.Request, symbolID string) {
	userID, accountID, ok := requireScope(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		symbol, err := s.app.SymbolService.Get(r.Context(), userID, accountID, symbolID)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, symbol)

	case http.MethodPut:
		var patch models.SymbolPatch
		if !DecodeJSON(w, r, &patch) {
			return
		}
		symbol, err := s.app.SymbolService.Update(r.Context(), userID, accountID, symbolID, patch)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, symbol)

	case http.MethodDelete:
		if err := s.app.SymbolService.Remove(r.Context(), userID, accountID, symbolID); err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

// handleSymbolSync handles POST /api/symbols/{id}/sync.
func (s *Server) handleSymbolSync(w http.ResponseWriter, r *http.Request, symbolID string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	userID, accountID, ok := requireScope(w, r)
	if !ok {
		return
	}

	point, err := s.app.SymbolService.SyncMarketPrice(r.Context(), userID, accountID, symbolID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, point)
}

// handleSymbolPrices handles GET and POST /api/symbols/{id}/prices.
func (s *Server) handleSymbolPrices(w http.ResponseWriter, r *http.Request, symbolID string) {
	userID, accountID, ok := requireScope(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		prices, err := s.app.SymbolService.ListPrices(r.Context(), userID, accountID, symbolID)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, prices)

	case http.MethodPost:
		var input models.PricePointInput
		if !DecodeJSON(w, r, &input) {
			return
		}
		point, err := s.app.SymbolService.AddPrice(r.Context(), userID, accountID, symbolID, input)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, point)

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleSymbolPrice handles PUT and DELETE /api/symbols/{id}/prices/{priceId}.
func (s *Server) handleSymbolPrice(w http.ResponseWriter, r *http.Request, symbolID, priceID string) {
	userID, accountID, ok := requireScope(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodPut:
		var input models.PricePointInput
		if !DecodeJSON(w, r, &input) {
			return
		}
		point, err := s.app.SymbolService.UpdatePrice(r.Context(), userID, accountID, symbolID, priceID, input)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, point)

	case http.MethodDelete:
		if err := s.app.SymbolService.RemovePrice(r.Context(), userID, accountID, symbolID, priceID); err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

	default:
		RequireMethod(w, r, http.MethodPut, http.MethodDelete)
	}
}
