package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dvalverde/tradevault/internal/common"
	"github.com/dvalverde/tradevault/internal/models"
)

// requireUser pulls the authenticated user out of the request context. Unlike
// requireScope it does not demand an active account, so account management
// works for a user whose accounts were all deleted.
func requireUser(w http.ResponseWriter, r *http.Request) (userID string, ok bool) {
	uc := common.UserContextFromContext(r.Context())
	if uc == nil || uc.UserID == "" {
		WriteError(w, http.StatusUnauthorized, "Authentication required")
		return "", false
	}
	return uc.UserID, true
}

// handleAccountsRoot handles GET /api/accounts and POST /api/accounts.
func (s *Server) handleAccountsRoot(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	store := s.app.Storage.InternalStore()

	switch r.Method {
	case http.MethodGet:
		accounts, err := store.ListAccounts(r.Context(), userID)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, accounts)

	case http.MethodPost:
		var input struct {
			Name     string `json:"name"`
			Currency string `json:"currency"`
		}
		if !DecodeJSON(w, r, &input) {
			return
		}

		now := time.Now().UTC()
		account := &models.Account{
			ID:        uuid.New().String(),
			UserID:    userID,
			Name:      input.Name,
			Currency:  input.Currency,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := account.Validate(); err != nil {
			WriteServiceError(w, err)
			return
		}
		if err := store.SaveAccount(r.Context(), account); err != nil {
			WriteServiceError(w, err)
			return
		}

		s.logger.Info().
			Str("user_id", userID).
			Str("account_id", account.ID).
			Msg("Account created")
		WriteJSON(w, http.StatusCreated, account)

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleAccount handles GET and DELETE /api/accounts/{id}.
func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request, accountID string) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	store := s.app.Storage.InternalStore()

	switch r.Method {
	case http.MethodGet:
		account, err := store.GetAccount(r.Context(), userID, accountID)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, account)

	case http.MethodDelete:
		if _, err := store.GetAccount(r.Context(), userID, accountID); err != nil {
			WriteServiceError(w, err)
			return
		}
		if err := store.DeleteAccount(r.Context(), userID, accountID); err != nil {
			WriteServiceError(w, err)
			return
		}

		// Clear the active account pointer if it referenced the deleted one.
		user, err := store.GetUser(r.Context(), userID)
		if err == nil && user.ActiveAccountID == accountID {
			user.ActiveAccountID = ""
			user.UpdatedAt = time.Now().UTC()
			if err := store.SaveUser(r.Context(), user); err != nil {
				s.logger.Warn().Err(err).
					Str("user_id", userID).
					Msg("Failed to clear active account after delete")
			}
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodDelete)
	}
}

// handleAccountActivate handles POST /api/accounts/{id}/activate, switching
// the user's active ledger scope.
func (s *Server) handleAccountActivate(w http.ResponseWriter, r *http.Request, accountID string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	store := s.app.Storage.InternalStore()

	if _, err := store.GetAccount(r.Context(), userID, accountID); err != nil {
		WriteServiceError(w, err)
		return
	}

	user, err := store.GetUser(r.Context(), userID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	user.ActiveAccountID = accountID
	user.UpdatedAt = time.Now().UTC()
	if err := store.SaveUser(r.Context(), user); err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, user)
}
