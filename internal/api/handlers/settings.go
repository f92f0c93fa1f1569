package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/stocknote/stocknote/internal/api/middleware"
	"github.com/stocknote/stocknote/internal/auth"
	"github.com/stocknote/stocknote/internal/store"
)

// SettingsHandler handles account-settings endpoints.
type SettingsHandler struct {
	users *store.Users
	log   zerolog.Logger
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(users *store.Users, log zerolog.Logger) *SettingsHandler {
	return &SettingsHandler{users: users, log: log}
}

// LinkSpreadsheet handles POST /api/settings/spreadsheet
//
// Binding a spreadsheet is the last onboarding step; an empty id unbinds and
// puts the account back into standalone mode.
func (h *SettingsHandler) LinkSpreadsheet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := auth.FromContext(ctx)
	if sess == nil {
		middleware.WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req struct {
		SpreadsheetID string `json:"spreadsheetId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.users.Resolve(ctx, sess)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "User not found")
			return
		}
		h.log.Error().Err(err).Msg("Failed to resolve user")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to update spreadsheet link")
		return
	}

	if err := h.users.SetSpreadsheetID(ctx, user.ID, req.SpreadsheetID); err != nil {
		h.log.Error().Err(err).Msg("Failed to update spreadsheet link")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to update spreadsheet link")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"linked":  req.SpreadsheetID != "",
	})
}
