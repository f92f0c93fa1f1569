package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/stocknote/stocknote/internal/api/middleware"
	"github.com/stocknote/stocknote/internal/auth"
	"github.com/stocknote/stocknote/internal/goals"
	"github.com/stocknote/stocknote/internal/store"
)

// GoalsHandler handles goal-settings endpoints.
type GoalsHandler struct {
	service *goals.Service
	log     zerolog.Logger
}

// NewGoalsHandler creates a new goals handler.
func NewGoalsHandler(service *goals.Service, log zerolog.Logger) *GoalsHandler {
	return &GoalsHandler{service: service, log: log}
}

// GetSettings handles GET /api/goals
func (h *GoalsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := auth.FromContext(ctx)

	settings, err := h.service.GetSettings(ctx, sess)
	if err != nil {
		h.writeGoalsError(w, err, "Failed to load goal settings")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"settings": settings,
	})
}

// SaveGoal handles POST /api/goals
func (h *GoalsHandler) SaveGoal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := auth.FromContext(ctx)

	var req struct {
		Kind   string  `json:"kind"`
		Amount float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	settings, err := h.service.SaveGoal(ctx, sess, goals.Kind(req.Kind), req.Amount)
	if err != nil {
		h.writeGoalsError(w, err, "Failed to save goal")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"settings": settings,
	})
}

func (h *GoalsHandler) writeGoalsError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, goals.ErrUnauthenticated):
		middleware.WriteError(w, http.StatusUnauthorized, "Authentication required")
	case errors.Is(err, goals.ErrUnknownKind):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrUserNotFound):
		middleware.WriteError(w, http.StatusNotFound, "User not found")
	default:
		h.log.Error().Err(err).Msg(fallback)
		middleware.WriteError(w, http.StatusInternalServerError, fallback)
	}
}
