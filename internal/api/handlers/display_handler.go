package handlers

import (
	"context"
	"net/http"

	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/entities"
	"github.com/moonlysoftware/dashboard-intro-week/internal/infrastructure/observability"
)

// DisplayDataService assembles the payload a kiosk polls for
type DisplayDataService interface {
	ScreenData(ctx context.Context, screenID string) (*entities.ScreenData, error)
}

// DisplayHandler serves kiosk screens
type DisplayHandler struct {
	service DisplayDataService
}

// NewDisplayHandler creates a new display handler
func NewDisplayHandler(service DisplayDataService) *DisplayHandler {
	return &DisplayHandler{service: service}
}

// GetScreenData handles GET /api/display/{id}/data
func (h *DisplayHandler) GetScreenData(w http.ResponseWriter, r *http.Request) {
	screenID := r.PathValue("id")
	if screenID == "" {
		respondWithError(w, http.StatusBadRequest, "screen ID is required")
		return
	}

	r = r.WithContext(observability.WithScreen(r.Context(), screenID))

	data, err := h.service.ScreenData(r.Context(), screenID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	respondWithJSON(w, http.StatusOK, data)
}
