package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/moonlysoftware/dashboard-intro-week/internal/application/services"
	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/entities"
)

// ScreenManager defines the screen operations used by the admin API
type ScreenManager interface {
	Create(ctx context.Context, in services.ScreenInput) (*entities.Screen, error)
	GetByID(ctx context.Context, id string) (*entities.Screen, error)
	List(ctx context.Context) ([]*entities.Screen, error)
	Widgets(ctx context.Context, id string) ([]*entities.Widget, error)
	Update(ctx context.Context, id string, in services.ScreenInput) (*entities.Screen, error)
	UpdateDisplaySettings(ctx context.Context, id string, in services.DisplaySettings) (*entities.Screen, *services.LayoutChangeResult, error)
	Delete(ctx context.Context, id string) error
}

// ConfigResolver returns a widget's effective configuration
type ConfigResolver interface {
	Resolve(ctx context.Context, w *entities.Widget) (entities.WidgetConfig, error)
}

// ScreenHandler handles screen administration
type ScreenHandler struct {
	screens ScreenManager
	configs ConfigResolver
}

// NewScreenHandler creates a new screen handler
func NewScreenHandler(screens ScreenManager, configs ConfigResolver) *ScreenHandler {
	return &ScreenHandler{
		screens: screens,
		configs: configs,
	}
}

// ListScreens handles GET /api/screens
func (h *ScreenHandler) ListScreens(w http.ResponseWriter, r *http.Request) {
	screens, err := h.screens.List(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"screens": screens,
		"count":   len(screens),
	})
}

// CreateScreen handles POST /api/screens
func (h *ScreenHandler) CreateScreen(w http.ResponseWriter, r *http.Request) {
	in := services.ScreenInput{RefreshInterval: 30}
	if !decodeBody(w, r, &in) {
		return
	}

	screen, err := h.screens.Create(r.Context(), in)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, screen)
}

// GetScreen handles GET /api/screens/{id}. Widgets come with their
// effective configuration, slots with the widget types each accepts.
func (h *ScreenHandler) GetScreen(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	screen, err := h.screens.GetByID(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	widgets, err := h.screens.Widgets(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	for _, widget := range widgets {
		cfg, err := h.configs.Resolve(r.Context(), widget)
		if err != nil {
			respondWithAppError(w, r, err)
			return
		}
		widget.Config = cfg
	}
	slots, err := services.DescribeSlots(screen, widgets)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"screen":  screen,
		"widgets": widgets,
		"slots":   slots,
	})
}

// UpdateScreen handles PUT /api/screens/{id}
func (h *ScreenHandler) UpdateScreen(w http.ResponseWriter, r *http.Request) {
	var in services.ScreenInput
	if !decodeBody(w, r, &in) {
		return
	}

	screen, err := h.screens.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, screen)
}

type displaySettingsRequest struct {
	Layout           *entities.Layout   `json:"layout"`
	ViewMode         *entities.ViewMode `json:"view_mode"`
	FeaturedWidgetID json.RawMessage    `json:"featured_widget_id"`
}

// UpdateDisplaySettings handles PATCH /api/screens/{id}/layout. An explicit
// null featured_widget_id clears the featured widget.
func (h *ScreenHandler) UpdateDisplaySettings(w http.ResponseWriter, r *http.Request) {
	var req displaySettingsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	settings := services.DisplaySettings{Layout: req.Layout, ViewMode: req.ViewMode}
	if len(req.FeaturedWidgetID) > 0 {
		if bytes.Equal(bytes.TrimSpace(req.FeaturedWidgetID), []byte("null")) {
			settings.ClearFeatured = true
		} else {
			var id string
			if err := json.Unmarshal(req.FeaturedWidgetID, &id); err != nil {
				respondWithError(w, http.StatusBadRequest, "featured_widget_id must be a string or null")
				return
			}
			settings.FeaturedWidgetID = &id
		}
	}

	screen, change, err := h.screens.UpdateDisplaySettings(r.Context(), r.PathValue("id"), settings)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	moves := []entities.SlotMove{}
	if change != nil {
		moves = change.Moves
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"screen": screen,
		"moves":  moves,
	})
}

// DeleteScreen handles DELETE /api/screens/{id}
func (h *ScreenHandler) DeleteScreen(w http.ResponseWriter, r *http.Request) {
	if err := h.screens.Delete(r.Context(), r.PathValue("id")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
