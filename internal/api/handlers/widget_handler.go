package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/moonlysoftware/dashboard-intro-week/internal/application/services"
	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/entities"
)

// WidgetLayout defines the bento grid operations used by the admin API
type WidgetLayout interface {
	PlaceWidget(ctx context.Context, in services.PlaceWidgetInput) (*entities.Widget, error)
	MoveWidget(ctx context.Context, widgetID string, to int) (*entities.Widget, []entities.SlotMove, error)
	Resize(ctx context.Context, widgetID string, in services.ResizeInput) (*entities.Widget, error)
	RemoveWidget(ctx context.Context, widgetID string) error
}

// WidgetConfigurator stores and resolves widget configuration
type WidgetConfigurator interface {
	ConfigResolver
	Update(ctx context.Context, widgetID string, raw []byte) (*entities.Widget, error)
}

// WidgetHandler handles widget placement and configuration
type WidgetHandler struct {
	layout  WidgetLayout
	configs WidgetConfigurator
}

// NewWidgetHandler creates a new widget handler
func NewWidgetHandler(layout WidgetLayout, configs WidgetConfigurator) *WidgetHandler {
	return &WidgetHandler{
		layout:  layout,
		configs: configs,
	}
}

type createWidgetRequest struct {
	WidgetType  entities.WidgetType `json:"widget_type"`
	GridOrder   *int                `json:"grid_order"`
	GridColSpan int                 `json:"grid_col_span"`
	GridRowSpan int                 `json:"grid_row_span"`
	Config      json.RawMessage     `json:"config"`
}

// CreateWidget handles POST /api/screens/{id}/widgets
func (h *WidgetHandler) CreateWidget(w http.ResponseWriter, r *http.Request) {
	var req createWidgetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.GridOrder == nil {
		respondWithError(w, http.StatusBadRequest, "grid_order is required")
		return
	}

	widget, err := h.layout.PlaceWidget(r.Context(), services.PlaceWidgetInput{
		ScreenID:    r.PathValue("id"),
		WidgetType:  req.WidgetType,
		Slot:        *req.GridOrder,
		GridColSpan: req.GridColSpan,
		GridRowSpan: req.GridRowSpan,
		Config:      req.Config,
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, widget)
}

type updateWidgetRequest struct {
	Config      json.RawMessage `json:"config"`
	GridOrder   *int            `json:"grid_order"`
	GridColSpan *int            `json:"grid_col_span"`
	GridRowSpan *int            `json:"grid_row_span"`
}

// UpdateWidget handles PATCH /api/widgets/{id}. The slot move is applied
// first, so a rejected move leaves the configuration untouched.
func (h *WidgetHandler) UpdateWidget(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req updateWidgetRequest
	if !decodeBody(w, r, &req) {
		return
	}

	moves := []entities.SlotMove{}
	if req.GridOrder != nil {
		_, planned, err := h.layout.MoveWidget(r.Context(), id, *req.GridOrder)
		if err != nil {
			respondWithAppError(w, r, err)
			return
		}
		if planned != nil {
			moves = planned
		}
	}

	widget, err := h.layout.Resize(r.Context(), id, services.ResizeInput{GridColSpan: req.GridColSpan, GridRowSpan: req.GridRowSpan})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	if len(req.Config) > 0 {
		widget, err = h.configs.Update(r.Context(), id, req.Config)
	} else {
		widget.Config, err = h.configs.Resolve(r.Context(), widget)
	}
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"widget": widget,
		"moves":  moves,
	})
}

// DeleteWidget handles DELETE /api/widgets/{id}
func (h *WidgetHandler) DeleteWidget(w http.ResponseWriter, r *http.Request) {
	if err := h.layout.RemoveWidget(r.Context(), r.PathValue("id")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListWidgetTypes handles GET /api/widget-types
func (h *WidgetHandler) ListWidgetTypes(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"widget_types": entities.Palette(),
	})
}
