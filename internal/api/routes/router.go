package routes

import (
	"net/http"

	"github.com/moonlysoftware/dashboard-intro-week/internal/api/handlers"
	"github.com/moonlysoftware/dashboard-intro-week/internal/api/middleware"
	"github.com/moonlysoftware/dashboard-intro-week/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	displayHandler *handlers.DisplayHandler
	screenHandler  *handlers.ScreenHandler
	widgetHandler  *handlers.WidgetHandler

	allowedOrigins []string
	metrics        *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	displayHandler *handlers.DisplayHandler,
	screenHandler *handlers.ScreenHandler,
	widgetHandler *handlers.WidgetHandler,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:            http.NewServeMux(),
		displayHandler: displayHandler,
		screenHandler:  screenHandler,
		widgetHandler:  widgetHandler,
		allowedOrigins: allowedOrigins,
		metrics:        metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Kiosk
	r.mux.HandleFunc("GET /api/display/{id}/data", r.displayHandler.GetScreenData)

	// Screens
	r.mux.HandleFunc("GET /api/screens", r.screenHandler.ListScreens)
	r.mux.HandleFunc("POST /api/screens", r.screenHandler.CreateScreen)
	r.mux.HandleFunc("GET /api/screens/{id}", r.screenHandler.GetScreen)
	r.mux.HandleFunc("PUT /api/screens/{id}", r.screenHandler.UpdateScreen)
	r.mux.HandleFunc("DELETE /api/screens/{id}", r.screenHandler.DeleteScreen)
	r.mux.HandleFunc("PATCH /api/screens/{id}/layout", r.screenHandler.UpdateDisplaySettings)

	// Widgets
	r.mux.HandleFunc("POST /api/screens/{id}/widgets", r.widgetHandler.CreateWidget)
	r.mux.HandleFunc("PATCH /api/widgets/{id}", r.widgetHandler.UpdateWidget)
	r.mux.HandleFunc("DELETE /api/widgets/{id}", r.widgetHandler.DeleteWidget)
	r.mux.HandleFunc("GET /api/widget-types", r.widgetHandler.ListWidgetTypes)

	// Apply middleware in reverse order (last middleware wraps first).
	// Logging sits directly on the mux so it sees the matched pattern.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.RecoverMiddleware(handler)
	handler = middleware.ResponseOptimization(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// CORS wraps everything so preflights never reach the handlers
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
