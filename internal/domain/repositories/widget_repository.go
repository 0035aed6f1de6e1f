package repositories

import (
	"context"

	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/entities"
)

// WidgetRepository persists widgets and their slot assignments
type WidgetRepository interface {
	Create(ctx context.Context, widget *entities.Widget) error
	GetByID(ctx context.Context, id string) (*entities.Widget, error)
	// ListByScreen returns a screen's widgets ordered by slot
	ListByScreen(ctx context.Context, screenID string) ([]*entities.Widget, error)
	// Update stores config and span changes; the slot is never touched here
	Update(ctx context.Context, widget *entities.Widget) error
	// ApplyPlacement writes the layout switch and every slot move of change
	// in one transaction
	ApplyPlacement(ctx context.Context, change entities.PlacementChange) error
	// Delete removes the widget and clears it as its screen's featured widget
	Delete(ctx context.Context, id string) error
}

// WidgetSettingsRepository stores configuration shared by all widgets of a type
type WidgetSettingsRepository interface {
	// Get returns the raw stored config for t, or nil when none is stored
	Get(ctx context.Context, t entities.WidgetType) ([]byte, error)
	Put(ctx context.Context, t entities.WidgetType, raw []byte) error
}
