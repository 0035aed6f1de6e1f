package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/entities"
	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/repositories"
	apperrors "github.com/moonlysoftware/dashboard-intro-week/pkg/errors"
)

// ScreenInput holds the editable fields of a screen
type ScreenInput struct {
	Name            string `json:"name" validate:"required,max=255"`
	Description     string `json:"description"`
	RefreshInterval int    `json:"refresh_interval" validate:"min=5,max=300"`
}

// DisplaySettings changes how a screen is rendered. Nil fields are left
// unchanged; ClearFeatured removes the featured widget.
type DisplaySettings struct {
	Layout           *entities.Layout
	ViewMode         *entities.ViewMode
	FeaturedWidgetID *string
	ClearFeatured    bool
}

// ScreenService handles screen lifecycle and display settings
type ScreenService struct {
	screens repositories.ScreenRepository
	widgets repositories.WidgetRepository
	layout  *LayoutService
	now     func() time.Time
}

// NewScreenService creates a new screen service. Screen writes share the
// layout service's per-screen serialization.
func NewScreenService(screens repositories.ScreenRepository, widgets repositories.WidgetRepository, layout *LayoutService) *ScreenService {
	return &ScreenService{
		screens: screens,
		widgets: widgets,
		layout:  layout,
		now:     time.Now,
	}
}

// Create creates an empty screen in grid mode with the small-first layout
func (s *ScreenService) Create(ctx context.Context, in ScreenInput) (*entities.Screen, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	now := s.now()
	screen := &entities.Screen{
		ID:              uuid.New().String(),
		Name:            in.Name,
		Description:     in.Description,
		RefreshInterval: in.RefreshInterval,
		Layout:          entities.LayoutStartSmall,
		ViewMode:        entities.ViewModeGrid,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.screens.Create(ctx, screen); err != nil {
		return nil, err
	}
	return screen, nil
}

// GetByID retrieves a screen by ID
func (s *ScreenService) GetByID(ctx context.Context, id string) (*entities.Screen, error) {
	return s.screens.GetByID(ctx, id)
}

// List retrieves all screens, oldest first
func (s *ScreenService) List(ctx context.Context) ([]*entities.Screen, error) {
	return s.screens.List(ctx)
}

// Widgets lists a screen's widgets in slot order
func (s *ScreenService) Widgets(ctx context.Context, id string) ([]*entities.Widget, error) {
	if _, err := s.screens.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.widgets.ListByScreen(ctx, id)
}

// Update changes a screen's name, description and refresh interval
func (s *ScreenService) Update(ctx context.Context, id string, in ScreenInput) (*entities.Screen, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var screen *entities.Screen
	err := s.layout.locks.with(id, func() error {
		var err error
		screen, err = s.screens.GetByID(ctx, id)
		if err != nil {
			return err
		}
		screen.Name = in.Name
		screen.Description = in.Description
		screen.RefreshInterval = in.RefreshInterval
		return s.screens.Update(ctx, screen)
	})
	if err != nil {
		return nil, err
	}
	return screen, nil
}

// UpdateDisplaySettings applies a layout switch, view mode and featured
// widget. Every field is validated before anything is written.
func (s *ScreenService) UpdateDisplaySettings(ctx context.Context, id string, in DisplaySettings) (*entities.Screen, *LayoutChangeResult, error) {
	if in.Layout != nil && !in.Layout.Valid() {
		return nil, nil, apperrors.NewValidationError(fmt.Sprintf("invalid layout %q", *in.Layout))
	}
	if in.ViewMode != nil && !in.ViewMode.Valid() {
		return nil, nil, apperrors.NewValidationError(fmt.Sprintf("invalid view mode %q", *in.ViewMode))
	}

	var (
		screen *entities.Screen
		change *LayoutChangeResult
	)
	err := s.layout.locks.with(id, func() error {
		if _, err := s.screens.GetByID(ctx, id); err != nil {
			return err
		}
		if in.FeaturedWidgetID != nil {
			if err := s.checkOnScreen(ctx, id, *in.FeaturedWidgetID); err != nil {
				return err
			}
		}

		if in.Layout != nil {
			var err error
			change, err = s.layout.changeLayoutLocked(ctx, id, *in.Layout)
			if err != nil {
				return err
			}
		}

		var err error
		screen, err = s.screens.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if in.ViewMode == nil && in.FeaturedWidgetID == nil && !in.ClearFeatured {
			return nil
		}
		if in.ViewMode != nil {
			screen.ViewMode = *in.ViewMode
		}
		switch {
		case in.ClearFeatured:
			screen.FeaturedWidgetID = nil
		case in.FeaturedWidgetID != nil:
			featured := *in.FeaturedWidgetID
			screen.FeaturedWidgetID = &featured
		}
		return s.screens.Update(ctx, screen)
	})
	if err != nil {
		return nil, nil, err
	}
	return screen, change, nil
}

func (s *ScreenService) checkOnScreen(ctx context.Context, screenID, widgetID string) error {
	w, err := s.widgets.GetByID(ctx, widgetID)
	if apperrors.IsType(err, apperrors.ErrorTypeNotFound) || (err == nil && w.ScreenID != screenID) {
		return apperrors.NewConstraintError("widget_not_on_screen", "Widget does not belong to this screen.")
	}
	return err
}

// Delete removes a screen and its widgets
func (s *ScreenService) Delete(ctx context.Context, id string) error {
	return s.layout.locks.with(id, func() error {
		return s.screens.Delete(ctx, id)
	})
}
