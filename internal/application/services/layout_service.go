package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/bento"
	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/entities"
	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/repositories"
	apperrors "github.com/moonlysoftware/dashboard-intro-week/pkg/errors"
)

// PlaceWidgetInput describes a widget dropped onto a screen slot
type PlaceWidgetInput struct {
	ScreenID    string
	WidgetType  entities.WidgetType
	Slot        int
	GridColSpan int `validate:"min=1,max=12"`
	GridRowSpan int `validate:"min=1,max=6"`
	Config      []byte
}

// LayoutChangeResult reports the swaps made while switching a screen's layout
type LayoutChangeResult struct {
	Layout entities.Layout     `json:"layout"`
	Moves  []entities.SlotMove `json:"moves"`
}

// LayoutService applies the bento grid rules to stored screens. Mutations on
// one screen are serialized; each is persisted as one placement change.
type LayoutService struct {
	screens repositories.ScreenRepository
	widgets repositories.WidgetRepository
	configs *ConfigService
	locks   *screenLocks
	now     func() time.Time
}

// NewLayoutService creates a new layout service
func NewLayoutService(screens repositories.ScreenRepository, widgets repositories.WidgetRepository, configs *ConfigService) *LayoutService {
	return &LayoutService{
		screens: screens,
		widgets: widgets,
		configs: configs,
		locks:   newScreenLocks(),
		now:     time.Now,
	}
}

// CanPlace reports why a new widget of type t cannot go into slot, or nil
func (s *LayoutService) CanPlace(ctx context.Context, screenID string, t entities.WidgetType, slot int) error {
	screen, grid, err := s.load(ctx, screenID)
	if err != nil {
		return err
	}
	return placementError(grid.CanPlace(t, slot, screen.Layout))
}

// PlaceWidget creates a widget in a free slot
func (s *LayoutService) PlaceWidget(ctx context.Context, in PlaceWidgetInput) (*entities.Widget, error) {
	if in.GridColSpan == 0 {
		in.GridColSpan = 1
	}
	if in.GridRowSpan == 0 {
		in.GridRowSpan = 1
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if !in.WidgetType.Valid() {
		return nil, apperrors.NewConstraintError(string(bento.ReasonUnknownWidgetType), fmt.Sprintf("unknown widget type %q", in.WidgetType))
	}
	cfg, err := decodeConfig(in.WidgetType, in.Config)
	if err != nil {
		return nil, err
	}

	var widget *entities.Widget
	err = s.locks.with(in.ScreenID, func() error {
		screen, grid, err := s.load(ctx, in.ScreenID)
		if err != nil {
			return err
		}
		if err := grid.CanPlace(in.WidgetType, in.Slot, screen.Layout); err != nil {
			return placementError(err)
		}

		now := s.now()
		widget = &entities.Widget{
			ID:          uuid.New().String(),
			ScreenID:    in.ScreenID,
			WidgetType:  in.WidgetType,
			GridColSpan: in.GridColSpan,
			GridRowSpan: in.GridRowSpan,
			GridOrder:   in.Slot,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if in.WidgetType.ConfigScope() == entities.ConfigScopeWidget {
			widget.Config = cfg
		}
		if err := s.widgets.Create(ctx, widget); err != nil {
			return err
		}

		// Shared settings are written only once the widget exists
		if in.WidgetType.ConfigScope() == entities.ConfigScopeType && len(in.Config) > 0 {
			if err := s.configs.putShared(ctx, in.WidgetType, cfg); err != nil {
				if delErr := s.widgets.Delete(ctx, widget.ID); delErr != nil {
					log.Error().Err(delErr).Str("widget_id", widget.ID).Msg("failed to roll back widget after settings write failed")
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	widget.Config, err = s.configs.Resolve(ctx, widget)
	if err != nil {
		return nil, err
	}
	log.Info().Str("screen_id", in.ScreenID).Str("widget_id", widget.ID).Str("widget_type", string(in.WidgetType)).Int("slot", in.Slot).Msg("widget placed")
	return widget, nil
}

// Reorder moves widgetID from one slot to another, swapping with the occupant
// of the target slot if there is one
func (s *LayoutService) Reorder(ctx context.Context, screenID, widgetID string, from, to int) ([]entities.SlotMove, error) {
	var moves []entities.SlotMove
	err := s.locks.with(screenID, func() error {
		var err error
		moves, err = s.reorderLocked(ctx, screenID, widgetID, from, to)
		return err
	})
	if err != nil {
		return nil, err
	}
	return moves, nil
}

// MoveWidget moves a widget from whatever slot it holds to slot to
func (s *LayoutService) MoveWidget(ctx context.Context, widgetID string, to int) (*entities.Widget, []entities.SlotMove, error) {
	w, err := s.widgets.GetByID(ctx, widgetID)
	if err != nil {
		return nil, nil, err
	}

	var moves []entities.SlotMove
	err = s.locks.with(w.ScreenID, func() error {
		current, err := s.widgets.GetByID(ctx, widgetID)
		if err != nil {
			return err
		}
		moves, err = s.reorderLocked(ctx, current.ScreenID, widgetID, current.GridOrder, to)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	w, err = s.widgets.GetByID(ctx, widgetID)
	if err != nil {
		return nil, nil, err
	}
	return w, moves, nil
}

func (s *LayoutService) reorderLocked(ctx context.Context, screenID, widgetID string, from, to int) ([]entities.SlotMove, error) {
	screen, grid, err := s.load(ctx, screenID)
	if err != nil {
		return nil, err
	}
	moves, err := bento.PlanReorder(grid, screen.Layout, widgetID, from, to)
	if err != nil {
		return nil, placementError(err)
	}
	change := entities.PlacementChange{ScreenID: screenID, Moves: moves}
	if err := s.widgets.ApplyPlacement(ctx, change); err != nil {
		return nil, err
	}
	if len(moves) > 0 {
		log.Info().Str("screen_id", screenID).Str("widget_id", widgetID).Int("from", from).Int("to", to).Int("moves", len(moves)).Msg("widgets reordered")
	}
	return moves, nil
}

// ChangeLayout switches a screen's layout, swapping row pairs as needed
func (s *LayoutService) ChangeLayout(ctx context.Context, screenID string, layout entities.Layout) (*LayoutChangeResult, error) {
	if !layout.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid layout %q", layout))
	}

	var result *LayoutChangeResult
	err := s.locks.with(screenID, func() error {
		var err error
		result, err = s.changeLayoutLocked(ctx, screenID, layout)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *LayoutService) changeLayoutLocked(ctx context.Context, screenID string, layout entities.Layout) (*LayoutChangeResult, error) {
	screen, widgets, err := s.loadWidgets(ctx, screenID)
	if err != nil {
		return nil, err
	}
	if screen.Layout == layout {
		return &LayoutChangeResult{Layout: layout, Moves: []entities.SlotMove{}}, nil
	}

	grid, err := bento.FromWidgets(widgets)
	if err != nil {
		return nil, apperrors.NewConstraintError(string(bento.ReasonUnresolvableLayout), err.Error())
	}
	moves, err := bento.PlanLayoutChange(grid, screen.Layout, layout)
	if err != nil {
		return nil, placementError(err)
	}

	change := entities.PlacementChange{ScreenID: screenID, Layout: &layout, Moves: moves}
	if err := s.widgets.ApplyPlacement(ctx, change); err != nil {
		return nil, err
	}
	if moves == nil {
		moves = []entities.SlotMove{}
	}
	log.Info().Str("screen_id", screenID).Str("layout", string(layout)).Int("swaps", len(moves)).Msg("screen layout changed")
	return &LayoutChangeResult{Layout: layout, Moves: moves}, nil
}

// ResizeInput changes a widget's grid spans; nil fields are left unchanged
type ResizeInput struct {
	GridColSpan *int `validate:"omitempty,min=1,max=12"`
	GridRowSpan *int `validate:"omitempty,min=1,max=6"`
}

// Resize updates the spans a widget asks the kiosk to render with. Spans do
// not affect slot rules.
func (s *LayoutService) Resize(ctx context.Context, widgetID string, in ResizeInput) (*entities.Widget, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	w, err := s.widgets.GetByID(ctx, widgetID)
	if err != nil {
		return nil, err
	}
	if in.GridColSpan == nil && in.GridRowSpan == nil {
		return w, nil
	}

	err = s.locks.with(w.ScreenID, func() error {
		current, err := s.widgets.GetByID(ctx, widgetID)
		if err != nil {
			return err
		}
		if in.GridColSpan != nil {
			current.GridColSpan = *in.GridColSpan
		}
		if in.GridRowSpan != nil {
			current.GridRowSpan = *in.GridRowSpan
		}
		w = current
		return s.widgets.Update(ctx, current)
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

// RemoveWidget deletes a widget, freeing its slot
func (s *LayoutService) RemoveWidget(ctx context.Context, widgetID string) error {
	w, err := s.widgets.GetByID(ctx, widgetID)
	if err != nil {
		return err
	}
	return s.locks.with(w.ScreenID, func() error {
		if err := s.widgets.Delete(ctx, widgetID); err != nil {
			return err
		}
		log.Info().Str("screen_id", w.ScreenID).Str("widget_id", widgetID).Int("slot", w.GridOrder).Msg("widget removed")
		return nil
	})
}

// DescribeSlots lists a screen's grid positions with their occupants
func DescribeSlots(screen *entities.Screen, widgets []*entities.Widget) ([]entities.SlotInfo, error) {
	grid, err := bento.FromWidgets(widgets)
	if err != nil {
		return nil, placementError(err)
	}
	return grid.Describe(screen.Layout), nil
}

func (s *LayoutService) loadWidgets(ctx context.Context, screenID string) (*entities.Screen, []*entities.Widget, error) {
	screen, err := s.screens.GetByID(ctx, screenID)
	if err != nil {
		return nil, nil, err
	}
	widgets, err := s.widgets.ListByScreen(ctx, screenID)
	if err != nil {
		return nil, nil, err
	}
	return screen, widgets, nil
}

func (s *LayoutService) load(ctx context.Context, screenID string) (*entities.Screen, *bento.Grid, error) {
	screen, widgets, err := s.loadWidgets(ctx, screenID)
	if err != nil {
		return nil, nil, err
	}
	grid, err := bento.FromWidgets(widgets)
	if err != nil {
		return nil, nil, placementError(err)
	}
	return screen, grid, nil
}

// placementError converts grid engine errors into application errors
func placementError(err error) error {
	if err == nil {
		return nil
	}
	if v, ok := bento.AsViolation(err); ok {
		return apperrors.NewConstraintError(string(v.Reason), v.Message)
	}
	if errors.Is(err, bento.ErrWidgetNotInSlot) {
		return apperrors.NewConflictError(err.Error())
	}
	return err
}
