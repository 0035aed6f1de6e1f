package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/entities"
	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/repositories"
	"github.com/moonlysoftware/dashboard-intro-week/internal/infrastructure/observability"
)

// WidgetDataSource computes the live payload for one widget type. It never
// fails; unavailable data becomes the type's safe default.
type WidgetDataSource interface {
	WidgetData(ctx context.Context, cfg entities.WidgetConfig, now time.Time) interface{}
}

// WidgetDataFunc adapts a function to WidgetDataSource
type WidgetDataFunc func(ctx context.Context, cfg entities.WidgetConfig, now time.Time) interface{}

// WidgetData calls f
func (f WidgetDataFunc) WidgetData(ctx context.Context, cfg entities.WidgetConfig, now time.Time) interface{} {
	return f(ctx, cfg, now)
}

// DisplayService assembles the payload a kiosk polls for
type DisplayService struct {
	screens  repositories.ScreenRepository
	widgets  repositories.WidgetRepository
	configs  *ConfigService
	sources  map[entities.WidgetType]WidgetDataSource
	location *time.Location
	now      func() time.Time
}

// NewDisplayService creates a new display service. Widget types without a
// source get an empty payload.
func NewDisplayService(
	screens repositories.ScreenRepository,
	widgets repositories.WidgetRepository,
	configs *ConfigService,
	sources map[entities.WidgetType]WidgetDataSource,
	location *time.Location,
) *DisplayService {
	if location == nil {
		location = time.Local
	}
	return &DisplayService{
		screens:  screens,
		widgets:  widgets,
		configs:  configs,
		sources:  sources,
		location: location,
		now:      time.Now,
	}
}

// ScreenData loads a screen with its widgets and resolves every widget's data
// concurrently. Only a missing screen or an unreadable store is an error.
func (s *DisplayService) ScreenData(ctx context.Context, screenID string) (*entities.ScreenData, error) {
	ctx, span := observability.StartSpan(ctx, "DisplayService.ScreenData")
	defer span.End()
	ctx = observability.WithScreen(ctx, screenID)

	screen, err := s.screens.GetByID(ctx, screenID)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	widgets, err := s.widgets.ListByScreen(ctx, screenID)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	now := s.now().In(s.location)
	data := make([]entities.WidgetData, len(widgets))

	var g errgroup.Group
	for i, w := range widgets {
		g.Go(func() error {
			data[i] = s.widgetData(ctx, w, now)
			return nil
		})
	}
	_ = g.Wait()

	return &entities.ScreenData{
		Widgets:          data,
		RefreshInterval:  screen.RefreshInterval,
		Layout:           screen.Layout,
		ViewMode:         screen.ViewMode,
		FeaturedWidgetID: screen.FeaturedWidgetID,
	}, nil
}

func (s *DisplayService) widgetData(ctx context.Context, w *entities.Widget, now time.Time) (out entities.WidgetData) {
	out = entities.WidgetData{
		ID:          w.ID,
		WidgetType:  w.WidgetType,
		GridColSpan: w.GridColSpan,
		GridRowSpan: w.GridRowSpan,
		GridOrder:   w.GridOrder,
		Data:        map[string]interface{}{},
	}

	cfg, err := s.configs.Resolve(ctx, w)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("widget_id", w.ID).Str("widget_type", string(w.WidgetType)).Msg("failed to resolve widget config, using defaults")
		cfg, _ = entities.DefaultWidgetConfig(w.WidgetType)
	}
	out.Config = cfg

	source, ok := s.sources[w.WidgetType]
	if !ok || cfg == nil {
		return out
	}

	defer func() {
		if r := recover(); r != nil {
			observability.LoggerFromContext(ctx).Error().Interface("panic", r).Str("widget_id", w.ID).Str("widget_type", string(w.WidgetType)).Msg("widget data source panicked")
			out.Data = map[string]interface{}{}
		}
	}()
	out.Data = source.WidgetData(ctx, cfg, now)
	return out
}
