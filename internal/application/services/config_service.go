package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/entities"
	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/repositories"
	apperrors "github.com/moonlysoftware/dashboard-intro-week/pkg/errors"
)

// ConfigService resolves and stores widget configuration. Image widgets keep
// their own configuration; every other type shares one configuration across
// all of its widgets.
type ConfigService struct {
	widgets  repositories.WidgetRepository
	settings repositories.WidgetSettingsRepository
}

// NewConfigService creates a new config service
func NewConfigService(widgets repositories.WidgetRepository, settings repositories.WidgetSettingsRepository) *ConfigService {
	return &ConfigService{
		widgets:  widgets,
		settings: settings,
	}
}

// Resolve returns the effective configuration of w. Unreadable stored
// configuration resolves to the type's defaults.
func (s *ConfigService) Resolve(ctx context.Context, w *entities.Widget) (entities.WidgetConfig, error) {
	if w.WidgetType.ConfigScope() == entities.ConfigScopeWidget {
		if w.Config != nil {
			return w.Config, nil
		}
		return entities.DefaultWidgetConfig(w.WidgetType)
	}

	raw, err := s.settings.Get(ctx, w.WidgetType)
	if err != nil {
		return nil, err
	}
	cfg, err := entities.DecodeWidgetConfig(w.WidgetType, raw)
	if err != nil {
		log.Warn().Err(err).Str("widget_type", string(w.WidgetType)).Msg("stored widget settings are invalid, using defaults")
		return entities.DefaultWidgetConfig(w.WidgetType)
	}
	return cfg, nil
}

// Update validates raw against the widget's schema and stores it in the
// widget's configuration scope
func (s *ConfigService) Update(ctx context.Context, widgetID string, raw []byte) (*entities.Widget, error) {
	w, err := s.widgets.GetByID(ctx, widgetID)
	if err != nil {
		return nil, err
	}

	cfg, err := decodeConfig(w.WidgetType, raw)
	if err != nil {
		return nil, err
	}

	if w.WidgetType.ConfigScope() == entities.ConfigScopeWidget {
		w.Config = cfg
		if err := s.widgets.Update(ctx, w); err != nil {
			return nil, err
		}
		return w, nil
	}

	if err := s.putShared(ctx, w.WidgetType, cfg); err != nil {
		return nil, err
	}
	w.Config = cfg
	return w, nil
}

func (s *ConfigService) putShared(ctx context.Context, t entities.WidgetType, cfg entities.WidgetConfig) error {
	encoded, err := entities.EncodeWidgetConfig(cfg)
	if err != nil {
		return apperrors.NewInternalError("failed to encode widget config", err)
	}
	return s.settings.Put(ctx, t, encoded)
}

func decodeConfig(t entities.WidgetType, raw []byte) (entities.WidgetConfig, error) {
	cfg, err := entities.DecodeWidgetConfig(t, raw)
	if errors.Is(err, entities.ErrInvalidWidgetConfig) {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Sprintf("failed to decode %s config", t), err)
	}
	return cfg, nil
}
