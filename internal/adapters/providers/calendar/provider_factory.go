package calendar

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/entities"
	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/providers"
	"github.com/moonlysoftware/dashboard-intro-week/pkg/retry"
)

// ProviderConfig configures the calendar source
type ProviderConfig struct {
	Provider        string // google or mock
	CredentialsFile string
	Location        *time.Location
	Retry           retry.Config
}

// NewCalendarProvider returns the configured provider. A google provider
// whose credentials are missing or unusable degrades to one that reports
// ErrCalendarNotConfigured, so rooms render their safe default.
func NewCalendarProvider(ctx context.Context, cfg ProviderConfig) providers.CalendarProvider {
	if cfg.Provider == "mock" {
		return NewMockAdapter()
	}

	if cfg.CredentialsFile == "" {
		log.Warn().Msg("Google Calendar credentials not configured, room availability disabled")
		return unconfigured{}
	}
	if _, err := os.Stat(cfg.CredentialsFile); err != nil {
		log.Warn().Err(err).Str("path", cfg.CredentialsFile).Msg("Google Calendar credentials file not found")
		return unconfigured{}
	}

	service, err := NewGoogleService(ctx, cfg.CredentialsFile)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize Google Calendar client")
		return unconfigured{}
	}
	return NewGoogleAdapter(service, cfg.Location, cfg.Retry)
}

type unconfigured struct{}

func (unconfigured) ListEvents(ctx context.Context, calendarID string, from, to time.Time, max int) ([]entities.RoomEvent, error) {
	return nil, providers.ErrCalendarNotConfigured
}
