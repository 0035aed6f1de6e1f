package providers

import (
	"context"

	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/entities"
)

// WeatherProvider returns the current weather at a coordinate
type WeatherProvider interface {
	CurrentWeather(ctx context.Context, latitude, longitude float64, timezone string) (*entities.Weather, error)
}
