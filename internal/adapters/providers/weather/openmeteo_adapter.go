package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/entities"
	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/providers"
	apperrors "github.com/moonlysoftware/dashboard-intro-week/pkg/errors"
	"github.com/moonlysoftware/dashboard-intro-week/pkg/retry"
)

// OpenMeteoAdapter implements WeatherProvider on the keyless Open-Meteo API
type OpenMeteoAdapter struct {
	baseURL string
	client  *http.Client
	retry   retry.Config
}

var _ providers.WeatherProvider = (*OpenMeteoAdapter)(nil)

// NewOpenMeteoAdapter creates a new Open-Meteo adapter
func NewOpenMeteoAdapter(baseURL string, client *http.Client, retryCfg retry.Config) *OpenMeteoAdapter {
	if baseURL == "" {
		baseURL = "https://api.open-meteo.com"
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &OpenMeteoAdapter{baseURL: strings.TrimRight(baseURL, "/"), client: client, retry: retryCfg}
}

// CurrentWeather returns the rounded current temperature and condition
func (a *OpenMeteoAdapter) CurrentWeather(ctx context.Context, latitude, longitude float64, timezone string) (*entities.Weather, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(latitude, 'f', 4, 64))
	params.Set("longitude", strconv.FormatFloat(longitude, 'f', 4, 64))
	params.Set("current", "temperature_2m,weather_code")
	if timezone != "" {
		params.Set("timezone", timezone)
	}
	endpoint := a.baseURL + "/v1/forecast?" + params.Encode()

	var result struct {
		Current struct {
			Temperature float64 `json:"temperature_2m"`
			WeatherCode int     `json:"weather_code"`
		} `json:"current"`
	}

	err := retry.Do(ctx, a.retry, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return retry.Permanent(err)
		}
		resp, err := a.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("open-meteo api error: status %d", resp.StatusCode)
			if resp.StatusCode < 500 {
				return retry.Permanent(err)
			}
			return err
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return retry.Permanent(fmt.Errorf("malformed open-meteo response: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.NewExternalError("failed to fetch current weather", err)
	}

	code := result.Current.WeatherCode
	return &entities.Weather{
		Temperature: int(math.Round(result.Current.Temperature)),
		Condition:   Condition(code),
		Icon:        Icon(code),
	}, nil
}

// Condition maps a WMO weather code to a short label
func Condition(code int) string {
	switch {
	case code == 0:
		return "Clear sky"
	case code <= 3:
		return "Partly cloudy"
	case code == 45 || code == 48:
		return "Fog"
	case code == 51 || code == 53 || code == 55:
		return "Drizzle"
	case code == 61 || code == 63 || code == 65:
		return "Rain"
	case code == 66 || code == 67:
		return "Freezing rain"
	case code == 71 || code == 73 || code == 75 || code == 77:
		return "Snow"
	case code == 80 || code == 81 || code == 82:
		return "Rain showers"
	case code == 85 || code == 86:
		return "Snow showers"
	case code == 95 || code == 96 || code == 99:
		return "Thunderstorm"
	default:
		return "Cloudy"
	}
}

// Icon maps a WMO weather code to an emoji
func Icon(code int) string {
	switch {
	case code == 0:
		return "☀️"
	case code <= 3:
		return "⛅"
	case code == 45 || code == 48:
		return "🌫️"
	case code == 51 || code == 53 || code == 55 || code == 61 || code == 63 || code == 65,
		code == 66 || code == 67, code == 80 || code == 81 || code == 82:
		return "🌧️"
	case code == 71 || code == 73 || code == 75 || code == 77 || code == 85 || code == 86:
		return "❄️"
	case code == 95 || code == 96 || code == 99:
		return "⛈️"
	default:
		return "☁️"
	}
}
