package weather_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonlysoftware/dashboard-intro-week/internal/adapters/providers/weather"
	apperrors "github.com/moonlysoftware/dashboard-intro-week/pkg/errors"
	"github.com/moonlysoftware/dashboard-intro-week/pkg/retry"
)

func TestCurrentWeather(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/forecast", r.URL.Path)
		assert.Equal(t, "51.5100", r.URL.Query().Get("latitude"))
		assert.Equal(t, "temperature_2m,weather_code", r.URL.Query().Get("current"))
		assert.Equal(t, "Europe/Amsterdam", r.URL.Query().Get("timezone"))
		_, _ = w.Write([]byte(`{"current":{"temperature_2m":12.6,"weather_code":61}}`))
	}))
	defer srv.Close()

	adapter := weather.NewOpenMeteoAdapter(srv.URL, srv.Client(), retry.UpstreamConfig(1))
	got, err := adapter.CurrentWeather(context.Background(), 51.51, 5.39, "Europe/Amsterdam")
	require.NoError(t, err)
	assert.Equal(t, 13, got.Temperature)
	assert.Equal(t, "Rain", got.Condition)
	assert.Equal(t, "🌧️", got.Icon)
}

func TestCurrentWeather_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	adapter := weather.NewOpenMeteoAdapter(srv.URL, srv.Client(), retry.UpstreamConfig(3))
	_, err := adapter.CurrentWeather(context.Background(), 0, 0, "")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
}

func TestConditionAndIcon(t *testing.T) {
	tests := []struct {
		code      int
		condition string
		icon      string
	}{
		{0, "Clear sky", "☀️"},
		{2, "Partly cloudy", "⛅"},
		{45, "Fog", "🌫️"},
		{53, "Drizzle", "🌧️"},
		{67, "Freezing rain", "🌧️"},
		{75, "Snow", "❄️"},
		{81, "Rain showers", "🌧️"},
		{86, "Snow showers", "❄️"},
		{99, "Thunderstorm", "⛈️"},
		{4, "Cloudy", "☁️"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.condition, weather.Condition(tt.code), "code %d", tt.code)
		assert.Equal(t, tt.icon, weather.Icon(tt.code), "code %d", tt.code)
	}
}
