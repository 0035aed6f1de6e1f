package services_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/entities"
)

var cet = time.FixedZone("CET", 3600)

// Wednesday 14 October 2026 in CET
func today(hh, mm int) time.Time {
	return time.Date(2026, time.October, 14, hh, mm, 0, 0, cet)
}

type mockCalendar struct {
	mock.Mock
}

func (m *mockCalendar) ListEvents(ctx context.Context, calendarID string, from, to time.Time, max int) ([]entities.RoomEvent, error) {
	args := m.Called(ctx, calendarID, from, to, max)
	events, _ := args.Get(0).([]entities.RoomEvent)
	return events, args.Error(1)
}

type mockTimeTracking struct {
	mock.Mock
}

func (m *mockTimeTracking) ListMembers(ctx context.Context, workspace string) ([]entities.WorkspaceMember, error) {
	args := m.Called(ctx, workspace)
	members, _ := args.Get(0).([]entities.WorkspaceMember)
	return members, args.Error(1)
}

func (m *mockTimeTracking) ListTimeEntries(ctx context.Context, workspace string, from, to time.Time) (map[int64][]entities.TimeEntry, error) {
	args := m.Called(ctx, workspace, from, to)
	entries, _ := args.Get(0).(map[int64][]entities.TimeEntry)
	return entries, args.Error(1)
}

type mockWeather struct {
	mock.Mock
}

func (m *mockWeather) CurrentWeather(ctx context.Context, latitude, longitude float64, timezone string) (*entities.Weather, error) {
	args := m.Called(ctx, latitude, longitude, timezone)
	w, _ := args.Get(0).(*entities.Weather)
	return w, args.Error(1)
}
