package calendar

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/entities"
	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/providers"
	"github.com/moonlysoftware/dashboard-intro-week/pkg/timewindow"
)

// MockAdapter provides deterministic bookings for local development. Each
// calendar gets the same day plan shifted by a per-calendar offset, including
// back-to-back meetings so the merge logic is visible on a kiosk.
type MockAdapter struct{}

var _ providers.CalendarProvider = (*MockAdapter)(nil)

// NewMockAdapter creates a mock calendar provider
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{}
}

var mockDayPlan = []struct {
	at       time.Duration
	duration time.Duration
	summary  string
}{
	{9 * time.Hour, 30 * time.Minute, "Stand-up"},
	{9*time.Hour + 30*time.Minute, 30 * time.Minute, "Planning"},
	{11 * time.Hour, time.Hour, "Customer call"},
	{14 * time.Hour, 25 * time.Minute, "Review"},
	{14*time.Hour + 28*time.Minute, 32 * time.Minute, "Retro"},
	{16 * time.Hour, 45 * time.Minute, "Demo"},
}

// ListEvents returns the day plan events overlapping [from, to]
func (m *MockAdapter) ListEvents(ctx context.Context, calendarID string, from, to time.Time, max int) ([]entities.RoomEvent, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("invalid time range")
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(calendarID))
	offset := time.Duration(h.Sum32()%4) * 15 * time.Minute

	day := timewindow.StartOfDay(from)
	events := make([]entities.RoomEvent, 0, len(mockDayPlan))
	for _, slot := range mockDayPlan {
		start := day.Add(slot.at + offset)
		end := start.Add(slot.duration)
		if !end.After(from) || start.After(to) {
			continue
		}
		events = append(events, entities.RoomEvent{Start: start, End: end, Summary: slot.summary})
		if max > 0 && len(events) == max {
			break
		}
	}
	return events, nil
}
