package providers

import (
	"context"
	"errors"
	"time"

	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/entities"
)

// ErrCalendarNotConfigured is returned when no calendar credentials are available
var ErrCalendarNotConfigured = errors.New("calendar provider not configured")

// CalendarProvider reads room bookings from an external calendar service
type CalendarProvider interface {
	// ListEvents returns at most max events of calendarID overlapping
	// [from, to], ordered by start time
	ListEvents(ctx context.Context, calendarID string, from, to time.Time, max int) ([]entities.RoomEvent, error)
}
