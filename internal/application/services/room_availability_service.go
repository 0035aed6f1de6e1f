package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/entities"
	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/providers"
	"github.com/moonlysoftware/dashboard-intro-week/internal/infrastructure/observability"
	"github.com/moonlysoftware/dashboard-intro-week/pkg/timewindow"
)

const unnamedRoom = "Unknown room"

// RoomOptions tunes the room availability aggregation
type RoomOptions struct {
	MaxEvents       int
	MergeTolerance  time.Duration
	Timeout         time.Duration
	CacheTTLSeconds int
	Concurrency     int
	Location        *time.Location
}

// RoomAvailabilityService reports meeting room occupancy from calendars
type RoomAvailabilityService struct {
	calendar providers.CalendarProvider
	loader   *cachedLoader
	metrics  *observability.Metrics
	opts     RoomOptions
	now      func() time.Time
}

// NewRoomAvailabilityService creates a new room availability service
func NewRoomAvailabilityService(calendar providers.CalendarProvider, cache providers.CacheProvider, metrics *observability.Metrics, opts RoomOptions) *RoomAvailabilityService {
	if opts.MaxEvents <= 0 {
		opts.MaxEvents = 10
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 8 * time.Second
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &RoomAvailabilityService{
		calendar: calendar,
		loader:   newCachedLoader("calendar_events", cache, metrics),
		metrics:  metrics,
		opts:     opts,
		now:      time.Now,
	}
}

// RoomsForWidget returns one availability entry per configured room, in
// configuration order. Rooms are queried concurrently and a failing room
// never affects the others.
func (s *RoomAvailabilityService) RoomsForWidget(ctx context.Context, rooms []entities.RoomConfig) []entities.RoomAvailability {
	now := s.now().In(s.opts.Location)
	out := make([]entities.RoomAvailability, len(rooms))

	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)
	for i, room := range rooms {
		g.Go(func() error {
			out[i] = s.room(ctx, room, now)
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func (s *RoomAvailabilityService) room(ctx context.Context, room entities.RoomConfig, now time.Time) entities.RoomAvailability {
	name := room.Name
	if name == "" {
		name = unnamedRoom
	}
	if room.CalendarID == "" {
		return entities.UnknownRoomAvailability(name)
	}

	events, err := s.events(ctx, room.CalendarID, now)
	if err != nil {
		evt := log.Error()
		if errors.Is(err, providers.ErrCalendarNotConfigured) {
			evt = log.Warn()
		}
		evt.Err(err).Str("room", name).Str("calendar_id", room.CalendarID).Msg("room availability unavailable, reporting room as free")
		return entities.UnknownRoomAvailability(name)
	}

	sorted := make([]entities.RoomEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	return ComputeRoomAvailability(name, sorted, now, s.opts.MergeTolerance, s.opts.Location)
}

// events returns today's remaining bookings of calendarID. The raw list is
// cached briefly; occupancy is always computed against the caller's now.
func (s *RoomAvailabilityService) events(ctx context.Context, calendarID string, now time.Time) ([]entities.RoomEvent, error) {
	key := fmt.Sprintf("calendar:events:%s:%s", calendarID, now.Format("2006-01-02"))
	return loadCached(ctx, s.loader, key, s.opts.CacheTTLSeconds, func(ctx context.Context) ([]entities.RoomEvent, error) {
		ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()

		started := time.Now()
		events, err := s.calendar.ListEvents(ctx, calendarID, now, timewindow.EndOfDay(now), s.opts.MaxEvents)
		observability.RecordUpstream(ctx, s.metrics, "calendar", time.Since(started), err)
		if err != nil {
			return nil, err
		}
		if events == nil {
			events = []entities.RoomEvent{}
		}
		return events, nil
	})
}

// ComputeRoomAvailability summarizes one room's occupancy at now from its
// remaining events of the day, ordered by start. The first event covering now
// is the current booking. Back-to-back bookings separated by at most
// tolerance are merged forward into one block. Durations are whole minutes
// and clock times are rendered in loc.
func ComputeRoomAvailability(name string, events []entities.RoomEvent, now time.Time, tolerance time.Duration, loc *time.Location) entities.RoomAvailability {
	if loc == nil {
		loc = now.Location()
	}

	var current, next *entities.RoomEvent
	for i := range events {
		e := &events[i]
		if current == nil && !e.Start.After(now) && !now.After(e.End) {
			current = e
		}
		if next == nil && e.Start.After(now) {
			next = e
		}
	}

	spans := make([]timewindow.Span, len(events))
	for i, e := range events {
		spans[i] = timewindow.Span{Start: e.Start, End: e.End}
	}

	out := entities.RoomAvailability{Name: name, Status: entities.RoomStatusAvailable}

	switch {
	case current != nil:
		freeAt := timewindow.ExtendForward(current.End, spans, tolerance)
		availableAt := timewindow.FormatHourMinute(freeAt.In(loc))
		currentMinutes := timewindow.WholeMinutes(freeAt.Sub(current.Start))

		out.Status = entities.RoomStatusOccupied
		out.AvailableAt = &availableAt
		out.CurrentDurationMinutes = &currentMinutes
		for _, e := range events {
			if e.Start.After(freeAt) {
				gap := timewindow.WholeMinutes(e.Start.Sub(freeAt))
				out.NextDurationMinutes = &gap
				break
			}
		}

	case next != nil:
		busyUntil := timewindow.ExtendForward(next.End, spans, tolerance)
		nextBooking := timewindow.FormatHourMinute(next.Start.In(loc))
		nextMinutes := timewindow.WholeMinutes(busyUntil.Sub(next.Start))

		out.NextBooking = &nextBooking
		out.NextDurationMinutes = &nextMinutes
	}

	return out
}
