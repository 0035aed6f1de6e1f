package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gcalendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/entities"
	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/providers"
	apperrors "github.com/moonlysoftware/dashboard-intro-week/pkg/errors"
	"github.com/moonlysoftware/dashboard-intro-week/pkg/retry"
)

// GoogleAdapter implements CalendarProvider on the Google Calendar API
type GoogleAdapter struct {
	service  *gcalendar.Service
	location *time.Location
	retry    retry.Config
}

var _ providers.CalendarProvider = (*GoogleAdapter)(nil)

// NewGoogleService authenticates with a service account credentials file
// using the read-only calendar scope
func NewGoogleService(ctx context.Context, credentialsFile string, opts ...option.ClientOption) (*gcalendar.Service, error) {
	opts = append([]option.ClientOption{
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gcalendar.CalendarReadonlyScope),
	}, opts...)
	return gcalendar.NewService(ctx, opts...)
}

// NewGoogleAdapter creates a calendar adapter; all-day events are anchored
// to midnight in loc
func NewGoogleAdapter(service *gcalendar.Service, loc *time.Location, retryCfg retry.Config) *GoogleAdapter {
	if loc == nil {
		loc = time.Local
	}
	return &GoogleAdapter{service: service, location: loc, retry: retryCfg}
}

// ListEvents returns single (expanded) events of calendarID within [from, to]
func (a *GoogleAdapter) ListEvents(ctx context.Context, calendarID string, from, to time.Time, max int) ([]entities.RoomEvent, error) {
	var items []*gcalendar.Event

	err := retry.Do(ctx, a.retry, func(ctx context.Context) error {
		result, err := a.service.Events.List(calendarID).
			Context(ctx).
			TimeMin(from.Format(time.RFC3339)).
			TimeMax(to.Format(time.RFC3339)).
			SingleEvents(true).
			OrderBy("startTime").
			MaxResults(int64(max)).
			Do()
		if err != nil {
			var gerr *googleapi.Error
			if errors.As(err, &gerr) && gerr.Code >= 400 && gerr.Code < 500 && gerr.Code != http.StatusTooManyRequests {
				return retry.Permanent(err)
			}
			return err
		}
		items = result.Items
		return nil
	})
	if err != nil {
		return nil, apperrors.NewExternalError(fmt.Sprintf("failed to list events of calendar %s", calendarID), err)
	}

	events := make([]entities.RoomEvent, 0, len(items))
	for _, item := range items {
		if item.Status == "cancelled" {
			continue
		}
		start, err := a.parseEventTime(item.Start)
		if err != nil {
			return nil, apperrors.NewExternalError("malformed event start", err)
		}
		end, err := a.parseEventTime(item.End)
		if err != nil {
			return nil, apperrors.NewExternalError("malformed event end", err)
		}
		events = append(events, entities.RoomEvent{Start: start, End: end, Summary: item.Summary})
	}
	return events, nil
}

func (a *GoogleAdapter) parseEventTime(t *gcalendar.EventDateTime) (time.Time, error) {
	if t == nil {
		return time.Time{}, errors.New("missing event time")
	}
	if t.DateTime != "" {
		return time.Parse(time.RFC3339, t.DateTime)
	}
	if t.Date != "" {
		return time.ParseInLocation("2006-01-02", t.Date, a.location)
	}
	return time.Time{}, errors.New("event time has neither dateTime nor date")
}
