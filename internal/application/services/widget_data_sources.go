package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/entities"
	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/providers"
	"github.com/moonlysoftware/dashboard-intro-week/internal/infrastructure/observability"
	"github.com/moonlysoftware/dashboard-intro-week/pkg/timewindow"
)

// MaxAnnouncements is how many announcements a kiosk shows at once
const MaxAnnouncements = 5

// DataSources builds the widget data registry. Nil services leave their
// widget types without live data.
func DataSources(rooms *RoomAvailabilityService, timeTracking *TimeTrackingService, clock *ClockWeatherSource) map[entities.WidgetType]WidgetDataSource {
	sources := map[entities.WidgetType]WidgetDataSource{
		entities.WidgetTypeAnnouncements: WidgetDataFunc(announcementsData),
		entities.WidgetTypeBirthday:      WidgetDataFunc(birthdayData),
		entities.WidgetTypeImage:         WidgetDataFunc(imageData),
	}
	if rooms != nil {
		sources[entities.WidgetTypeRoomAvailability] = WidgetDataFunc(func(ctx context.Context, cfg entities.WidgetConfig, now time.Time) interface{} {
			c, _ := cfg.(*entities.RoomAvailabilityConfig)
			if c == nil {
				return map[string]interface{}{"rooms": []entities.RoomAvailability{}}
			}
			return map[string]interface{}{"rooms": rooms.RoomsForWidget(ctx, c.Rooms)}
		})
	}
	if timeTracking != nil {
		sources[entities.WidgetTypeTimeTracking] = WidgetDataFunc(func(ctx context.Context, cfg entities.WidgetConfig, now time.Time) interface{} {
			return timeTracking.CurrentWeekReport(ctx)
		})
	}
	if clock != nil {
		sources[entities.WidgetTypeClockWeather] = clock
	}
	return sources
}

// ClockWeatherOptions configures the clock/weather data source
type ClockWeatherOptions struct {
	CacheTTLSeconds int
	Timeout         time.Duration
}

// ClockWeatherSource serves the local time, date and current weather
type ClockWeatherSource struct {
	weather providers.WeatherProvider
	loader  *cachedLoader
	metrics *observability.Metrics
	opts    ClockWeatherOptions
}

// NewClockWeatherSource creates the clock/weather data source
func NewClockWeatherSource(weather providers.WeatherProvider, cache providers.CacheProvider, metrics *observability.Metrics, opts ClockWeatherOptions) *ClockWeatherSource {
	if opts.Timeout <= 0 {
		opts.Timeout = 8 * time.Second
	}
	return &ClockWeatherSource{
		weather: weather,
		loader:  newCachedLoader("weather", cache, metrics),
		metrics: metrics,
		opts:    opts,
	}
}

// WidgetData renders now in the configured timezone with the cached weather
func (s *ClockWeatherSource) WidgetData(ctx context.Context, cfg entities.WidgetConfig, now time.Time) interface{} {
	c, _ := cfg.(*entities.ClockWeatherConfig)
	if c == nil {
		c = &entities.ClockWeatherConfig{}
	}
	if c.Timezone != "" {
		if loc, err := time.LoadLocation(c.Timezone); err == nil {
			now = now.In(loc)
		}
	}

	return map[string]interface{}{
		"time":    now.Format("15:04:05"),
		"date":    now.Format("Monday, 2 January 2006"),
		"weather": s.current(ctx, c),
	}
}

func (s *ClockWeatherSource) current(ctx context.Context, c *entities.ClockWeatherConfig) entities.Weather {
	if s.weather == nil {
		return entities.UnavailableWeather()
	}

	key := fmt.Sprintf("weather:current:%.2f:%.2f", c.Latitude, c.Longitude)
	weather, err := loadCached(ctx, s.loader, key, s.opts.CacheTTLSeconds, func(ctx context.Context) (entities.Weather, error) {
		ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()

		started := time.Now()
		w, err := s.weather.CurrentWeather(ctx, c.Latitude, c.Longitude, c.Timezone)
		observability.RecordUpstream(ctx, s.metrics, "weather", time.Since(started), err)
		if err != nil {
			return entities.Weather{}, err
		}
		return *w, nil
	})
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Float64("latitude", c.Latitude).Float64("longitude", c.Longitude).Msg("weather unavailable")
		return entities.UnavailableWeather()
	}
	return weather
}

func announcementsData(ctx context.Context, cfg entities.WidgetConfig, now time.Time) interface{} {
	items := []entities.Announcement{}
	if c, ok := cfg.(*entities.AnnouncementsConfig); ok && c != nil {
		items = c.Announcements
		if len(items) > MaxAnnouncements {
			items = items[:MaxAnnouncements]
		}
	}
	return map[string]interface{}{"announcements": items}
}

// UpcomingBirthday is one entry of the birthday widget payload
type UpcomingBirthday struct {
	Name      string `json:"name"`
	Date      string `json:"date"`
	Age       int    `json:"age"`
	DaysUntil int    `json:"days_until"`
}

func birthdayData(ctx context.Context, cfg entities.WidgetConfig, now time.Time) interface{} {
	c, _ := cfg.(*entities.BirthdayConfig)
	if c == nil {
		return map[string]interface{}{"birthdays": []UpcomingBirthday{}}
	}
	return map[string]interface{}{"birthdays": UpcomingBirthdays(c.People, c.DaysAhead, now)}
}

// UpcomingBirthdays lists the people whose next birthday falls within
// daysAhead days of now, soonest first
func UpcomingBirthdays(people []entities.Person, daysAhead int, now time.Time) []UpcomingBirthday {
	today := timewindow.StartOfDay(now)
	out := []UpcomingBirthday{}

	for _, p := range people {
		born, err := time.ParseInLocation("2006-01-02", p.BirthDate, now.Location())
		if err != nil {
			continue
		}
		next := timewindow.NextOccurrence(born.Month(), born.Day(), now)
		days := calendarDaysBetween(today, next)
		if days > daysAhead {
			continue
		}
		out = append(out, UpcomingBirthday{
			Name:      p.Name,
			Date:      next.Format("2006-01-02"),
			Age:       next.Year() - born.Year(),
			DaysUntil: days,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].DaysUntil < out[j].DaysUntil })
	return out
}

// calendarDaysBetween counts date changes from a to b, ignoring DST shifts
func calendarDaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

func imageData(ctx context.Context, cfg entities.WidgetConfig, now time.Time) interface{} {
	c, _ := cfg.(*entities.ImageWidgetConfig)
	if c == nil {
		c = &entities.ImageWidgetConfig{SelectedImages: []string{}, ImagePositions: map[string]int{}}
	}
	return map[string]interface{}{
		"selected_images": c.SelectedImages,
		"transition_time": c.TransitionTime,
		"image_positions": c.ImagePositions,
	}
}
