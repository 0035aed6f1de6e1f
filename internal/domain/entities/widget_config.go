package entities

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidWidgetConfig is wrapped by every config decoding failure
var ErrInvalidWidgetConfig = errors.New("invalid widget config")

var configValidator = validator.New(validator.WithRequiredStructEnabled())

// WidgetConfig is the tagged union of per-type widget configuration. The
// concrete variant is always the one matching WidgetType().
type WidgetConfig interface {
	WidgetType() WidgetType
	normalize()
}

// Person is someone whose birthday the birthday widget announces
type Person struct {
	Name      string `json:"name" validate:"required,max=255"`
	BirthDate string `json:"birth_date" validate:"required,datetime=2006-01-02"`
}

// BirthdayConfig configures the birthday widget
type BirthdayConfig struct {
	People    []Person `json:"people" validate:"max=500,dive"`
	DaysAhead int      `json:"days_ahead" validate:"gte=0,lte=366"`
}

// RoomConfig binds a displayed room name to its calendar
type RoomConfig struct {
	Name       string `json:"name" validate:"max=255"`
	CalendarID string `json:"calendar_id" validate:"max=512"`
}

// RoomAvailabilityConfig configures the room availability widget
type RoomAvailabilityConfig struct {
	Rooms []RoomConfig `json:"rooms" validate:"max=20,dive"`
}

// ClockWeatherConfig configures the clock/weather widget
type ClockWeatherConfig struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Timezone  string  `json:"timezone" validate:"max=64"`
}

// Announcement is one message shown by the announcements widget
type Announcement struct {
	Title   string `json:"title" validate:"max=255"`
	Message string `json:"message" validate:"max=2000"`
}

// AnnouncementsConfig configures the announcements widget
type AnnouncementsConfig struct {
	Announcements []Announcement `json:"announcements" validate:"max=50,dive"`
}

// TimeTrackingConfig configures the compliance widget; the workspace comes
// from the service configuration.
type TimeTrackingConfig struct{}

// ImageWidgetConfig configures one image slideshow instance
type ImageWidgetConfig struct {
	SelectedImages []string       `json:"selected_images" validate:"max=100,dive,required,max=1024"`
	TransitionTime int            `json:"transition_time" validate:"gte=1,lte=300"`
	ImagePositions map[string]int `json:"image_positions" validate:"dive,gte=0,lte=100"`
}

func (*BirthdayConfig) WidgetType() WidgetType         { return WidgetTypeBirthday }
func (*RoomAvailabilityConfig) WidgetType() WidgetType { return WidgetTypeRoomAvailability }
func (*ClockWeatherConfig) WidgetType() WidgetType     { return WidgetTypeClockWeather }
func (*AnnouncementsConfig) WidgetType() WidgetType    { return WidgetTypeAnnouncements }
func (*TimeTrackingConfig) WidgetType() WidgetType     { return WidgetTypeTimeTracking }
func (*ImageWidgetConfig) WidgetType() WidgetType      { return WidgetTypeImage }

func (c *BirthdayConfig) normalize() {
	if c.People == nil {
		c.People = []Person{}
	}
}

// Rooms without a name and a calendar are form leftovers.
func (c *RoomAvailabilityConfig) normalize() {
	rooms := make([]RoomConfig, 0, len(c.Rooms))
	for _, r := range c.Rooms {
		r.Name = strings.TrimSpace(r.Name)
		r.CalendarID = strings.TrimSpace(r.CalendarID)
		if r.Name == "" && r.CalendarID == "" {
			continue
		}
		rooms = append(rooms, r)
	}
	c.Rooms = rooms
}

func (c *ClockWeatherConfig) normalize() {}

func (c *AnnouncementsConfig) normalize() {
	items := make([]Announcement, 0, len(c.Announcements))
	for _, a := range c.Announcements {
		if strings.TrimSpace(a.Title) == "" && strings.TrimSpace(a.Message) == "" {
			continue
		}
		items = append(items, a)
	}
	c.Announcements = items
}

func (c *TimeTrackingConfig) normalize() {}

func (c *ImageWidgetConfig) normalize() {
	if c.SelectedImages == nil {
		c.SelectedImages = []string{}
	}
	if c.ImagePositions == nil {
		c.ImagePositions = map[string]int{}
	}
}

// DefaultWidgetConfig returns the configuration a freshly placed widget of
// type t starts with
func DefaultWidgetConfig(t WidgetType) (WidgetConfig, error) {
	var cfg WidgetConfig
	switch t {
	case WidgetTypeBirthday:
		cfg = &BirthdayConfig{DaysAhead: 14}
	case WidgetTypeRoomAvailability:
		cfg = &RoomAvailabilityConfig{}
	case WidgetTypeClockWeather:
		cfg = &ClockWeatherConfig{Latitude: 51.51, Longitude: 5.39, Timezone: "Europe/Amsterdam"}
	case WidgetTypeAnnouncements:
		cfg = &AnnouncementsConfig{}
	case WidgetTypeTimeTracking:
		cfg = &TimeTrackingConfig{}
	case WidgetTypeImage:
		cfg = &ImageWidgetConfig{TransitionTime: 5}
	default:
		return nil, fmt.Errorf("%w: unknown widget type %q", ErrInvalidWidgetConfig, t)
	}
	cfg.normalize()
	return cfg, nil
}

// DecodeWidgetConfig decodes raw JSON into the variant for t, layered over
// the defaults, and validates it. Empty input or JSON null yields the defaults.
func DecodeWidgetConfig(t WidgetType, raw []byte) (WidgetConfig, error) {
	cfg, err := DefaultWidgetConfig(t)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		if err := json.Unmarshal(trimmed, cfg); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidWidgetConfig, t, err)
		}
	}

	cfg.normalize()
	if err := configValidator.Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidWidgetConfig, t, err)
	}
	return cfg, nil
}

// EncodeWidgetConfig serializes cfg for storage; nil encodes as an empty object
func EncodeWidgetConfig(cfg WidgetConfig) ([]byte, error) {
	if cfg == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(cfg)
}
