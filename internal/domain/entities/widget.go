package entities

import (
	"time"
)

// WidgetType is the closed palette of widgets a screen can hold
type WidgetType string

const (
	WidgetTypeBirthday         WidgetType = "birthday"
	WidgetTypeRoomAvailability WidgetType = "room_availability"
	WidgetTypeClockWeather     WidgetType = "clock_weather"
	WidgetTypeAnnouncements    WidgetType = "announcements"
	WidgetTypeTimeTracking     WidgetType = "toggl_time_tracking"
	WidgetTypeImage            WidgetType = "image_widget"
)

// WidgetTypes lists the palette in display order
var WidgetTypes = []WidgetType{
	WidgetTypeBirthday,
	WidgetTypeRoomAvailability,
	WidgetTypeClockWeather,
	WidgetTypeAnnouncements,
	WidgetTypeTimeTracking,
	WidgetTypeImage,
}

var widgetLabels = map[WidgetType]string{
	WidgetTypeBirthday:         "Birthdays",
	WidgetTypeRoomAvailability: "Room Availability",
	WidgetTypeClockWeather:     "Clock/Date/Weather",
	WidgetTypeAnnouncements:    "Announcements",
	WidgetTypeTimeTracking:     "Toggl Time Tracking",
	WidgetTypeImage:            "Image Slideshow",
}

// WidthConstraint restricts the slot widths a widget type may occupy
type WidthConstraint string

const (
	WideOnly      WidthConstraint = "wide_only"
	SmallOnly     WidthConstraint = "small_only"
	Unconstrained WidthConstraint = "unconstrained"
)

// ConfigScope says where a widget type's configuration lives
type ConfigScope string

const (
	// ConfigScopeWidget stores configuration on the widget itself
	ConfigScopeWidget ConfigScope = "widget"
	// ConfigScopeType shares one configuration across every widget of the type
	ConfigScopeType ConfigScope = "type"
)

// Valid reports whether t belongs to the palette
func (t WidgetType) Valid() bool {
	_, ok := widgetLabels[t]
	return ok
}

// Label returns the human readable palette name
func (t WidgetType) Label() string {
	return widgetLabels[t]
}

// WidthConstraint returns the slot width rule for t
func (t WidgetType) WidthConstraint() WidthConstraint {
	switch t {
	case WidgetTypeTimeTracking, WidgetTypeRoomAvailability, WidgetTypeAnnouncements:
		return WideOnly
	case WidgetTypeBirthday:
		return SmallOnly
	default:
		return Unconstrained
	}
}

// ConfigScope returns where t's configuration is stored
func (t WidgetType) ConfigScope() ConfigScope {
	if t == WidgetTypeImage {
		return ConfigScopeWidget
	}
	return ConfigScopeType
}

// Widget is a palette item placed in one slot of a screen
type Widget struct {
	ID          string       `json:"id" db:"id"`
	ScreenID    string       `json:"screen_id" db:"screen_id"`
	WidgetType  WidgetType   `json:"widget_type" db:"widget_type"`
	Config      WidgetConfig `json:"config" db:"config"`
	GridColSpan int          `json:"grid_col_span" db:"grid_col_span"`
	GridRowSpan int          `json:"grid_row_span" db:"grid_row_span"`
	GridOrder   int          `json:"grid_order" db:"grid_order"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
}

// SlotMove reassigns one widget from one slot to another
type SlotMove struct {
	WidgetID string `json:"widget_id"`
	From     int    `json:"from"`
	To       int    `json:"to"`
}

// PlacementChange is applied by the store as a single transaction: the
// optional layout switch and every slot move succeed together or not at all.
type PlacementChange struct {
	ScreenID string
	Layout   *Layout
	Moves    []SlotMove
}

// Empty reports whether applying c would change nothing
func (c PlacementChange) Empty() bool {
	return c.Layout == nil && len(c.Moves) == 0
}
