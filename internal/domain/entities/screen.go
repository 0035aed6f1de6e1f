package entities

import (
	"time"
)

// Layout is one of the two mirrored column assignments of the bento grid
type Layout string

const (
	LayoutStartSmall Layout = "bento_start_small"
	LayoutStartLarge Layout = "bento_start_large"
)

// SlotWidth classifies a slot by column width under a layout
type SlotWidth string

const (
	SlotSmall SlotWidth = "small" // 1 of 4 columns
	SlotWide  SlotWidth = "wide"  // 3 of 4 columns
)

// SlotCount is the number of positions in a screen's 2x2 bento grid
const SlotCount = 4

// RowPairs lists the slot pairs sharing a grid row; each row always holds
// exactly one small and one wide slot.
var RowPairs = [2][2]int{{0, 1}, {2, 3}}

// Valid reports whether l is a known layout
func (l Layout) Valid() bool {
	return l == LayoutStartSmall || l == LayoutStartLarge
}

// SlotWidth returns the width class of slot under l.
//
// bento_start_small: slots 0 and 3 are small, 1 and 2 wide.
// bento_start_large: slots 1 and 2 are small, 0 and 3 wide.
func (l Layout) SlotWidth(slot int) SlotWidth {
	small := slot == 0 || slot == 3
	if l == LayoutStartLarge {
		small = !small
	}
	if small {
		return SlotSmall
	}
	return SlotWide
}

// Mirror returns the other layout variant
func (l Layout) Mirror() Layout {
	if l == LayoutStartLarge {
		return LayoutStartSmall
	}
	return LayoutStartLarge
}

// ColumnSpan returns how many of the 4 grid columns slot covers under l
func (l Layout) ColumnSpan(slot int) int {
	if l.SlotWidth(slot) == SlotSmall {
		return 1
	}
	return 3
}

// SlotInfo describes one grid position for the admin editor
type SlotInfo struct {
	Slot       int          `json:"slot"`
	Width      SlotWidth    `json:"width"`
	ColumnSpan int          `json:"column_span"`
	WidgetID   string       `json:"widget_id,omitempty"`
	Accepts    []WidgetType `json:"accepts"`
}

// ViewMode selects how the kiosk renders a screen
type ViewMode string

const (
	ViewModeGrid         ViewMode = "grid"
	ViewModeSingleWidget ViewMode = "single_widget"
)

// Valid reports whether m is a known view mode
func (m ViewMode) Valid() bool {
	return m == ViewModeGrid || m == ViewModeSingleWidget
}

// Refresh interval bounds in seconds
const (
	MinRefreshInterval = 5
	MaxRefreshInterval = 300
)

// Screen is a published kiosk page composed of up to four widgets
type Screen struct {
	ID               string    `json:"id" db:"id"`
	Name             string    `json:"name" db:"name"`
	Description      string    `json:"description" db:"description"`
	RefreshInterval  int       `json:"refresh_interval" db:"refresh_interval"`
	Layout           Layout    `json:"layout" db:"layout"`
	ViewMode         ViewMode  `json:"view_mode" db:"view_mode"`
	FeaturedWidgetID *string   `json:"featured_widget_id" db:"featured_widget_id"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}
