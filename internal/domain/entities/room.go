package entities

import (
	"time"
)

// RoomStatus is the occupancy of a meeting room right now
type RoomStatus string

const (
	RoomStatusAvailable RoomStatus = "available"
	RoomStatusOccupied  RoomStatus = "occupied"
)

// RoomEvent is one calendar booking; fetched per request, never stored
type RoomEvent struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Summary string    `json:"summary"`
}

// RoomAvailability is the room widget's per-room payload. When occupied only
// AvailableAt is set; when available only NextBooking may be set.
type RoomAvailability struct {
	Name                   string     `json:"name"`
	Status                 RoomStatus `json:"status"`
	NextBooking            *string    `json:"next_booking"`
	AvailableAt            *string    `json:"available_at"`
	CurrentDurationMinutes *int       `json:"current_duration_minutes"`
	NextDurationMinutes    *int       `json:"next_duration_minutes"`
}

// UnknownRoomAvailability is reported when a room's calendar cannot be read
func UnknownRoomAvailability(name string) RoomAvailability {
	return RoomAvailability{Name: name, Status: RoomStatusAvailable}
}
