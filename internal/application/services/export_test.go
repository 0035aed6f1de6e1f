package services

import (
	"time"
)

func (s *RoomAvailabilityService) SetNow(now func() time.Time) { s.now = now }
func (s *TimeTrackingService) SetNow(now func() time.Time)     { s.now = now }
func (s *DisplayService) SetNow(now func() time.Time)          { s.now = now }
