// Package timewindow holds the date and time arithmetic shared by the widget
// data sources: day and week boundaries, recurring weekly windows, forward
// merging of back-to-back intervals and the clock formats used in payloads.
package timewindow

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// StartOfDay returns midnight of t's date in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of t's date.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// StartOfWeek returns Monday 00:00 of the week containing t.
func StartOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return StartOfDay(t).AddDate(0, 0, -offset)
}

// EndOfWeek returns the last instant of the Sunday closing t's week.
func EndOfWeek(t time.Time) time.Time {
	return StartOfWeek(t).AddDate(0, 0, 7).Add(-time.Nanosecond)
}

// NextOccurrence returns the first date on or after from's date that falls on
// month/day, at midnight in from's location. February 29 is observed on
// February 28 in non-leap years.
func NextOccurrence(month time.Month, day int, from time.Time) time.Time {
	today := StartOfDay(from)
	candidate := anniversary(today.Year(), month, day, from.Location())
	if candidate.Before(today) {
		candidate = anniversary(today.Year()+1, month, day, from.Location())
	}
	return candidate
}

func anniversary(year int, month time.Month, day int, loc *time.Location) time.Time {
	if month == time.February && day == 29 && !isLeap(year) {
		day = 28
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// Span is a closed-open interval [Start, End).
type Span struct {
	Start time.Time
	End   time.Time
}

// ExtendForward pushes edge to the end of every span that starts at or after
// it within tolerance, repeating until a full pass over spans extends nothing.
// Spans starting before edge never pull it, so merging only moves forward.
// The scan is quadratic in len(spans); callers hold at most a day's handful.
func ExtendForward(edge time.Time, spans []Span, tolerance time.Duration) time.Time {
	for {
		extended := false
		for _, s := range spans {
			if s.Start.Before(edge) {
				continue
			}
			if s.Start.Sub(edge) > tolerance {
				continue
			}
			if s.End.After(edge) {
				edge = s.End
				extended = true
			}
		}
		if !extended {
			return edge
		}
	}
}

// WeeklyWindow is a recurring [From, To) stretch of wall-clock time on one weekday.
type WeeklyWindow struct {
	Weekday time.Weekday
	From    time.Duration
	To      time.Duration
}

// On returns the window's concrete bounds on the date of t, in t's location.
func (w WeeklyWindow) On(t time.Time) (time.Time, time.Time) {
	day := StartOfDay(t)
	return day.Add(w.From), day.Add(w.To)
}

// Overlaps reports whether [start, end) intersects the window on start's date.
// Only intervals starting on the window's weekday are considered.
func (w WeeklyWindow) Overlaps(start, end time.Time) bool {
	if start.Weekday() != w.Weekday {
		return false
	}
	from, to := w.On(start)
	return start.Before(to) && end.After(from)
}

// ParseClock parses a 24h "HH:MM" wall-clock value into an offset from midnight.
func ParseClock(value string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q: want HH:MM", value)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 24 {
		return 0, fmt.Errorf("invalid hour in %q", value)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("invalid minute in %q", value)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

// ParseWeekday accepts English weekday names, case-insensitive.
func ParseWeekday(value string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(value))
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.ToLower(d.String()) == name {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid weekday %q", value)
}

// WholeMinutes truncates d to whole minutes.
func WholeMinutes(d time.Duration) int {
	return int(d / time.Minute)
}

// FormatClockDuration renders seconds as HH:MM:SS. Hours are not wrapped at
// 24 and negative input renders as 00:00:00.
func FormatClockDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds/60)%60, seconds%60)
}

// FormatHourMinute renders t as HH:MM in its own location.
func FormatHourMinute(t time.Time) string {
	return t.Format("15:04")
}
