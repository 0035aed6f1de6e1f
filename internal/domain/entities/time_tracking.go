package entities

import (
	"time"
)

// WorkspaceMember is a user of the time-tracking workspace
type WorkspaceMember struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// TimeEntry is one tracked stretch of time for a member
type TimeEntry struct {
	UserID      int64      `json:"user_id"`
	Seconds     int64      `json:"seconds"`
	Start       time.Time  `json:"start"`
	Stop        *time.Time `json:"stop,omitempty"`
	ProjectID   *int64     `json:"project_id,omitempty"`
	TaskID      *int64     `json:"task_id,omitempty"`
	Billable    bool       `json:"billable"`
	Description string     `json:"description,omitempty"`
}

// IsBreak reports whether the entry is booked on a break project task
func (e TimeEntry) IsBreak() bool {
	return e.ProjectID != nil && e.TaskID != nil
}

// MissingHoursUser is a member who has not reached the weekly target yet
type MissingHoursUser struct {
	Name         string `json:"name"`
	HoursMissing string `json:"hours_missing"`
	HoursClocked string `json:"hours_clocked"`
	Percentage   int    `json:"percentage"`
}

// ComplianceReport summarizes the current week's tracked hours
type ComplianceReport struct {
	WeekNumber         int                `json:"week_number"`
	Year               int                `json:"year"`
	TotalUsers         int                `json:"total_users"`
	UsersComplete      int                `json:"users_complete"`
	UsersIncomplete    int                `json:"users_incomplete"`
	PercentageComplete int                `json:"percentage_complete"`
	MissingHoursUsers  []MissingHoursUser `json:"missing_hours_users"`
}

// EmptyComplianceReport is the canonical report for an unconfigured or
// unreachable workspace
func EmptyComplianceReport(now time.Time) *ComplianceReport {
	_, week := now.ISOWeek()
	return &ComplianceReport{
		WeekNumber:        week,
		Year:              now.Year(),
		MissingHoursUsers: []MissingHoursUser{},
	}
}
