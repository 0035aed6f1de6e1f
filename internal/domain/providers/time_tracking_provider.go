package providers

import (
	"context"
	"time"

	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/entities"
)

// TimeTrackingProvider reads workspace members and their tracked time
type TimeTrackingProvider interface {
	// ListMembers returns the users of workspace
	ListMembers(ctx context.Context, workspace string) ([]entities.WorkspaceMember, error)

	// ListTimeEntries returns the entries of workspace in [from, to], grouped by user id
	ListTimeEntries(ctx context.Context, workspace string, from, to time.Time) (map[int64][]entities.TimeEntry, error)
}
