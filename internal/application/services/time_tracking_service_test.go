package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/moonlysoftware/dashboard-intro-week/internal/adapters/cache"
	"github.com/moonlysoftware/dashboard-intro-week/internal/application/services"
	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/entities"
)

// Friday 16 October 2026 in CET
func friday(hh, mm int) time.Time {
	return time.Date(2026, time.October, 16, hh, mm, 0, 0, cet)
}

func breakEntry(userID int64, start time.Time, seconds int64) entities.TimeEntry {
	project, task := int64(10), int64(20)
	return entities.TimeEntry{UserID: userID, Start: start, Seconds: seconds, ProjectID: &project, TaskID: &task}
}

func workEntry(userID int64, start time.Time, seconds int64) entities.TimeEntry {
	project := int64(10)
	return entities.TimeEntry{UserID: userID, Start: start, Seconds: seconds, ProjectID: &project}
}

func policy() services.CompliancePolicy {
	p := services.DefaultCompliancePolicy()
	p.Location = cet
	return p
}

func TestCalculateCompliance_UserOverTargetIsComplete(t *testing.T) {
	members := []entities.WorkspaceMember{{ID: 1, Name: "Ann"}}
	entries := map[int64][]entities.TimeEntry{
		1: {workEntry(1, today(9, 0), 50000), workEntry(1, today(9, 0), 50000), workEntry(1, today(9, 0), 40000)},
	}

	report := services.CalculateCompliance(members, entries, policy(), today(12, 0))

	assert.Equal(t, 1, report.TotalUsers)
	assert.Equal(t, 1, report.UsersComplete)
	assert.Equal(t, 0, report.UsersIncomplete)
	assert.Equal(t, 100, report.PercentageComplete)
	assert.Empty(t, report.MissingHoursUsers)
}

func TestCalculateCompliance_BreakWindow(t *testing.T) {
	// The whole entry is excluded from the break total when it touches the
	// Friday window, even partially. This coarse rule is intentional.
	tests := []struct {
		name       string
		brk        entities.TimeEntry
		wantWorked string
	}{
		{"friday lunch break is not deducted", breakEntry(1, friday(12, 0), 1800), "27:46:40"},
		{"monday break is deducted", breakEntry(1, today(12, 0).AddDate(0, 0, -2), 1800), "27:16:40"},
		{"friday break partly overlapping the window is not deducted", breakEntry(1, friday(10, 30), 3600), "27:46:40"},
		{"friday break ending as the window opens is deducted", breakEntry(1, friday(10, 30), 1800), "27:16:40"},
		{"friday break starting as the window closes is deducted", breakEntry(1, friday(13, 0), 1800), "27:16:40"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// 100000 seconds in total, the break included
			entries := map[int64][]entities.TimeEntry{
				1: {workEntry(1, today(9, 0), 100000-tt.brk.Seconds), tt.brk},
			}

			report := services.CalculateCompliance([]entities.WorkspaceMember{{ID: 1, Name: "Ann"}}, entries, policy(), friday(15, 0))

			require.Len(t, report.MissingHoursUsers, 1)
			assert.Equal(t, tt.wantWorked, report.MissingHoursUsers[0].HoursClocked)
		})
	}
}

func TestCalculateCompliance_FridayBreakDistinction(t *testing.T) {
	members := []entities.WorkspaceMember{{ID: 1, Name: "Friday"}, {ID: 2, Name: "Tuesday"}}
	entries := map[int64][]entities.TimeEntry{
		1: {workEntry(1, today(9, 0), 98200), breakEntry(1, friday(12, 0), 1800)},
		2: {workEntry(2, today(9, 0), 98200), breakEntry(2, today(12, 0).AddDate(0, 0, -1), 1800)},
	}

	report := services.CalculateCompliance(members, entries, policy(), friday(15, 0))

	require.Len(t, report.MissingHoursUsers, 2)
	byName := map[string]entities.MissingHoursUser{}
	for _, u := range report.MissingHoursUsers {
		byName[u.Name] = u
	}
	// 100000 worked against 98200
	assert.Equal(t, "27:46:40", byName["Friday"].HoursClocked)
	assert.Equal(t, "09:13:20", byName["Friday"].HoursMissing)
	assert.Equal(t, 75, byName["Friday"].Percentage)
	assert.Equal(t, "27:16:40", byName["Tuesday"].HoursClocked)
	assert.Equal(t, "09:43:20", byName["Tuesday"].HoursMissing)
	assert.Equal(t, 74, byName["Tuesday"].Percentage)
}

func TestCalculateCompliance_SortsWorstFirstAndKeepsTies(t *testing.T) {
	members := []entities.WorkspaceMember{
		{ID: 1, Name: "Ann"},
		{ID: 2, Name: "Bob"},
		{ID: 3, Name: "Cem"},
		{ID: 4, Name: "Dee"},
		{ID: 5, Name: "Eve"},
	}
	entries := map[int64][]entities.TimeEntry{
		1: {workEntry(1, today(9, 0), 66600)},
		2: {workEntry(2, today(9, 0), 13320)},
		3: {workEntry(3, today(9, 0), 66600)},
		4: {workEntry(4, today(9, 0), 133200)},
	}

	report := services.CalculateCompliance(members, entries, policy(), today(12, 0))

	var names []string
	for _, u := range report.MissingHoursUsers {
		names = append(names, u.Name)
	}
	assert.Equal(t, []string{"Eve", "Bob", "Ann", "Cem"}, names)
	assert.Equal(t, 0, report.MissingHoursUsers[0].Percentage)
	assert.Equal(t, "37:00:00", report.MissingHoursUsers[0].HoursMissing)
	assert.Equal(t, "00:00:00", report.MissingHoursUsers[0].HoursClocked)
	assert.Equal(t, 10, report.MissingHoursUsers[1].Percentage)
	assert.Equal(t, 50, report.MissingHoursUsers[2].Percentage)

	assert.Equal(t, 5, report.TotalUsers)
	assert.Equal(t, 1, report.UsersComplete)
	assert.Equal(t, 4, report.UsersIncomplete)
	assert.Equal(t, 20, report.PercentageComplete)
}

func TestCalculateCompliance_EmptyWorkspace(t *testing.T) {
	report := services.CalculateCompliance(nil, nil, policy(), today(12, 0))

	assert.Equal(t, 0, report.TotalUsers)
	assert.Equal(t, 0, report.PercentageComplete)
	assert.NotNil(t, report.MissingHoursUsers)
	assert.Empty(t, report.MissingHoursUsers)
	assert.Equal(t, 42, report.WeekNumber)
	assert.Equal(t, 2026, report.Year)
}

func newTimeTrackingService(provider *mockTimeTracking, workspace string) *services.TimeTrackingService {
	svc := services.NewTimeTrackingService(provider, cache.NewMemoryAdapter(64), nil, services.TimeTrackingOptions{
		Workspace:       workspace,
		Policy:          policy(),
		Timeout:         time.Second,
		CacheTTLSeconds: 60,
	})
	svc.SetNow(func() time.Time { return today(12, 0) })
	return svc
}

func TestCurrentWeekReport_Unconfigured(t *testing.T) {
	provider := &mockTimeTracking{}
	svc := newTimeTrackingService(provider, "")

	report := svc.CurrentWeekReport(context.Background())

	assert.Equal(t, entities.EmptyComplianceReport(today(12, 0)), report)
	provider.AssertNotCalled(t, "ListMembers", mock.Anything, mock.Anything)
}

func TestCurrentWeekReport_FetchesTheCurrentWeekAndCaches(t *testing.T) {
	provider := &mockTimeTracking{}
	provider.On("ListMembers", mock.Anything, "ws-1").
		Return([]entities.WorkspaceMember{{ID: 1, Name: "Ann"}, {ID: 2, Name: "Bob"}}, nil).Once()
	provider.On("ListTimeEntries", mock.Anything, "ws-1",
		mock.MatchedBy(func(from time.Time) bool { return from.Equal(time.Date(2026, time.October, 12, 0, 0, 0, 0, cet)) }),
		mock.MatchedBy(func(to time.Time) bool { return to.Equal(time.Date(2026, time.October, 19, 0, 0, 0, 0, cet).Add(-time.Nanosecond)) }),
	).Return(map[int64][]entities.TimeEntry{1: {workEntry(1, today(9, 0), 133200)}}, nil).Once()

	svc := newTimeTrackingService(provider, "ws-1")

	first := svc.CurrentWeekReport(context.Background())
	second := svc.CurrentWeekReport(context.Background())

	assert.Equal(t, first, second)
	assert.Equal(t, 2, first.TotalUsers)
	assert.Equal(t, 50, first.PercentageComplete)
	require.Len(t, first.MissingHoursUsers, 1)
	assert.Equal(t, "Bob", first.MissingHoursUsers[0].Name)
	provider.AssertExpectations(t)
}

func TestCurrentWeekReport_FailuresYieldEmptyReportAndAreNotCached(t *testing.T) {
	tests := []struct {
		name  string
		setup func(p *mockTimeTracking)
	}{
		{
			name: "members fail",
			setup: func(p *mockTimeTracking) {
				p.On("ListMembers", mock.Anything, "ws-1").Return(nil, errors.New("401")).Twice()
				p.On("ListTimeEntries", mock.Anything, "ws-1", mock.Anything, mock.Anything).Return(map[int64][]entities.TimeEntry{}, nil)
			},
		},
		{
			name: "entries fail",
			setup: func(p *mockTimeTracking) {
				p.On("ListMembers", mock.Anything, "ws-1").Return([]entities.WorkspaceMember{{ID: 1, Name: "Ann"}}, nil)
				p.On("ListTimeEntries", mock.Anything, "ws-1", mock.Anything, mock.Anything).Return(nil, errors.New("500")).Twice()
			},
		},
		{
			name: "no members",
			setup: func(p *mockTimeTracking) {
				p.On("ListMembers", mock.Anything, "ws-1").Return([]entities.WorkspaceMember{}, nil).Twice()
				p.On("ListTimeEntries", mock.Anything, "ws-1", mock.Anything, mock.Anything).Return(map[int64][]entities.TimeEntry{}, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &mockTimeTracking{}
			tt.setup(provider)
			svc := newTimeTrackingService(provider, "ws-1")

			for i := 0; i < 2; i++ {
				report := svc.CurrentWeekReport(context.Background())
				assert.Equal(t, entities.EmptyComplianceReport(today(12, 0)), report)
			}
			provider.AssertExpectations(t)
		})
	}
}

func TestCurrentWeekReport_ConcurrentPollersShareOneFetch(t *testing.T) {
	provider := &mockTimeTracking{}
	provider.On("ListMembers", mock.Anything, "ws-1").
		Return([]entities.WorkspaceMember{{ID: 1, Name: "Ann"}}, nil).
		After(50 * time.Millisecond).Once()
	provider.On("ListTimeEntries", mock.Anything, "ws-1", mock.Anything, mock.Anything).
		Return(map[int64][]entities.TimeEntry{}, nil).Once()

	svc := newTimeTrackingService(provider, "ws-1")

	var wg sync.WaitGroup
	reports := make([]*entities.ComplianceReport, 8)
	for i := range reports {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reports[i] = svc.CurrentWeekReport(context.Background())
		}(i)
	}
	wg.Wait()

	for _, r := range reports {
		assert.Equal(t, 1, r.TotalUsers)
	}
	provider.AssertExpectations(t)
}
