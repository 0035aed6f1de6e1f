package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/entities"
	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/providers"
	"github.com/moonlysoftware/dashboard-intro-week/internal/infrastructure/observability"
	"github.com/moonlysoftware/dashboard-intro-week/pkg/timewindow"
)

// DefaultWeeklyTargetSeconds is 37 hours
const DefaultWeeklyTargetSeconds int64 = 37 * 3600

var errEmptyWorkspace = errors.New("workspace returned no members")

// CompliancePolicy holds the weekly hours rule. Break entries starting inside
// BreakExclusion are already covered by the target and are not deducted.
type CompliancePolicy struct {
	WeeklyTargetSeconds int64
	BreakExclusion      timewindow.WeeklyWindow
	// Location is where entry start times are evaluated against BreakExclusion
	Location *time.Location
}

// DefaultCompliancePolicy is 37 hours a week with the Friday 11:00-13:00 lunch
func DefaultCompliancePolicy() CompliancePolicy {
	return CompliancePolicy{
		WeeklyTargetSeconds: DefaultWeeklyTargetSeconds,
		BreakExclusion: timewindow.WeeklyWindow{
			Weekday: time.Friday,
			From:    11 * time.Hour,
			To:      13 * time.Hour,
		},
	}
}

// TimeTrackingOptions configures the compliance report source
type TimeTrackingOptions struct {
	Workspace       string
	Policy          CompliancePolicy
	Timeout         time.Duration
	CacheTTLSeconds int
}

// TimeTrackingService builds the weekly compliance report
type TimeTrackingService struct {
	provider providers.TimeTrackingProvider
	loader   *cachedLoader
	metrics  *observability.Metrics
	opts     TimeTrackingOptions
	now      func() time.Time
}

// NewTimeTrackingService creates a new time tracking service
func NewTimeTrackingService(provider providers.TimeTrackingProvider, cache providers.CacheProvider, metrics *observability.Metrics, opts TimeTrackingOptions) *TimeTrackingService {
	if opts.Policy.WeeklyTargetSeconds <= 0 {
		opts.Policy = DefaultCompliancePolicy()
	}
	if opts.Policy.Location == nil {
		opts.Policy.Location = time.Local
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 8 * time.Second
	}
	return &TimeTrackingService{
		provider: provider,
		loader:   newCachedLoader("timetracking_report", cache, metrics),
		metrics:  metrics,
		opts:     opts,
		now:      time.Now,
	}
}

// CurrentWeekReport returns the compliance report for the week containing
// now. An unconfigured or unreachable workspace yields the empty report.
func (s *TimeTrackingService) CurrentWeekReport(ctx context.Context) *entities.ComplianceReport {
	now := s.now().In(s.opts.Policy.Location)
	if s.opts.Workspace == "" || s.provider == nil {
		return entities.EmptyComplianceReport(now)
	}

	weekStart := timewindow.StartOfWeek(now)
	weekEnd := timewindow.EndOfWeek(now)
	key := fmt.Sprintf("timetracking:report:%s:%s:%s", s.opts.Workspace, weekStart.Format("2006-01-02"), weekEnd.Format("2006-01-02"))

	report, err := loadCached(ctx, s.loader, key, s.opts.CacheTTLSeconds, func(ctx context.Context) (*entities.ComplianceReport, error) {
		return s.compute(ctx, weekStart, weekEnd, now)
	})
	if err != nil {
		log.Error().Err(err).Str("workspace", s.opts.Workspace).Msg("time tracking report unavailable, serving empty report")
		return entities.EmptyComplianceReport(now)
	}
	return report
}

// compute fetches members and entries concurrently; either failing fails both
func (s *TimeTrackingService) compute(ctx context.Context, weekStart, weekEnd, now time.Time) (*entities.ComplianceReport, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	var (
		members []entities.WorkspaceMember
		entries map[int64][]entities.TimeEntry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		started := time.Now()
		m, err := s.provider.ListMembers(gctx, s.opts.Workspace)
		observability.RecordUpstream(gctx, s.metrics, "timetracking_members", time.Since(started), err)
		if err != nil {
			return fmt.Errorf("failed to list workspace members: %w", err)
		}
		members = m
		return nil
	})
	g.Go(func() error {
		started := time.Now()
		e, err := s.provider.ListTimeEntries(gctx, s.opts.Workspace, weekStart, weekEnd)
		observability.RecordUpstream(gctx, s.metrics, "timetracking_entries", time.Since(started), err)
		if err != nil {
			return fmt.Errorf("failed to list time entries: %w", err)
		}
		entries = e
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, errEmptyWorkspace
	}

	report := CalculateCompliance(members, entries, s.opts.Policy, now)
	log.Debug().Str("workspace", s.opts.Workspace).Int("users", report.TotalUsers).Int("incomplete", report.UsersIncomplete).Msg("time tracking report computed")
	return report, nil
}

// CalculateCompliance scores every member's week against policy. Members
// short of the target are listed worst first; ties keep member order.
//
// A break entry whose interval touches the exclusion window is left out of
// the break total as a whole, even when it only partly overlaps.
func CalculateCompliance(members []entities.WorkspaceMember, entriesByUser map[int64][]entities.TimeEntry, policy CompliancePolicy, now time.Time) *entities.ComplianceReport {
	report := entities.EmptyComplianceReport(now)
	target := policy.WeeklyTargetSeconds

	for _, member := range members {
		report.TotalUsers++

		var clocked, breaks int64
		for _, entry := range entriesByUser[member.ID] {
			clocked += entry.Seconds
			if entry.IsBreak() && !policy.excludesBreak(entry) {
				breaks += entry.Seconds
			}
		}
		worked := clocked - breaks

		missing := target - worked
		if missing <= 0 {
			report.UsersComplete++
			continue
		}

		report.UsersIncomplete++
		report.MissingHoursUsers = append(report.MissingHoursUsers, entities.MissingHoursUser{
			Name:         member.Name,
			HoursMissing: timewindow.FormatClockDuration(missing),
			HoursClocked: timewindow.FormatClockDuration(worked),
			Percentage:   percentOf(worked, target),
		})
	}

	sort.SliceStable(report.MissingHoursUsers, func(i, j int) bool {
		return report.MissingHoursUsers[i].Percentage < report.MissingHoursUsers[j].Percentage
	})
	if report.TotalUsers > 0 {
		report.PercentageComplete = percentOf(int64(report.UsersComplete), int64(report.TotalUsers))
	}
	return report
}

func (p CompliancePolicy) excludesBreak(entry entities.TimeEntry) bool {
	start := entry.Start
	if p.Location != nil {
		start = start.In(p.Location)
	}
	end := start.Add(time.Duration(entry.Seconds) * time.Second)
	return p.BreakExclusion.Overlaps(start, end)
}

// percentOf returns round(100*part/whole), never below zero
func percentOf(part, whole int64) int {
	if whole <= 0 {
		return 0
	}
	pct := int(math.Round(100 * float64(part) / float64(whole)))
	if pct < 0 {
		return 0
	}
	return pct
}
