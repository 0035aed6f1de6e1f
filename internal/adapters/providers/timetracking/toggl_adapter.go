package timetracking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/entities"
	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/providers"
	apperrors "github.com/moonlysoftware/dashboard-intro-week/pkg/errors"
	"github.com/moonlysoftware/dashboard-intro-week/pkg/retry"
)

const (
	defaultTogglBaseURL = "https://api.track.toggl.com"
	defaultPageSize     = 1000
	maxReportPages      = 20
)

// TogglConfig configures the Toggl Track adapter
type TogglConfig struct {
	BaseURL    string
	APIToken   string
	PageSize   int
	Retry      retry.Config
	HTTPClient *http.Client
}

// TogglAdapter implements TimeTrackingProvider on the Toggl Track v9 and
// Reports v3 APIs
type TogglAdapter struct {
	baseURL  string
	apiToken string
	pageSize int
	retry    retry.Config
	client   *http.Client
}

var _ providers.TimeTrackingProvider = (*TogglAdapter)(nil)

// NewTogglAdapter creates a new Toggl adapter
func NewTogglAdapter(cfg TogglConfig) *TogglAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultTogglBaseURL
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &TogglAdapter{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiToken: cfg.APIToken,
		pageSize: cfg.PageSize,
		retry:    cfg.Retry,
		client:   cfg.HTTPClient,
	}
}

type workspaceUser struct {
	UID    int64  `json:"uid"`
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// ListMembers returns the workspace users; users without an id are dropped
func (a *TogglAdapter) ListMembers(ctx context.Context, workspace string) ([]entities.WorkspaceMember, error) {
	url := fmt.Sprintf("%s/api/v9/workspaces/%s/workspace_users", a.baseURL, workspace)

	var users []workspaceUser
	err := retry.Do(ctx, a.retry, func(ctx context.Context) error {
		users = nil
		_, err := a.do(ctx, http.MethodGet, url, nil, &users)
		return err
	})
	if err != nil {
		return nil, apperrors.NewExternalError("failed to fetch workspace users", err)
	}

	members := make([]entities.WorkspaceMember, 0, len(users))
	for _, u := range users {
		id := u.UID
		if id == 0 {
			id = u.UserID
		}
		if id == 0 {
			continue
		}
		name := u.Name
		if name == "" {
			name = "Unknown User"
		}
		members = append(members, entities.WorkspaceMember{ID: id, Name: name, Email: u.Email})
	}
	return members, nil
}

type reportRequest struct {
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	PageSize       int    `json:"page_size"`
	FirstID        int64  `json:"first_id,omitempty"`
	FirstRowNumber int64  `json:"first_row_number,omitempty"`
}

type reportRow struct {
	UserID      int64  `json:"user_id"`
	ProjectID   *int64 `json:"project_id"`
	TaskID      *int64 `json:"task_id"`
	Billable    bool   `json:"billable"`
	Description string `json:"description"`
	TimeEntries []struct {
		Seconds int64      `json:"seconds"`
		Start   time.Time  `json:"start"`
		Stop    *time.Time `json:"stop"`
	} `json:"time_entries"`
}

// ListTimeEntries runs the detailed report for the dates of [from, to] and
// flattens its rows into entries grouped by user
func (a *TogglAdapter) ListTimeEntries(ctx context.Context, workspace string, from, to time.Time) (map[int64][]entities.TimeEntry, error) {
	url := fmt.Sprintf("%s/reports/api/v3/workspace/%s/search/time_entries", a.baseURL, workspace)
	req := reportRequest{
		StartDate: from.Format("2006-01-02"),
		EndDate:   to.Format("2006-01-02"),
		PageSize:  a.pageSize,
	}

	grouped := make(map[int64][]entities.TimeEntry)
	for page := 0; page < maxReportPages; page++ {
		var rows []reportRow
		var header http.Header
		err := retry.Do(ctx, a.retry, func(ctx context.Context) error {
			rows = nil
			var err error
			header, err = a.do(ctx, http.MethodPost, url, req, &rows)
			return err
		})
		if err != nil {
			return nil, apperrors.NewExternalError("failed to fetch time entries report", err)
		}

		for _, row := range rows {
			for _, te := range row.TimeEntries {
				grouped[row.UserID] = append(grouped[row.UserID], entities.TimeEntry{
					UserID:      row.UserID,
					Seconds:     te.Seconds,
					Start:       te.Start,
					Stop:        te.Stop,
					ProjectID:   row.ProjectID,
					TaskID:      row.TaskID,
					Billable:    row.Billable,
					Description: row.Description,
				})
			}
		}

		nextID, _ := strconv.ParseInt(header.Get("X-Next-ID"), 10, 64)
		nextRow, _ := strconv.ParseInt(header.Get("X-Next-Row-Number"), 10, 64)
		if nextID == 0 && nextRow == 0 {
			return grouped, nil
		}
		req.FirstID = nextID
		req.FirstRowNumber = nextRow
	}
	return nil, apperrors.NewExternalError(fmt.Sprintf("time entries report exceeded %d pages", maxReportPages), nil)
}

func (a *TogglAdapter) do(ctx context.Context, method, url string, body interface{}, out interface{}) (http.Header, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, retry.Permanent(err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, retry.Permanent(err)
	}
	req.SetBasicAuth(a.apiToken, "api_token")
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("toggl api error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, retry.Permanent(err)
		}
		return nil, err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, retry.Permanent(fmt.Errorf("malformed toggl response: %w", err))
	}
	return resp.Header, nil
}
