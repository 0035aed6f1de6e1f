package timetracking_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonlysoftware/dashboard-intro-week/internal/adapters/providers/timetracking"
	apperrors "github.com/moonlysoftware/dashboard-intro-week/pkg/errors"
	"github.com/moonlysoftware/dashboard-intro-week/pkg/retry"
)

func newAdapter(srv *httptest.Server) *timetracking.TogglAdapter {
	cfg := retry.UpstreamConfig(3)
	cfg.InitialDelay = time.Millisecond
	return timetracking.NewTogglAdapter(timetracking.TogglConfig{
		BaseURL:    srv.URL,
		APIToken:   "secret",
		PageSize:   2,
		Retry:      cfg,
		HTTPClient: srv.Client(),
	})
}

func TestListMembers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v9/workspaces/42/workspace_users", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "secret", user)
		assert.Equal(t, "api_token", pass)
		_, _ = w.Write([]byte(`[
			{"uid": 1, "name": "Ann", "email": "ann@example.com"},
			{"user_id": 2, "name": ""},
			{"name": "Ghost"}
		]`))
	}))
	defer srv.Close()

	members, err := newAdapter(srv).ListMembers(context.Background(), "42")
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, int64(1), members[0].ID)
	assert.Equal(t, "Ann", members[0].Name)
	assert.Equal(t, int64(2), members[1].ID)
	assert.Equal(t, "Unknown User", members[1].Name)
}

func TestListMembers_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[{"uid": 1, "name": "Ann"}]`))
	}))
	defer srv.Close()

	members, err := newAdapter(srv).ListMembers(context.Background(), "42")
	require.NoError(t, err)
	assert.Len(t, members, 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestListMembers_Unauthorized(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newAdapter(srv).ListMembers(context.Background(), "42")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestListTimeEntries_FollowsPagination(t *testing.T) {
	var bodies []map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/reports/api/v3/workspace/42/search/time_entries", r.URL.Path)

		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)

		if _, ok := body["first_id"]; !ok {
			w.Header().Set("X-Next-ID", "77")
			w.Header().Set("X-Next-Row-Number", "2")
			_, _ = w.Write([]byte(`[
				{"user_id": 1, "project_id": 5, "task_id": 9, "time_entries": [
					{"seconds": 1800, "start": "2026-10-16T12:00:00+02:00", "stop": "2026-10-16T12:30:00+02:00"}
				]},
				{"user_id": 1, "project_id": 5, "time_entries": [
					{"seconds": 3600, "start": "2026-10-12T09:00:00+02:00"},
					{"seconds": 600, "start": "2026-10-12T11:00:00+02:00"}
				]}
			]`))
			return
		}
		_, _ = w.Write([]byte(`[{"user_id": 2, "billable": true, "time_entries": [{"seconds": 7200, "start": "2026-10-13T09:00:00+02:00"}]}]`))
	}))
	defer srv.Close()

	from := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 10, 18, 23, 59, 59, 0, time.UTC)
	grouped, err := newAdapter(srv).ListTimeEntries(context.Background(), "42", from, to)
	require.NoError(t, err)

	require.Len(t, bodies, 2)
	assert.Equal(t, "2026-10-12", bodies[0]["start_date"])
	assert.Equal(t, "2026-10-18", bodies[0]["end_date"])
	assert.Equal(t, float64(2), bodies[0]["page_size"])
	assert.Equal(t, float64(77), bodies[1]["first_id"])
	assert.Equal(t, float64(2), bodies[1]["first_row_number"])

	require.Len(t, grouped[1], 3)
	assert.True(t, grouped[1][0].IsBreak())
	assert.False(t, grouped[1][1].IsBreak())
	assert.NotNil(t, grouped[1][0].Stop)
	require.Len(t, grouped[2], 1)
	assert.True(t, grouped[2][0].Billable)
	assert.Equal(t, int64(7200), grouped[2][0].Seconds)
}

func TestListTimeEntries_MalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not": "an array"}`))
	}))
	defer srv.Close()

	_, err := newAdapter(srv).ListTimeEntries(context.Background(), "42", time.Now(), time.Now())
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
}
