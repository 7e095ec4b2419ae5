package hevy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymkit/hevymcp/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	})
	require.NoError(t, err)
	return client
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{APIKey: "  "})
	require.Error(t, err)
	assert.True(t, errors.IsUnauthorizedError(err))
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestNewClient_Defaults(t *testing.T) {
	client, err := NewClient(Config{APIKey: "k"})
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, client.BaseURL())
	assert.Equal(t, 30*time.Second, client.config.Timeout)
	assert.Equal(t, time.Second, client.config.RetryDelay)
}

func TestListExerciseTemplates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/exercise_templates", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "100", r.URL.Query().Get("pageSize"))
		assert.Equal(t, "test-key", r.Header.Get("api-key"))
		assert.True(t, strings.HasPrefix(r.Header.Get("User-Agent"), "hevymcp/"))

		_ = json.NewEncoder(w).Encode(ExerciseTemplatePage{
			Page:      2,
			PageCount: 5,
			ExerciseTemplates: []ExerciseTemplate{
				{ID: "79D0BB3A", Title: "Bench Press (Barbell)", Type: "weight_reps", PrimaryMuscleGroup: "chest", Equipment: "barbell"},
				{ID: "BE640BA0", Title: "Face Pull", SecondaryMuscleGroups: []string{"upper_back"}},
			},
		})
	})

	page, err := client.ListExerciseTemplates(context.Background(), 2, 100)
	require.NoError(t, err)

	assert.Equal(t, 5, page.PageCount)
	require.Len(t, page.ExerciseTemplates, 2)
	assert.Equal(t, "Bench Press (Barbell)", page.ExerciseTemplates[0].Title)
	assert.Equal(t, []string{"upper_back"}, page.ExerciseTemplates[1].SecondaryMuscleGroups)
}

func TestListExerciseTemplates_InvalidPaging(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	tests := []struct {
		page, pageSize int
	}{
		{0, 10},
		{1, 0},
		{1, 101},
	}
	for _, tt := range tests {
		_, err := client.ListExerciseTemplates(context.Background(), tt.page, tt.pageSize)
		require.Error(t, err)
		assert.True(t, errors.IsInvalidRequestError(err))
	}
	assert.Zero(t, calls.Load(), "validation happens before any request")
}

func TestGetExerciseTemplate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/exercise_templates/BE640BA0", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"BE640BA0","title":"Face Pull","type":"weight_reps","primary_muscle_group":"shoulders","is_custom":false}`))
	})

	tpl, err := client.GetExerciseTemplate(context.Background(), "BE640BA0")
	require.NoError(t, err)
	assert.Equal(t, "Face Pull", tpl.Title)
	assert.Equal(t, "shoulders", tpl.PrimaryMuscleGroup)

	_, err = client.GetExerciseTemplate(context.Background(), "")
	assert.True(t, errors.IsInvalidRequestError(err))
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		check  func(error) bool
	}{
		{http.StatusUnauthorized, errors.IsUnauthorizedError},
		{http.StatusForbidden, errors.IsUnauthorizedError},
		{http.StatusNotFound, errors.IsNotFoundError},
		{http.StatusTooManyRequests, errors.IsRateLimitedError},
		{http.StatusBadGateway, func(err error) bool { return errors.Is(err, errors.ErrServiceUnavailable) }},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":"nope"}`))
			})

			_, err := client.GetExerciseTemplate(context.Background(), "79D0BB3A")
			require.Error(t, err)
			assert.True(t, tt.check(err), "status %d: %v", tt.status, err)
			assert.Contains(t, err.Error(), "nope")
		})
	}
}

func TestUnmappedStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})

	_, err := client.GetExerciseTemplate(context.Background(), "79D0BB3A")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 418")
	assert.Contains(t, err.Error(), "short and stout")
	assert.False(t, errors.IsNotFoundError(err))
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"id":"79D0BB3A","title":"Bench Press (Barbell)"}`))
	})

	tpl, err := client.GetExerciseTemplate(context.Background(), "79D0BB3A")
	require.NoError(t, err)
	assert.Equal(t, "Bench Press (Barbell)", tpl.Title)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.GetExerciseTemplate(context.Background(), "79D0BB3A")
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load(), "first attempt plus two retries")
	assert.Contains(t, err.Error(), "giving up after 3 attempts")
}

func TestDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetExerciseTemplate(context.Background(), "DEADBEEF")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestContextCancelled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ListExerciseTemplates(ctx, 1, 10)
	require.Error(t, err)
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, isRetryableError(errors.New("dial tcp: connection refused")))
	assert.True(t, isRetryableError(errors.Wrap(errors.ErrServiceUnavailable, "502")))
	assert.False(t, isRetryableError(errors.ErrNotFound))
	assert.False(t, isRetryableError(errors.New("failed to decode response")))
}
