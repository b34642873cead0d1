package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AMeenalosini/StressTesting/repository"
)

// newFREDServer returns a server that answers every request with body and
// counts the calls it received.
func newFREDServer(t *testing.T, status int, body string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "UNRATE", r.URL.Query().Get("series_id"))
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "desc", r.URL.Query().Get("sort_order"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body)) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestUnemploymentService(url string, cache repository.CacheRepository) *UnemploymentService {
	return NewUnemploymentService(UnemploymentConfig{
		APIKey:   "test-key",
		BaseURL:  url,
		Timeout:  2 * time.Second,
		CacheTTL: time.Hour,
	}, cache, zap.NewNop())
}

const fredOK = `{"observations":[{"date":"2025-08-01","value":"4.3"}]}`

func TestCurrentRate_FetchesAndCaches(t *testing.T) {
	srv, calls := newFREDServer(t, http.StatusOK, fredOK)
	cache := repository.NewMockCache()
	svc := newTestUnemploymentService(srv.URL, cache)

	rate, err := svc.CurrentRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4.3, rate)

	rate, err = svc.CurrentRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4.3, rate)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls), "second call should hit the cache")

	cached, ok := cache.Get(context.Background(), "unemployment:UNRATE")
	require.True(t, ok)
	assert.Equal(t, "4.3", cached)
}

func TestRefresh_BypassesCache(t *testing.T) {
	srv, calls := newFREDServer(t, http.StatusOK, fredOK)
	svc := newTestUnemploymentService(srv.URL, repository.NewMockCache())

	_, err := svc.CurrentRate(context.Background())
	require.NoError(t, err)
	_, err = svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestCurrentRate_Disabled(t *testing.T) {
	svc := NewUnemploymentService(UnemploymentConfig{}, repository.NewMockCache(), zap.NewNop())
	assert.False(t, svc.Enabled())

	_, err := svc.CurrentRate(context.Background())
	assert.ErrorIs(t, err, ErrUnemploymentSourceDisabled)
}

func TestCurrentRate_UpstreamFailures(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
	}{
		"server error":    {http.StatusInternalServerError, `{"error_message":"boom"}`},
		"malformed json":  {http.StatusOK, `{"observations":`},
		"no observations": {http.StatusOK, `{"observations":[]}`},
		"missing value":   {http.StatusOK, `{"observations":[{"date":"2025-08-01","value":"."}]}`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv, _ := newFREDServer(t, tc.status, tc.body)
			cache := repository.NewMockCache()
			svc := newTestUnemploymentService(srv.URL, cache)

			_, err := svc.CurrentRate(context.Background())
			assert.Error(t, err)

			_, ok := cache.Get(context.Background(), "unemployment:UNRATE")
			assert.False(t, ok, "failures must not be cached")
		})
	}
}

func TestCurrentRate_IgnoresCorruptCacheEntry(t *testing.T) {
	srv, calls := newFREDServer(t, http.StatusOK, fredOK)
	cache := repository.NewMockCache()
	require.NoError(t, cache.Set(context.Background(), "unemployment:UNRATE", "not-a-number", 0))
	svc := newTestUnemploymentService(srv.URL, cache)

	rate, err := svc.CurrentRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4.3, rate)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}
