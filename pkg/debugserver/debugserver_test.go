package debugserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"flipreview/pkg/cache"
	"flipreview/pkg/config"
	"flipreview/pkg/diag"
	"flipreview/pkg/log"
)

func testServer(t *testing.T) (*httptest.Server, *cache.Cache, *config.Manager) {
	c := cache.New(4)
	general, err := config.NewManager(t.TempDir())
	require.NoError(t, err)

	sys := diag.New(t.TempDir(), func() float64 { return 0 }, c.GetPercentage, log.NewMockLogger())

	s := New(":0", log.NewMockLogger(), c, sys, general)
	return httptest.NewServer(s.srv.Handler), c, general
}

func TestCacheEndpointReportsStats(t *testing.T) {
	ts, c, _ := testServer(t)
	defer ts.Close()

	c.Add(cache.PartitionInfo, "a", cache.Entry{})

	resp, err := http.Get(ts.URL + "/api/cache")
	require.NoError(t, err)
	defer resp.Body.Close()

	var stats CacheStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	require.Equal(t, 4, stats.Max)
	require.InDelta(t, 0.25, stats.Percentage, 0.001)
}

func TestGeneralGetAndSet(t *testing.T) {
	ts, _, general := testServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/general")
	require.NoError(t, err)
	var got config.General
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	resp.Body.Close()
	require.Equal(t, "default", got.Theme)

	body := strings.NewReader(`{"cacheMaxEntries":99,"theme":"dark"}`)
	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/general", body)
	require.NoError(t, err)
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp2.Body.Close()

	require.Equal(t, "dark", general.Get().Theme)
	require.Equal(t, 99, general.Get().CacheMaxEntries)
}

func TestGeneralMethodNotAllowed(t *testing.T) {
	ts, _, _ := testServer(t)
	defer ts.Close()

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/general", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestStatusEndpoint(t *testing.T) {
	ts, _, _ := testServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogsQueryFiltersByLevelAndSource(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "log.db")
	var wg sync.WaitGroup
	logger, err := log.NewLogger(dbPath, &wg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, logger.Start(ctx))
	go logger.LogToDB(ctx)

	c := cache.New(4)
	general, err := config.NewManager(t.TempDir())
	require.NoError(t, err)
	sys := diag.New(t.TempDir(), func() float64 { return 0 }, c.GetPercentage, logger)

	s := New(":0", logger, c, sys, general)
	ts := httptest.NewServer(s.srv.Handler)
	defer ts.Close()

	logger.Error().Src("info").Request("req-1").Msg("probe failed")
	logger.Info().Src("thumbnail").Request("req-2").Msg("rendered")
	time.Sleep(10 * time.Millisecond)

	resp, err := http.Get(ts.URL + "/api/logs/query?level=16&src=info")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var logs []log.Log
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&logs))
	require.Len(t, logs, 1)
	require.Equal(t, "probe failed", logs[0].Msg)
	require.Equal(t, "req-1", logs[0].Request)
}

func TestLogsQueryRejectsBadLevel(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "log.db")
	var wg sync.WaitGroup
	logger, err := log.NewLogger(dbPath, &wg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, logger.Start(ctx))

	c := cache.New(4)
	general, err := config.NewManager(t.TempDir())
	require.NoError(t, err)
	sys := diag.New(t.TempDir(), func() float64 { return 0 }, c.GetPercentage, logger)

	s := New(":0", logger, c, sys, general)
	ts := httptest.NewServer(s.srv.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/logs/query?level=notanumber")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
