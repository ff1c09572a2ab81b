package datagov

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hawker-closures/config"
	"hawker-closures/utils"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		DataGovBaseURL:    baseURL,
		DataGovResourceID: "test-resource",
		PageSize:          2,
		MaxConcurrency:    2,
		RateLimitMs:       0,
		MaxRetries:        2,
		HTTPTimeoutSec:    5,
	}
}

// datastore serves total records named "Centre <n>", paged by limit/offset.
func datastore(t *testing.T, total int, hits *int64) *httptest.Server {
	t.Helper()
	return cappedDatastore(t, total, 0, hits)
}

// cappedDatastore is datastore with the server honouring at most maxRows of each requested limit.
func cappedDatastore(t *testing.T, total, maxRows int, hits *int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt64(hits, 1)
		}
		assert.Equal(t, searchPath, r.URL.Path)
		assert.Equal(t, "test-resource", r.URL.Query().Get("resource_id"))

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if maxRows > 0 {
			limit = min(limit, maxRows)
		}
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		records := []map[string]any{}
		for i := offset; i < offset+limit && i < total; i++ {
			records = append(records, map[string]any{
				"_id":                 i + 1,
				"name":                fmt.Sprintf("Centre %d", i+1),
				"no_of_market_stalls": "12",
				"latitude_hc":         1.3521,
				"remarks_q1":          nil,
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"result":  map[string]any{"records": records, "total": total},
		})
	}))
}

func TestFetchAllPages(t *testing.T) {
	var hits int64
	srv := datastore(t, 5, &hits)
	defer srv.Close()

	c := New(testConfig(srv.URL), utils.NewNopLogger())
	records, err := c.Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 5)
	assert.Equal(t, int64(3), atomic.LoadInt64(&hits))
	for i, rec := range records {
		assert.Equal(t, strconv.Itoa(i+1), rec["_id"])
		assert.Equal(t, fmt.Sprintf("Centre %d", i+1), rec["name"])
	}
}

func TestFetchConvertsValuesToText(t *testing.T) {
	srv := datastore(t, 1, nil)
	defer srv.Close()

	records, err := New(testConfig(srv.URL), utils.NewNopLogger()).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "12", rec["no_of_market_stalls"])
	assert.Equal(t, "1.3521", rec["latitude_hc"])
	v, ok := rec["remarks_q1"]
	assert.True(t, ok)
	assert.Equal(t, "", v)
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&calls, 1) == 1 {
			http.Error(w, "upstream unavailable", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"result":{"records":[{"_id":1,"name":"Tekka Centre"}],"total":1}}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	c := New(cfg, utils.NewNopLogger())
	c.retry.BaseDelay = 0

	records, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))
}

func TestFetchUnsuccessfulResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":{"message":"Resource not found"}}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 1

	_, err := New(cfg, utils.NewNopLogger()).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Resource not found")
}

func TestFetchSkipsDuplicateIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// every page returns the same record, as happens when the resource shrinks mid-fetch
		_, _ = w.Write([]byte(`{"success":true,"result":{"records":[{"_id":7,"name":"Tekka Centre"}],"total":3}}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.PageSize = 1

	records, err := New(cfg, utils.NewNopLogger()).Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestFetchFollowsServerPageCap(t *testing.T) {
	srv := cappedDatastore(t, 5, 2, nil)
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.PageSize = 3

	records, err := New(cfg, utils.NewNopLogger()).Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 5)
	for i, rec := range records {
		assert.Equal(t, strconv.Itoa(i+1), rec["_id"])
	}
}

func TestFetchCompletesShortPagesWithinRange(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		n := 2
		if atomic.AddInt64(&calls, 1) > 1 {
			// later pages come back one row at a time
			n = 1
		}
		records := []map[string]any{}
		for i := offset; i < offset+n && i < 6; i++ {
			records = append(records, map[string]any{"_id": i + 1, "name": fmt.Sprintf("Centre %d", i+1)})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"result":  map[string]any{"records": records, "total": 6},
		})
	}))
	defer srv.Close()

	records, err := New(testConfig(srv.URL), utils.NewNopLogger()).Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 6)
}

func TestFetchRejectsNegativeTotal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"result":{"records":[],"total":-1}}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 1

	_, err := New(cfg, utils.NewNopLogger()).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative total")
}

func TestFetchEmptyFirstPageWithTotal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"result":{"records":[],"total":4}}`))
	}))
	defer srv.Close()

	_, err := New(testConfig(srv.URL), utils.NewNopLogger()).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first page is empty")
}
