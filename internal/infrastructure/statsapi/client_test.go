package statsapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EngagementSync/internal/config"
)

// fakeService mimics the stats service endpoints.
type fakeService struct {
	mu        sync.Mutex
	healthy   bool
	batches   [][]string
	failBatch bool
}

func (f *fakeService) router() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if !f.healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Post("/scrape", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			URL string `json:"url"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		_, _ = w.Write([]byte(`{"success":true,"data":{"url":"` + req.URL + `","views":"1.5K","likes":20,"comments":"3","shares":0}}`))
	})
	r.Post("/scrape/batch", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			URLs []string `json:"urls"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.batches = append(f.batches, req.URLs)
		fail := f.failBatch
		f.mu.Unlock()
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"success":false,"error":"scraper crashed"}`))
			return
		}
		n := int64(len(req.URLs))
		_, _ = w.Write([]byte(`{"success":true,"data":[],"summary":{"total_views":` + itoa(100*n) +
			`,"total_likes":` + itoa(10*n) + `,"total_comments":` + itoa(n) + `,"total_shares":0}}`))
	})
	return r
}

func (f *fakeService) batchCalls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.batches...)
}

func itoa(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func newTestClient(t *testing.T, svc *fakeService, maxBatch int) *Client {
	t.Helper()
	srv := httptest.NewServer(svc.router())
	t.Cleanup(srv.Close)
	cfg := config.StatsConfig{BaseURL: srv.URL + "/", Timeout: "5s", ProbeTimeout: "1s", MaxBatch: maxBatch}
	return NewClient(cfg, srv.Client(), nil)
}

func TestProbe(t *testing.T) {
	t.Parallel()

	svc := &fakeService{healthy: true}
	c := newTestClient(t, svc, 10)
	assert.True(t, c.Probe(context.Background()))

	svc.mu.Lock()
	svc.healthy = false
	svc.mu.Unlock()
	assert.False(t, c.Probe(context.Background()))
}

func TestProbeUnreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(config.StatsConfig{BaseURL: url, ProbeTimeout: "200ms"}, nil, nil)
	assert.False(t, c.Probe(context.Background()))
}

func TestFetchOneParsesTextCounts(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, &fakeService{}, 10)
	res := c.FetchOne(context.Background(), "https://www.tiktok.com/@a/video/1")

	require.True(t, res.Success)
	require.NotNil(t, res.Data)
	assert.EqualValues(t, 1500, res.Data.Views)
	assert.EqualValues(t, 20, res.Data.Likes)
	assert.EqualValues(t, 3, res.Data.Comments)
	assert.Equal(t, "tiktok", res.Data.Platform)
}

func TestFetchBatchFiltersBlankURLs(t *testing.T) {
	t.Parallel()

	svc := &fakeService{}
	c := newTestClient(t, svc, 10)

	res := c.FetchBatch(context.Background(), []string{"", "   "})
	assert.False(t, res.Success)
	assert.Equal(t, ErrNoValidURLs, res.Error)
	assert.Empty(t, svc.batchCalls())

	res = c.FetchBatch(context.Background(), []string{"", "https://a", " https://b "})
	require.True(t, res.Success)
	batches := svc.batchCalls()
	require.Len(t, batches, 1)
	assert.Equal(t, []string{"https://a", "https://b"}, batches[0])
}

func TestFetchBatchChunksAndMergesSummaries(t *testing.T) {
	t.Parallel()

	svc := &fakeService{}
	c := newTestClient(t, svc, 2)

	res := c.FetchBatch(context.Background(), []string{"u1", "u2", "u3", "u4", "u5"})
	require.True(t, res.Success, res.Error)
	require.NotNil(t, res.Summary)

	batches := svc.batchCalls()
	require.Len(t, batches, 3)
	assert.Len(t, batches[2], 1)
	assert.EqualValues(t, 500, res.Summary.TotalViews)
	assert.EqualValues(t, 50, res.Summary.TotalLikes)
	assert.EqualValues(t, 5, res.Summary.TotalComments)
}

func TestFetchBatchSurfacesServerError(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, &fakeService{failBatch: true}, 10)
	res := c.FetchBatch(context.Background(), []string{"u1"})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "500")
	assert.Contains(t, res.Error, "scraper crashed")
}

func TestFetchHonoursContext(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, &fakeService{}, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := c.FetchBatch(ctx, []string{"u1"})
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
}

func TestRateLimiterSpacesRequests(t *testing.T) {
	t.Parallel()

	svc := &fakeService{}
	srv := httptest.NewServer(svc.router())
	t.Cleanup(srv.Close)

	c := NewClient(config.StatsConfig{BaseURL: srv.URL, MaxBatch: 10, RequestsPerMinute: 600}, srv.Client(), nil)

	start := time.Now()
	for range 3 {
		require.True(t, c.FetchOne(context.Background(), "https://a").Success)
	}
	// 600 rpm = one token every 100ms; the first call uses the initial burst.
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}
