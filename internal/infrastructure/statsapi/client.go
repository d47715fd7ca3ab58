// Package statsapi is the HTTP client of the remote stats service
// (GET /health, POST /scrape, POST /scrape/batch).
package statsapi

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"EngagementSync/internal/aggregate"
	"EngagementSync/internal/config"
	"EngagementSync/internal/domain"
	"EngagementSync/internal/infrastructure/metrics"
	"EngagementSync/internal/platform"
	"EngagementSync/internal/ports"
)

// ErrNoValidURLs is the error text of a batch with nothing left after blank filtering.
const ErrNoValidURLs = "no valid URLs"

const maxResponseBody = 4 << 20

// Client implements ports.StatsClient over HTTP.
type Client struct {
	baseURL      string
	http         *http.Client
	probeTimeout time.Duration
	maxBatch     int
	limiter      *rate.Limiter
	logger       *slog.Logger
}

var _ ports.StatsClient = (*Client)(nil)

// NewClient builds a client from configuration. httpClient may be nil.
func NewClient(cfg config.StatsConfig, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.TimeoutDuration()}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	c := &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		http:         httpClient,
		probeTimeout: cfg.ProbeTimeoutDuration(),
		maxBatch:     cfg.MaxBatch,
		logger:       logger,
	}
	if c.maxBatch <= 0 {
		c.maxBatch = 10
	}
	if cfg.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return c
}

// Probe performs GET /health. Any transport error or non-2xx status is "unavailable".
func (c *Client) Probe(ctx context.Context) bool {
	if c.probeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.probeTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		c.logger.Warn("build health request", "error", err)
		return false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.StatsRequests.WithLabelValues("health", "error").Inc()
		c.logger.Debug("stats service unreachable", "error", err)
		return false
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))
	_ = resp.Body.Close()

	healthy := resp.StatusCode >= 200 && resp.StatusCode < 300
	if healthy {
		metrics.StatsRequests.WithLabelValues("health", "ok").Inc()
	} else {
		metrics.StatsRequests.WithLabelValues("health", "error").Inc()
		c.logger.Debug("stats service unhealthy", "status", resp.Status)
	}
	return healthy
}

// FetchOne performs POST /scrape for a single URL.
func (c *Client) FetchOne(ctx context.Context, url string) domain.FetchResult {
	url = strings.TrimSpace(url)
	if url == "" {
		return domain.FetchResult{Success: false, Error: ErrNoValidURLs}
	}

	var result domain.FetchResult
	if err := c.post(ctx, "/scrape", map[string]any{"url": url}, &result); err != nil {
		metrics.StatsRequests.WithLabelValues("scrape", "error").Inc()
		return domain.FetchResult{Success: false, Error: err.Error()}
	}
	metrics.StatsRequests.WithLabelValues("scrape", outcome(result.Success)).Inc()

	if result.Data != nil && result.Data.Platform == "" {
		result.Data.Platform = platform.Detect(result.Data.URL)
	}
	if !result.Success && result.Error == "" {
		result.Error = "stats service reported failure"
	}
	return result
}

// FetchBatch performs POST /scrape/batch. Blank URLs are dropped; lists longer
// than the batch cap are sent as sequential chunks whose data are concatenated
// and whose summaries are summed. Any failed chunk fails the whole batch.
func (c *Client) FetchBatch(ctx context.Context, urls []string) domain.BatchResult {
	valid := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			valid = append(valid, u)
		}
	}
	if len(valid) == 0 {
		return domain.BatchResult{Success: false, Error: ErrNoValidURLs}
	}

	var (
		merged     = domain.BatchResult{Success: true}
		summary    domain.Summary
		hasSummary = true
	)
	for start := 0; start < len(valid); start += c.maxBatch {
		end := min(start+c.maxBatch, len(valid))
		chunk := valid[start:end]

		var res domain.BatchResult
		if err := c.post(ctx, "/scrape/batch", map[string]any{"urls": chunk}, &res); err != nil {
			metrics.StatsRequests.WithLabelValues("batch", "error").Inc()
			return domain.BatchResult{Success: false, Error: err.Error()}
		}
		metrics.StatsRequests.WithLabelValues("batch", outcome(res.Success)).Inc()

		if !res.Success {
			if res.Error == "" {
				res.Error = "stats service reported failure"
			}
			return domain.BatchResult{Success: false, Data: res.Data, Error: res.Error}
		}

		for i := range res.Data {
			if res.Data[i].Platform == "" {
				res.Data[i].Platform = platform.Detect(res.Data[i].URL)
			}
		}
		merged.Data = append(merged.Data, res.Data...)
		if res.Summary == nil {
			hasSummary = false
		} else {
			summary = aggregate.Merge(summary, *res.Summary)
		}
	}

	if hasSummary {
		merged.Summary = &summary
	}
	return merged
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return errors.Wrap(err, "rate limiter")
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshal payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "new request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "request %s", path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return errors.Wrap(err, "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var failure struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &failure) == nil && failure.Error != "" {
			return errors.Newf("stats service returned %s: %s", resp.Status, failure.Error)
		}
		return errors.Newf("stats service returned %s", resp.Status)
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

func outcome(success bool) string {
	if success {
		return "ok"
	}
	return "failed"
}
