// Package csgowin implements the ranked-leaderboard upstream: a key-
// authenticated affiliate API queried live on the request path, with
// exponential backoff on rate limiting.
package csgowin

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/tygolabs/leaderboard-api/internal/domain/leaderboard"
	"github.com/tygolabs/leaderboard-api/internal/platform/logging"
	"github.com/tygolabs/leaderboard-api/internal/platform/resilience"
	"github.com/tygolabs/leaderboard-api/internal/usecase"
)

const (
	defaultBaseURL    = "https://api.csgowin.com"
	affiliateEndpoint = "/api/affiliate/external"

	defaultRankBy    = "wager"
	defaultSortOrder = "desc"
	defaultTake      = 10
	defaultRetries   = 3
)

type ClientConfig struct {
	HTTPClient    *http.Client
	BaseURL       string
	APIKey        string
	AffiliateCode string
	Timeout       time.Duration
	MaxRetries    int
	Logger        *logging.Logger
	Breaker       resilience.BreakerConfig
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	affiliateCode  string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.Breaker
	circuitEnabled bool
	flight         resilience.SingleFlight

	// sleep is swapped in tests to assert the backoff schedule.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = defaultRetries
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         strings.TrimSpace(cfg.APIKey),
		affiliateCode:  strings.TrimSpace(cfg.AffiliateCode),
		maxRetries:     maxRetries,
		logger:         logger,
		breaker:        resilience.NewBreaker(cfg.Breaker),
		circuitEnabled: cfg.Breaker.Enabled,
		sleep:          sleepContext,
	}
}

// FetchLeaderboard queries the affiliate endpoint for [fromMillis, toMillis]
// and returns the normalized entries. Rate-limit responses are retried with
// exponential backoff (1s, 2s, 4s); any other failure is surfaced at once.
// Concurrent identical queries share one round trip.
func (c *Client) FetchLeaderboard(ctx context.Context, fromMillis, toMillis int64, query usecase.RankedQuery) ([]leaderboard.Entry, error) {
	values := url.Values{}
	values.Set("code", c.affiliateCode)
	values.Set("gt", strconv.FormatInt(fromMillis, 10))
	values.Set("lt", strconv.FormatInt(toMillis, 10))
	values.Set("by", firstNonEmpty(query.RankBy, defaultRankBy))
	values.Set("sort", firstNonEmpty(query.SortOrder, defaultSortOrder))
	values.Set("search", query.Search)
	values.Set("take", strconv.Itoa(positiveOr(query.Take, defaultTake)))
	values.Set("skip", strconv.Itoa(maxInt(query.Skip, 0)))

	fullURL := c.baseURL + affiliateEndpoint + "?" + values.Encode()

	out, err, _ := c.flight.Do(values.Encode(), func() (any, error) {
		raw, reqErr := c.execute(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && !crerr.Is(reqErr, usecase.ErrUpstreamData) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Success bool `json:"success"`
		Data    any  `json:"data"`
	}
	raw, _ := out.([]byte)
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return nil, crerr.Wrapf(usecase.ErrUpstreamData, "decode ranked payload: %v", err)
	}
	if !envelope.Success {
		return nil, crerr.Wrap(usecase.ErrUpstreamData, "ranked api reported failure")
	}

	return FormatEntries(envelope.Data), nil
}

func (c *Client) execute(ctx context.Context, fullURL string) ([]byte, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "ranked api circuit breaker rejected request", "state", c.breaker.State())
			return nil, crerr.Wrap(usecase.ErrDependencyUnavailable, "ranked leaderboard api is temporarily unavailable")
		}
	}

	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, crerr.Wrap(err, "build ranked request")
		}
		req.Header.Set("accept", "application/json")
		req.Header.Set("x-apikey", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			wrapped := crerr.Wrapf(usecase.ErrDependencyUnavailable, "send ranked request: %s", c.redact(err.Error()))
			c.logger.WarnContext(ctx, "ranked api request failed", "error", wrapped)
			return nil, wrapped
		}

		raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, crerr.Wrapf(usecase.ErrDependencyUnavailable, "read ranked response: %v", readErr)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return raw, nil
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < c.maxRetries {
			delay := time.Duration(1<<attempt) * time.Second
			c.logger.WarnContext(ctx, "ranked api rate limited, backing off",
				"delay", delay,
				"attempt", attempt+1,
				"max_retries", c.maxRetries,
			)
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
			continue
		}

		wrapped := crerr.Wrapf(usecase.ErrDependencyUnavailable, "ranked api status=%d", resp.StatusCode)
		c.logger.WarnContext(ctx, "ranked api request failed", "status", resp.StatusCode)
		return nil, wrapped
	}
}

func (c *Client) redact(text string) string {
	if c.apiKey == "" {
		return text
	}
	return strings.ReplaceAll(text, c.apiKey, "REDACTED")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

func maxInt(left, right int) int {
	if left > right {
		return left
	}
	return right
}
