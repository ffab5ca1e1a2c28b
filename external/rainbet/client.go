// Package rainbet implements the affiliate-export upstream: a periodic
// API whose monthly exports are cached in memory and refreshed in the
// background rather than fetched on the request path.
package rainbet

import (
	"context"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"

	"github.com/tygolabs/leaderboard-api/internal/domain/leaderboard"
	"github.com/tygolabs/leaderboard-api/internal/domain/period"
	"github.com/tygolabs/leaderboard-api/internal/platform/logging"
	"github.com/tygolabs/leaderboard-api/internal/usecase"
)

const (
	defaultBaseURL    = "https://services.rainbet.com"
	affiliateEndpoint = "/v1/external/affiliates"

	exportLimit = 10
	dateLayout  = "2006-01-02"
)

type ClientConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	Logger     *logging.Logger
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *logging.Logger
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

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		logger:     logger,
	}
}

type affiliateExport struct {
	Affiliates []affiliateRecord `json:"affiliates"`
}

type affiliateRecord struct {
	Username      string `json:"username"`
	WageredAmount string `json:"wagered_amount"`
}

// FetchMonth pulls the export covering the named calendar month and
// returns the ten highest wagerers, masked and with amounts rounded to
// whole units. Export amounts land as decimal strings; anything that
// fails to parse counts as zero.
func (c *Client) FetchMonth(ctx context.Context, year int, month time.Month) ([]leaderboard.Entry, error) {
	start, end := period.MonthBounds(year, month)

	values := url.Values{}
	values.Set("start_at", start.Format(dateLayout))
	values.Set("end_at", end.Format(dateLayout))
	values.Set("key", c.apiKey)
	fullURL := c.baseURL + affiliateEndpoint + "?" + values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, crerr.Wrap(err, "build affiliate export request")
	}
	req.Header.Set("accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		wrapped := crerr.Wrapf(usecase.ErrDependencyUnavailable, "send affiliate export request: %s", c.redact(err.Error()))
		c.logger.WarnContext(ctx, "affiliate export request failed", "error", wrapped, "month", month.String(), "year", year)
		return nil, wrapped
	}
	defer resp.Body.Close()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if _, err := buf.ReadFrom(io.LimitReader(resp.Body, 4<<20)); err != nil {
		return nil, crerr.Wrapf(usecase.ErrDependencyUnavailable, "read affiliate export response: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.WarnContext(ctx, "affiliate export request failed", "status", resp.StatusCode, "month", month.String(), "year", year)
		return nil, crerr.Wrapf(usecase.ErrDependencyUnavailable, "affiliate export status=%d", resp.StatusCode)
	}

	var export affiliateExport
	if err := sonic.Unmarshal(buf.Bytes(), &export); err != nil {
		return nil, crerr.Wrapf(usecase.ErrUpstreamData, "decode affiliate export: %v", err)
	}
	if export.Affiliates == nil {
		return nil, crerr.Wrap(usecase.ErrUpstreamData, "affiliate export missing affiliates list")
	}

	return formatExport(export.Affiliates), nil
}

// formatExport ranks on the raw exported amounts, keeps the top ten, and
// only then rounds, floors at zero, and masks. Rounding after ranking keeps
// the upstream order for amounts that would tie once rounded.
func formatExport(records []affiliateRecord) []leaderboard.Entry {
	ranked := make([]leaderboard.Entry, 0, len(records))
	for _, record := range records {
		ranked = append(ranked, leaderboard.Entry{
			Username: record.Username,
			Wagered:  parseAmount(record.WageredAmount),
		})
	}
	leaderboard.SortByWageredDesc(ranked)
	ranked = leaderboard.Truncate(ranked, exportLimit)

	out := make([]leaderboard.Entry, 0, len(ranked))
	for _, entry := range ranked {
		wagered := math.Round(entry.Wagered)
		if wagered < 0 {
			wagered = 0
		}
		out = append(out, leaderboard.Entry{
			Username:      leaderboard.MaskUsername(entry.Username),
			Wagered:       wagered,
			WeightedWager: wagered,
		})
	}
	return out
}

func parseAmount(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return v
}

func (c *Client) redact(text string) string {
	if c.apiKey == "" {
		return text
	}
	return strings.ReplaceAll(text, c.apiKey, "REDACTED")
}
