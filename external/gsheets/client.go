// Package gsheets implements the tabular upstream: a public spreadsheet
// CSV export fetched and parsed on each request, with no caching.
package gsheets

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"

	"github.com/tygolabs/leaderboard-api/internal/domain/leaderboard"
	"github.com/tygolabs/leaderboard-api/internal/platform/logging"
	"github.com/tygolabs/leaderboard-api/internal/usecase"
)

const defaultBaseURL = "https://docs.google.com"

// currencyJunk strips currency symbols and thousands separators before
// amount parsing.
var currencyJunk = regexp.MustCompile(`[^0-9.\-]`)

type ClientConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	DocumentID string
	SheetName  string
	Timeout    time.Duration
	Logger     *logging.Logger
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	documentID string
	sheetName  string
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
		documentID: strings.TrimSpace(cfg.DocumentID),
		sheetName:  strings.TrimSpace(cfg.SheetName),
		logger:     logger,
	}
}

// FetchLeaderboard downloads the sheet's CSV export and maps its rows to
// leaderboard entries. The first row is treated as headers; rows missing
// either a username or a wagered value are dropped. Usernames pass
// through unmasked.
func (c *Client) FetchLeaderboard(ctx context.Context) ([]leaderboard.Entry, error) {
	fullURL := c.baseURL + "/spreadsheets/d/" + url.PathEscape(c.documentID) +
		"/gviz/tq?tqx=out:csv&sheet=" + url.QueryEscape(c.sheetName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, crerr.Wrap(err, "build sheet export request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		wrapped := crerr.Wrapf(usecase.ErrDependencyUnavailable, "send sheet export request: %v", err)
		c.logger.WarnContext(ctx, "sheet export request failed", "error", wrapped)
		return nil, wrapped
	}
	defer resp.Body.Close()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if _, err := buf.ReadFrom(io.LimitReader(resp.Body, 8<<20)); err != nil {
		return nil, crerr.Wrapf(usecase.ErrDependencyUnavailable, "read sheet export response: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.WarnContext(ctx, "sheet export request failed", "status", resp.StatusCode)
		return nil, crerr.Wrapf(usecase.ErrDependencyUnavailable, "sheet export status=%d", resp.StatusCode)
	}

	entries, err := parseCSV(buf.Bytes())
	if err != nil {
		return nil, crerr.Wrapf(usecase.ErrUpstreamData, "parse sheet export: %v", err)
	}
	return entries, nil
}

func parseCSV(raw []byte) ([]leaderboard.Entry, error) {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return []leaderboard.Entry{}, nil
	}
	if err != nil {
		return nil, err
	}

	usernameCol, wageredCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "username", "user", "name":
			if usernameCol < 0 {
				usernameCol = i
			}
		case "wagered", "wager", "amount":
			if wageredCol < 0 {
				wageredCol = i
			}
		}
	}
	if usernameCol < 0 || wageredCol < 0 {
		return nil, crerr.Newf("header row missing username/wagered columns: %v", header)
	}

	out := []leaderboard.Entry{}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if usernameCol >= len(row) || wageredCol >= len(row) {
			continue
		}

		username := strings.TrimSpace(row[usernameCol])
		rawAmount := strings.TrimSpace(row[wageredCol])
		if username == "" || rawAmount == "" {
			continue
		}

		wagered, err := strconv.ParseFloat(currencyJunk.ReplaceAllString(rawAmount, ""), 64)
		if err != nil {
			continue
		}

		out = append(out, leaderboard.Entry{
			Username:      username,
			Wagered:       wagered,
			WeightedWager: wagered,
		})
	}
	return out, nil
}
