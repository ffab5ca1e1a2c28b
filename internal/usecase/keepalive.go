package usecase

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tygolabs/leaderboard-api/internal/platform/logging"
)

const defaultKeepAliveInterval = 270 * time.Second

// KeepAlive periodically fetches a configured URL so free-tier hosts do not
// idle the process out. Purely operational; failures are logged and ignored.
type KeepAlive struct {
	client   *http.Client
	url      string
	interval time.Duration
	logger   *logging.Logger
}

func NewKeepAlive(client *http.Client, url string, interval time.Duration, logger *logging.Logger) *KeepAlive {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if interval <= 0 {
		interval = defaultKeepAliveInterval
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &KeepAlive{
		client:   client,
		url:      url,
		interval: interval,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled.
func (k *KeepAlive) Run(ctx context.Context) error {
	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			k.ping(ctx)
		}
	}
}

func (k *KeepAlive) ping(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.url, nil)
	if err != nil {
		k.logger.WarnContext(ctx, "build keep-alive request", "error", err)
		return
	}

	resp, err := k.client.Do(req)
	if err != nil {
		k.logger.WarnContext(ctx, "keep-alive ping failed", "error", err)
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	_ = resp.Body.Close()

	if resp.StatusCode >= 400 {
		k.logger.WarnContext(ctx, "keep-alive ping returned error status", "error", fmt.Errorf("status %d", resp.StatusCode))
		return
	}
	k.logger.DebugContext(ctx, "keep-alive ping ok", "url", k.url)
}
