package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tygolabs/leaderboard-api/external/csgowin"
	"github.com/tygolabs/leaderboard-api/external/gsheets"
	"github.com/tygolabs/leaderboard-api/external/rainbet"
	"github.com/tygolabs/leaderboard-api/internal/config"
	"github.com/tygolabs/leaderboard-api/internal/interfaces/httpapi"
	"github.com/tygolabs/leaderboard-api/internal/platform/cache"
	"github.com/tygolabs/leaderboard-api/internal/platform/logging"
	"github.com/tygolabs/leaderboard-api/internal/platform/resilience"
	"github.com/tygolabs/leaderboard-api/internal/usecase"
)

// App wires the upstream clients, the snapshot cache, the background
// workers, and the HTTP server.
type App struct {
	Server    *http.Server
	refresher *usecase.Refresher
	keepAlive *usecase.KeepAlive
}

func New(cfg config.Config, slogger *slog.Logger, logger *logging.Logger) (*App, error) {
	if slogger == nil {
		slogger = slog.Default()
	}
	if logger == nil {
		logger = logging.Default()
	}

	rankedClient := csgowin.NewClient(csgowin.ClientConfig{
		BaseURL:       cfg.CsgowinBaseURL,
		APIKey:        cfg.CsgowinAPIKey,
		AffiliateCode: cfg.CsgowinAffiliateCode,
		Timeout:       cfg.CsgowinTimeout,
		MaxRetries:    cfg.CsgowinMaxRetries,
		Logger:        logger,
		Breaker: resilience.BreakerConfig{
			Enabled:          cfg.CsgowinCircuitEnabled,
			FailureThreshold: cfg.CsgowinCircuitFailureCount,
			OpenTimeout:      cfg.CsgowinCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.CsgowinCircuitHalfOpenMaxReq,
		},
	})

	affiliateClient := rainbet.NewClient(rainbet.ClientConfig{
		BaseURL: cfg.RainbetBaseURL,
		APIKey:  cfg.RainbetAPIKey,
		Timeout: cfg.RainbetTimeout,
		Logger:  logger,
	})

	tabularClient := gsheets.NewClient(gsheets.ClientConfig{
		DocumentID: cfg.SheetsDocumentID,
		SheetName:  cfg.SheetsSheetName,
		Timeout:    cfg.SheetsTimeout,
		Logger:     logger,
	})

	service := usecase.NewLeaderboardService(
		rankedClient,
		affiliateClient,
		tabularClient,
		cache.NewSnapshots(),
		logger,
	)

	handler := httpapi.NewHandler(service, slogger)
	router := httpapi.NewRouter(handler, slogger, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	app := &App{
		Server:    server,
		refresher: usecase.NewRefresher(service, cfg.RainbetRefreshInterval, logger),
	}
	if cfg.KeepAliveEnabled {
		app.keepAlive = usecase.NewKeepAlive(nil, cfg.KeepAliveURL, cfg.KeepAliveInterval, logger)
	}

	return app, nil
}

// StartBackground launches the refresh loop and, when configured, the
// keep-alive pinger. Both stop when ctx is cancelled.
func (a *App) StartBackground(ctx context.Context) {
	go func() { _ = a.refresher.Run(ctx) }()
	if a.keepAlive != nil {
		go func() { _ = a.keepAlive.Run(ctx) }()
	}
}
