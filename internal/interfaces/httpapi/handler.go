package httpapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/tygolabs/leaderboard-api/internal/usecase"
)

const (
	defaultCustomTake = 10
	maxCustomTake     = 100
)

// customRangeEpoch is the fixed historical default for the custom endpoint's
// range start when the caller omits "from".
var customRangeEpoch = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

type Handler struct {
	service   *usecase.LeaderboardService
	logger    *slog.Logger
	validator *validator.Validate
	now       func() time.Time
}

func NewHandler(service *usecase.LeaderboardService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		service:   service,
		logger:    logger,
		validator: validator.New(),
		now:       time.Now,
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeJSON(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetRankedCurrent(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetRankedCurrent")
	defer span.End()

	entries, err := h.service.RankedCurrentMonth(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "ranked current-month fetch failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, entries)
}

func (h *Handler) GetRankedPrevious(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetRankedPrevious")
	defer span.End()

	entries, err := h.service.RankedPreviousMonth(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "ranked previous-month fetch failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, entries)
}

type customQueryParams struct {
	SortOrder string `validate:"omitempty,oneof=asc desc"`
}

func (h *Handler) GetRankedCustom(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetRankedCustom")
	defer span.End()

	query := r.URL.Query()

	fromMillis, err := parseMillisParam(query.Get("from"), customRangeEpoch.UnixMilli())
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid from parameter", usecase.ErrInvalidInput))
		return
	}
	toMillis, err := parseMillisParam(query.Get("to"), h.now().UnixMilli())
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid to parameter", usecase.ErrInvalidInput))
		return
	}

	sortOrder := strings.TrimSpace(query.Get("sort"))
	if err := h.validator.StructCtx(ctx, customQueryParams{SortOrder: sortOrder}); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: sort must be asc or desc", usecase.ErrInvalidInput))
		return
	}

	take := parseIntParam(query.Get("take"), defaultCustomTake)
	if take < 1 {
		take = 1
	}
	if take > maxCustomTake {
		take = maxCustomTake
	}
	skip := parseIntParam(query.Get("skip"), 0)
	if skip < 0 {
		skip = 0
	}

	entries, err := h.service.RankedCustom(ctx, fromMillis, toMillis, usecase.RankedQuery{
		RankBy:    strings.TrimSpace(query.Get("by")),
		SortOrder: sortOrder,
		Search:    strings.TrimSpace(query.Get("search")),
		Take:      take,
		Skip:      skip,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "ranked custom fetch failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, entries)
}

func (h *Handler) GetAffiliateCurrent(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetAffiliateCurrent")
	defer span.End()

	writeJSON(ctx, w, http.StatusOK, h.service.AffiliateCurrent(ctx))
}

func (h *Handler) GetAffiliatePrevious(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetAffiliatePrevious")
	defer span.End()

	writeJSON(ctx, w, http.StatusOK, h.service.AffiliatePrevious(ctx))
}

func (h *Handler) GetTabularLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTabularLeaderboard")
	defer span.End()

	entries, err := h.service.TabularLeaderboard(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "tabular fetch failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, entries)
}

func parseMillisParam(raw string, fallback int64) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

func parseIntParam(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	out, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return out
}
