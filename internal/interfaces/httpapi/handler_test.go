package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/tygolabs/leaderboard-api/internal/domain/leaderboard"
	"github.com/tygolabs/leaderboard-api/internal/platform/cache"
	"github.com/tygolabs/leaderboard-api/internal/usecase"
)

type stubRankedClient struct {
	entries  []leaderboard.Entry
	err      error
	lastFrom int64
	lastTo   int64
	lastQ    usecase.RankedQuery
}

func (s *stubRankedClient) FetchLeaderboard(_ context.Context, fromMillis, toMillis int64, query usecase.RankedQuery) ([]leaderboard.Entry, error) {
	s.lastFrom = fromMillis
	s.lastTo = toMillis
	s.lastQ = query
	return s.entries, s.err
}

type stubAffiliateClient struct {
	byMonth map[time.Month][]leaderboard.Entry
	err     error
}

func (s *stubAffiliateClient) FetchMonth(_ context.Context, _ int, month time.Month) ([]leaderboard.Entry, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.byMonth[month], nil
}

type stubTabularClient struct {
	entries []leaderboard.Entry
	err     error
}

func (s *stubTabularClient) FetchLeaderboard(context.Context) ([]leaderboard.Entry, error) {
	return s.entries, s.err
}

type testEnv struct {
	router  http.Handler
	ranked  *stubRankedClient
	tabular *stubTabularClient
	service *usecase.LeaderboardService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ranked := &stubRankedClient{entries: []leaderboard.Entry{}}
	tabular := &stubTabularClient{entries: []leaderboard.Entry{}}
	affiliate := &stubAffiliateClient{byMonth: map[time.Month][]leaderboard.Entry{}}
	service := usecase.NewLeaderboardService(ranked, affiliate, tabular, cache.NewSnapshots(), nil)
	handler := NewHandler(service, slog.New(slog.DiscardHandler))

	return &testEnv{
		router:  NewRouter(handler, slog.New(slog.DiscardHandler), []string{"*"}),
		ranked:  ranked,
		tabular: tabular,
		service: service,
	}
}

func doGet(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeEntries(t *testing.T, rec *httptest.ResponseRecorder) []leaderboard.Entry {
	t.Helper()
	var entries []leaderboard.Entry
	if err := sonic.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	return entries
}

func TestHandler_Healthz(t *testing.T) {
	env := newTestEnv(t)

	rec := doGet(t, env.router, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestHandler_RankedCurrent_ReturnsEntries(t *testing.T) {
	env := newTestEnv(t)
	env.ranked.entries = []leaderboard.Entry{{Username: "al***ra", Wagered: 100, WeightedWager: 100}}

	rec := doGet(t, env.router, "/leaderboard/csgowin/current")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	entries := decodeEntries(t, rec)
	if len(entries) != 1 || entries[0].Username != "al***ra" {
		t.Fatalf("unexpected entries: %v", entries)
	}
}

func TestHandler_RankedCurrent_UpstreamErrorIs500(t *testing.T) {
	env := newTestEnv(t)
	env.ranked.err = fmt.Errorf("%w: dial refused", usecase.ErrDependencyUnavailable)

	rec := doGet(t, env.router, "/leaderboard/csgowin/current")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}

	var body map[string]string
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	if body["error"] == "" {
		t.Fatalf("expected error message in body")
	}
}

func TestHandler_RankedCustom_Defaults(t *testing.T) {
	env := newTestEnv(t)

	rec := doGet(t, env.router, "/leaderboard/csgowin/custom")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	if env.ranked.lastFrom != customRangeEpoch.UnixMilli() {
		t.Fatalf("unexpected default from: %d", env.ranked.lastFrom)
	}
	if env.ranked.lastTo <= env.ranked.lastFrom {
		t.Fatalf("expected default to near now, got %d", env.ranked.lastTo)
	}
	if env.ranked.lastQ.Take != defaultCustomTake {
		t.Fatalf("unexpected default take: %d", env.ranked.lastQ.Take)
	}
}

func TestHandler_RankedCustom_ParamsPassedThrough(t *testing.T) {
	env := newTestEnv(t)

	rec := doGet(t, env.router, "/leaderboard/csgowin/custom?from=1000&to=2000&by=deposit&sort=asc&search=alex&take=25&skip=5")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	if env.ranked.lastFrom != 1000 || env.ranked.lastTo != 2000 {
		t.Fatalf("unexpected range: [%d, %d]", env.ranked.lastFrom, env.ranked.lastTo)
	}
	q := env.ranked.lastQ
	if q.RankBy != "deposit" || q.SortOrder != "asc" || q.Search != "alex" || q.Take != 25 || q.Skip != 5 {
		t.Fatalf("unexpected query: %+v", q)
	}
}

func TestHandler_RankedCustom_TakeIsClamped(t *testing.T) {
	env := newTestEnv(t)

	rec := doGet(t, env.router, "/leaderboard/csgowin/custom?take=500")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if env.ranked.lastQ.Take != maxCustomTake {
		t.Fatalf("expected take clamped to %d, got %d", maxCustomTake, env.ranked.lastQ.Take)
	}
}

func TestHandler_RankedCustom_InvalidSortIs400(t *testing.T) {
	env := newTestEnv(t)

	rec := doGet(t, env.router, "/leaderboard/csgowin/custom?sort=sideways")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestHandler_RankedCustom_ReversedRangeIs400(t *testing.T) {
	env := newTestEnv(t)

	rec := doGet(t, env.router, "/leaderboard/csgowin/custom?from=2000&to=1000")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestHandler_RankedCustom_MalformedFromIs400(t *testing.T) {
	env := newTestEnv(t)

	rec := doGet(t, env.router, "/leaderboard/csgowin/custom?from=yesterday")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestHandler_AffiliateEndpoints_NeverError(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/leaderboard/rainbet/current", "/leaderboard/rainbet/previous"} {
		rec := doGet(t, env.router, path)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected status 200, got %d", path, rec.Code)
		}
		entries := decodeEntries(t, rec)
		if entries == nil {
			t.Fatalf("%s: expected empty array, got null", path)
		}
		if len(entries) != 0 {
			t.Fatalf("%s: expected empty array before first refresh, got %v", path, entries)
		}
	}
}

func TestHandler_AffiliateEndpoints_ServeRefreshedSnapshots(t *testing.T) {
	ranked := &stubRankedClient{}
	tabular := &stubTabularClient{}
	affiliate := &stubAffiliateFixedClient{entries: []leaderboard.Entry{
		{Username: "hi***er", Wagered: 9001, WeightedWager: 9001},
	}}
	service := usecase.NewLeaderboardService(ranked, affiliate, tabular, cache.NewSnapshots(), nil)
	handler := NewHandler(service, slog.New(slog.DiscardHandler))
	router := NewRouter(handler, slog.New(slog.DiscardHandler), []string{"*"})

	if err := service.RefreshAffiliateSnapshots(context.Background()); err != nil {
		t.Fatalf("refresh snapshots: %v", err)
	}

	for _, path := range []string{"/leaderboard/rainbet/current", "/leaderboard/rainbet/previous"} {
		rec := doGet(t, router, path)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected status 200, got %d", path, rec.Code)
		}
		entries := decodeEntries(t, rec)
		if len(entries) != 1 || entries[0].Username != "hi***er" {
			t.Fatalf("%s: unexpected entries: %v", path, entries)
		}
	}
}

type stubAffiliateFixedClient struct {
	entries []leaderboard.Entry
}

func (s *stubAffiliateFixedClient) FetchMonth(context.Context, int, time.Month) ([]leaderboard.Entry, error) {
	return s.entries, nil
}

func TestHandler_Tabular_ErrorIs500(t *testing.T) {
	env := newTestEnv(t)
	env.tabular.err = errors.New("csv exploded")

	rec := doGet(t, env.router, "/leaderboard/sheets")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}

	var body map[string]string
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	if body["error"] != "failed to fetch leaderboard data" {
		t.Fatalf("unexpected error message: %q", body["error"])
	}
}

func TestHandler_Tabular_ReturnsUnmaskedUsernames(t *testing.T) {
	env := newTestEnv(t)
	env.tabular.entries = []leaderboard.Entry{{Username: "longusername", Wagered: 10, WeightedWager: 10}}

	rec := doGet(t, env.router, "/leaderboard/sheets")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	entries := decodeEntries(t, rec)
	if len(entries) != 1 || entries[0].Username != "longusername" {
		t.Fatalf("unexpected entries: %v", entries)
	}
}

func TestHandler_RankedCustom_FutureToAccepted(t *testing.T) {
	env := newTestEnv(t)

	to := time.Now().Add(24 * time.Hour).UnixMilli()
	rec := doGet(t, env.router, "/leaderboard/csgowin/custom?to="+strconv.FormatInt(to, 10))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if env.ranked.lastTo != to {
		t.Fatalf("unexpected to: %d", env.ranked.lastTo)
	}
}
