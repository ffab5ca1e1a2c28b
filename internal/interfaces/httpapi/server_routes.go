package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerLeaderboardRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /leaderboard/csgowin/current", handler.GetRankedCurrent)
	mux.HandleFunc("GET /leaderboard/csgowin/previous", handler.GetRankedPrevious)
	mux.HandleFunc("GET /leaderboard/csgowin/custom", handler.GetRankedCustom)
	mux.HandleFunc("GET /leaderboard/rainbet/current", handler.GetAffiliateCurrent)
	mux.HandleFunc("GET /leaderboard/rainbet/previous", handler.GetAffiliatePrevious)
	mux.HandleFunc("GET /leaderboard/sheets", handler.GetTabularLeaderboard)
}
