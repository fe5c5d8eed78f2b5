package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicRosterRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/leagues", handler.ListLeagues)
	mux.HandleFunc("GET /v1/leagues/{leagueID}/free-agents", handler.GetFreeAgents)
	mux.HandleFunc("GET /v1/leagues/{leagueID}/teams/{teamID}/roster", handler.GetRoster)
	mux.HandleFunc("GET /v1/leagues/{leagueID}/waivers/priorities", handler.ListWaiverPriorities)
}

func registerAuthorizedRosterRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/leagues/{leagueID}/moves", RequireAuth(verifier, http.HandlerFunc(handler.ProcessMove)))
	mux.Handle("GET /v1/leagues/{leagueID}/transactions", RequireAuth(verifier, http.HandlerFunc(handler.ListTransactions)))
	mux.Handle("GET /v1/leagues/{leagueID}/transactions/failed", RequireAuth(verifier, http.HandlerFunc(handler.ListFailedTransactions)))
}

func registerAuthorizedDraftRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/leagues/{leagueID}/draft/reservations", RequireAuth(verifier, http.HandlerFunc(handler.ReservePick)))
	mux.Handle("DELETE /v1/leagues/{leagueID}/draft/reservations/{playerID}", RequireAuth(verifier, http.HandlerFunc(handler.ReleaseReservation)))
	mux.Handle("POST /v1/leagues/{leagueID}/draft/picks", RequireAuth(verifier, http.HandlerFunc(handler.ConfirmPick)))
}

func registerAuthorizedWaiverRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/leagues/{leagueID}/waivers/claims", RequireAuth(verifier, http.HandlerFunc(handler.SubmitWaiverClaim)))
	mux.Handle("GET /v1/leagues/{leagueID}/waivers/claims", RequireAuth(verifier, http.HandlerFunc(handler.ListWaiverClaims)))
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/waivers", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunWaiversJob)))
	mux.Handle("POST /v1/internal/jobs/reservations/cleanup", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunReservationCleanupJob)))
}
