// Package httpapi serves the plain JSON REST routes used by the browser
// frontend. Every route delegates to the ledger; the Connect services in
// internal/service expose the same operations as RPCs.
package httpapi

import (
	"net/http"

	"github.com/mmynk/weekledger/internal/auth"
	"github.com/mmynk/weekledger/internal/ledger"
	"github.com/mmynk/weekledger/internal/middleware"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

type Handler struct {
	ledger *ledger.Ledger
}

// NewHandler returns the REST routes. When jwtManager is non-nil every route
// except /healthz requires a bearer token.
func NewHandler(l *ledger.Ledger, jwtManager *auth.JWTManager) http.Handler {
	h := &Handler{ledger: l}

	protect := func(fn http.HandlerFunc) http.Handler {
		if jwtManager == nil {
			return fn
		}
		return middleware.RequireAuthHTTP(jwtManager)(fn)
	}

	mux := http.NewServeMux()
	mux.Handle("POST /records", protect(h.createRecord))
	mux.Handle("GET /records", protect(h.listAllRecords))
	mux.Handle("GET /records/{week}", protect(h.listUnsettledRecordsForWeek))
	mux.Handle("DELETE /records/{id}", protect(h.deleteRecord))
	mux.Handle("PATCH /records/{id}", protect(h.updateMemberPaidStatus))
	mux.Handle("PATCH /records/archive/{week}", protect(h.archiveWeek))
	mux.Handle("GET /weeks/unarchived", protect(h.listUnarchivedWeeks))
	mux.Handle("GET /weeks/{week}/summary", protect(h.summarizeWeek))
	mux.Handle("GET /debts", protect(h.listOutstandingDebts))
	mux.HandleFunc("GET /healthz", h.healthz)
	return mux
}
