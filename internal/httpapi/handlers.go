package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/mmynk/weekledger/internal/ledger"
	"github.com/mmynk/weekledger/internal/service"
	"github.com/mmynk/weekledger/pkg/api"
)

func (h *Handler) createRecord(w http.ResponseWriter, r *http.Request) {
	var req api.CreateRecordRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	rec, err := h.ledger.CreateRecord(r.Context(), ledger.NewRecord{
		Week:         req.Week,
		Buyer:        req.Buyer,
		Description:  req.Description,
		Amount:       req.Amount,
		SplitMembers: req.SplitMembers,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.StatusResponse{Status: api.StatusOK, ID: rec.ID})
}

func (h *Handler) listAllRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.ledger.ListAllRecords(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.NewRecords(records))
}

func (h *Handler) listUnsettledRecordsForWeek(w http.ResponseWriter, r *http.Request) {
	records, err := h.ledger.ListUnsettledRecordsForWeek(r.Context(), r.PathValue("week"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.NewRecords(records))
}

func (h *Handler) deleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.ledger.DeleteRecord(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.StatusResponse{Status: api.StatusDeleted})
}

func (h *Handler) updateMemberPaidStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var body struct {
		Name string `json:"name"`
		Paid *bool  `json:"paid"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	err = h.ledger.UpdateMemberPaidStatus(r.Context(), id, ledger.PaidStatusUpdate{Name: body.Name, Paid: body.Paid})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.StatusResponse{Status: api.StatusUpdated})
}

func (h *Handler) archiveWeek(w http.ResponseWriter, r *http.Request) {
	week := r.PathValue("week")
	if err := h.ledger.ArchiveWeek(r.Context(), week); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.StatusResponse{Status: api.StatusArchived, Week: week})
}

func (h *Handler) listUnarchivedWeeks(w http.ResponseWriter, r *http.Request) {
	weeks, err := h.ledger.ListUnarchivedWeeks(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if weeks == nil {
		weeks = []string{}
	}
	writeJSON(w, http.StatusOK, weeks)
}

func (h *Handler) summarizeWeek(w http.ResponseWriter, r *http.Request) {
	sum, err := h.ledger.SummarizeWeek(r.Context(), r.PathValue("week"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, service.WeekSummaryView(sum))
}

func (h *Handler) listOutstandingDebts(w http.ResponseWriter, r *http.Request) {
	debts, err := h.ledger.OutstandingDebts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, service.DebtsView(debts))
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, api.StatusResponse{Status: api.StatusOK})
}

// errMalformed marks request bodies or paths that could not be parsed.
var errMalformed = errors.New("malformed request")

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: record id must be an integer", errMalformed)
	}
	return id, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is required", errMalformed)
		}
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	return nil
}
