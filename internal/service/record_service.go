package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/weekledger/internal/ledger"
	"github.com/mmynk/weekledger/internal/middleware"
	"github.com/mmynk/weekledger/pkg/api"
	"github.com/mmynk/weekledger/pkg/api/apiconnect"
)

// RecordService implements the Connect RecordService
type RecordService struct {
	apiconnect.UnimplementedRecordServiceHandler
	ledger *ledger.Ledger
}

// NewRecordService creates a new RecordService backed by the given ledger.
func NewRecordService(l *ledger.Ledger) *RecordService {
	return &RecordService{ledger: l}
}

// CreateRecord stores a new expense record.
func (s *RecordService) CreateRecord(ctx context.Context, req *connect.Request[api.CreateRecordRequest]) (*connect.Response[api.StatusResponse], error) {
	slog.Info("CreateRecord request received",
		"week", req.Msg.Week,
		"buyer", req.Msg.Buyer,
		"amount", req.Msg.Amount,
		"members_count", len(req.Msg.SplitMembers),
		"user", middleware.GetUsername(ctx),
	)

	rec, err := s.ledger.CreateRecord(ctx, ledger.NewRecord{
		Week:         req.Msg.Week,
		Buyer:        req.Msg.Buyer,
		Description:  req.Msg.Description,
		Amount:       req.Msg.Amount,
		SplitMembers: req.Msg.SplitMembers,
	})
	if err != nil {
		slog.Error("CreateRecord failed", "error", err)
		return nil, connectError(ctx, err)
	}

	return connect.NewResponse(&api.StatusResponse{Status: api.StatusOK, ID: rec.ID}), nil
}

// ListAllRecords returns every record sorted by week, newest first.
func (s *RecordService) ListAllRecords(ctx context.Context, _ *connect.Request[emptypb.Empty]) (*connect.Response[api.ListRecordsResponse], error) {
	records, err := s.ledger.ListAllRecords(ctx)
	if err != nil {
		slog.Error("ListAllRecords failed", "error", err)
		return nil, connectError(ctx, err)
	}
	return connect.NewResponse(&api.ListRecordsResponse{Records: api.NewRecords(records)}), nil
}

// ListUnsettledRecordsForWeek returns the unarchived records of one week.
func (s *RecordService) ListUnsettledRecordsForWeek(ctx context.Context, req *connect.Request[api.ListUnsettledRecordsRequest]) (*connect.Response[api.ListRecordsResponse], error) {
	records, err := s.ledger.ListUnsettledRecordsForWeek(ctx, req.Msg.Week)
	if err != nil {
		slog.Error("ListUnsettledRecordsForWeek failed", "week", req.Msg.Week, "error", err)
		return nil, connectError(ctx, err)
	}
	return connect.NewResponse(&api.ListRecordsResponse{Records: api.NewRecords(records)}), nil
}

// DeleteRecord removes a record by ID.
func (s *RecordService) DeleteRecord(ctx context.Context, req *connect.Request[api.DeleteRecordRequest]) (*connect.Response[api.StatusResponse], error) {
	slog.Info("DeleteRecord request received", "record_id", req.Msg.ID)

	if err := s.ledger.DeleteRecord(ctx, req.Msg.ID); err != nil {
		return nil, connectError(ctx, err)
	}
	return connect.NewResponse(&api.StatusResponse{Status: api.StatusDeleted}), nil
}

// ListUnarchivedWeeks returns the weeks that still have open records.
func (s *RecordService) ListUnarchivedWeeks(ctx context.Context, _ *connect.Request[emptypb.Empty]) (*connect.Response[api.ListUnarchivedWeeksResponse], error) {
	weeks, err := s.ledger.ListUnarchivedWeeks(ctx)
	if err != nil {
		slog.Error("ListUnarchivedWeeks failed", "error", err)
		return nil, connectError(ctx, err)
	}
	if weeks == nil {
		weeks = []string{}
	}
	return connect.NewResponse(&api.ListUnarchivedWeeksResponse{Weeks: weeks}), nil
}

// UpdateMemberPaidStatus marks a split member of a record as paid or unpaid.
func (s *RecordService) UpdateMemberPaidStatus(ctx context.Context, req *connect.Request[api.UpdateMemberPaidStatusRequest]) (*connect.Response[api.StatusResponse], error) {
	slog.Info("UpdateMemberPaidStatus request received",
		"record_id", req.Msg.ID,
		"member", req.Msg.Name,
	)

	err := s.ledger.UpdateMemberPaidStatus(ctx, req.Msg.ID, ledger.PaidStatusUpdate{
		Name: req.Msg.Name,
		Paid: req.Msg.Paid,
	})
	if err != nil {
		return nil, connectError(ctx, err)
	}
	return connect.NewResponse(&api.StatusResponse{Status: api.StatusUpdated}), nil
}

// ArchiveWeek archives a fully settled week.
func (s *RecordService) ArchiveWeek(ctx context.Context, req *connect.Request[api.ArchiveWeekRequest]) (*connect.Response[api.StatusResponse], error) {
	slog.Info("ArchiveWeek request received", "week", req.Msg.Week)

	if err := s.ledger.ArchiveWeek(ctx, req.Msg.Week); err != nil {
		return nil, connectError(ctx, err)
	}
	return connect.NewResponse(&api.StatusResponse{Status: api.StatusArchived, Week: req.Msg.Week}), nil
}

// SummarizeWeek reports totals and settlement state for one week.
func (s *RecordService) SummarizeWeek(ctx context.Context, req *connect.Request[api.SummarizeWeekRequest]) (*connect.Response[api.WeekSummary], error) {
	sum, err := s.ledger.SummarizeWeek(ctx, req.Msg.Week)
	if err != nil {
		return nil, connectError(ctx, err)
	}
	return connect.NewResponse(WeekSummaryView(sum)), nil
}

// ListOutstandingDebts reports who owes whom across unarchived records.
func (s *RecordService) ListOutstandingDebts(ctx context.Context, _ *connect.Request[emptypb.Empty]) (*connect.Response[api.ListOutstandingDebtsResponse], error) {
	debts, err := s.ledger.OutstandingDebts(ctx)
	if err != nil {
		slog.Error("ListOutstandingDebts failed", "error", err)
		return nil, connectError(ctx, err)
	}
	return connect.NewResponse(DebtsView(debts)), nil
}

// WeekSummaryView converts a ledger summary to its API message.
func WeekSummaryView(s *ledger.WeekSummary) *api.WeekSummary {
	unpaid := s.UnpaidMembers
	if unpaid == nil {
		unpaid = []string{}
	}
	return &api.WeekSummary{
		Week:          s.Week,
		Records:       s.Records,
		Total:         s.Total,
		PaidShares:    s.PaidShares,
		UnpaidShares:  s.UnpaidShares,
		UnpaidMembers: unpaid,
		Settled:       s.Settled,
		Archived:      s.Archived,
	}
}

// DebtsView converts ledger debts to their API message.
func DebtsView(d *ledger.Debts) *api.ListOutstandingDebtsResponse {
	resp := &api.ListOutstandingDebtsResponse{
		Debts:    make([]api.Debt, 0, len(d.Edges)),
		Balances: make([]api.Balance, 0, len(d.Balances)),
	}
	for _, e := range d.Edges {
		resp.Debts = append(resp.Debts, api.Debt{From: e.From, To: e.To, Amount: e.Amount})
	}
	for _, b := range d.Balances {
		resp.Balances = append(resp.Balances, api.Balance{Name: b.Name, Amount: b.Amount})
	}
	return resp
}
