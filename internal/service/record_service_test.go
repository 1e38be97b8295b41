package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/weekledger/internal/ledger"
	"github.com/mmynk/weekledger/internal/middleware"
	"github.com/mmynk/weekledger/internal/storage/sqlite"
	"github.com/mmynk/weekledger/pkg/api"
	"github.com/mmynk/weekledger/pkg/api/apiconnect"
)

// testAuthInterceptor returns a Connect interceptor that sets a test user in the context.
func testAuthInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			ctx = context.WithValue(ctx, middleware.UsernameKey, "alice")
			return next(ctx, req)
		}
	}
}

// setupTestServer creates a test server backed by a temporary SQLite database.
func setupTestServer(t *testing.T) apiconnect.RecordServiceClient {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	svc := NewRecordService(ledger.New(store))
	path, handler := apiconnect.NewRecordServiceHandler(svc,
		connect.WithInterceptors(testAuthInterceptor(), middleware.LoggingInterceptor()))

	mux := http.NewServeMux()
	mux.Handle(path, handler)
	server := httptest.NewServer(mux)

	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return apiconnect.NewRecordServiceClient(http.DefaultClient, server.URL)
}

func boolPtr(v bool) *bool { return &v }

func createRecord(t *testing.T, client apiconnect.RecordServiceClient, req *api.CreateRecordRequest) int64 {
	t.Helper()
	resp, err := client.CreateRecord(context.Background(), connect.NewRequest(req))
	if err != nil {
		t.Fatalf("CreateRecord failed: %v", err)
	}
	if resp.Msg.Status != api.StatusOK {
		t.Errorf("status = %q, want ok", resp.Msg.Status)
	}
	return resp.Msg.ID
}

func TestArchiveWorkflow(t *testing.T) {
	client := setupTestServer(t)
	ctx := context.Background()

	id := createRecord(t, client, &api.CreateRecordRequest{
		Week:   "2025-W40",
		Buyer:  "Alice",
		Amount: 30.0,
		SplitMembers: []api.SplitMember{
			{Name: "Alice", Paid: true},
			{Name: "Bob", Paid: false},
		},
	})

	_, err := client.ArchiveWeek(ctx, connect.NewRequest(&api.ArchiveWeekRequest{Week: "2025-W40"}))
	if connect.CodeOf(err) != connect.CodeFailedPrecondition {
		t.Fatalf("expected FailedPrecondition, got %v", err)
	}

	upd, err := client.UpdateMemberPaidStatus(ctx, connect.NewRequest(&api.UpdateMemberPaidStatusRequest{
		ID: id, Name: "Bob", Paid: boolPtr(true),
	}))
	if err != nil {
		t.Fatalf("UpdateMemberPaidStatus failed: %v", err)
	}
	if upd.Msg.Status != api.StatusUpdated {
		t.Errorf("status = %q, want updated", upd.Msg.Status)
	}

	resp, err := client.ArchiveWeek(ctx, connect.NewRequest(&api.ArchiveWeekRequest{Week: "2025-W40"}))
	if err != nil {
		t.Fatalf("ArchiveWeek failed: %v", err)
	}
	if resp.Msg.Status != api.StatusArchived || resp.Msg.Week != "2025-W40" {
		t.Errorf("unexpected response: %+v", resp.Msg)
	}

	_, err = client.UpdateMemberPaidStatus(ctx, connect.NewRequest(&api.UpdateMemberPaidStatusRequest{
		ID: id, Name: "Bob", Paid: boolPtr(false),
	}))
	if connect.CodeOf(err) != connect.CodeFailedPrecondition {
		t.Errorf("expected FailedPrecondition on archived record, got %v", err)
	}

	weeks, err := client.ListUnarchivedWeeks(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		t.Fatalf("ListUnarchivedWeeks failed: %v", err)
	}
	if len(weeks.Msg.Weeks) != 0 {
		t.Errorf("expected no unarchived weeks, got %v", weeks.Msg.Weeks)
	}
}

func TestArchiveWeek_NotFound(t *testing.T) {
	client := setupTestServer(t)

	_, err := client.ArchiveWeek(context.Background(), connect.NewRequest(&api.ArchiveWeekRequest{Week: "1999-W01"}))
	if connect.CodeOf(err) != connect.CodeNotFound {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestDeleteRecord(t *testing.T) {
	client := setupTestServer(t)
	ctx := context.Background()

	_, err := client.DeleteRecord(ctx, connect.NewRequest(&api.DeleteRecordRequest{ID: 999}))
	if connect.CodeOf(err) != connect.CodeNotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}

	id := createRecord(t, client, &api.CreateRecordRequest{Week: "2025-W40", Buyer: "Alice", Amount: 5})
	resp, err := client.DeleteRecord(ctx, connect.NewRequest(&api.DeleteRecordRequest{ID: id}))
	if err != nil {
		t.Fatalf("DeleteRecord failed: %v", err)
	}
	if resp.Msg.Status != api.StatusDeleted {
		t.Errorf("status = %q, want deleted", resp.Msg.Status)
	}
}

func TestListRecords(t *testing.T) {
	client := setupTestServer(t)
	ctx := context.Background()

	createRecord(t, client, &api.CreateRecordRequest{Week: "2025-W39", Buyer: "Alice", Description: "Rice", Amount: 12.5,
		SplitMembers: []api.SplitMember{{Name: "Bob"}}})
	createRecord(t, client, &api.CreateRecordRequest{Week: "2025-W40", Buyer: "Bob", Amount: 8})

	all, err := client.ListAllRecords(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		t.Fatalf("ListAllRecords failed: %v", err)
	}
	if len(all.Msg.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(all.Msg.Records))
	}
	if all.Msg.Records[0].Week != "2025-W40" {
		t.Errorf("expected newest week first, got %s", all.Msg.Records[0].Week)
	}
	rice := all.Msg.Records[1]
	if rice.Description != "Rice" || rice.Amount != 12.5 || len(rice.SplitMembers) != 1 || rice.IsArchived {
		t.Errorf("unexpected record: %+v", rice)
	}
	if rice.CreatedAt == "" {
		t.Error("expected created_at to be set")
	}

	week, err := client.ListUnsettledRecordsForWeek(ctx, connect.NewRequest(&api.ListUnsettledRecordsRequest{Week: "2025-W39"}))
	if err != nil {
		t.Fatalf("ListUnsettledRecordsForWeek failed: %v", err)
	}
	if len(week.Msg.Records) != 1 || week.Msg.Records[0].Buyer != "Alice" {
		t.Errorf("unexpected records: %+v", week.Msg.Records)
	}

	weeks, err := client.ListUnarchivedWeeks(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		t.Fatalf("ListUnarchivedWeeks failed: %v", err)
	}
	if len(weeks.Msg.Weeks) != 2 || weeks.Msg.Weeks[0] != "2025-W40" {
		t.Errorf("unexpected weeks: %v", weeks.Msg.Weeks)
	}
}

func TestCreateRecord_InvalidArgument(t *testing.T) {
	client := setupTestServer(t)

	_, err := client.CreateRecord(context.Background(), connect.NewRequest(&api.CreateRecordRequest{Week: "2025-W40", Buyer: "Alice", Amount: -1}))
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Errorf("expected InvalidArgument, got %v", err)
	}
}

func TestUpdateMemberPaidStatus_MissingPaid(t *testing.T) {
	client := setupTestServer(t)
	id := createRecord(t, client, &api.CreateRecordRequest{Week: "2025-W40", Buyer: "Alice", Amount: 5,
		SplitMembers: []api.SplitMember{{Name: "Bob"}}})

	_, err := client.UpdateMemberPaidStatus(context.Background(), connect.NewRequest(&api.UpdateMemberPaidStatusRequest{ID: id, Name: "Bob"}))
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Errorf("expected InvalidArgument, got %v", err)
	}
}

func TestSummaryAndDebts(t *testing.T) {
	client := setupTestServer(t)
	ctx := context.Background()

	createRecord(t, client, &api.CreateRecordRequest{Week: "2025-W40", Buyer: "Alice", Amount: 30,
		SplitMembers: []api.SplitMember{{Name: "Alice", Paid: true}, {Name: "Bob"}, {Name: "Carol"}}})

	sum, err := client.SummarizeWeek(ctx, connect.NewRequest(&api.SummarizeWeekRequest{Week: "2025-W40"}))
	if err != nil {
		t.Fatalf("SummarizeWeek failed: %v", err)
	}
	if sum.Msg.Total.String() != "30" || sum.Msg.UnpaidShares != 2 || sum.Msg.Settled {
		t.Errorf("unexpected summary: %+v", sum.Msg)
	}

	debts, err := client.ListOutstandingDebts(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		t.Fatalf("ListOutstandingDebts failed: %v", err)
	}
	if len(debts.Msg.Debts) != 2 {
		t.Fatalf("expected 2 debts, got %+v", debts.Msg.Debts)
	}
	if d := debts.Msg.Debts[0]; d.From != "Bob" || d.To != "Alice" || d.Amount.String() != "10" {
		t.Errorf("unexpected debt: %+v", d)
	}

	_, err = client.SummarizeWeek(ctx, connect.NewRequest(&api.SummarizeWeekRequest{Week: "2025-W01"}))
	if connect.CodeOf(err) != connect.CodeNotFound {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestSplitMemberExtraFieldsRoundTrip(t *testing.T) {
	client := setupTestServer(t)
	ctx := context.Background()

	var member api.SplitMember
	if err := member.UnmarshalJSON([]byte(`{"name":"Bob","paid":false,"note":"owes for soap"}`)); err != nil {
		t.Fatalf("UnmarshalJSON failed: %v", err)
	}
	id := createRecord(t, client, &api.CreateRecordRequest{Week: "2025-W40", Buyer: "Alice", Amount: 4,
		SplitMembers: []api.SplitMember{member}})

	if _, err := client.UpdateMemberPaidStatus(ctx, connect.NewRequest(&api.UpdateMemberPaidStatusRequest{
		ID: id, Name: "Bob", Paid: boolPtr(true),
	})); err != nil {
		t.Fatalf("UpdateMemberPaidStatus failed: %v", err)
	}

	all, err := client.ListAllRecords(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		t.Fatalf("ListAllRecords failed: %v", err)
	}
	got := all.Msg.Records[0].SplitMembers[0]
	if !got.Paid || string(got.Extra["note"]) != `"owes for soap"` {
		t.Errorf("unexpected member: %+v", got)
	}
}

func TestInternalErrorHidesDetails(t *testing.T) {
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	path, handler := apiconnect.NewRecordServiceHandler(NewRecordService(ledger.New(store)))
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	client := apiconnect.NewRecordServiceClient(http.DefaultClient, server.URL)

	// every query fails once the database handle is closed
	store.Close()

	_, err = client.ListAllRecords(context.Background(), connect.NewRequest(&emptypb.Empty{}))
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		t.Fatalf("expected connect error, got %v", err)
	}
	if connectErr.Code() != connect.CodeInternal {
		t.Errorf("code = %v, want internal", connectErr.Code())
	}
	if msg := connectErr.Message(); msg != "internal error" || strings.Contains(msg, "sql") {
		t.Errorf("message = %q, want generic internal error", msg)
	}
}
