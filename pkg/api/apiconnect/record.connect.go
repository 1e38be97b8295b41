// Package apiconnect defines the Connect services of weekledger: the handler
// and client constructors, procedure names and the JSON codec they share.
package apiconnect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/weekledger/pkg/api"
)

const (
	// RecordServiceName is the fully-qualified name of the RecordService service.
	RecordServiceName = "weekledger.v1.RecordService"
	// AuthServiceName is the fully-qualified name of the AuthService service.
	AuthServiceName = "weekledger.v1.AuthService"
)

// These constants are the fully-qualified names of the RPCs. They are
// exposed at runtime as Spec.Procedure and as the final two segments of the
// HTTP route.
const (
	RecordServiceCreateRecordProcedure                = "/weekledger.v1.RecordService/CreateRecord"
	RecordServiceListAllRecordsProcedure              = "/weekledger.v1.RecordService/ListAllRecords"
	RecordServiceListUnsettledRecordsForWeekProcedure = "/weekledger.v1.RecordService/ListUnsettledRecordsForWeek"
	RecordServiceDeleteRecordProcedure                = "/weekledger.v1.RecordService/DeleteRecord"
	RecordServiceListUnarchivedWeeksProcedure         = "/weekledger.v1.RecordService/ListUnarchivedWeeks"
	RecordServiceUpdateMemberPaidStatusProcedure      = "/weekledger.v1.RecordService/UpdateMemberPaidStatus"
	RecordServiceArchiveWeekProcedure                 = "/weekledger.v1.RecordService/ArchiveWeek"
	RecordServiceSummarizeWeekProcedure               = "/weekledger.v1.RecordService/SummarizeWeek"
	RecordServiceListOutstandingDebtsProcedure        = "/weekledger.v1.RecordService/ListOutstandingDebts"
	AuthServiceLoginProcedure                         = "/weekledger.v1.AuthService/Login"
)

// RecordServiceClient is a client for the weekledger.v1.RecordService service.
type RecordServiceClient interface {
	CreateRecord(context.Context, *connect.Request[api.CreateRecordRequest]) (*connect.Response[api.StatusResponse], error)
	ListAllRecords(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[api.ListRecordsResponse], error)
	ListUnsettledRecordsForWeek(context.Context, *connect.Request[api.ListUnsettledRecordsRequest]) (*connect.Response[api.ListRecordsResponse], error)
	DeleteRecord(context.Context, *connect.Request[api.DeleteRecordRequest]) (*connect.Response[api.StatusResponse], error)
	ListUnarchivedWeeks(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[api.ListUnarchivedWeeksResponse], error)
	UpdateMemberPaidStatus(context.Context, *connect.Request[api.UpdateMemberPaidStatusRequest]) (*connect.Response[api.StatusResponse], error)
	ArchiveWeek(context.Context, *connect.Request[api.ArchiveWeekRequest]) (*connect.Response[api.StatusResponse], error)
	SummarizeWeek(context.Context, *connect.Request[api.SummarizeWeekRequest]) (*connect.Response[api.WeekSummary], error)
	ListOutstandingDebts(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[api.ListOutstandingDebtsResponse], error)
}

// NewRecordServiceClient constructs a client for the weekledger.v1.RecordService
// service. Requests are encoded as JSON over the Connect protocol.
//
// The URL supplied here should be the base URL for the Connect server (for
// example, http://api.acme.com or https://acme.com/grpc).
func NewRecordServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) RecordServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{Codec()}, opts...)
	return &recordServiceClient{
		createRecord: connect.NewClient[api.CreateRecordRequest, api.StatusResponse](
			httpClient, baseURL+RecordServiceCreateRecordProcedure, opts...),
		listAllRecords: connect.NewClient[emptypb.Empty, api.ListRecordsResponse](
			httpClient, baseURL+RecordServiceListAllRecordsProcedure, opts...),
		listUnsettledRecordsForWeek: connect.NewClient[api.ListUnsettledRecordsRequest, api.ListRecordsResponse](
			httpClient, baseURL+RecordServiceListUnsettledRecordsForWeekProcedure, opts...),
		deleteRecord: connect.NewClient[api.DeleteRecordRequest, api.StatusResponse](
			httpClient, baseURL+RecordServiceDeleteRecordProcedure, opts...),
		listUnarchivedWeeks: connect.NewClient[emptypb.Empty, api.ListUnarchivedWeeksResponse](
			httpClient, baseURL+RecordServiceListUnarchivedWeeksProcedure, opts...),
		updateMemberPaidStatus: connect.NewClient[api.UpdateMemberPaidStatusRequest, api.StatusResponse](
			httpClient, baseURL+RecordServiceUpdateMemberPaidStatusProcedure, opts...),
		archiveWeek: connect.NewClient[api.ArchiveWeekRequest, api.StatusResponse](
			httpClient, baseURL+RecordServiceArchiveWeekProcedure, opts...),
		summarizeWeek: connect.NewClient[api.SummarizeWeekRequest, api.WeekSummary](
			httpClient, baseURL+RecordServiceSummarizeWeekProcedure, opts...),
		listOutstandingDebts: connect.NewClient[emptypb.Empty, api.ListOutstandingDebtsResponse](
			httpClient, baseURL+RecordServiceListOutstandingDebtsProcedure, opts...),
	}
}

// recordServiceClient implements RecordServiceClient.
type recordServiceClient struct {
	createRecord                *connect.Client[api.CreateRecordRequest, api.StatusResponse]
	listAllRecords              *connect.Client[emptypb.Empty, api.ListRecordsResponse]
	listUnsettledRecordsForWeek *connect.Client[api.ListUnsettledRecordsRequest, api.ListRecordsResponse]
	deleteRecord                *connect.Client[api.DeleteRecordRequest, api.StatusResponse]
	listUnarchivedWeeks         *connect.Client[emptypb.Empty, api.ListUnarchivedWeeksResponse]
	updateMemberPaidStatus      *connect.Client[api.UpdateMemberPaidStatusRequest, api.StatusResponse]
	archiveWeek                 *connect.Client[api.ArchiveWeekRequest, api.StatusResponse]
	summarizeWeek               *connect.Client[api.SummarizeWeekRequest, api.WeekSummary]
	listOutstandingDebts        *connect.Client[emptypb.Empty, api.ListOutstandingDebtsResponse]
}

func (c *recordServiceClient) CreateRecord(ctx context.Context, req *connect.Request[api.CreateRecordRequest]) (*connect.Response[api.StatusResponse], error) {
	return c.createRecord.CallUnary(ctx, req)
}

func (c *recordServiceClient) ListAllRecords(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[api.ListRecordsResponse], error) {
	return c.listAllRecords.CallUnary(ctx, req)
}

func (c *recordServiceClient) ListUnsettledRecordsForWeek(ctx context.Context, req *connect.Request[api.ListUnsettledRecordsRequest]) (*connect.Response[api.ListRecordsResponse], error) {
	return c.listUnsettledRecordsForWeek.CallUnary(ctx, req)
}

func (c *recordServiceClient) DeleteRecord(ctx context.Context, req *connect.Request[api.DeleteRecordRequest]) (*connect.Response[api.StatusResponse], error) {
	return c.deleteRecord.CallUnary(ctx, req)
}

func (c *recordServiceClient) ListUnarchivedWeeks(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[api.ListUnarchivedWeeksResponse], error) {
	return c.listUnarchivedWeeks.CallUnary(ctx, req)
}

func (c *recordServiceClient) UpdateMemberPaidStatus(ctx context.Context, req *connect.Request[api.UpdateMemberPaidStatusRequest]) (*connect.Response[api.StatusResponse], error) {
	return c.updateMemberPaidStatus.CallUnary(ctx, req)
}

func (c *recordServiceClient) ArchiveWeek(ctx context.Context, req *connect.Request[api.ArchiveWeekRequest]) (*connect.Response[api.StatusResponse], error) {
	return c.archiveWeek.CallUnary(ctx, req)
}

func (c *recordServiceClient) SummarizeWeek(ctx context.Context, req *connect.Request[api.SummarizeWeekRequest]) (*connect.Response[api.WeekSummary], error) {
	return c.summarizeWeek.CallUnary(ctx, req)
}

func (c *recordServiceClient) ListOutstandingDebts(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[api.ListOutstandingDebtsResponse], error) {
	return c.listOutstandingDebts.CallUnary(ctx, req)
}

// RecordServiceHandler is an implementation of the weekledger.v1.RecordService service.
type RecordServiceHandler interface {
	CreateRecord(context.Context, *connect.Request[api.CreateRecordRequest]) (*connect.Response[api.StatusResponse], error)
	ListAllRecords(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[api.ListRecordsResponse], error)
	ListUnsettledRecordsForWeek(context.Context, *connect.Request[api.ListUnsettledRecordsRequest]) (*connect.Response[api.ListRecordsResponse], error)
	DeleteRecord(context.Context, *connect.Request[api.DeleteRecordRequest]) (*connect.Response[api.StatusResponse], error)
	ListUnarchivedWeeks(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[api.ListUnarchivedWeeksResponse], error)
	UpdateMemberPaidStatus(context.Context, *connect.Request[api.UpdateMemberPaidStatusRequest]) (*connect.Response[api.StatusResponse], error)
	ArchiveWeek(context.Context, *connect.Request[api.ArchiveWeekRequest]) (*connect.Response[api.StatusResponse], error)
	SummarizeWeek(context.Context, *connect.Request[api.SummarizeWeekRequest]) (*connect.Response[api.WeekSummary], error)
	ListOutstandingDebts(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[api.ListOutstandingDebtsResponse], error)
}

// NewRecordServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewRecordServiceHandler(svc RecordServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{Codec()}, opts...)
	routes := map[string]http.Handler{
		RecordServiceCreateRecordProcedure: connect.NewUnaryHandler(
			RecordServiceCreateRecordProcedure, svc.CreateRecord, opts...),
		RecordServiceListAllRecordsProcedure: connect.NewUnaryHandler(
			RecordServiceListAllRecordsProcedure, svc.ListAllRecords, opts...),
		RecordServiceListUnsettledRecordsForWeekProcedure: connect.NewUnaryHandler(
			RecordServiceListUnsettledRecordsForWeekProcedure, svc.ListUnsettledRecordsForWeek, opts...),
		RecordServiceDeleteRecordProcedure: connect.NewUnaryHandler(
			RecordServiceDeleteRecordProcedure, svc.DeleteRecord, opts...),
		RecordServiceListUnarchivedWeeksProcedure: connect.NewUnaryHandler(
			RecordServiceListUnarchivedWeeksProcedure, svc.ListUnarchivedWeeks, opts...),
		RecordServiceUpdateMemberPaidStatusProcedure: connect.NewUnaryHandler(
			RecordServiceUpdateMemberPaidStatusProcedure, svc.UpdateMemberPaidStatus, opts...),
		RecordServiceArchiveWeekProcedure: connect.NewUnaryHandler(
			RecordServiceArchiveWeekProcedure, svc.ArchiveWeek, opts...),
		RecordServiceSummarizeWeekProcedure: connect.NewUnaryHandler(
			RecordServiceSummarizeWeekProcedure, svc.SummarizeWeek, opts...),
		RecordServiceListOutstandingDebtsProcedure: connect.NewUnaryHandler(
			RecordServiceListOutstandingDebtsProcedure, svc.ListOutstandingDebts, opts...),
	}
	return "/" + RecordServiceName + "/", routeHandler(routes)
}

// UnimplementedRecordServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedRecordServiceHandler struct{}

func (UnimplementedRecordServiceHandler) CreateRecord(context.Context, *connect.Request[api.CreateRecordRequest]) (*connect.Response[api.StatusResponse], error) {
	return nil, unimplemented(RecordServiceCreateRecordProcedure)
}

func (UnimplementedRecordServiceHandler) ListAllRecords(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[api.ListRecordsResponse], error) {
	return nil, unimplemented(RecordServiceListAllRecordsProcedure)
}

func (UnimplementedRecordServiceHandler) ListUnsettledRecordsForWeek(context.Context, *connect.Request[api.ListUnsettledRecordsRequest]) (*connect.Response[api.ListRecordsResponse], error) {
	return nil, unimplemented(RecordServiceListUnsettledRecordsForWeekProcedure)
}

func (UnimplementedRecordServiceHandler) DeleteRecord(context.Context, *connect.Request[api.DeleteRecordRequest]) (*connect.Response[api.StatusResponse], error) {
	return nil, unimplemented(RecordServiceDeleteRecordProcedure)
}

func (UnimplementedRecordServiceHandler) ListUnarchivedWeeks(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[api.ListUnarchivedWeeksResponse], error) {
	return nil, unimplemented(RecordServiceListUnarchivedWeeksProcedure)
}

func (UnimplementedRecordServiceHandler) UpdateMemberPaidStatus(context.Context, *connect.Request[api.UpdateMemberPaidStatusRequest]) (*connect.Response[api.StatusResponse], error) {
	return nil, unimplemented(RecordServiceUpdateMemberPaidStatusProcedure)
}

func (UnimplementedRecordServiceHandler) ArchiveWeek(context.Context, *connect.Request[api.ArchiveWeekRequest]) (*connect.Response[api.StatusResponse], error) {
	return nil, unimplemented(RecordServiceArchiveWeekProcedure)
}

func (UnimplementedRecordServiceHandler) SummarizeWeek(context.Context, *connect.Request[api.SummarizeWeekRequest]) (*connect.Response[api.WeekSummary], error) {
	return nil, unimplemented(RecordServiceSummarizeWeekProcedure)
}

func (UnimplementedRecordServiceHandler) ListOutstandingDebts(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[api.ListOutstandingDebtsResponse], error) {
	return nil, unimplemented(RecordServiceListOutstandingDebtsProcedure)
}

// AuthServiceClient is a client for the weekledger.v1.AuthService service.
type AuthServiceClient interface {
	Login(context.Context, *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error)
}

// NewAuthServiceClient constructs a client for the weekledger.v1.AuthService service.
func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) AuthServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{Codec()}, opts...)
	return &authServiceClient{
		login: connect.NewClient[api.LoginRequest, api.LoginResponse](
			httpClient, baseURL+AuthServiceLoginProcedure, opts...),
	}
}

type authServiceClient struct {
	login *connect.Client[api.LoginRequest, api.LoginResponse]
}

func (c *authServiceClient) Login(ctx context.Context, req *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error) {
	return c.login.CallUnary(ctx, req)
}

// AuthServiceHandler is an implementation of the weekledger.v1.AuthService service.
type AuthServiceHandler interface {
	Login(context.Context, *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error)
}

// NewAuthServiceHandler builds an HTTP handler from the service implementation.
func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{Codec()}, opts...)
	routes := map[string]http.Handler{
		AuthServiceLoginProcedure: connect.NewUnaryHandler(AuthServiceLoginProcedure, svc.Login, opts...),
	}
	return "/" + AuthServiceName + "/", routeHandler(routes)
}

func routeHandler(routes map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}

func unimplemented(procedure string) error {
	return connect.NewError(connect.CodeUnimplemented, errors.New(procedure+" is not implemented"))
}
