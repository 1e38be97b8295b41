package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/weekledger/internal/auth"
	"github.com/mmynk/weekledger/internal/config"
	"github.com/mmynk/weekledger/internal/ledger"
	"github.com/mmynk/weekledger/internal/metrics"
	"github.com/mmynk/weekledger/internal/models"
	"github.com/mmynk/weekledger/internal/storage"
	"github.com/mmynk/weekledger/internal/storage/memory"
	"github.com/mmynk/weekledger/pkg/api"
	"github.com/mmynk/weekledger/pkg/api/apiconnect"
)

func setupTestServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	l := ledger.New(memory.New(time.Now), ledger.WithMetrics(m))

	server := httptest.NewServer(newHandler(cfg, l, m, reg))
	t.Cleanup(server.Close)
	return server
}

func TestHandler_RESTAndConnectShareState(t *testing.T) {
	server := setupTestServer(t, &config.Config{CORSAllowedOrigins: []string{"*"}})
	ctx := context.Background()

	resp, err := http.Post(server.URL+"/records", "application/json",
		strings.NewReader(`{"week":"2025-W40","buyer":"Alice","amount":12,"split_members":[]}`))
	if err != nil {
		t.Fatalf("POST /records failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /records = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Error("expected X-Request-Id header")
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected CORS header")
	}

	client := apiconnect.NewRecordServiceClient(http.DefaultClient, server.URL)
	weeks, err := client.ListUnarchivedWeeks(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		t.Fatalf("ListUnarchivedWeeks failed: %v", err)
	}
	if len(weeks.Msg.Weeks) != 1 || weeks.Msg.Weeks[0] != "2025-W40" {
		t.Errorf("unexpected weeks: %v", weeks.Msg.Weeks)
	}

	if _, err := client.ArchiveWeek(ctx, connect.NewRequest(&api.ArchiveWeekRequest{Week: "2025-W40"})); err != nil {
		t.Fatalf("ArchiveWeek failed: %v", err)
	}

	resp, err = http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer resp.Body.Close()
	var body bytes.Buffer
	body.ReadFrom(resp.Body)
	for _, want := range []string{
		"weekledger_records_created_total 1",
		`weekledger_archive_attempts_total{outcome="archived"} 1`,
		"weekledger_rpc_duration_seconds",
	} {
		if !strings.Contains(body.String(), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestHandler_AuthEnabled(t *testing.T) {
	hash, err := auth.HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	cfg := &config.Config{
		CORSAllowedOrigins: []string{"*"},
		JWTSecret:          "test-secret-key-0123456789",
		JWTTTL:             time.Hour,
		AuthUsers:          []models.User{{Name: "alice", PasswordHash: hash}},
	}
	server := setupTestServer(t, cfg)
	ctx := context.Background()

	records := apiconnect.NewRecordServiceClient(http.DefaultClient, server.URL)
	if _, err := records.ListAllRecords(ctx, connect.NewRequest(&emptypb.Empty{})); connect.CodeOf(err) != connect.CodeUnauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}

	login, err := apiconnect.NewAuthServiceClient(http.DefaultClient, server.URL).
		Login(ctx, connect.NewRequest(&api.LoginRequest{Username: "alice", Password: "correct horse"}))
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	req := connect.NewRequest(&emptypb.Empty{})
	req.Header().Set("Authorization", "Bearer "+login.Msg.Token)
	if _, err := records.ListAllRecords(ctx, req); err != nil {
		t.Errorf("ListAllRecords with token failed: %v", err)
	}

	resp, err := http.Get(server.URL + "/records")
	if err != nil {
		t.Fatalf("GET /records failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("GET /records without token = %d, want 401", resp.StatusCode)
	}
}

func TestHashPasswordCmd(t *testing.T) {
	cmd := hashPasswordCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("correct horse\n"))
	cmd.SetArgs([]string{})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	hash := strings.TrimSpace(out.String())
	if !strings.HasPrefix(hash, "$2a$") {
		t.Errorf("unexpected hash %q", hash)
	}

	users := auth.NewStaticUsers([]models.User{{Name: "alice", PasswordHash: hash}})
	if _, err := auth.NewPasswordAuthenticator(users).Authenticate(context.Background(), "alice", "correct horse"); err != nil {
		t.Errorf("hash does not verify: %v", err)
	}
}

func TestOpenStore_UnavailableDatabase(t *testing.T) {
	// the parent of the database path is a regular file, so opening fails
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, nil, 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	cfg := &config.Config{
		DataBackend:        config.BackendSQLite,
		DBPath:             filepath.Join(blocker, "database.db"),
		CORSAllowedOrigins: []string{"*"},
	}

	store := openStore(cfg)
	defer store.Close()

	if _, err := store.ListRecords(context.Background()); !errors.Is(err, storage.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	server := httptest.NewServer(newHandler(cfg, ledger.New(store, ledger.WithMetrics(m)), m, reg))
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/records")
	if err != nil {
		t.Fatalf("GET /records failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("GET /records = %d, want 500", resp.StatusCode)
	}
}
