package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/mmynk/weekledger/internal/auth"
	"github.com/mmynk/weekledger/internal/ledger"
	"github.com/mmynk/weekledger/internal/models"
	"github.com/mmynk/weekledger/internal/storage/memory"
)

func setupTestServer(t *testing.T, jwtManager *auth.JWTManager) *httptest.Server {
	t.Helper()
	l := ledger.New(memory.New(time.Now))
	server := httptest.NewServer(NewHandler(l, jwtManager))
	t.Cleanup(server.Close)
	return server
}

func do(t *testing.T, method, url, body string, header ...string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	return resp, buf.Bytes()
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("invalid JSON %q: %v", data, err)
	}
	return v
}

func TestArchiveScenario(t *testing.T) {
	server := setupTestServer(t, nil)

	resp, body := do(t, http.MethodPost, server.URL+"/records",
		`{"week":"2025-W40","buyer":"Alice","description":"","amount":30.0,"split_members":[{"name":"Alice","paid":true},{"name":"Bob","paid":false}]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /records = %d %s", resp.StatusCode, body)
	}
	created := decode[map[string]any](t, body)
	if created["status"] != "ok" {
		t.Errorf("unexpected response %s", body)
	}
	id := int64(created["id"].(float64))

	resp, body = do(t, http.MethodPatch, server.URL+"/records/archive/2025-W40", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("archive unsettled = %d %s, want 400", resp.StatusCode, body)
	}
	if detail := decode[map[string]string](t, body)["detail"]; !strings.Contains(detail, "not all split members have paid") {
		t.Errorf("unexpected detail %q", detail)
	}

	resp, body = do(t, http.MethodPatch, server.URL+"/records/"+itoa(id), `{"name":"Bob","paid":true}`)
	if resp.StatusCode != http.StatusOK || decode[map[string]string](t, body)["status"] != "updated" {
		t.Fatalf("PATCH /records/%d = %d %s", id, resp.StatusCode, body)
	}

	resp, body = do(t, http.MethodPatch, server.URL+"/records/archive/2025-W40", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("archive settled = %d %s", resp.StatusCode, body)
	}
	got := decode[map[string]string](t, body)
	if got["status"] != "archived" || got["week"] != "2025-W40" {
		t.Errorf("unexpected response %s", body)
	}

	resp, body = do(t, http.MethodPatch, server.URL+"/records/"+itoa(id), `{"name":"Bob","paid":false}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("update archived = %d %s, want 400", resp.StatusCode, body)
	}

	resp, body = do(t, http.MethodGet, server.URL+"/weeks/unarchived", "")
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(body)) != "[]" {
		t.Errorf("GET /weeks/unarchived = %d %s", resp.StatusCode, body)
	}
}

func TestRecordRoutes(t *testing.T) {
	server := setupTestServer(t, nil)

	for _, week := range []string{"2025-W39", "2025-W41", "2025-W40"} {
		resp, body := do(t, http.MethodPost, server.URL+"/records",
			`{"week":"`+week+`","buyer":"Alice","description":"Milk","amount":3.5,"split_members":[{"name":"Bob","paid":0,"note":"x"}]}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("POST /records = %d %s", resp.StatusCode, body)
		}
	}

	resp, body := do(t, http.MethodGet, server.URL+"/records", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /records = %d", resp.StatusCode)
	}
	records := decode[[]map[string]any](t, body)
	if len(records) != 3 || records[0]["week"] != "2025-W41" || records[2]["week"] != "2025-W39" {
		t.Errorf("unexpected order: %s", body)
	}
	first := records[0]
	if first["is_archived"] != false || first["description"] != "Milk" || first["created_at"] == "" {
		t.Errorf("unexpected record view: %v", first)
	}
	members := first["split_members"].([]any)
	if m := members[0].(map[string]any); m["paid"] != false || m["note"] != "x" {
		t.Errorf("unexpected member: %v", m)
	}

	resp, body = do(t, http.MethodGet, server.URL+"/records/2025-W40", "")
	if got := decode[[]map[string]any](t, body); resp.StatusCode != http.StatusOK || len(got) != 1 {
		t.Errorf("GET /records/2025-W40 = %d %s", resp.StatusCode, body)
	}

	resp, body = do(t, http.MethodGet, server.URL+"/weeks/unarchived", "")
	weeks := decode[[]string](t, body)
	if len(weeks) != 3 || weeks[0] != "2025-W41" {
		t.Errorf("GET /weeks/unarchived = %v", weeks)
	}

	id := itoa(int64(first["id"].(float64)))
	resp, body = do(t, http.MethodDelete, server.URL+"/records/"+id, "")
	if resp.StatusCode != http.StatusOK || decode[map[string]string](t, body)["status"] != "deleted" {
		t.Errorf("DELETE = %d %s", resp.StatusCode, body)
	}
}

func TestErrors(t *testing.T) {
	server := setupTestServer(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"delete missing record", http.MethodDelete, "/records/999", "", http.StatusNotFound},
		{"delete non-integer id", http.MethodDelete, "/records/abc", "", http.StatusUnprocessableEntity},
		{"archive empty week", http.MethodPatch, "/records/archive/1999-W01", "", http.StatusNotFound},
		{"update missing record", http.MethodPatch, "/records/999", `{"name":"Bob","paid":true}`, http.StatusNotFound},
		{"update without paid", http.MethodPatch, "/records/1", `{"name":"Bob"}`, http.StatusUnprocessableEntity},
		{"create malformed body", http.MethodPost, "/records", `{"week":`, http.StatusUnprocessableEntity},
		{"create without body", http.MethodPost, "/records", "", http.StatusUnprocessableEntity},
		{"create negative amount", http.MethodPost, "/records", `{"week":"W","buyer":"A","amount":-1}`, http.StatusUnprocessableEntity},
		{"summary of empty week", http.MethodGet, "/weeks/1999-W01/summary", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, tt.method, server.URL+tt.path, tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d (%s)", resp.StatusCode, tt.want, body)
			}
			if decode[map[string]string](t, body)["detail"] == "" {
				t.Errorf("expected detail in %s", body)
			}
		})
	}
}

func TestDebtsAndSummary(t *testing.T) {
	server := setupTestServer(t, nil)

	do(t, http.MethodPost, server.URL+"/records",
		`{"week":"2025-W40","buyer":"Alice","amount":30,"split_members":[{"name":"Alice","paid":true},{"name":"Bob","paid":false},{"name":"Carol","paid":false}]}`)

	resp, body := do(t, http.MethodGet, server.URL+"/debts", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /debts = %d %s", resp.StatusCode, body)
	}
	debts := decode[struct {
		Debts []struct {
			From, To, Amount string
		} `json:"debts"`
	}](t, body)
	if len(debts.Debts) != 2 || debts.Debts[0].From != "Bob" || debts.Debts[0].Amount != "10" {
		t.Errorf("unexpected debts: %s", body)
	}

	resp, body = do(t, http.MethodGet, server.URL+"/weeks/2025-W40/summary", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET summary = %d %s", resp.StatusCode, body)
	}
	sum := decode[map[string]any](t, body)
	if sum["total"] != "30" || sum["settled"] != false || sum["records"] != float64(1) {
		t.Errorf("unexpected summary: %s", body)
	}
}

func TestAuthRequired(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret-key-0123456789", time.Hour)
	server := setupTestServer(t, jwtManager)

	resp, _ := do(t, http.MethodGet, server.URL+"/records", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("GET /records without token = %d, want 401", resp.StatusCode)
	}

	resp, _ = do(t, http.MethodGet, server.URL+"/healthz", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /healthz = %d, want 200", resp.StatusCode)
	}

	token, _, err := jwtManager.Generate(&models.User{Name: "alice"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	resp, body := do(t, http.MethodGet, server.URL+"/records", "", "Authorization", "Bearer "+token)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /records with token = %d %s", resp.StatusCode, body)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
