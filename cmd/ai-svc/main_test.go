package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/bizflow/ai-svc/internal/models"
)

func TestBuildMessage(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"coca"}, "coca"},
		{"multiple words", []string{"2", "lon", "coca"}, "2 lon coca"},
		{"single quoted phrase", []string{"2 lon coca"}, "2 lon coca"},
		{"empty args", []string{}, ""},
		{"blank args", []string{"  ", "  "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildMessage(tt.args)
			if got != tt.expected {
				t.Errorf("buildMessage(%v) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func TestLoadConfig_explicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9100\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if resolved != path {
		t.Errorf("resolved = %q, want %q", resolved, path)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("port = %d, want 9100", cfg.Server.Port)
	}
}

// chdir changes the working directory for the duration of the test.
// (*testing.T).Chdir requires Go 1.24; this toolchain is older.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}

func TestLoadConfig_missingDefaultFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if resolved != "(defaults)" {
		t.Errorf("resolved = %q", resolved)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("port = %d, want default 8000", cfg.Server.Port)
	}
}

func TestLoadConfig_cwdFallback(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("debug: true\n"), 0644); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)

	cfg, _, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if !cfg.Debug {
		t.Error("debug = false, want config.yaml from cwd to be used")
	}
}

func TestSyncViaHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/products/sync" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req models.SyncRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(models.SyncResponse{Status: "success", Count: len(req.Products)})
	}))
	defer srv.Close()

	resp, err := syncViaHTTP(srv.URL, &models.SyncRequest{
		OwnerID:  "owner-1",
		Products: []models.ProductRecord{{ID: "p1", Name: "Coca Cola", Price: 10000}},
	})
	if err != nil {
		t.Fatalf("syncViaHTTP: %v", err)
	}
	if resp.Count != 1 {
		t.Errorf("count = %d, want 1", resp.Count)
	}
}

func TestParseViaHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/parse-order" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(models.DraftOrder{
			Items:           []models.OrderItem{{ProductName: "Coca Cola", Quantity: 2}},
			OriginalMessage: "2 lon coca",
		})
	}))
	defer srv.Close()

	order, err := parseViaHTTP(srv.URL, "owner-1", "2 lon coca")
	if err != nil {
		t.Fatalf("parseViaHTTP: %v", err)
	}
	if len(order.Items) != 1 || order.Items[0].ProductName != "Coca Cola" {
		t.Errorf("order = %+v", order)
	}
}

func TestParseViaHTTP_serverError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"owner_id is required"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	if _, err := parseViaHTTP(srv.URL, "", "msg"); err == nil {
		t.Fatal("expected error")
	}
}
