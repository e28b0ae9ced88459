package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/groundcheck/groundcheck/internal/config"
	"github.com/groundcheck/groundcheck/internal/db"
	"github.com/groundcheck/groundcheck/internal/smoke"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.Open(config.HistoryConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	return gdb
}

func seedRun(t *testing.T, gdb *gorm.DB, passed bool) {
	t.Helper()
	report := &smoke.Report{
		Endpoint:   "https://acct.services.ai.azure.com/api/projects/proj",
		Model:      "gpt-4o",
		StartedAt:  time.Now().Add(-time.Minute),
		FinishedAt: time.Now(),
		Scenarios: []smoke.ScenarioReport{
			{Name: smoke.ScenarioNoGrounding, Passed: passed, Classification: smoke.ClassPass, Attempts: 3},
		},
	}
	if !passed {
		report.Scenarios[0].Classification = smoke.ClassTimeout
	}
	if _, err := db.SaveReport(gdb, "manual", report); err != nil {
		t.Fatalf("seed run: %v", err)
	}
}

func TestStart_NilDB(t *testing.T) {
	err := Start(context.Background(), StartOpts{DB: nil})
	if err == nil {
		t.Fatal("expected error for nil db")
	}
	if !strings.Contains(err.Error(), "db is required") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "db is required")
	}
}

func TestIndexPage(t *testing.T) {
	gdb := testDB(t)
	seedRun(t, gdb, true)
	router, err := newRouter(gdb)
	if err != nil {
		t.Fatalf("newRouter: %v", err)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "PASS") || !strings.Contains(body, "gpt-4o") {
		t.Fatalf("index missing run row:\n%s", body)
	}
}

func TestIndexPageEmpty(t *testing.T) {
	router, err := newRouter(testDB(t))
	if err != nil {
		t.Fatalf("newRouter: %v", err)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(rec.Body.String(), "No runs recorded yet") {
		t.Fatalf("empty state missing:\n%s", rec.Body.String())
	}
}

func TestRunListAPI(t *testing.T) {
	gdb := testDB(t)
	seedRun(t, gdb, true)
	seedRun(t, gdb, false)
	router, err := newRouter(gdb)
	if err != nil {
		t.Fatalf("newRouter: %v", err)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs?limit=1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var payload struct {
		Runs []struct {
			ID     uint
			Passed bool
		}
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Runs) != 1 {
		t.Fatalf("runs = %d, want 1 (limit)", len(payload.Runs))
	}
	// Newest first: the failed run was saved last.
	if payload.Runs[0].Passed {
		t.Fatal("expected the newest (failed) run first")
	}
}

func TestRunDetailAPI(t *testing.T) {
	gdb := testDB(t)
	seedRun(t, gdb, true)
	router, err := newRouter(gdb)
	if err != nil {
		t.Fatalf("newRouter: %v", err)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/999", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing run status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/bogus", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id status = %d, want 400", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	router, err := newRouter(testDB(t))
	if err != nil {
		t.Fatalf("newRouter: %v", err)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}
