package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yikao/finfeed/app/collection"
	"github.com/yikao/finfeed/app/database"
)

type fakeManager struct{}

func (m *fakeManager) CollectFrom(ctx context.Context, source string) (*collection.Result, error) {
	return &collection.Result{Source: source, Fetched: 3, New: 2, Duplicates: 1}, nil
}

func (m *fakeManager) Sources() []string {
	return []string{"jin10", "wallstreet"}
}

func newTestServer(t *testing.T) (*gin.Engine, *database.DB) {
	t.Helper()

	db, err := database.NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewConnection failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := database.RunMigrations(db); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}

	manager := &fakeManager{}
	runner := collection.NewRunner(manager, 5, time.Second)
	handler := NewHandler(
		database.NewArticleRepository(db),
		database.NewCollectionLogRepository(db),
		manager, runner, "test",
	)

	return NewServer(handler, "secret-key"), db
}

func TestHealthEndpointPublic(t *testing.T) {
	server, _ := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected ok status, got %v", body["status"])
	}
	if body["sources"] != float64(2) {
		t.Errorf("expected 2 sources, got %v", body["sources"])
	}
}

func TestAPIRequiresKey(t *testing.T) {
	server, _ := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/collect", nil)
	server.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without key, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/collect", nil)
	req.Header.Set("X-API-Key", "wrong")
	server.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with wrong key, got %d", w.Code)
	}
}

func TestAPICollectAll(t *testing.T) {
	server, _ := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/collect", nil)
	req.Header.Set("X-API-Key", "secret-key")
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Results []map[string]any `json:"results"`
		Total   int              `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Total != 2 || len(body.Results) != 2 {
		t.Fatalf("expected 2 results, got %+v", body)
	}
	if body.Results[0]["success"] != true {
		t.Errorf("expected successful result, got %+v", body.Results[0])
	}
}

func TestAPICollectSourceBearerAuth(t *testing.T) {
	server, _ := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/collect/jin10", nil)
	req.Header.Set("Authorization", "Bearer secret-key")
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["source"] != "jin10" || body["new"] != float64(2) {
		t.Errorf("unexpected result: %+v", body)
	}
}

func TestAPICollectUnknownSource(t *testing.T) {
	server, _ := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/collect/missing", nil)
	req.Header.Set("X-API-Key", "secret-key")
	server.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown source, got %d", w.Code)
	}
}

func TestAPIGetLogs(t *testing.T) {
	server, db := newTestServer(t)

	logs := database.NewCollectionLogRepository(db)
	now := time.Now().UTC()
	entry := &database.CollectionLog{
		Source:          "jin10",
		StartedAt:       now,
		FinishedAt:      now,
		Status:          database.StatusSuccess,
		ArticlesFetched: 5,
		ArticlesNew:     3,
	}
	if err := logs.Insert(context.Background(), db, entry); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/logs?source=jin10", nil)
	req.Header.Set("X-API-Key", "secret-key")
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Logs  []database.CollectionLog `json:"logs"`
		Total int                      `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Total != 1 || len(body.Logs) != 1 {
		t.Fatalf("expected 1 log, got %+v", body)
	}
	if body.Logs[0].Source != "jin10" || body.Logs[0].ArticlesNew != 3 {
		t.Errorf("unexpected log entry: %+v", body.Logs[0])
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/logs?limit=abc", nil)
	req.Header.Set("X-API-Key", "secret-key")
	server.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid limit, got %d", w.Code)
	}
}
