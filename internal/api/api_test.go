package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orrn/printbridge/internal/bridge"
	"github.com/orrn/printbridge/internal/db"
	"github.com/orrn/printbridge/internal/server"
)

type stubEnumerator struct {
	printers []bridge.Printer
}

func (s *stubEnumerator) EnumeratePrinters(ctx context.Context) ([]bridge.Printer, error) {
	return s.printers, nil
}

// db.Init is a process-wide singleton, so every test shares one database. The
// path must outlive the first test (t.TempDir is removed when that test
// ends), so create it once for the whole test binary.
var (
	testDBPath     string
	testDBPathErr  error
	testDBPathOnce sync.Once
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	testDBPathOnce.Do(func() {
		var dir string
		dir, testDBPathErr = os.MkdirTemp("", "printbridge-api-test")
		testDBPath = filepath.Join(dir, "api.db")
	})
	require.NoError(t, testDBPathErr)
	require.NoError(t, db.Init(db.Config{Path: testDBPath}))

	registry := server.NewRegistry(nil)
	enum := &stubEnumerator{printers: []bridge.Printer{
		{Name: "Zebra ZT230", IsDefault: true},
		{Name: "HP LaserJet"},
	}}

	engine, err := NewRouter("test", func() int { return 8765 }, registry, enum)
	require.NoError(t, err)
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path, body string, cookie string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var parsed map[string]any
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &parsed)
	}
	return w, parsed
}

func authenticate(t *testing.T, engine *gin.Engine) string {
	t.Helper()

	w, _ := doJSON(t, engine, http.MethodPost, "/api/auth/setup", `{"password":"secret123"}`, "")
	if w.Code == http.StatusBadRequest {
		// Setup already done by an earlier test against the shared db.
		w, _ = doJSON(t, engine, http.MethodPost, "/api/auth/login", `{"password":"secret123"}`, "")
	}
	require.Equal(t, http.StatusOK, w.Code)

	for _, c := range w.Result().Cookies() {
		if c.Name == "printbridge_auth" {
			return c.Name + "=" + c.Value
		}
	}
	t.Fatal("no auth cookie issued")
	return ""
}

func TestStatusEndpoint(t *testing.T) {
	engine := newTestRouter(t)

	w, body := doJSON(t, engine, http.MethodGet, "/status", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "running", body["status"])
	assert.Equal(t, "test", body["version"])
	assert.Equal(t, float64(8765), body["bridge_port"])
	assert.Equal(t, float64(2), body["printers"])
}

func TestHealthEndpoint(t *testing.T) {
	engine := newTestRouter(t)

	w, body := doJSON(t, engine, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestJobsRequireAuth(t *testing.T) {
	engine := newTestRouter(t)

	w, _ := doJSON(t, engine, http.MethodGet, "/api/jobs", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticatedJobListing(t *testing.T) {
	engine := newTestRouter(t)
	cookie := authenticate(t, engine)

	w, body := doJSON(t, engine, http.MethodGet, "/api/jobs", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	_, hasJobs := body["jobs"]
	assert.True(t, hasJobs)
}

func TestAuthenticatedPrinterListing(t *testing.T) {
	engine := newTestRouter(t)
	cookie := authenticate(t, engine)

	w, body := doJSON(t, engine, http.MethodGet, "/api/printers", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)

	printers, ok := body["printers"].([]any)
	require.True(t, ok)
	require.Len(t, printers, 2)

	first := printers[0].(map[string]any)
	assert.Equal(t, "Zebra ZT230", first["name"])
	assert.Equal(t, true, first["isLabel"])
}

func TestBearerTokenAuth(t *testing.T) {
	engine := newTestRouter(t)
	cookie := authenticate(t, engine)
	token := strings.TrimPrefix(cookie, "printbridge_auth=")

	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	engine := newTestRouter(t)
	authenticate(t, engine) // ensures setup happened

	w, _ := doJSON(t, engine, http.MethodPost, "/api/auth/login", `{"password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
