package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firlift/firlift/constants"
	"github.com/firlift/firlift/internal/export"
	"github.com/firlift/firlift/internal/extract"
	"github.com/firlift/firlift/internal/history"
	"github.com/firlift/firlift/internal/transport"
	"github.com/firlift/firlift/internal/uploader"
)

func newTestServer(t *testing.T, backendURL string) (*echo.Echo, *uploader.Orchestrator) {
	t.Helper()

	client := transport.NewClient(backendURL, 5*time.Second, nil)
	hist := history.NewStore(20, nil, nil)
	orch := uploader.NewOrchestrator(client, nil, hist, uploader.NewEstimator(10, 10*time.Millisecond), uploader.Config{
		UploadTimeout: 5 * time.Second,
		ResetDelay:    time.Second,
	}, nil)
	exporter := export.NewService(hist, nil)

	h, err := NewHandler(orch, exporter, t.TempDir(), nil)
	require.NoError(t, err)

	e := echo.New()
	SetupMiddleware(e)
	RegisterRoutes(e, h)
	return e, orch
}

func multipartBody(t *testing.T, filename string, contents []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(contents)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func waitForTerminal(t *testing.T, orch *uploader.Orchestrator) uploader.Session {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		s := orch.Session()
		if s.Status.Terminal() {
			return s
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("upload never reached a terminal state: %+v", orch.Session())
	return uploader.Session{}
}

func TestUploadDocumentAccepted(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"filename":"fir.pdf","raw_urdu_text":"متن"}`))
	}))
	defer backend.Close()

	e, orch := newTestServer(t, backend.URL)
	body, ctype := multipartBody(t, "fir.pdf", []byte("%PDF-1.4"))

	req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
	req.Header.Set(echo.HeaderContentType, ctype)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var session uploader.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	assert.Equal(t, constants.UploadStatusInFlight, session.Status)

	final := waitForTerminal(t, orch)
	assert.Equal(t, constants.UploadStatusSucceeded, final.Status)

	// Result and history endpoints now serve the normalized record.
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/result", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var result extract.UploadResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.NotNil(t, result.Filename)
	assert.Equal(t, "fir.pdf", *result.Filename)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var list []extract.UploadResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, result.ID, list[0].ID)
}

func TestUploadSpoolRemovedAfterCompletion(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"raw_urdu_text":"متن"}`))
	}))
	defer backend.Close()

	client := transport.NewClient(backend.URL, 5*time.Second, nil)
	hist := history.NewStore(20, nil, nil)
	orch := uploader.NewOrchestrator(client, nil, hist, uploader.NewEstimator(10, 10*time.Millisecond), uploader.Config{
		UploadTimeout: 5 * time.Second,
		ResetDelay:    time.Second,
	}, nil)

	spoolDir := t.TempDir()
	h, err := NewHandler(orch, export.NewService(hist, nil), spoolDir, nil)
	require.NoError(t, err)

	e := echo.New()
	SetupMiddleware(e)
	RegisterRoutes(e, h)

	body, ctype := multipartBody(t, "fir.jpg", []byte("jpeg"))
	req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
	req.Header.Set(echo.HeaderContentType, ctype)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	waitForTerminal(t, orch)
	require.Eventually(t, func() bool {
		leftovers, globErr := filepath.Glob(filepath.Join(spoolDir, "doc-*"))
		return globErr == nil && len(leftovers) == 0
	}, time.Second, 10*time.Millisecond, "spooled upload must be removed once the transaction finishes")
}

func TestUploadDocumentRejectsExtension(t *testing.T) {
	e, _ := newTestServer(t, "http://127.0.0.1:0")
	body, ctype := multipartBody(t, "notes.txt", []byte("plain text"))

	req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
	req.Header.Set(echo.HeaderContentType, ctype)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var apiErr APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, "BAD_REQUEST", apiErr.Code)
}

func TestUploadDocumentRequiresFile(t *testing.T) {
	e, _ := newTestServer(t, "http://127.0.0.1:0")

	req := httptest.NewRequest(http.MethodPost, "/api/documents", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadDocumentConflictWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte(`{"raw_urdu_text":"متن"}`))
	}))
	defer backend.Close()
	defer close(release)

	e, _ := newTestServer(t, backend.URL)
	body, ctype := multipartBody(t, "a.jpg", []byte("jpeg"))
	req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
	req.Header.Set(echo.HeaderContentType, ctype)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	body, ctype = multipartBody(t, "b.jpg", []byte("jpeg"))
	req = httptest.NewRequest(http.MethodPost, "/api/documents", body)
	req.Header.Set(echo.HeaderContentType, ctype)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)

	var apiErr APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, "CONFLICT", apiErr.Code)
}

func TestCurrentResultNotFound(t *testing.T) {
	e, _ := newTestServer(t, "http://127.0.0.1:0")

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/result", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistoryEntryNotFound(t *testing.T) {
	e, _ := newTestServer(t, "http://127.0.0.1:0")

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/history/nope/select", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistoryExportDownload(t *testing.T) {
	e, _ := newTestServer(t, "http://127.0.0.1:0")

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history/export", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "fir_history.xlsx")
	assert.NotEmpty(t, rec.Body.Bytes())
}

func TestHealth(t *testing.T) {
	e, _ := newTestServer(t, "http://127.0.0.1:0")

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
