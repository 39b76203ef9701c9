// internal/server/handlers_test.go
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/speedsheet/speedsheet/internal/config"
	"github.com/speedsheet/speedsheet/internal/pipeline"
	"github.com/speedsheet/speedsheet/internal/store"
)

type stubProcessor struct {
	result *pipeline.BatchResult
	err    error
	urls   []string
	ctxErr error
}

func (s *stubProcessor) Process(ctx context.Context, urls []string) (*pipeline.BatchResult, error) {
	s.urls = urls
	s.ctxErr = ctx.Err()
	return s.result, s.err
}

type stubReports struct {
	path string
	err  error
}

func (s *stubReports) Assemble(shots []pipeline.Shot) (string, error) {
	return s.path, s.err
}

type stubStatus struct {
	checks []store.StatusCheck
	err    error
}

func (s *stubStatus) CreateStatusCheck(clientName string) (*store.StatusCheck, error) {
	if s.err != nil {
		return nil, s.err
	}
	check := store.StatusCheck{ID: "test-id", ClientName: clientName, Timestamp: time.Now().UTC()}
	s.checks = append(s.checks, check)
	return &check, nil
}

func (s *stubStatus) ListStatusChecks() ([]store.StatusCheck, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.checks, nil
}

func testServer(t *testing.T, h *Handler) *Server {
	t.Helper()
	cfg := &config.Config{
		ListenAddr:  ":0",
		CORSOrigins: []string{"*"},
	}
	return New(cfg, h)
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestHello(t *testing.T) {
	srv := testServer(t, &Handler{Status: &stubStatus{}})

	rec := doJSON(t, srv, http.MethodGet, "/api/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["message"] != "Hello World" {
		t.Errorf("message = %q", body["message"])
	}
}

func TestStatusRoundTrip(t *testing.T) {
	status := &stubStatus{}
	srv := testServer(t, &Handler{Status: status})

	rec := doJSON(t, srv, http.MethodPost, "/api/status", map[string]string{"client_name": "tester"})
	if rec.Code != http.StatusOK {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	var created store.StatusCheck
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if created.ClientName != "tester" || created.ID == "" {
		t.Errorf("unexpected record: %+v", created)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var listed []store.StatusCheck
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(listed) != 1 || listed[0].ClientName != "tester" {
		t.Errorf("unexpected list: %+v", listed)
	}
}

func TestCreateStatus_MissingClientName(t *testing.T) {
	srv := testServer(t, &Handler{Status: &stubStatus{}})

	rec := doJSON(t, srv, http.MethodPost, "/api/status", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestProcessSpeedtest_Success(t *testing.T) {
	proc := &stubProcessor{result: &pipeline.BatchResult{
		Shots: []pipeline.Shot{
			{URL: "https://www.speedtest.net/my-result/a/1", Image: []byte("png")},
			{URL: "https://www.speedtest.net/my-result/a/2", Image: []byte("png")},
		},
		Errors: []string{"Invalid URL: junk"},
	}}
	srv := testServer(t, &Handler{
		Processor: proc,
		Reports:   &stubReports{path: "/tmp/reports/speedtest_results_20250101_000000.xlsx"},
		Status:    &stubStatus{},
	})

	rec := doJSON(t, srv, http.MethodPost, "/api/process-speedtest", map[string]any{
		"urls": []string{"https://www.speedtest.net/my-result/a/1", "https://www.speedtest.net/my-result/a/2", "junk"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success  bool     `json:"success"`
		Message  string   `json:"message"`
		FilePath string   `json:"file_path"`
		Errors   []string `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !resp.Success {
		t.Error("expected success")
	}
	if resp.Message != "Successfully processed 2 URLs" {
		t.Errorf("message = %q", resp.Message)
	}
	if !strings.HasSuffix(resp.FilePath, ".xlsx") {
		t.Errorf("file_path = %q", resp.FilePath)
	}
	if len(resp.Errors) != 1 || resp.Errors[0] != "Invalid URL: junk" {
		t.Errorf("errors = %v", resp.Errors)
	}
	if len(proc.urls) != 3 {
		t.Errorf("processor received %d urls", len(proc.urls))
	}
}

func TestProcessSpeedtest_ValidationFailures(t *testing.T) {
	cases := []struct {
		name       string
		err        *pipeline.BatchError
		wantStatus int
		wantDetail string
	}{
		{
			name:       "no urls",
			err:        &pipeline.BatchError{Code: pipeline.FailNoURLs, Detail: "No URLs provided"},
			wantStatus: http.StatusBadRequest,
			wantDetail: "No URLs provided",
		},
		{
			name:       "no valid urls",
			err:        &pipeline.BatchError{Code: pipeline.FailNoValidURLs, Detail: "No valid speedtest.net URLs found"},
			wantStatus: http.StatusBadRequest,
			wantDetail: "No valid speedtest.net URLs found",
		},
		{
			name:       "exhaustion",
			err:        &pipeline.BatchError{Code: pipeline.FailNoCaptures, Detail: "Failed to capture any screenshots"},
			wantStatus: http.StatusInternalServerError,
			wantDetail: "Failed to capture any screenshots",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := testServer(t, &Handler{
				Processor: &stubProcessor{err: tc.err},
				Reports:   &stubReports{},
				Status:    &stubStatus{},
			})

			rec := doJSON(t, srv, http.MethodPost, "/api/process-speedtest", map[string]any{"urls": []string{"x"}})
			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if body["detail"] != tc.wantDetail {
				t.Errorf("detail = %q, want %q", body["detail"], tc.wantDetail)
			}
		})
	}
}

func TestProcessSpeedtest_SurvivesClientDisconnect(t *testing.T) {
	// A dropped connection cancels the request context; the batch must keep
	// running on an uncancelled context so completed captures are not lost.
	proc := &stubProcessor{result: &pipeline.BatchResult{
		Shots: []pipeline.Shot{{URL: "https://www.speedtest.net/my-result/a/1", Image: []byte("png")}},
	}}
	srv := testServer(t, &Handler{
		Processor: proc,
		Reports:   &stubReports{path: "/tmp/reports/out.xlsx"},
		Status:    &stubStatus{},
	})

	raw, err := json.Marshal(map[string]any{"urls": []string{"https://www.speedtest.net/my-result/a/1"}})
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/process-speedtest", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if proc.ctxErr != nil {
		t.Errorf("batch context was cancelled: %v", proc.ctxErr)
	}
}

func TestProcessSpeedtest_AssemblyFailure(t *testing.T) {
	srv := testServer(t, &Handler{
		Processor: &stubProcessor{result: &pipeline.BatchResult{
			Shots: []pipeline.Shot{{URL: "https://www.speedtest.net/my-result/a/1", Image: []byte("png")}},
		}},
		Reports: &stubReports{err: errors.New("disk full")},
		Status:  &stubStatus{},
	})

	rec := doJSON(t, srv, http.MethodPost, "/api/process-speedtest", map[string]any{"urls": []string{"x"}})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !strings.HasPrefix(body["detail"], "Error creating Excel file: ") {
		t.Errorf("detail = %q", body["detail"])
	}
}

func TestDownload(t *testing.T) {
	dir := t.TempDir()
	content := []byte("workbook-bytes")
	if err := os.WriteFile(filepath.Join(dir, "report.xlsx"), content, 0o644); err != nil {
		t.Fatalf("failed to seed report: %v", err)
	}

	srv := testServer(t, &Handler{Status: &stubStatus{}, ReportsDir: dir})

	rec := doJSON(t, srv, http.MethodGet, "/api/download/report.xlsx", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != xlsxMIME {
		t.Errorf("content type = %q", got)
	}
	if !bytes.Equal(rec.Body.Bytes(), content) {
		t.Error("served bytes do not match the file")
	}
}

func TestDownload_NotFound(t *testing.T) {
	srv := testServer(t, &Handler{Status: &stubStatus{}, ReportsDir: t.TempDir()})

	rec := doJSON(t, srv, http.MethodGet, "/api/download/missing.xlsx", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["detail"] != "File not found" {
		t.Errorf("detail = %q", body["detail"])
	}
}

func TestDownload_RejectsPathEscape(t *testing.T) {
	dir := t.TempDir()
	secret := filepath.Join(dir, "secret.txt")
	if err := os.WriteFile(secret, []byte("secret"), 0o644); err != nil {
		t.Fatalf("failed to seed file: %v", err)
	}

	srv := testServer(t, &Handler{Status: &stubStatus{}, ReportsDir: filepath.Join(dir, "reports")})

	rec := doJSON(t, srv, http.MethodGet, "/api/download/..%2Fsecret.txt", nil)
	if rec.Code == http.StatusOK {
		t.Error("path escape must not be served")
	}
}
