package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iwvelando/capital-budget/internal/telemetry"
	"github.com/iwvelando/capital-budget/pkg/constants"
	"github.com/iwvelando/capital-budget/pkg/output"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	return NewHandler(zap.NewNop(), Options{MaxUploadSize: constants.DefaultMaxUploadSizeBytes})
}

func TestHandleCalculateSuccess(t *testing.T) {
	handler := newTestHandler(t)

	payload := map[string]interface{}{
		"names": []string{"Solar", "Fleet"},
		"cashFlows": [][]interface{}{
			{"-100", "20", "20", "20"},
			{-100, 50, "50", 50},
		},
	}
	rr := performJSON(t, handler, payload, "/api/calculate")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp output.Response
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.DiscountRate != constants.DefaultDiscountRate {
		t.Errorf("expected default discount rate, got %v", resp.DiscountRate)
	}
	if len(resp.Projects) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(resp.Projects))
	}
	if resp.Projects[0].Results.Payback != "Not achieved" {
		t.Errorf("expected payback not achieved, got %q", resp.Projects[0].Results.Payback)
	}
	if resp.Projects[1].Results.ROI != "12.50%" || resp.Projects[1].Results.NPV != "24.34" {
		t.Errorf("unexpected fleet results %+v", resp.Projects[1].Results)
	}
	if resp.Best == nil || resp.Best.Number != 2 || resp.Best.Name != "Fleet" {
		t.Errorf("unexpected best project %+v", resp.Best)
	}
	if resp.Duration == "" {
		t.Error("expected duration in response")
	}
	if rr.Header().Get(RequestIDHeader) == "" {
		t.Error("expected a request id header")
	}
}

func TestHandleCalculateResizesGrid(t *testing.T) {
	handler := newTestHandler(t)

	payload := map[string]interface{}{
		"discountRate": 0,
		"projects":     2,
		"years":        3,
		"cashFlows": [][]interface{}{
			{-100, 60, 60, 60, 60},
			{"", nil, "oops"},
			{-1, 2, 3},
		},
	}
	rr := performJSON(t, handler, payload, "/api/calculate")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp output.Response
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(resp.Projects) != 2 {
		t.Fatalf("expected rows beyond the project count to be dropped, got %d projects", len(resp.Projects))
	}
	if got := resp.Projects[0].CashFlows; len(got) != 3 || got[2] != 60 {
		t.Errorf("expected first project truncated to 3 years, got %v", got)
	}
	if resp.Projects[0].Results.NPV != "20.00" {
		t.Errorf("expected NPV at zero rate to be the plain sum, got %q", resp.Projects[0].Results.NPV)
	}
	if resp.Projects[1].Name != "Project 2" {
		t.Errorf("expected default project name, got %q", resp.Projects[1].Name)
	}
	if resp.Projects[1].Failures["roi"] != "no_cash_flows" {
		t.Errorf("expected ROI failure code, got %v", resp.Projects[1].Failures)
	}
	if len(resp.Warnings) != 1 || !strings.Contains(resp.Warnings[0], "oops") {
		t.Errorf("expected a warning for the non-numeric cell, got %v", resp.Warnings)
	}
}

func TestHandleCalculateInvalidRequests(t *testing.T) {
	handler := newTestHandler(t)

	tests := []struct {
		name    string
		payload map[string]interface{}
		message string
	}{
		{
			name:    "Empty grid",
			payload: map[string]interface{}{},
			message: "number of projects",
		},
		{
			name:    "Invalid discount rate",
			payload: map[string]interface{}{"discountRate": -1, "cashFlows": [][]interface{}{{-1, 2}}},
			message: "discount rate",
		},
		{
			name:    "Too many years",
			payload: map[string]interface{}{"years": constants.MaxYears + 1, "cashFlows": [][]interface{}{{-1, 2}}},
			message: "number of years",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := performJSON(t, handler, tt.payload, "/api/calculate")
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
			}
			var resp map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode error response: %v", err)
			}
			if !strings.Contains(resp["error"], tt.message) {
				t.Errorf("expected error containing %q, got %q", tt.message, resp["error"])
			}
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/calculate", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for malformed JSON, got %d", rr.Code)
	}
}

func TestHandleCalculateIsIdempotent(t *testing.T) {
	handler := newTestHandler(t)
	payload := map[string]interface{}{
		"cashFlows": [][]interface{}{{-1000, 300, 300, 300, 300}},
	}

	first := decodeResults(t, performJSON(t, handler, payload, "/api/calculate"))
	second := decodeResults(t, performJSON(t, handler, payload, "/api/calculate"))

	if first != second {
		t.Fatalf("expected identical results, got %+v and %+v", first, second)
	}
	if first.NPV != "-49.04" || first.IRR != "7.71%" {
		t.Errorf("unexpected results %+v", first)
	}
}

func TestHandleEvaluateSuccess(t *testing.T) {
	handler := newTestHandler(t)

	data, err := os.ReadFile(filepath.Join("..", "..", constants.ExampleConfigFile))
	if err != nil {
		t.Fatalf("failed to read example config: %v", err)
	}

	rr := performUpload(t, handler, string(data), "config.yaml")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp output.Response
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Projects) != 3 {
		t.Fatalf("expected 3 projects, got %d", len(resp.Projects))
	}
	if resp.Best == nil || resp.Best.Name != "Delivery fleet" {
		t.Errorf("unexpected best project %+v", resp.Best)
	}
}

func TestHandleEvaluateIgnoresOutputFormat(t *testing.T) {
	handler := newTestHandler(t)

	upload := "output:\n  format: xml\nprojects:\n  - name: A\n    cashFlows: [-100, 110]\n"
	rr := performUpload(t, handler, upload, "config.yaml")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHandleCalculateUsesConfiguredDiscountRate(t *testing.T) {
	handler := NewHandler(zap.NewNop(), Options{DiscountRate: 0.05})

	payload := map[string]interface{}{
		"cashFlows": [][]interface{}{{-100, 105}},
	}
	rr := performJSON(t, handler, payload, "/api/calculate")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp output.Response
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.DiscountRate != 0.05 {
		t.Errorf("expected the configured discount rate 0.05, got %v", resp.DiscountRate)
	}
	if resp.Projects[0].Results.NPV != "0.00" {
		t.Errorf("expected NPV 0.00 at 5%%, got %q", resp.Projects[0].Results.NPV)
	}
}

func TestHandleEvaluateInvalidYAML(t *testing.T) {
	handler := newTestHandler(t)

	rr := performUpload(t, handler, "projects: [", "config.yaml")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}

	rr = performUpload(t, handler, "discountRate: 0.1\n", "config.yaml")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for a config without projects, got %d", rr.Code)
	}
}

func TestHandleEvaluateUploadTooLarge(t *testing.T) {
	handler := NewHandler(zap.NewNop(), Options{MaxUploadSize: 64})

	rr := performUpload(t, handler, strings.Repeat("a", 128), "config.yaml")

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d", rr.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if !strings.Contains(resp["error"], "upload exceeds limit") {
		t.Fatalf("expected upload limit error message, got %q", resp["error"])
	}
}

func TestHandleEvaluateMissingFile(t *testing.T) {
	handler := newTestHandler(t)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("other", "value"); err != nil {
		t.Fatalf("failed to write field: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/evaluate", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleConfigExport(t *testing.T) {
	handler := newTestHandler(t)

	payload := map[string]interface{}{
		"projects":     []interface{}{map[string]interface{}{"name": "A", "cashFlows": []interface{}{-100, 110}}},
		"discountRate": 0.08,
		"zeta":         true,
		"logging":      map[string]interface{}{"level": "debug"},
	}
	rr := performJSON(t, handler, payload, "/api/export")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	exported := resp["configYaml"]

	order := []string{"logging:", "discountRate:", "projects:", "zeta:"}
	last := -1
	for _, key := range order {
		idx := strings.Index(exported, key)
		if idx < 0 {
			t.Fatalf("expected %q in exported YAML:\n%s", key, exported)
		}
		if idx < last {
			t.Fatalf("expected %q after previous keys in exported YAML:\n%s", key, exported)
		}
		last = idx
	}

	var roundTrip map[string]interface{}
	if err := yaml.Unmarshal([]byte(exported), &roundTrip); err != nil {
		t.Fatalf("exported YAML is invalid: %v", err)
	}
	if roundTrip["discountRate"] != 0.08 {
		t.Errorf("expected discountRate 0.08, got %v", roundTrip["discountRate"])
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newTestHandler(t)

	for _, path := range []string{"/api/calculate", "/api/evaluate", "/api/export"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s: expected status 405, got %d", path, rr.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/version", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("/api/version: expected status 405, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/unknown", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Errorf("/api/unknown: expected status 404, got %d", rr.Code)
	}
}

func TestHandleVersion(t *testing.T) {
	handler := NewHandler(zap.NewNop(), Options{Version: " 1.2.3 "})

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["version"] != "1.2.3" {
		t.Fatalf("expected version 1.2.3, got %q", resp["version"])
	}

	defaultHandler := newTestHandler(t)
	rr = httptest.NewRecorder()
	defaultHandler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/version", nil))
	if !strings.Contains(rr.Body.String(), `"dev"`) {
		t.Fatalf("expected dev version, got %s", rr.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	recorder, err := telemetry.NewRecorder(reg)
	if err != nil {
		t.Fatalf("NewRecorder() error = %v", err)
	}
	handler := NewHandler(zap.NewNop(), Options{Recorder: recorder, Gatherer: reg})

	payload := map[string]interface{}{"cashFlows": [][]interface{}{{0, 0}}}
	if rr := performJSON(t, handler, payload, "/api/calculate"); rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200 for metrics, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, fragment := range []string{
		"capital_budget_evaluations_total 1",
		`capital_budget_metric_failures_total{metric="roi",reason="no_cash_flows"} 1`,
		`capital_budget_http_requests_total{path="/api/calculate",status="200"} 1`,
	} {
		if !strings.Contains(body, fragment) {
			t.Errorf("expected metrics to contain %q", fragment)
		}
	}
}

func TestStaticAssetsServed(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200 for index, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Financial Calculator") {
		t.Fatalf("expected HTML body to contain title, got %q", rr.Body.String())
	}

	jsReq := httptest.NewRequest(http.MethodGet, "/app.js", nil)
	jsRR := httptest.NewRecorder()
	handler.ServeHTTP(jsRR, jsReq)
	if jsRR.Code != http.StatusOK {
		t.Fatalf("expected status 200 for app.js, got %d", jsRR.Code)
	}
	if !strings.Contains(jsRR.Body.String(), "api/calculate") {
		t.Fatalf("expected script to call the calculate API")
	}
}

func TestRouteLabel(t *testing.T) {
	tests := map[string]string{
		"/api/calculate": "/api/calculate",
		"/metrics":       "/metrics",
		"/api/unknown":   "/api/other",
		"/":              "static",
		"/app.js":        "static",
	}
	for path, expected := range tests {
		if got := routeLabel(path); got != expected {
			t.Errorf("routeLabel(%q) = %q, expected %q", path, got, expected)
		}
	}
}

func TestCoerceCell(t *testing.T) {
	tests := []struct {
		input    interface{}
		expected string
	}{
		{nil, ""},
		{"-100", "-100"},
		{json.Number("12.5"), "12.5"},
		{float64(300), "300"},
		{true, "true"},
		{[]interface{}{1}, "[1]"},
	}
	for _, tt := range tests {
		if got := coerceCell(tt.input); got != tt.expected {
			t.Errorf("coerceCell(%v) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func decodeResults(t *testing.T, rr *httptest.ResponseRecorder) struct{ Payback, ROI, NPV, IRR string } {
	t.Helper()
	var resp output.Response
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Projects) == 0 {
		t.Fatalf("expected projects in response: %s", rr.Body.String())
	}
	r := resp.Projects[0].Results
	return struct{ Payback, ROI, NPV, IRR string }{r.Payback, r.ROI, r.NPV, r.IRR}
}

func performUpload(t *testing.T, handler http.Handler, content, filename string) *httptest.ResponseRecorder {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write form data: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/evaluate", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	return rr
}

func performJSON(t *testing.T, handler http.Handler, payload map[string]interface{}, path string) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	return rr
}
