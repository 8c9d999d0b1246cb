package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rshade/klimatmodell/internal/climate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const referenceRequest = `{
	"form_factor": 0.35,
	"window_share": 0.25,
	"structural_system": "concrete",
	"construction_method": "cast-in-place-infill",
	"system_boundary": "2022"
}`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	tables, err := climate.DefaultTables()
	require.NoError(t, err)
	return New(climate.NewCalculator(tables), zerolog.Nop())
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestEmissions_Reference(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := do(t, h, http.MethodPost, "/v1/emissions", referenceRequest)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	got := decode[climate.Assessment](t, rec)
	assert.InDelta(t, 321.9133, got.Emissions.TotalKgPerM2, 1e-4)
	assert.Equal(t, climate.Boundary2022, got.Emissions.Boundary)
	assert.Len(t, got.Emissions.Categories, 4)
	assert.Equal(t, 375.0, got.ReferenceKgPerM2)
	assert.Equal(t, 0.005, got.TimberTonPerM2)
}

func TestEmissions_RequestIDEchoed(t *testing.T) {
	h := newTestServer(t).Handler()

	req := httptest.NewRequest(http.MethodPost, "/v1/emissions", strings.NewReader(`{}`))
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	got := decode[ErrorResponse](t, rec)
	assert.Equal(t, "abc-123", got.RequestID)
}

func TestEmissions_Errors(t *testing.T) {
	h := newTestServer(t).Handler()

	tests := []struct {
		name      string
		body      string
		wantCode  string
		wantField string
	}{
		{
			name:     "malformed JSON",
			body:     `{"form_factor":`,
			wantCode: codeMalformedRequest,
		},
		{
			name:     "unknown field",
			body:     `{"formfactor": 0.35}`,
			wantCode: codeMalformedRequest,
		},
		{
			name:      "invalid form factor",
			body:      strings.Replace(referenceRequest, `"form_factor": 0.35`, `"form_factor": 0`, 1),
			wantCode:  codeInvalidParameter,
			wantField: "form_factor",
		},
		{
			name:      "window share above one",
			body:      strings.Replace(referenceRequest, `"window_share": 0.25`, `"window_share": 1.5`, 1),
			wantCode:  codeInvalidParameter,
			wantField: "window_share",
		},
		{
			name:     "unknown boundary",
			body:     strings.Replace(referenceRequest, `"2022"`, `"2030"`, 1),
			wantCode: codeUnknownBoundary,
		},
		{
			name:      "unknown structural system",
			body:      strings.Replace(referenceRequest, `"concrete"`, `"unknown"`, 1),
			wantCode:  codeUnknownEnumValue,
			wantField: "structural system",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/v1/emissions", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			got := decode[ErrorResponse](t, rec)
			assert.Equal(t, tt.wantCode, got.Error.Code)
			assert.Equal(t, tt.wantField, got.Error.Field)
			assert.NotEmpty(t, got.Error.Message)
			assert.NotEmpty(t, got.RequestID)
		})
	}
}

func TestEmissions_MethodNotAllowed(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := do(t, h, http.MethodGet, "/v1/emissions", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestTimber(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := do(t, h, http.MethodGet, "/v1/timber?structural_system=Timber", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[TimberResponse](t, rec)
	assert.Equal(t, climate.StructuralTimber, got.StructuralSystem)
	assert.Equal(t, 0.06, got.TimberTonPerM2)

	rec = do(t, h, http.MethodGet, "/v1/timber?structural_system=unknown", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, codeUnknownEnumValue, decode[ErrorResponse](t, rec).Error.Code)
}

func TestTables(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := do(t, h, http.MethodGet, "/v1/tables/2027", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[TablesResponse](t, rec)
	assert.Equal(t, climate.Boundary2027, got.Boundary)
	assert.Equal(t, 373.0, got.MedianKgPerM2)
	assert.Len(t, got.Shares, 5)
	assert.NotEmpty(t, got.Version)

	rec = do(t, h, http.MethodGet, "/v1/tables/boundary2022", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[TablesResponse](t, rec).Shares, 4)

	rec = do(t, h, http.MethodGet, "/v1/tables/2019", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, codeUnknownBoundary, decode[ErrorResponse](t, rec).Error.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := do(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[HealthResponse](t, rec).Status)

	rec = do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "klimatmodell_http_requests_total")
}

func TestRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	assert.Len(t, requestID(req), 36)

	req.Header.Set(RequestIDHeader, "  trace-1 ")
	assert.Equal(t, "trace-1", requestID(req))

	req.Header.Set(RequestIDHeader, strings.Repeat("x", maxRequestIDLen+1))
	assert.Len(t, requestID(req), 36)
}

func TestListenAndServe_Shutdown(t *testing.T) {
	srv := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(ctx, "127.0.0.1:0", time.Second)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
