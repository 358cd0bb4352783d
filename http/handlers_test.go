package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"roi-widget/crm"
	"roi-widget/metrics"
	"roi-widget/repository"
	"roi-widget/service"
)

type testServer struct {
	handler  http.Handler
	crmCalls *atomic.Int32
}

func newTestServer(t *testing.T, crmHandler http.HandlerFunc) *testServer {
	t.Helper()
	calls := &atomic.Int32{}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		crmHandler(w, r)
	}))
	t.Cleanup(upstream.Close)

	logger := zap.NewNop()
	reg := prometheus.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)
	schema, err := service.NewFieldSchema(nil, false)
	require.NoError(t, err)
	client := crm.NewClient("123", "form", crm.WithBaseURL(upstream.URL))

	registry := NewControllerRegistry(func(formID string) *service.LeadController {
		return service.NewLeadController(formID, service.LeadControllerConfig{
			Schema:        schema,
			Delivery:      client,
			Timeout:       2 * time.Second,
			FallbackEmail: "help@example.com",
			Logger:        logger,
			Metrics:       rec,
		})
	})
	t.Cleanup(registry.Stop)
	limiter := NewRateLimiter(100, time.Minute)
	t.Cleanup(limiter.Stop)

	roi := service.NewRoiService(repository.NewMemoryCache(), time.Minute, logger, rec)
	return &testServer{
		handler: NewRouter(RouterDeps{
			Roi:      NewRoiHandler(roi, logger),
			Leads:    NewLeadHandler(registry, logger),
			Limiter:  limiter,
			Metrics:  rec,
			Gatherer: reg,
			Logger:   logger,
		}),
		crmCalls: calls,
	}
}

func (s *testServer) post(t *testing.T, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func okCRM(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

func TestEstimateHandler_OK(t *testing.T) {
	srv := newTestServer(t, okCRM)

	w := srv.post(t, "/roi/estimate", `{"annualSpend": 120000, "savingsPercent": "25", "systemCost": "$40,000"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp estimateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Available)
	assert.Equal(t, 30000.0, resp.AnnualSavings)
	require.NotNil(t, resp.PaybackYears)
	assert.Equal(t, 1.33, *resp.PaybackYears)
	assert.Equal(t, 16, *resp.PaybackMonths)
	assert.Equal(t, "success", resp.Tone)
}

func TestEstimateHandler_ZeroSavings(t *testing.T) {
	srv := newTestServer(t, okCRM)

	w := srv.post(t, "/roi/estimate", `{"annualSpend": 50000, "savingsPercent": 0, "systemCost": 10000}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp estimateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Available)
	assert.Nil(t, resp.PaybackYears)
	assert.Contains(t, resp.Message, "must exceed $0")
}

func TestEstimateHandler_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, okCRM)

	req := httptest.NewRequest(http.MethodGet, "/roi/estimate", nil)
	w := httptest.NewRecorder()
	srv.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestEstimateHandler_BadRequest(t *testing.T) {
	srv := newTestServer(t, okCRM)

	w := srv.post(t, "/roi/estimate", `{invalid-json}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCopyHandler(t *testing.T) {
	srv := newTestServer(t, okCRM)

	w := srv.post(t, "/roi/copy", `{"annualSpend": 120000, "savingsPercent": 25, "systemCost": 40000, "message": "Hi"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp copyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Copied)
	assert.True(t, strings.HasPrefix(resp.Message, "Hi\n\n"+service.SnapshotMarker))
}

const validLead = `{
	"formId": "landing-1",
	"fields": {"firstName": "Ada", "lastName": "Lovelace", "email": "ada@example.com", "rtus": 12},
	"roi": {"annualSpend": 120000, "savingsPercent": 25, "systemCost": 40000}
}`

func TestLeadHandler_Success(t *testing.T) {
	var body map[string]any
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusOK)
	})

	w := srv.post(t, "/leads", validLead)
	require.Equal(t, http.StatusOK, w.Code)

	var resp leadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.State)
	assert.Equal(t, "success", resp.Status.Tone)
	assert.NotEmpty(t, resp.SubmissionID)
	for name, v := range resp.Fields {
		assert.Empty(t, v, name)
	}
	assert.Equal(t, int32(1), srv.crmCalls.Load())

	fields := body["fields"].([]any)
	assert.Contains(t, fields, map[string]any{"name": "number_of_rtus", "value": "12"})
}

func TestLeadHandler_ValidationError(t *testing.T) {
	srv := newTestServer(t, okCRM)

	w := srv.post(t, "/leads", `{"formId": "f", "fields": {"firstName": "Ada", "lastName": "Lovelace", "email": ""}}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp leadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status.Tone)
	assert.Contains(t, resp.Status.Text, "email")
	assert.Equal(t, int32(0), srv.crmCalls.Load())
}

func TestLeadHandler_RemoteFailureKeepsFields(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "server error", http.StatusInternalServerError)
	})

	w := srv.post(t, "/leads", validLead)
	require.Equal(t, http.StatusBadGateway, w.Code)

	var resp leadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "failed", resp.State)
	assert.Contains(t, resp.Status.Text, "help@example.com")
	assert.Equal(t, "ada@example.com", resp.Fields["email"])
	assert.Contains(t, resp.Fields["message"], service.SnapshotMarker)
}

func TestLeadHandler_ConcurrentSubmitConflict(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		entered <- struct{}{}
		<-release
		w.WriteHeader(http.StatusOK)
	})

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		first <- srv.post(t, "/leads", validLead)
	}()
	<-entered

	w := srv.post(t, "/leads", validLead)
	assert.Equal(t, http.StatusConflict, w.Code)

	close(release)
	assert.Equal(t, http.StatusOK, (<-first).Code)
	assert.Equal(t, int32(1), srv.crmCalls.Load())
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, okCRM)
	srv.post(t, "/roi/estimate", `{"annualSpend": 1000, "savingsPercent": 10, "systemCost": 100}`)

	for _, path := range []string{"/healthz", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		srv.handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	srv.handler.ServeHTTP(w, req)
	assert.Contains(t, w.Body.String(), "roi_estimates_total")
}

func TestEstimateHandler_ExtremeInputs(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		available bool
		message   string
	}{
		{
			name:    "sub-dollar savings against a huge cost",
			body:    `{"annualSpend": "1", "savingsPercent": "0.0000001", "systemCost": "1e15"}`,
			message: "must exceed $0",
		},
		{
			name:    "payback beyond a thousand years",
			body:    `{"annualSpend": "1", "savingsPercent": "100", "systemCost": "1e15"}`,
			message: "longer than 1,000 years",
		},
		{
			name:      "huge spend",
			body:      `{"annualSpend": 1e300, "savingsPercent": 50, "systemCost": 40000}`,
			available: true,
			message:   "Estimated payback: 0.0 years (0 months)",
		},
		{
			name:      "percent above the cap",
			body:      `{"annualSpend": 120000, "savingsPercent": 150, "systemCost": 40000}`,
			available: true,
			message:   "Estimated annual savings: $120,000.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, okCRM)

			w := srv.post(t, "/roi/estimate", tt.body)
			require.Equal(t, http.StatusOK, w.Code)

			var resp estimateResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.available, resp.Available)
			assert.Contains(t, resp.Message, tt.message)
			assert.NotContains(t, resp.Message, "savings: $0.")

			if tt.available {
				require.NotNil(t, resp.PaybackMonths)
				assert.GreaterOrEqual(t, *resp.PaybackMonths, 0)
			} else {
				assert.Nil(t, resp.PaybackYears)
				assert.Nil(t, resp.PaybackMonths)
			}
		})
	}
}

func TestLeadHandler_RejectsStructuredFieldValues(t *testing.T) {
	bodies := map[string]string{
		"object": `{"formId": "f", "fields": {"firstName": "Ada", "lastName": "Lovelace", "email": {"x": 1}}}`,
		"array":  `{"formId": "f", "fields": {"firstName": "Ada", "lastName": "Lovelace", "email": ["ada@example.com"]}}`,
		"bool":   `{"formId": "f", "fields": {"firstName": "Ada", "lastName": "Lovelace", "email": true}}`,
		"roi":    `{"formId": "f", "fields": {"email": "ada@example.com"}, "roi": {"annualSpend": [1]}}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			srv := newTestServer(t, okCRM)

			w := srv.post(t, "/leads", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, int32(0), srv.crmCalls.Load())
		})
	}
}

func TestFieldValue_UnmarshalJSON(t *testing.T) {
	var fields map[string]fieldValue
	require.NoError(t, json.Unmarshal([]byte(`{"a": "x", "b": 12.5, "c": null}`), &fields))
	assert.Equal(t, fieldValue("x"), fields["a"])
	assert.Equal(t, fieldValue("12.5"), fields["b"])
	assert.Equal(t, fieldValue(""), fields["c"])

	assert.Error(t, json.Unmarshal([]byte(`{"a": {"b": 1}}`), &fields))
	assert.Error(t, json.Unmarshal([]byte(`{"a": [1]}`), &fields))
}
