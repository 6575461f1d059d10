package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barquery/internal/common/config"
	"barquery/internal/common/httpx"
	"barquery/internal/common/logger"
	"barquery/internal/nlp"
	"barquery/internal/provider"
	"barquery/internal/service"
)

func fakeProviderBackend() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/models":
			w.WriteHeader(http.StatusOK)
		case "/v1/chat/completions":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"choices": []map[string]interface{}{
					{
						"message":       map[string]string{"role": "assistant", "content": "Faturamento de R$ 45000.\n\n- destaque: 12% de crescimento"},
						"finish_reason": "stop",
					},
				},
				"usage": map[string]int{"total_tokens": 50},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newTestAPI(t *testing.T, backendURL string, requestsPerMinute int) *httptest.Server {
	cfg := config.AIConfig{
		Provider: "auto",
		OpenAI: config.ProviderConfig{
			APIKey:      "test-key",
			BaseURL:     backendURL,
			Model:       "gpt-4-turbo-preview",
			MaxTokens:   4000,
			Temperature: 0.1,
		},
		RateLimiting:        config.RateLimitConfig{RequestsPerMinute: requestsPerMinute, TokensPerMinute: 100000},
		HealthCheckInterval: 300,
		RequestTimeout:      5,
	}

	log := logger.NewTestLogger(t)
	orch := provider.NewOrchestrator(cfg, []provider.Provider{
		provider.NewOpenAIClient(cfg.OpenAI, httpx.NewClient(5*time.Second)),
	}, log)
	svc := service.New(nlp.NewAnalyzer(), orch, nil, nil, log)

	mux := http.NewServeMux()
	New(svc, log).Register(mux)

	api := httptest.NewServer(mux)
	t.Cleanup(api.Close)
	return api
}

func postQuery(t *testing.T, api *httptest.Server, body string) *http.Response {
	resp, err := http.Post(api.URL+"/api/ai/query", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestQueryEndpoint(t *testing.T) {
	backend := fakeProviderBackend()
	defer backend.Close()
	api := newTestAPI(t, backend.URL, 50)

	resp := postQuery(t, api, `{"question":"Como está o faturamento deste mês?","context":{"faturamento_atual":45000}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var decoded service.QueryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	assert.NotEmpty(t, decoded.QueryID)
	assert.Equal(t, "openai", decoded.Provider)
	require.NotNil(t, decoded.Result)
	assert.Contains(t, decoded.Result.Summary, "R$ 45000")
}

func TestQueryEndpointValidation(t *testing.T) {
	backend := fakeProviderBackend()
	defer backend.Close()
	api := newTestAPI(t, backend.URL, 50)

	tests := []struct {
		name string
		body string
	}{
		{"missing question", `{}`},
		{"empty question", `{"question":""}`},
		{"blank question", `{"question":"   "}`},
		{"wrong type", `{"question":42}`},
		{"unknown field", `{"question":"oi","debug":true}`},
		{"invalid json", `{"question":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postQuery(t, api, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var body errorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, "INVALID_REQUEST", body.Error.Code)
		})
	}
}

func TestQueryEndpointRateLimited(t *testing.T) {
	backend := fakeProviderBackend()
	defer backend.Close()
	api := newTestAPI(t, backend.URL, 1)

	resp := postQuery(t, api, `{"question":"Como está o faturamento?"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postQuery(t, api, `{"question":"Como estão as vendas?"}`)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	var body errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", body.Error.Code)
}

func TestQueryEndpointNoProvider(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer backend.Close()
	api := newTestAPI(t, backend.URL, 50)

	resp := postQuery(t, api, `{"question":"Como está o faturamento?"}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var body errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "NO_PROVIDER_AVAILABLE", body.Error.Code)
}

func TestQueryEndpointProviderFailure(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/models":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer backend.Close()
	api := newTestAPI(t, backend.URL, 50)

	resp := postQuery(t, api, `{"question":"Como está o faturamento?"}`)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestQueryEndpointMethodNotAllowed(t *testing.T) {
	backend := fakeProviderBackend()
	defer backend.Close()
	api := newTestAPI(t, backend.URL, 50)

	resp, err := http.Get(api.URL + "/api/ai/query")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestStatusAndUsageEndpoints(t *testing.T) {
	backend := fakeProviderBackend()
	defer backend.Close()
	api := newTestAPI(t, backend.URL, 50)

	resp := postQuery(t, api, `{"question":"Como está o faturamento?"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	statusResp, err := http.Get(api.URL + "/api/ai/status")
	require.NoError(t, err)
	defer statusResp.Body.Close()
	require.Equal(t, http.StatusOK, statusResp.StatusCode)

	var status struct {
		Providers map[string]provider.ProviderHealth `json:"providers"`
	}
	require.NoError(t, json.NewDecoder(statusResp.Body).Decode(&status))
	require.Contains(t, status.Providers, "openai")
	assert.True(t, status.Providers["openai"].Available)

	usageResp, err := http.Get(api.URL + "/api/ai/usage")
	require.NoError(t, err)
	defer usageResp.Body.Close()
	require.Equal(t, http.StatusOK, usageResp.StatusCode)

	var usage provider.UsageStats
	require.NoError(t, json.NewDecoder(usageResp.Body).Decode(&usage))
	assert.Equal(t, 1, usage.CurrentRequestsPerMinute)
	assert.Equal(t, 50, usage.CurrentTokensPerMinute)
}

func TestHealthz(t *testing.T) {
	backend := fakeProviderBackend()
	defer backend.Close()
	api := newTestAPI(t, backend.URL, 50)

	resp, err := http.Get(api.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
