package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barquery/internal/cache"
	"barquery/internal/common/config"
	"barquery/internal/common/database"
	stderrors "barquery/internal/common/errors"
	"barquery/internal/common/httpx"
	"barquery/internal/common/logger"
	"barquery/internal/insight"
	"barquery/internal/nlp"
	"barquery/internal/provider"
)

const answerContent = "O faturamento deste mês foi de R$ 45000.\n\n" +
	"- destaque: crescimento de 12% sobre o mês anterior\n" +
	"- foram 1200 clientes no período\n" +
	"Recomendo reforçar a equipe nas sextas"

// fakeOpenAI serves both the probe and the completion endpoint.
func fakeOpenAI(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/models":
			w.WriteHeader(http.StatusOK)
		case "/v1/chat/completions":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"choices": []map[string]interface{}{
					{
						"message":       map[string]string{"role": "assistant", "content": answerContent},
						"finish_reason": "stop",
					},
				},
				"usage": map[string]int{"total_tokens": 64},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
}

func newTestService(t *testing.T, baseURL string, requestsPerMinute int) *Service {
	cfg := config.AIConfig{
		Provider: "auto",
		OpenAI: config.ProviderConfig{
			APIKey:      "test-key",
			BaseURL:     baseURL,
			Model:       "gpt-4-turbo-preview",
			MaxTokens:   4000,
			Temperature: 0.1,
		},
		RateLimiting:        config.RateLimitConfig{RequestsPerMinute: requestsPerMinute, TokensPerMinute: 100000},
		HealthCheckInterval: 300,
		RequestTimeout:      5,
	}

	log := logger.NewTestLogger(t)
	client := httpx.NewClient(5 * time.Second)
	orch := provider.NewOrchestrator(cfg, []provider.Provider{provider.NewOpenAIClient(cfg.OpenAI, client)}, log)

	return New(nlp.NewAnalyzer(), orch, nil, nil, log)
}

func TestAnswerEndToEnd(t *testing.T) {
	ts := fakeOpenAI(t)
	defer ts.Close()

	svc := newTestService(t, ts.URL, 50)

	resp, err := svc.Answer(context.Background(), "Como está o faturamento deste mês?", map[string]interface{}{
		"faturamento_atual": 45000,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.QueryID)
	assert.Equal(t, "openai", resp.Provider)
	assert.Equal(t, "gpt-4-turbo-preview", resp.Model)
	assert.Equal(t, 64, resp.TokensUsed)
	assert.False(t, resp.Cached)
	assert.GreaterOrEqual(t, resp.ProcessingTimeMs, int64(0))

	require.NotNil(t, resp.Analysis)
	assert.Equal(t, nlp.IntentAnalysis, resp.Analysis.Intent.Type)
	assert.Equal(t, nlp.CategorySales, resp.Analysis.Intent.Category)

	require.NotNil(t, resp.Result)
	assert.Contains(t, resp.Result.Summary, "R$ 45000")
	assert.NotEmpty(t, resp.Result.Insights)
	assert.NotEmpty(t, resp.Result.Recommendations)
	assert.Equal(t, []string{"barquery_database", "ai_analysis"}, resp.Result.Sources)
	assert.GreaterOrEqual(t, resp.Result.Confidence, 0.0)
	assert.LessOrEqual(t, resp.Result.Confidence, 1.0)
}

func TestAnswerCacheHitSkipsProvider(t *testing.T) {
	var completionCalls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/chat/completions" {
			completionCalls++
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	cached := &insight.AnalysisResult{
		Summary:    "Resposta em cache.",
		Insights:   []string{"Resposta em cache."},
		Confidence: 0.8,
		Sources:    []string{"barquery_database", "ai_analysis"},
	}
	raw, err := json.Marshal(cached)
	require.NoError(t, err)

	db, mock := redismock.NewClientMock()
	answers := cache.NewAnswerCache(&database.RedisClient{Client: db}, time.Minute, logger.NewTestLogger(t))
	answers.SetClock(func() time.Time { return time.Date(2025, 3, 12, 15, 30, 0, 0, time.UTC) })
	mock.ExpectGet(answers.Key("Como está o faturamento?")).SetVal(string(raw))

	svc := newTestService(t, ts.URL, 50)
	svc.answers = answers

	resp, err := svc.Answer(context.Background(), "Como está o faturamento?", nil)
	require.NoError(t, err)

	assert.True(t, resp.Cached)
	assert.Equal(t, cached, resp.Result)
	assert.Empty(t, resp.Provider)
	assert.Equal(t, 0, completionCalls, "cache hits never reach a provider")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnswerNoProviderAvailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	svc := newTestService(t, ts.URL, 50)

	_, err := svc.Answer(context.Background(), "Como está o faturamento?", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, stderrors.ErrNoProviderAvailable))
}

func TestAnswerRateLimited(t *testing.T) {
	ts := fakeOpenAI(t)
	defer ts.Close()

	svc := newTestService(t, ts.URL, 1)

	_, err := svc.Answer(context.Background(), "Como está o faturamento?", nil)
	require.NoError(t, err)

	_, err = svc.Answer(context.Background(), "Como estão as vendas?", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, stderrors.ErrRateLimitExceeded))
}

func TestAnalyzeQueryNoSideEffects(t *testing.T) {
	ts := fakeOpenAI(t)
	defer ts.Close()

	svc := newTestService(t, ts.URL, 50)

	analysis := svc.AnalyzeQuery("Compare as vendas de hoje com ontem")
	assert.Equal(t, nlp.IntentComparison, analysis.Intent.Type)

	usage := svc.UsageStats()
	assert.Equal(t, 0, usage.CurrentRequestsPerMinute, "analysis alone never consumes the budget")
}

func TestUsageStatsAfterAnswer(t *testing.T) {
	ts := fakeOpenAI(t)
	defer ts.Close()

	svc := newTestService(t, ts.URL, 50)

	_, err := svc.Answer(context.Background(), "Como está o faturamento?", nil)
	require.NoError(t, err)

	usage := svc.UsageStats()
	assert.Equal(t, 1, usage.CurrentRequestsPerMinute)
	assert.Equal(t, 64, usage.CurrentTokensPerMinute)

	status := svc.ProviderStatus()
	require.Contains(t, status, "openai")
	assert.True(t, status["openai"].Available)
}
