// internal/service/service.go
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"barquery/internal/cache"
	stderrors "barquery/internal/common/errors"
	"barquery/internal/common/logger"
	"barquery/internal/common/metrics"
	"barquery/internal/common/observability"
	"barquery/internal/insight"
	"barquery/internal/nlp"
	"barquery/internal/provider"
)

// QueryResponse wraps the structured result with call metadata.
type QueryResponse struct {
	QueryID          string                  `json:"queryId"`
	Question         string                  `json:"question"`
	Analysis         *nlp.QueryAnalysis      `json:"analysis"`
	Result           *insight.AnalysisResult `json:"result"`
	Provider         string                  `json:"provider,omitempty"`
	Model            string                  `json:"model,omitempty"`
	TokensUsed       int                     `json:"tokensUsed"`
	ProcessingTimeMs int64                   `json:"processingTimeMs"`
	Cached           bool                    `json:"cached"`
}

// Service is the façade the HTTP layer talks to. It owns the analyzer, the
// provider orchestrator and the optional answer cache.
type Service struct {
	analyzer     *nlp.Analyzer
	orchestrator *provider.Orchestrator
	answers      *cache.AnswerCache
	obs          *observability.Observability
	logger       logger.Logger
}

func New(analyzer *nlp.Analyzer, orch *provider.Orchestrator, answers *cache.AnswerCache, obs *observability.Observability, log logger.Logger) *Service {
	return &Service{
		analyzer:     analyzer,
		orchestrator: orch,
		answers:      answers,
		obs:          obs,
		logger:       log.With(map[string]interface{}{"component": "query-service"}),
	}
}

// AnalyzeQuery runs the local pipeline only: no provider call, no side
// effects beyond logging.
func (s *Service) AnalyzeQuery(query string) *nlp.QueryAnalysis {
	return s.analyzer.Analyze(query)
}

// Answer runs the full pipeline: analyze, consult the cache, generate
// through the orchestrator and structure the output. dataContext is
// caller-supplied business data forwarded to the provider verbatim.
func (s *Service) Answer(ctx context.Context, query string, dataContext map[string]interface{}) (*QueryResponse, error) {
	queryID := uuid.New().String()
	start := time.Now()
	log := s.logger.With(map[string]interface{}{"queryId": queryID})

	analysis := s.analyzer.Analyze(query)
	log.Info("query analyzed", map[string]interface{}{
		"intentType":   string(analysis.Intent.Type),
		"category":     string(analysis.Intent.Category),
		"complexity":   string(analysis.Complexity),
		"requiresData": analysis.RequiresData,
	})

	if s.answers != nil {
		if cached := s.answers.Get(ctx, query); cached != nil {
			s.recordOutcome(ctx, analysis, "cached", time.Since(start))
			return &QueryResponse{
				QueryID:          queryID,
				Question:         query,
				Analysis:         analysis,
				Result:           cached,
				ProcessingTimeMs: time.Since(start).Milliseconds(),
				Cached:           true,
			}, nil
		}
	}

	contextPayload, err := encodeContext(dataContext, analysis)
	if err != nil {
		s.recordOutcome(ctx, analysis, "error", time.Since(start))
		return nil, stderrors.NewAnalysisError("context encoding failed: " + err.Error())
	}

	gen, err := s.orchestrator.Generate(ctx, &provider.GenerationRequest{
		SystemPrompt: BuildSystemPrompt(analysis),
		Context:      contextPayload,
		Query:        BuildOptimizedQuery(query, analysis),
	})
	if err != nil {
		log.WithError(err).Error("generation failed", nil)
		s.recordOutcome(ctx, analysis, "error", time.Since(start))
		return nil, err
	}

	result, err := insight.Structure(gen, analysis)
	if err != nil {
		s.recordOutcome(ctx, analysis, "error", time.Since(start))
		return nil, err
	}

	if s.answers != nil {
		s.answers.Put(ctx, query, result)
	}

	s.recordOutcome(ctx, analysis, "success", time.Since(start))
	return &QueryResponse{
		QueryID:          queryID,
		Question:         query,
		Analysis:         analysis,
		Result:           result,
		Provider:         gen.Provider,
		Model:            gen.Model,
		TokensUsed:       gen.TokensUsed,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

// ProviderStatus reports the last known health per provider.
func (s *Service) ProviderStatus() map[string]provider.ProviderHealth {
	return s.orchestrator.ProviderStatus()
}

// UsageStats reports the current rate window and limits.
func (s *Service) UsageStats() provider.UsageStats {
	return s.orchestrator.Usage()
}

func (s *Service) recordOutcome(ctx context.Context, analysis *nlp.QueryAnalysis, status string, elapsed time.Duration) {
	metrics.QueriesProcessed.WithLabelValues(string(analysis.Intent.Type), string(analysis.Intent.Category), status).Inc()
	if s.obs != nil {
		s.obs.RecordQueryProcessed(ctx, status)
		s.obs.RecordQueryDuration(ctx, elapsed, status)
	}
}
