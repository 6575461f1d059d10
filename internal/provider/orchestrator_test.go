package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barquery/internal/common/config"
	stderrors "barquery/internal/common/errors"
	"barquery/internal/common/logger"
)

func testAIConfig(pinned string) config.AIConfig {
	return config.AIConfig{
		Provider:            pinned,
		RateLimiting:        config.RateLimitConfig{RequestsPerMinute: 50, TokensPerMinute: 100000},
		HealthCheckInterval: 300,
		RequestTimeout:      60,
	}
}

func testRequest() *GenerationRequest {
	return &GenerationRequest{
		SystemPrompt: "system",
		Context:      `{"businessType":"bar_restaurant"}`,
		Query:        "como está o faturamento",
	}
}

func TestOrchestratorPrefersAnthropicInAutoMode(t *testing.T) {
	openai := &stubProvider{id: ProviderOpenAI}
	anthropic := &stubProvider{id: ProviderAnthropic}

	orch := NewOrchestrator(testAIConfig("auto"), []Provider{openai, anthropic}, logger.NewTestLogger(t))

	result, err := orch.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, result.Provider)
	assert.Equal(t, 0, openai.genCalls)
	assert.Equal(t, 1, anthropic.genCalls)
}

func TestOrchestratorHonorsPinnedProvider(t *testing.T) {
	openai := &stubProvider{id: ProviderOpenAI}
	anthropic := &stubProvider{id: ProviderAnthropic}

	orch := NewOrchestrator(testAIConfig(ProviderOpenAI), []Provider{openai, anthropic}, logger.NewTestLogger(t))

	result, err := orch.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, result.Provider)
}

func TestOrchestratorUsesSurvivorWhenPinnedIsDown(t *testing.T) {
	openai := &stubProvider{id: ProviderOpenAI, probeErr: errors.New("down")}
	anthropic := &stubProvider{id: ProviderAnthropic}

	orch := NewOrchestrator(testAIConfig(ProviderOpenAI), []Provider{openai, anthropic}, logger.NewTestLogger(t))

	result, err := orch.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, result.Provider)
}

func TestOrchestratorFallsBackOnce(t *testing.T) {
	openai := &stubProvider{id: ProviderOpenAI}
	anthropic := &stubProvider{id: ProviderAnthropic, genErr: stderrors.NewProviderError(ProviderAnthropic, errors.New("500"))}

	orch := NewOrchestrator(testAIConfig("auto"), []Provider{openai, anthropic}, logger.NewTestLogger(t))

	result, err := orch.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, result.Provider)
	assert.Equal(t, 1, anthropic.genCalls)
	assert.Equal(t, 1, openai.genCalls)
	assert.Equal(t, true, result.Metadata["fallback"])
}

func TestOrchestratorFallbackFailurePropagates(t *testing.T) {
	openai := &stubProvider{id: ProviderOpenAI, genErr: stderrors.NewProviderError(ProviderOpenAI, errors.New("openai down"))}
	anthropic := &stubProvider{id: ProviderAnthropic, genErr: stderrors.NewProviderError(ProviderAnthropic, errors.New("anthropic down"))}

	orch := NewOrchestrator(testAIConfig("auto"), []Provider{openai, anthropic}, logger.NewTestLogger(t))

	_, err := orch.Generate(context.Background(), testRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, stderrors.ErrProviderError))

	// The originally selected provider's error comes back, not the
	// fallback's.
	var se *stderrors.StandardError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, ProviderAnthropic, se.Provider)
	assert.Contains(t, se.Details, "anthropic down")

	// Exactly one attempt each: no second-level fallback.
	assert.Equal(t, 1, anthropic.genCalls)
	assert.Equal(t, 1, openai.genCalls)
}

func TestOrchestratorNoProviderAvailable(t *testing.T) {
	openai := &stubProvider{id: ProviderOpenAI, probeErr: errors.New("down")}
	anthropic := &stubProvider{id: ProviderAnthropic, probeErr: errors.New("down")}

	orch := NewOrchestrator(testAIConfig("auto"), []Provider{openai, anthropic}, logger.NewTestLogger(t))

	_, err := orch.Generate(context.Background(), testRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, stderrors.ErrNoProviderAvailable))
	assert.False(t, stderrors.IsRetryable(err))
	assert.Equal(t, 0, openai.genCalls)
	assert.Equal(t, 0, anthropic.genCalls)
}

func TestOrchestratorNoFallbackOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	anthropic := &stubProvider{id: ProviderAnthropic}
	anthropic.genErr = stderrors.NewProviderTimeoutError(ProviderAnthropic)
	openai := &stubProvider{id: ProviderOpenAI}

	orch := NewOrchestrator(testAIConfig("auto"), []Provider{openai, anthropic}, logger.NewTestLogger(t))

	// Health is probed before cancellation so the selection succeeds; the
	// generation error then coincides with a dead caller context.
	orch.Health().Check(ctx, anthropic)
	orch.Health().Check(ctx, openai)
	cancel()

	_, err := orch.Generate(ctx, testRequest())
	require.Error(t, err)
	assert.Equal(t, 0, openai.genCalls, "no fallback after cancellation")
}

func TestOrchestratorRecordsSharedTokenBudget(t *testing.T) {
	openai := &stubProvider{id: ProviderOpenAI, generation: &Generation{Content: "ok", Model: "gpt", TokensUsed: 321, StopReason: "stop"}}
	anthropic := &stubProvider{id: ProviderAnthropic, genErr: stderrors.NewProviderError(ProviderAnthropic, errors.New("500"))}

	orch := NewOrchestrator(testAIConfig("auto"), []Provider{openai, anthropic}, logger.NewTestLogger(t))

	result, err := orch.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, 321, result.TokensUsed)

	// The fallback call still lands in the shared window.
	usage := orch.Usage()
	assert.Equal(t, 1, usage.CurrentRequestsPerMinute)
	assert.Equal(t, 321, usage.CurrentTokensPerMinute)
	assert.Equal(t, 50, usage.Limits.RequestsPerMinute)
}

func TestOrchestratorResultMetadata(t *testing.T) {
	anthropic := &stubProvider{id: ProviderAnthropic, generation: &Generation{
		Content:    "Faturamento de R$ 1500 com 120 clientes.\n\n- destaque: sexta-feira",
		Model:      "claude-3-sonnet-20240229",
		TokensUsed: 77,
		StopReason: "end_turn",
	}}

	orch := NewOrchestrator(testAIConfig("auto"), []Provider{anthropic}, logger.NewTestLogger(t))

	result, err := orch.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "claude-3-sonnet-20240229", result.Model)
	assert.Equal(t, "end_turn", result.Metadata["stopReason"])
	assert.Equal(t, false, result.Metadata["fallback"])
	assert.GreaterOrEqual(t, result.ProcessingTimeMs, int64(0))
	assert.GreaterOrEqual(t, result.Confidence, 0.1)
	assert.LessOrEqual(t, result.Confidence, 1.0)
}

func TestOrchestratorProviderStatus(t *testing.T) {
	openai := &stubProvider{id: ProviderOpenAI, probeErr: errors.New("down")}
	anthropic := &stubProvider{id: ProviderAnthropic}

	orch := NewOrchestrator(testAIConfig("auto"), []Provider{openai, anthropic}, logger.NewTestLogger(t))

	_, err := orch.Generate(context.Background(), testRequest())
	require.NoError(t, err)

	status := orch.ProviderStatus()
	require.Len(t, status, 2)
	assert.False(t, status[ProviderOpenAI].Available)
	assert.True(t, status[ProviderAnthropic].Available)
}
