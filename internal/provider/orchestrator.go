// internal/provider/orchestrator.go
package provider

import (
	"context"
	"time"

	"barquery/internal/common/config"
	stderrors "barquery/internal/common/errors"
	"barquery/internal/common/logger"
	"barquery/internal/common/metrics"
)

// Orchestrator owns provider selection, the shared health and rate state,
// and single-level fallback. It is constructed once per process and passed
// by reference so the request and token budget stays process-wide.
type Orchestrator struct {
	cfg       config.AIConfig
	providers []Provider
	health    *HealthTracker
	gate      *RateGate
	logger    logger.Logger
}

// UsageStats is the introspection snapshot exposed by the service.
type UsageStats struct {
	CurrentRequestsPerMinute int                       `json:"currentRequestsPerMinute"`
	CurrentTokensPerMinute   int                       `json:"currentTokensPerMinute"`
	Limits                   config.RateLimitConfig    `json:"limits"`
	Providers                map[string]ProviderHealth `json:"providers"`
}

func NewOrchestrator(cfg config.AIConfig, providers []Provider, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		providers: providers,
		health:    NewHealthTracker(time.Duration(cfg.HealthCheckInterval)*time.Second, log),
		gate:      NewRateGate(cfg.RateLimiting),
		logger:    log.With(map[string]interface{}{"component": "orchestrator"}),
	}
}

// Health exposes the tracker for test clock injection.
func (o *Orchestrator) Health() *HealthTracker {
	return o.health
}

// Gate exposes the rate gate for test clock injection.
func (o *Orchestrator) Gate() *RateGate {
	return o.gate
}

// Generate picks the best live provider, issues the call and falls back at
// most once to the alternate provider on a provider-level error. Processing
// time covers the whole attempt including the fallback.
func (o *Orchestrator) Generate(ctx context.Context, req *GenerationRequest) (*GenerationResult, error) {
	start := time.Now()

	available := o.liveProviders(ctx)
	chosen := o.choose(available)
	if chosen == nil {
		return nil, stderrors.NewNoProviderAvailableError()
	}

	if err := o.gate.Allow(); err != nil {
		return nil, err
	}

	gen, err := chosen.Generate(ctx, req)
	usedProvider := chosen
	fellBack := false

	if err != nil {
		metrics.ProviderCalls.WithLabelValues(chosen.ID(), "error").Inc()

		// A cancelled caller gets the original error; fallback would just
		// fail the same way.
		if ctx.Err() != nil {
			return nil, err
		}

		alternate := o.alternateFor(chosen, available)
		if alternate == nil {
			return nil, err
		}

		o.logger.Warn("provider call failed, attempting fallback", map[string]interface{}{
			"provider": chosen.ID(),
			"fallback": alternate.ID(),
			"error":    err.Error(),
		})
		metrics.ProviderFallbacks.WithLabelValues(chosen.ID(), alternate.ID()).Inc()

		fallbackGen, fallbackErr := alternate.Generate(ctx, req)
		if fallbackErr != nil {
			metrics.ProviderCalls.WithLabelValues(alternate.ID(), "error").Inc()
			o.logger.Warn("fallback provider also failed", map[string]interface{}{
				"provider": alternate.ID(),
				"error":    fallbackErr.Error(),
			})
			// The caller sees the originally selected provider's failure.
			return nil, err
		}
		gen = fallbackGen
		usedProvider = alternate
		fellBack = true
	}

	elapsed := time.Since(start)
	metrics.ProviderCalls.WithLabelValues(usedProvider.ID(), "success").Inc()
	metrics.ProviderCallDuration.WithLabelValues(usedProvider.ID()).Observe(elapsed.Seconds())
	metrics.TokensUsed.WithLabelValues(usedProvider.ID()).Add(float64(gen.TokensUsed))

	// The budget is shared across providers, so fallback calls count too.
	o.gate.Record(gen.TokensUsed)

	result := &GenerationResult{
		Content:          gen.Content,
		Provider:         usedProvider.ID(),
		Model:            gen.Model,
		TokensUsed:       gen.TokensUsed,
		ProcessingTimeMs: elapsed.Milliseconds(),
		Confidence:       scoreGeneration(gen.Content),
		Metadata: map[string]interface{}{
			"stopReason": gen.StopReason,
			"fallback":   fellBack,
		},
	}

	o.logger.Info("generation completed", map[string]interface{}{
		"provider":         result.Provider,
		"tokensUsed":       result.TokensUsed,
		"processingTimeMs": result.ProcessingTimeMs,
		"fallback":         fellBack,
	})

	return result, nil
}

// liveProviders re-checks health for every configured provider, probing the
// stale ones.
func (o *Orchestrator) liveProviders(ctx context.Context) map[string]Provider {
	live := make(map[string]Provider)
	for _, p := range o.providers {
		if o.health.Check(ctx, p) {
			live[p.ID()] = p
		}
	}
	return live
}

// choose applies the selection policy: a pinned healthy provider wins; in
// auto mode the secondary provider is preferred when both are live because
// it handles structured-data analysis better.
func (o *Orchestrator) choose(live map[string]Provider) Provider {
	if o.cfg.Provider != "auto" {
		if p, ok := live[o.cfg.Provider]; ok {
			return p
		}
	}

	if p, ok := live[ProviderAnthropic]; ok {
		return p
	}
	if p, ok := live[ProviderOpenAI]; ok {
		return p
	}
	return nil
}

func (o *Orchestrator) alternateFor(chosen Provider, live map[string]Provider) Provider {
	for id, p := range live {
		if id != chosen.ID() {
			return p
		}
	}
	return nil
}

// ProviderStatus returns the last known health per provider.
func (o *Orchestrator) ProviderStatus() map[string]ProviderHealth {
	return o.health.Status()
}

// Usage returns the current rate window state and provider health.
func (o *Orchestrator) Usage() UsageStats {
	requests, tokens := o.gate.Usage()
	return UsageStats{
		CurrentRequestsPerMinute: requests,
		CurrentTokensPerMinute:   tokens,
		Limits:                   o.gate.Limits(),
		Providers:                o.health.Status(),
	}
}
