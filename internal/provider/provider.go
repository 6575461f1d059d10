// internal/provider/provider.go
package provider

import "context"

// Provider IDs as they appear in configuration, results and logs.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// GenerationRequest carries one prompt to a text-generation provider. The
// context payload is already serialized; providers treat it as opaque text.
type GenerationRequest struct {
	SystemPrompt string
	Context      string
	Query        string
}

// Generation is the raw provider response before orchestration metadata is
// attached.
type Generation struct {
	Content    string
	Model      string
	TokensUsed int
	StopReason string
}

// Provider is a text-generation backend reachable over the network. Probe
// must be cheap enough to run on the calling path.
type Provider interface {
	ID() string
	Generate(ctx context.Context, req *GenerationRequest) (*Generation, error)
	Probe(ctx context.Context) error
}

// GenerationResult is the orchestrator's view of a successful call.
type GenerationResult struct {
	Content          string                 `json:"content"`
	Provider         string                 `json:"provider"`
	Model            string                 `json:"model"`
	TokensUsed       int                    `json:"tokensUsed"`
	ProcessingTimeMs int64                  `json:"processingTimeMs"`
	Confidence       float64                `json:"confidence"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}
