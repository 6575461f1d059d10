// internal/provider/anthropic.go
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"barquery/internal/common/config"
	stderrors "barquery/internal/common/errors"
	"barquery/internal/common/httpx"
)

const anthropicVersion = "2023-06-01"

const defaultAnthropicSystem = "Você é um assistente especializado em análise de dados para gestão de bares."

// AnthropicClient calls the messages API.
type AnthropicClient struct {
	cfg    config.ProviderConfig
	client *httpx.Client
}

func NewAnthropicClient(cfg config.ProviderConfig, client *httpx.Client) *AnthropicClient {
	return &AnthropicClient{cfg: cfg, client: client}
}

func (c *AnthropicClient) ID() string {
	return ProviderAnthropic
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	System      string             `json:"system"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (c *AnthropicClient) Generate(ctx context.Context, genReq *GenerationRequest) (*Generation, error) {
	fullPrompt := genReq.Query
	if genReq.Context != "" {
		fullPrompt = "Contexto: " + genReq.Context + "\n\nConsulta: " + genReq.Query
	}

	system := genReq.SystemPrompt
	if system == "" {
		system = defaultAnthropicSystem
	}

	body, err := json.Marshal(anthropicRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		System:      system,
		Messages:    []anthropicMessage{{Role: "user", Content: fullPrompt}},
	})
	if err != nil {
		return nil, stderrors.NewProviderError(c.ID(), err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, stderrors.NewProviderError(c.ID(), err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return nil, stderrors.NewProviderTimeoutError(c.ID())
		}
		return nil, stderrors.NewProviderError(c.ID(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, stderrors.NewProviderError(c.ID(), fmt.Errorf("status %d: %s", resp.StatusCode, string(detail)))
	}

	var apiResp anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, stderrors.NewProviderError(c.ID(), fmt.Errorf("decode error: %w", err))
	}

	content := ""
	if len(apiResp.Content) > 0 && apiResp.Content[0].Type == "text" {
		content = apiResp.Content[0].Text
	}

	return &Generation{
		Content:    content,
		Model:      c.cfg.Model,
		TokensUsed: apiResp.Usage.InputTokens + apiResp.Usage.OutputTokens,
		StopReason: apiResp.StopReason,
	}, nil
}

// Probe issues a minimal one-token message; the API has no dedicated health
// endpoint.
func (c *AnthropicClient) Probe(ctx context.Context) error {
	body, err := json.Marshal(anthropicRequest{
		Model:     c.cfg.Model,
		MaxTokens: 10,
		Messages:  []anthropicMessage{{Role: "user", Content: "test"}},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("probe status %d", resp.StatusCode)
	}
	return nil
}
