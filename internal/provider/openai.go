// internal/provider/openai.go
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

// OpenAIClient calls the chat completions API.
type OpenAIClient struct {
	cfg    config.ProviderConfig
	client *httpx.Client
}

func NewOpenAIClient(cfg config.ProviderConfig, client *httpx.Client) *OpenAIClient {
	return &OpenAIClient{cfg: cfg, client: client}
}

func (c *OpenAIClient) ID() string {
	return ProviderOpenAI
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
	Stream      bool            `json:"stream"`
}

type openAIResponse struct {
	Choices []struct {
		Message      openAIMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

func (c *OpenAIClient) Generate(ctx context.Context, genReq *GenerationRequest) (*Generation, error) {
	messages := []openAIMessage{}
	if genReq.SystemPrompt != "" {
		messages = append(messages, openAIMessage{Role: "system", Content: genReq.SystemPrompt})
	}
	if genReq.Context != "" {
		messages = append(messages, openAIMessage{
			Role:    "system",
			Content: "Contexto adicional: " + genReq.Context,
		})
	}
	messages = append(messages, openAIMessage{Role: "user", Content: genReq.Query})

	body, err := json.Marshal(openAIRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		Stream:      false,
	})
	if err != nil {
		return nil, stderrors.NewProviderError(c.ID(), err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, stderrors.NewProviderError(c.ID(), err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

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

	var apiResp openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, stderrors.NewProviderError(c.ID(), fmt.Errorf("decode error: %w", err))
	}
	if len(apiResp.Choices) == 0 {
		return nil, stderrors.NewProviderError(c.ID(), errors.New("empty choices in response"))
	}

	return &Generation{
		Content:    apiResp.Choices[0].Message.Content,
		Model:      c.cfg.Model,
		TokensUsed: apiResp.Usage.TotalTokens,
		StopReason: apiResp.Choices[0].FinishReason,
	}, nil
}

// Probe lists models, the cheapest authenticated call the API offers.
func (c *OpenAIClient) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.cfg.BaseURL+"/v1/models", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

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
