package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"github.com/jasur93/complyai-itpark/internal/domain/advisor"
	domain "github.com/jasur93/complyai-itpark/internal/domain/compliance"
	"github.com/jasur93/complyai-itpark/internal/infra/ai/prompt"
)

const (
	defaultModel = "gpt-4o-mini"

	anomalyTemperature = 0.3
	anomalyMaxTokens   = 1000

	recommendationTemperature = 0.4
	recommendationMaxTokens   = 800
)

// Client implements advisor.Advisor on a hosted chat-completion API.
type Client struct {
	api    *openai.Client
	model  string
	logger zerolog.Logger
}

// NewClient builds an advisor client. BaseURL is optional and exists so tests
// can point the client at a local fake server.
func NewClient(apiKey, model, baseURL string, logger zerolog.Logger) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{api: openai.NewClientWithConfig(cfg), model: model, logger: logger}
}

// DetectAnomalies asks the model to flag anomalies in the snapshot. A
// malformed response degrades to an empty slice with a warning, not an error.
func (c *Client) DetectAnomalies(ctx context.Context, snap domain.FinancialSnapshot) ([]domain.Anomaly, error) {
	content, err := c.complete(ctx,
		prompt.AnomalySystemPrompt(),
		prompt.AnomalyUserPrompt(snap),
		anomalyTemperature, anomalyMaxTokens,
	)
	if err != nil {
		return nil, err
	}
	anomalies, dropped, err := prompt.ParseAnomalies(content)
	if err != nil {
		c.logger.Warn().Err(err).Msg("unparseable anomaly response, returning empty result")
		return []domain.Anomaly{}, nil
	}
	if dropped > 0 {
		c.logger.Warn().Int("dropped", dropped).Msg("discarded malformed anomaly entries")
	}
	return anomalies, nil
}

// GenerateRecommendations asks the model for remediation steps for the
// violations in result.
func (c *Client) GenerateRecommendations(ctx context.Context, result domain.AnalysisResult) ([]domain.Recommendation, error) {
	content, err := c.complete(ctx,
		prompt.RecommendationSystemPrompt(),
		prompt.RecommendationUserPrompt(result),
		recommendationTemperature, recommendationMaxTokens,
	)
	if err != nil {
		return nil, err
	}
	recs, dropped, err := prompt.ParseRecommendations(content)
	if err != nil {
		c.logger.Warn().Err(err).Msg("unparseable recommendation response, returning empty result")
		return []domain.Recommendation{}, nil
	}
	if dropped > 0 {
		c.logger.Warn().Int("dropped", dropped).Msg("discarded malformed recommendation entries")
	}
	return recs, nil
}

func (c *Client) complete(ctx context.Context, system, user string, temperature float32, maxTokens int) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return "", advisor.ErrQuotaExceeded
		}
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
