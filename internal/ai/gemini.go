package ai

import (
	"context"
	"strings"

	"go-lancers-scout/internal/apperr"
	"go-lancers-scout/internal/config"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type GeminiClient struct {
	client *genai.Client
	cfg    config.GeminiConfig
}

func NewGeminiClient(ctx context.Context, cfg config.GeminiConfig) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, apperr.GeminiAPI(err, "create gemini client")
	}
	return &GeminiClient{client: client, cfg: cfg}, nil
}

func (c *GeminiClient) model() *genai.GenerativeModel {
	model := c.client.GenerativeModel(c.cfg.Model)
	model.SetTemperature(c.cfg.Temperature)
	model.SetTopP(c.cfg.TopP)
	model.SetMaxOutputTokens(c.cfg.MaxOutputTokens)
	return model
}

func (c *GeminiClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model().GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", apperr.GeminiAPI(err, "generate content")
	}
	return responseText(resp)
}

func (c *GeminiClient) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	model := c.model()
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", apperr.GeminiAPI(err, "generate json")
	}
	text, err := responseText(resp)
	if err != nil {
		return "", err
	}
	return CleanJSON(text), nil
}

func (c *GeminiClient) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", apperr.GeminiAPI(nil, "empty response from Gemini API")
	}
	content := resp.Candidates[0].Content
	if content == nil {
		return "", apperr.GeminiAPI(nil, "empty response from Gemini API")
	}

	var sb strings.Builder
	for _, part := range content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", apperr.GeminiAPI(nil, "no text in Gemini response")
	}
	return strings.TrimSpace(sb.String()), nil
}
