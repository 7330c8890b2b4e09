package llm

import (
	"context"
	"fmt"
	"iter"

	"github.com/commaworks/comma/internal/domain"
	"google.golang.org/genai"
)

type GeminiClient struct {
	client    *genai.Client
	modelName string
}

// NewGeminiClient creates an LLMClient over the Gemini API (API-key backend).
func NewGeminiClient(ctx context.Context, apiKey, modelName string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	return &GeminiClient{
		client:    client,
		modelName: modelName,
	}, nil
}

// StreamReply implements domain.LLMClient. The persona's system prompt steers
// the turn; the prior transcript is replayed with user/model roles.
func (g *GeminiClient) StreamReply(
	ctx context.Context,
	persona domain.Persona,
	history []domain.Message,
	userMessage string,
) iter.Seq2[string, error] {
	var contents []*genai.Content
	for _, m := range history {
		var role genai.Role = genai.RoleUser
		if m.Role == domain.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(userMessage, genai.RoleUser))

	cfg := g.baseConfig()
	cfg.SystemInstruction = genai.NewContentFromText(persona.SystemPrompt, genai.RoleUser)

	return func(yield func(string, error) bool) {
		for res, err := range g.client.Models.GenerateContentStream(ctx, g.modelName, contents, cfg) {
			if err != nil {
				yield("", fmt.Errorf("gemini stream: %w", err))
				return
			}
			text := res.Text()
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}
	}
}

// GenerateText implements domain.LLMClient for whole-response prompts.
func (g *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	res, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, g.baseConfig())
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned empty text")
	}
	return text, nil
}

// GenerateJSON implements domain.LLMClient for structured calls by asking the
// model for an application/json response.
func (g *GeminiClient) GenerateJSON(ctx context.Context, prompt string) ([]byte, error) {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	cfg := g.baseConfig()
	cfg.ResponseMIMEType = "application/json"

	res, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate json: %w", err)
	}

	text := res.Text()
	if text == "" {
		return nil, fmt.Errorf("gemini returned empty text")
	}
	return []byte(text), nil
}

func (g *GeminiClient) baseConfig() *genai.GenerateContentConfig {
	temp := float32(0.7)
	topP := float32(0.9)

	return &genai.GenerateContentConfig{
		Temperature:     &temp,
		TopP:            &topP,
		MaxOutputTokens: 8192,
	}
}
