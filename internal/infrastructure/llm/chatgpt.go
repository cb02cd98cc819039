package llm

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"ContentCurator/internal/config"
	"ContentCurator/internal/ports"
)

// ChatGPTClient implements ports.ModelClient backed by OpenAI-compatible APIs.
type ChatGPTClient struct {
	client      *openai.Client
	model       string
	apiKey      string
	temperature float32
}

var _ ports.ModelClient = (*ChatGPTClient)(nil)

// NewChatGPTClient builds a client from configuration. The HTTP client may be nil.
func NewChatGPTClient(cfg config.ModelConfig, httpClient *http.Client) *ChatGPTClient {
	openAIConfig := openai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimRight(cfg.BaseURL, "/"); base != "" {
		openAIConfig.BaseURL = base
	}
	if httpClient != nil {
		openAIConfig.HTTPClient = httpClient
	}

	return &ChatGPTClient{
		client:      openai.NewClientWithConfig(openAIConfig),
		model:       cfg.Model,
		apiKey:      cfg.APIKey,
		temperature: requestTemperature(cfg.Temperature),
	}
}

// requestTemperature keeps a configured 0 on the wire: the request field is
// omitempty, and an omitted temperature means the provider default.
func requestTemperature(t float32) float32 {
	if t <= 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}

// Complete sends a system + user message pair and returns the first choice.
func (c *ChatGPTClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c == nil || c.client == nil {
		return "", fmt.Errorf("chatgpt client is nil")
	}
	if c.apiKey == "" || c.model == "" {
		return "", fmt.Errorf("chatgpt client misconfigured")
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: safePrompt(systemPrompt)},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "You score content items. Reply with a JSON array of integers only."
	}
	return prompt
}
