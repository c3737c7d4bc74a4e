// Package listing turns a reduced annotation summary into a natural-language
// property listing via a generative-text provider.
package listing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Listing is the structured property listing the model is asked to return.
type Listing struct {
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	KeyFeatures     []string          `json:"keyFeatures"`
	PropertyDetails map[string]string `json:"propertyDetails"`
}

// ErrNoJSON is returned when the model response contains no JSON object.
var ErrNoJSON = errors.New("no JSON object found in model response")

// Generator produces a listing from prompt text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*Listing, error)
}

// OpenAIGenerator calls a chat-completion endpoint.
type OpenAIGenerator struct {
	cli    *openai.Client
	model  string
	logger *slog.Logger
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *slog.Logger
}

func NewOpenAIGenerator(cfg OpenAIConfig) *OpenAIGenerator {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &OpenAIGenerator{
		cli:    openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

const systemPrompt = `You are a real-estate copywriter. Given a machine-generated
analysis of a property walkthrough video, write a compelling listing. Respond
with a single JSON object with the keys "title", "description", "keyFeatures"
(array of strings) and "propertyDetails" (object of string values). Only
mention what the analysis supports.`

// Generate sends the prompt and parses the JSON object embedded in the
// response, tolerating surrounding prose and markdown fencing.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (*Listing, error) {
	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.4,
	}

	resp, err := g.cli.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	content := resp.Choices[0].Message.Content
	g.logger.Debug("model response received", "bytes", len(content))

	result, err := ParseListing(content)
	if err != nil {
		return nil, fmt.Errorf("parse model response: %w", err)
	}
	return result, nil
}

// ParseListing locates the JSON object substring in text (first '{' to last
// '}') and unmarshals it.
func ParseListing(text string) (*Listing, error) {
	raw, err := extractJSON(text)
	if err != nil {
		return nil, err
	}

	var l Listing
	if err := json.Unmarshal([]byte(raw), &l); err != nil {
		return nil, fmt.Errorf("unmarshal listing JSON: %w", err)
	}
	return &l, nil
}

func extractJSON(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", ErrNoJSON
	}
	return text[start : end+1], nil
}
