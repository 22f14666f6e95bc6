// Package anthropic implements llm.Provider on top of the Anthropic
// Messages API via the official SDK.
package anthropic

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/luminalabs/personamem-go/pkg/llm"
)

// Client is an Anthropic messages client implementing llm.Provider.
type Client struct {
	client anthropic.Client
	model  string
}

// Config configures the Anthropic LLM client.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// Model is the model name, defaults to "claude-3-5-sonnet-20240620".
	Model string

	// BaseURL overrides the API base URL.
	BaseURL string
}

// NewClient creates an Anthropic LLM client from the given configuration.
func NewClient(cfg *Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "claude-3-5-sonnet-20240620"
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		client: anthropic.NewClient(opts...),
		model:  model,
	}, nil
}

// Generate produces text for a single user prompt.
func (c *Client) Generate(ctx context.Context, prompt string, opts ...llm.GenerateOption) (string, error) {
	messages := []llm.Message{
		{Role: "user", Content: prompt},
	}
	return c.GenerateWithMessages(ctx, messages, opts...)
}

// GenerateWithMessages produces text for a conversation history. The
// Messages API takes system text as a separate parameter, so system
// messages are lifted out of the history before the call.
func (c *Client) GenerateWithMessages(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (string, error) {
	options := llm.ApplyGenerateOptions(opts)

	var system string
	var turns []anthropic.MessageParam
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			system = msg.Content
		case "assistant":
			turns = append(turns, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			turns = append(turns, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   int64(options.MaxTokens),
		Messages:    turns,
		Temperature: anthropic.Float(options.Temperature),
		TopP:        anthropic.Float(options.TopP),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if len(options.Stop) > 0 {
		params.StopSequences = options.Stop
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("llm generation failed: no text content returned from Anthropic API")
	}

	return sb.String(), nil
}

// Close is a no-op; the SDK holds no connection state.
func (c *Client) Close() error {
	return nil
}
