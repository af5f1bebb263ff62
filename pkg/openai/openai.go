// Package openai implements the language-model collaborator on the OpenAI
// chat completions API.
package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	contractx "github.com/verzel/sdr-agent/agent/contract"
)

type Config struct {
	BaseURL     string        `envconfig:"BASE_URL" split_words:"true"`
	APIKey      string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model       string        `envconfig:"MODEL" split_words:"true" default:"gpt-4o-mini"`
	Temperature float64       `envconfig:"TEMPERATURE" split_words:"true" default:"0.7"`
	Timeout     time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
}

// Client generates replies over the full conversation history with the SDR
// system prompt prepended. It implements contract.ModelClient.
type Client struct {
	api          *openaisdk.Client
	model        string
	temperature  float64
	systemPrompt string
}

func NewClient(cfg Config, systemPrompt string) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: openai api key is required", contractx.ErrValidation)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if trimmed := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	api := openaisdk.NewClient(opts...)

	return &Client{
		api:          &api,
		model:        strings.TrimSpace(cfg.Model),
		temperature:  cfg.Temperature,
		systemPrompt: systemPrompt,
	}, nil
}

func MustNew(cfg Config, systemPrompt string) *Client {
	client, err := NewClient(cfg, systemPrompt)
	if err != nil {
		panic(err)
	}
	return client
}

func (c *Client) GenerateReply(ctx context.Context, history []contractx.ChatTurn) (string, error) {
	messages := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(history)+1)
	messages = append(messages, openaisdk.SystemMessage(c.systemPrompt))
	for _, turn := range history {
		switch turn.Role {
		case contractx.RoleAssistant:
			messages = append(messages, openaisdk.AssistantMessage(turn.Content))
		case contractx.RoleSystem:
			messages = append(messages, openaisdk.SystemMessage(turn.Content))
		default:
			messages = append(messages, openaisdk.UserMessage(turn.Content))
		}
	}

	resp, err := c.api.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model:       openaisdk.ChatModel(c.model),
		Messages:    messages,
		Temperature: openaisdk.Float(c.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrProvider, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: completion has no choices", contractx.ErrProvider)
	}

	return resp.Choices[0].Message.Content, nil
}
