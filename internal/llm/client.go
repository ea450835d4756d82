// Package llm provides a text-generation client for any OpenAI-compatible
// chat completions endpoint (DashScope by default).
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

// DefaultEndpoint is DashScope's OpenAI-compatible base URL.
const DefaultEndpoint = "https://dashscope-intl.aliyuncs.com/compatible-mode/v1"

// ModelQwenPlus is the default model.
const ModelQwenPlus = "qwen-plus"

// Generator is anything that can answer a chat request.
type Generator interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// Policy bounds a single request. The zero value means no timeout and no retries.
type Policy struct {
	Timeout   time.Duration
	Retries   int
	RetryWait time.Duration
}

// Config selects the endpoint, model and request policy.
type Config struct {
	APIKey     string
	Endpoint   string
	Model      string
	Policy     Policy
	HTTPClient *http.Client
}

// Client is a Generator backed by go-openai.
type Client struct {
	client *openai.Client
	model  string
	policy Policy
}

// NewClient fills in the DashScope endpoint and qwen-plus when unset.
func NewClient(cfg Config) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = ModelQwenPlus
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.Endpoint
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	}

	return &Client{
		client: openai.NewClientWithConfig(oc),
		model:  cfg.Model,
		policy: cfg.Policy,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// ChatRequest is one system/user exchange.
type ChatRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float32
	MaxTokens    int
	// JSONMode asks the endpoint for a json_object response.
	JSONMode bool
}

// ChatResponse is the first choice of a completion.
type ChatResponse struct {
	Content      string
	FinishReason string
	Usage        openai.Usage
}

// ErrNoChoices is returned when the endpoint answers without any choice.
var ErrNoChoices = errors.New("no choices in response")

// Chat sends a chat completion request, retrying per the client's Policy.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	chatReq := c.buildRequest(req)

	log.Debug().
		Str("model", c.model).
		Int("messages", len(chatReq.Messages)).
		Bool("json_mode", req.JSONMode).
		Msg("Sending chat request")

	var lastErr error
	for attempt := 0; attempt <= c.policy.Retries; attempt++ {
		if attempt > 0 {
			log.Debug().Int("attempt", attempt+1).Err(lastErr).Msg("Retrying chat request")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.policy.RetryWait):
			}
		}

		resp, err := c.once(ctx, chatReq)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) once(ctx context.Context, chatReq openai.ChatCompletionRequest) (*ChatResponse, error) {
	if c.policy.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.policy.Timeout)
		defer cancel()
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, ErrNoChoices
	}

	choice := resp.Choices[0]
	log.Debug().
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Str("finish_reason", string(choice.FinishReason)).
		Msg("Chat response received")

	return &ChatResponse{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Usage:        resp.Usage,
	}, nil
}

func (c *Client) buildRequest(req ChatRequest) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.UserPrompt})

	chatReq := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   max(req.MaxTokens, 0),
	}
	if req.JSONMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}
	return chatReq
}
