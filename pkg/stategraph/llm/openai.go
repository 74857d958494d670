package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/openai/openai-go"
	openaiopt "github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAIClient implements Client against any OpenAI-compatible chat
// completion API.
type OpenAIClient struct {
	client       openai.Client
	defaultModel string
}

// OpenAIOption configures the OpenAI client.
type OpenAIOption func(*openaiConfig)

type openaiConfig struct {
	requestOpts []openaiopt.RequestOption
}

// WithAPIKey sets the API key. When omitted, the SDK falls back to the
// OPENAI_API_KEY environment variable.
func WithAPIKey(key string) OpenAIOption {
	return func(c *openaiConfig) {
		c.requestOpts = append(c.requestOpts, openaiopt.WithAPIKey(key))
	}
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) OpenAIOption {
	return func(c *openaiConfig) {
		c.requestOpts = append(c.requestOpts, openaiopt.WithBaseURL(url))
	}
}

// NewOpenAIClient creates a client with the given default model.
func NewOpenAIClient(model string, opts ...OpenAIOption) *OpenAIClient {
	cfg := openaiConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &OpenAIClient{
		client:       openai.NewClient(cfg.requestOpts...),
		defaultModel: model,
	}
}

// Complete implements Client.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (*Message, error) {
	completion, err := c.client.Chat.Completions.New(ctx, c.buildParams(req))
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("chat completion: no choices returned")
	}
	return &Message{
		Role:    RoleAssistant,
		Content: completion.Choices[0].Message.Content,
	}, nil
}

// Stream implements Client. Fragments arrive on the returned channel in
// order; the channel closes when the response finishes or the context
// is cancelled.
func (c *OpenAIClient) Stream(ctx context.Context, req Request) (<-chan Chunk, error) {
	stream := c.client.Chat.Completions.NewStreaming(ctx, c.buildParams(req))

	out := make(chan Chunk)
	go func() {
		defer close(out)
		defer stream.Close()

		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			delta := chunk.Choices[0].Delta
			if delta.Content == "" && delta.Role == "" {
				continue
			}
			select {
			case out <- Chunk{Role: delta.Role, Content: delta.Content}:
			case <-ctx.Done():
				return
			}
		}
		if err := stream.Err(); err != nil {
			select {
			case out <- Chunk{Err: fmt.Errorf("chat stream: %w", err)}:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}

// buildParams converts a Request to OpenAI request params.
func (c *OpenAIClient) buildParams(req Request) openai.ChatCompletionNewParams {
	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: convertMessages(req.Messages),
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.MaxTokens != nil {
		params.MaxCompletionTokens = openai.Int(int64(*req.MaxTokens))
	}
	return params
}

// convertMessages maps our message format to the SDK's union params.
func convertMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			result = append(result, openai.SystemMessage(msg.Content))
		case RoleAssistant:
			result = append(result, openai.AssistantMessage(msg.Content))
		default:
			result = append(result, openai.UserMessage(msg.Content))
		}
	}
	return result
}
