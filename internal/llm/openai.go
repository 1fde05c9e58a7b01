package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"

	"github.com/sozercan/episode-finder/internal/config"
)

// OpenAI client implementation. Structured output is obtained by forcing a
// single function tool call.
type OpenAI struct {
	client *openai.Client
	cfg    *config.LLMConfig
}

func NewOpenAI(cfg *config.LLMConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key cannot be empty")
	}

	var client *openai.Client

	switch cfg.Provider {
	case "azure":
		client = openai.NewClient(
			azure.WithEndpoint(cfg.Endpoint, cfg.APIVersion),
			azure.WithAPIKey(cfg.APIKey),
			option.WithMaxRetries(0),
		)
	default: // "openai"
		opts := []option.RequestOption{
			option.WithAPIKey(cfg.APIKey),
			option.WithMaxRetries(0),
		}
		if cfg.Endpoint != "" {
			opts = append(opts, option.WithBaseURL(cfg.Endpoint))
		}
		client = openai.NewClient(opts...)
	}

	return &OpenAI{
		client: client,
		cfg:    cfg,
	}, nil
}

func (o *OpenAI) CallStructured(ctx context.Context, req Request, opts ...Option) (*Response, error) {
	options := &Options{
		Model:       o.cfg.Model,
		Temperature: o.cfg.Temperature,
		MaxTokens:   o.cfg.MaxTokens,
	}
	for _, opt := range opts {
		opt(options)
	}

	if o.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.Timeout)
		defer cancel()
	}

	tool := openai.ChatCompletionToolParam{
		Type: openai.F(openai.ChatCompletionToolTypeFunction),
		Function: openai.F(openai.FunctionDefinitionParam{
			Name:        openai.String(req.Function.Name),
			Description: openai.String(req.Function.Description),
			Parameters:  openai.F(openai.FunctionParameters(req.Function.Parameters)),
		}),
	}

	resp, err := o.client.Chat.Completions.New(
		ctx,
		openai.ChatCompletionNewParams{
			Model: openai.F(options.Model),
			Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(req.SystemPrompt),
				openai.UserMessage(req.UserPrompt),
			}),
			Tools: openai.F([]openai.ChatCompletionToolParam{tool}),
			ToolChoice: openai.F[openai.ChatCompletionToolChoiceOptionUnionParam](openai.ChatCompletionNamedToolChoiceParam{
				Type: openai.F(openai.ChatCompletionNamedToolChoiceTypeFunction),
				Function: openai.F(openai.ChatCompletionNamedToolChoiceFunctionParam{
					Name: openai.String(req.Function.Name),
				}),
			}),
			Temperature: openai.F(options.Temperature),
			MaxTokens:   openai.F(options.MaxTokens),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	response := &Response{
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}

	if len(resp.Choices) == 0 {
		return nil, ErrNoStructuredPayload
	}
	for _, call := range resp.Choices[0].Message.ToolCalls {
		if call.Function.Name != req.Function.Name {
			continue
		}
		if !json.Valid([]byte(call.Function.Arguments)) {
			return nil, fmt.Errorf("%w: invalid JSON arguments for %s", ErrNoStructuredPayload, call.Function.Name)
		}
		response.Arguments = json.RawMessage(call.Function.Arguments)
		slog.Debug("structured call completed", "function", req.Function.Name, "tokens", response.Usage.TotalTokens)
		return response, nil
	}

	slog.Warn("model replied without calling the function", "function", req.Function.Name)
	return nil, ErrNoStructuredPayload
}
