package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/sozercan/episode-finder/internal/config"
)

// Gemini obtains structured output through a JSON response schema instead of
// tool calling.
type Gemini struct {
	client *genai.Client
	cfg    *config.LLMConfig
}

func NewGemini(ctx context.Context, cfg *config.LLMConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key cannot be empty")
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &Gemini{client: client, cfg: cfg}, nil
}

func (g *Gemini) CallStructured(ctx context.Context, req Request, opts ...Option) (*Response, error) {
	options := &Options{
		Model:       g.cfg.Model,
		Temperature: g.cfg.Temperature,
		MaxTokens:   g.cfg.MaxTokens,
	}
	for _, opt := range opts {
		opt(options)
	}

	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	genCfg := &genai.GenerateContentConfig{
		SystemInstruction:  genai.NewContentFromText(req.SystemPrompt, genai.RoleUser),
		ResponseMIMEType:   "application/json",
		ResponseJsonSchema: req.Function.Parameters,
		Temperature:        genai.Ptr(float32(options.Temperature)),
	}
	if options.MaxTokens > 0 {
		genCfg.MaxOutputTokens = int32(options.MaxTokens)
	}

	result, err := g.client.Models.GenerateContent(ctx, options.Model, genai.Text(req.UserPrompt), genCfg)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	return responseFromGemini(req.Function.Name, result)
}

func responseFromGemini(function string, result *genai.GenerateContentResponse) (*Response, error) {
	if result == nil || len(result.Candidates) == 0 {
		return nil, ErrNoStructuredPayload
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		slog.Warn("model replied without structured content", "function", function)
		return nil, ErrNoStructuredPayload
	}
	if !json.Valid([]byte(text)) {
		return nil, fmt.Errorf("%w: invalid JSON for %s", ErrNoStructuredPayload, function)
	}

	response := &Response{Arguments: json.RawMessage(text)}
	if u := result.UsageMetadata; u != nil {
		response.Usage = Usage{
			PromptTokens:     int64(u.PromptTokenCount),
			CompletionTokens: int64(u.CandidatesTokenCount),
			TotalTokens:      int64(u.TotalTokenCount),
		}
	}
	slog.Debug("structured call completed", "function", function, "tokens", response.Usage.TotalTokens)
	return response, nil
}
