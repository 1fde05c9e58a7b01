package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoStructuredPayload is returned when the provider answered without the
// structured result it was asked for.
var ErrNoStructuredPayload = errors.New("provider returned no structured payload")

type Provider interface {
	// CallStructured sends the prompts and returns the arguments the model
	// produced for req.Function, validated only as JSON.
	CallStructured(ctx context.Context, req Request, opts ...Option) (*Response, error)
}

// Function describes the schema the model's reply must conform to.
type Function struct {
	Name        string
	Description string
	Parameters  map[string]any
}

type Request struct {
	SystemPrompt string
	UserPrompt   string
	Function     Function
}

type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

type Option func(*Options)

type Options struct {
	Model       string
	MaxTokens   int64
	Temperature float64
}

func WithModel(model string) Option {
	return func(o *Options) { o.Model = model }
}

func WithTemperature(t float64) Option {
	return func(o *Options) { o.Temperature = t }
}

func WithMaxTokens(n int64) Option {
	return func(o *Options) { o.MaxTokens = n }
}

type Response struct {
	// Arguments is the raw JSON object the model produced for the function.
	Arguments json.RawMessage
	Usage     Usage
}

// Decode unmarshals the structured payload into v. An empty or malformed
// payload is reported as ErrNoStructuredPayload.
func (r *Response) Decode(v any) error {
	if r == nil || len(r.Arguments) == 0 {
		return ErrNoStructuredPayload
	}
	if err := json.Unmarshal(r.Arguments, v); err != nil {
		return fmt.Errorf("%w: %v", ErrNoStructuredPayload, err)
	}
	return nil
}
