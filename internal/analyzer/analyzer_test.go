package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sozercan/episode-finder/internal/errs"
	"github.com/sozercan/episode-finder/internal/llm"
)

type fakeProvider struct {
	args  string
	err   error
	calls []llm.Request
}

func (f *fakeProvider) CallStructured(_ context.Context, req llm.Request, _ ...llm.Option) (*llm.Response, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Arguments: json.RawMessage(f.args)}, nil
}

var (
	twoQuestions = []string{"Have you seen the Red Wedding?", "Do you remember Hardhome?"}
	twoAnswers   = []string{"YES", "NO. Additional info: I think I stopped around then"}
)

func TestAnalyzeConfident(t *testing.T) {
	provider := &fakeProvider{args: `{
		"lastWatchedPoint": {"season": 4, "episode": 10, "description": "Tyrion escapes"},
		"confidence": 0.95,
		"followUpQuestions": ["Should be dropped?"]
	}`}

	result, err := New(provider).Analyze(context.Background(), "Game of Thrones", twoQuestions, twoAnswers)
	require.NoError(t, err)

	require.NotNil(t, result.LastWatchedPoint.Season)
	assert.Equal(t, 4, *result.LastWatchedPoint.Season)
	assert.Equal(t, 10, *result.LastWatchedPoint.Episode)
	assert.Equal(t, "Tyrion escapes", result.LastWatchedPoint.Description)
	assert.InDelta(t, 0.95, result.Confidence, 1e-9)
	assert.Empty(t, result.FollowUpQuestions)
	assert.False(t, result.NeedsFollowUp())
}

func TestAnalyzeLowConfidenceInjectsFallback(t *testing.T) {
	provider := &fakeProvider{args: `{"lastWatchedPoint": {"description": "Somewhere in season 3"}, "confidence": 0.4}`}

	result, err := New(provider).Analyze(context.Background(), "Game of Thrones", twoQuestions, twoAnswers)
	require.NoError(t, err)

	assert.Nil(t, result.LastWatchedPoint.Season)
	assert.Nil(t, result.LastWatchedPoint.Episode)
	assert.Equal(t, []string{
		"Do you remember any specific character deaths or major plot twists?",
		"Can you recall any significant locations or settings from your last watched episode?",
		"What was the main conflict or problem the characters were dealing with when you stopped watching?",
	}, result.FollowUpQuestions)

	// callers mutating the result must not corrupt the fallback set
	result.FollowUpQuestions[0] = "changed"
	assert.NotEqual(t, "changed", FallbackFollowUps[0])
}

func TestAnalyzeLowConfidenceKeepsProviderFollowUps(t *testing.T) {
	provider := &fakeProvider{args: `{
		"lastWatchedPoint": {"description": "Season 3"},
		"confidence": 0.6,
		"followUpQuestions": ["Did you see Jon go beyond the Wall?", ""]
	}`}

	result, err := New(provider).Analyze(context.Background(), "Game of Thrones", twoQuestions, twoAnswers)
	require.NoError(t, err)
	assert.Equal(t, []string{"Did you see Jon go beyond the Wall?"}, result.FollowUpQuestions)
}

func TestAnalyzeTranscript(t *testing.T) {
	provider := &fakeProvider{args: `{"lastWatchedPoint": {"description": "x"}, "confidence": 0.99}`}

	_, err := New(provider).Analyze(context.Background(), "Game of Thrones", twoQuestions, twoAnswers)
	require.NoError(t, err)

	require.Len(t, provider.calls, 1)
	req := provider.calls[0]
	assert.Equal(t, "record_analysis", req.Function.Name)
	assert.Equal(t, "TV show: Game of Thrones\n\nQuestions and answers:\n"+
		"Q1: Have you seen the Red Wedding?\nA1: YES\n"+
		"Q2: Do you remember Hardhome?\nA2: NO. Additional info: I think I stopped around then\n",
		req.UserPrompt)
}

func TestAnalyzeValidation(t *testing.T) {
	tests := []struct {
		name      string
		show      string
		questions []string
		answers   []string
	}{
		{"mismatched counts", "Friends", []string{"a", "b"}, []string{"Yes"}},
		{"no questions", "Friends", nil, nil},
		{"missing show", " ", []string{"a"}, []string{"Yes"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{}
			_, err := New(provider).Analyze(context.Background(), tt.show, tt.questions, tt.answers)
			assert.ErrorIs(t, err, errs.ErrValidation)
			assert.Empty(t, provider.calls, "no provider call on invalid input")
		})
	}
}

func TestAnalyzeGenerationFailures(t *testing.T) {
	tests := []struct {
		name     string
		provider *fakeProvider
	}{
		{"provider error", &fakeProvider{err: context.DeadlineExceeded}},
		{"no payload", &fakeProvider{err: llm.ErrNoStructuredPayload}},
		{"malformed payload", &fakeProvider{args: `{"confidence": "high"}`}},
		{"transport", &fakeProvider{err: errors.New("connection reset")}},
		{"empty object", &fakeProvider{args: `{}`}},
		{"missing description", &fakeProvider{args: `{"confidence": 0.95}`}},
		{"blank description", &fakeProvider{args: `{"lastWatchedPoint": {"season": 2, "description": "  "}, "confidence": 0.95}`}},
		{"missing confidence", &fakeProvider{args: `{"lastWatchedPoint": {"description": "Season 2 finale"}}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.provider).Analyze(context.Background(), "Friends", []string{"a"}, []string{"Yes"})
			assert.ErrorIs(t, err, errs.ErrGeneration)
		})
	}
}

func TestApplyFollowUpPolicyClampsConfidence(t *testing.T) {
	r := &Result{Confidence: 1.7, FollowUpQuestions: []string{"x"}}
	applyFollowUpPolicy(r)
	assert.Equal(t, 1.0, r.Confidence)
	assert.Nil(t, r.FollowUpQuestions)

	r = &Result{Confidence: -0.2}
	applyFollowUpPolicy(r)
	assert.Equal(t, 0.0, r.Confidence)
	assert.Len(t, r.FollowUpQuestions, 3)
}
