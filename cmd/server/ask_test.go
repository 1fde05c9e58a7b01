package main

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sozercan/episode-finder/internal/analyzer"
	"github.com/sozercan/episode-finder/internal/config"
	"github.com/sozercan/episode-finder/internal/errs"
	"github.com/sozercan/episode-finder/internal/finder"
)

type fakeBackend struct {
	loadErr  error
	loads    int
	results  []*analyzer.Result
	analyses [][]string
}

func (f *fakeBackend) GenerateQuestions(context.Context, string, string) (*finder.QuestionSet, error) {
	f.loads++
	if f.loadErr != nil {
		err := f.loadErr
		f.loadErr = nil
		return nil, err
	}
	return &finder.QuestionSet{Questions: []string{"Q1?", "Q2?"}}, nil
}

func (f *fakeBackend) Analyze(_ context.Context, _ string, _, answers []string) (*analyzer.Result, error) {
	f.analyses = append(f.analyses, answers)
	r := f.results[0]
	f.results = f.results[1:]
	return r, nil
}

func intPtr(v int) *int { return &v }

func TestAskConfidentResult(t *testing.T) {
	backend := &fakeBackend{results: []*analyzer.Result{{
		LastWatchedPoint: analyzer.LastWatchedPoint{Season: intPtr(3), Episode: intPtr(7), Description: "The heist"},
		Confidence:       0.95,
	}}}
	in := strings.NewReader("y\nb\nn\ns + skipped the finale\n")
	var out bytes.Buffer

	require.NoError(t, runAsk(context.Background(), in, &out, backend, "Severance"))

	require.Len(t, backend.analyses, 1)
	assert.Equal(t, []string{"NO", "NOT_SURE. Additional info: skipped the finale"}, backend.analyses[0])
	assert.Contains(t, out.String(), "season 3, episode 7")
	assert.Contains(t, out.String(), "Confidence: 95%")
}

func TestAskPromptsForShowAndFollowUps(t *testing.T) {
	backend := &fakeBackend{results: []*analyzer.Result{
		{
			LastWatchedPoint:  analyzer.LastWatchedPoint{Season: intPtr(1)},
			Confidence:        0.5,
			FollowUpQuestions: []string{"F1?"},
		},
		{
			LastWatchedPoint: analyzer.LastWatchedPoint{Season: intPtr(1), Episode: intPtr(4)},
			Confidence:       0.92,
		},
	}}
	in := strings.NewReader("\nSeverance\nwhat\ny\ny\ny\nn\n")
	var out bytes.Buffer

	require.NoError(t, runAsk(context.Background(), in, &out, backend, ""))

	require.Len(t, backend.analyses, 2)
	assert.Equal(t, []string{"YES", "YES", "NO"}, backend.analyses[1])
	assert.Contains(t, out.String(), askHelp)
	assert.Contains(t, out.String(), "  - F1?")
	assert.Contains(t, out.String(), "season 1, episode 4")
}

func TestAskRetriesAfterFailure(t *testing.T) {
	backend := &fakeBackend{
		loadErr: errs.Generation("generate questions", nil),
		results: []*analyzer.Result{{Confidence: 0.95}},
	}
	in := strings.NewReader("y\ny\ny\n")
	var out bytes.Buffer

	require.NoError(t, runAsk(context.Background(), in, &out, backend, "Severance"))
	assert.Equal(t, 2, backend.loads)
	assert.Contains(t, out.String(), "Something went wrong")
	assert.Contains(t, out.String(), "couldn't pin down a season")
}

func TestAskStopsOnRateLimit(t *testing.T) {
	backend := &fakeBackend{loadErr: &errs.RateLimitError{ResetInHours: 5}}
	var out bytes.Buffer

	require.NoError(t, runAsk(context.Background(), strings.NewReader(""), &out, backend, "Severance"))
	assert.Contains(t, out.String(), "available again in 5 hours")
	assert.Equal(t, 1, backend.loads)
}

func TestAskQuit(t *testing.T) {
	backend := &fakeBackend{}
	var out bytes.Buffer
	require.NoError(t, runAsk(context.Background(), strings.NewReader("q\n"), &out, backend, "Severance"))
	assert.Empty(t, backend.analyses)
}

func TestSetupLoggingJSON(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	setupLogging(config.LogConfig{Level: "debug", Format: "json"}, &buf)
	slog.Debug("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"k":"v"`)
}
