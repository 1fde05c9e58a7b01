package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sozercan/episode-finder/internal/errs"
	"github.com/sozercan/episode-finder/internal/llm"
)

// ConfidenceThreshold is the confidence below which follow-up questions are
// offered.
const ConfidenceThreshold = 0.9

const functionName = "record_analysis"

// FallbackFollowUps are offered when the provider reports low confidence
// without suggesting any follow-up questions of its own.
var FallbackFollowUps = []string{
	"Do you remember any specific character deaths or major plot twists?",
	"Can you recall any significant locations or settings from your last watched episode?",
	"What was the main conflict or problem the characters were dealing with when you stopped watching?",
}

var SystemPrompt = `You help people work out where they stopped watching a TV series.
You will receive the show title and a transcript of yes/no/not sure questions with the viewer's answers,
sometimes with extra details they added.
Infer the last point in the series the viewer most likely watched.
Give the season and episode numbers when you can pin them down, and always describe the point in the story.
Report your confidence between 0 and 1. When it is below 0.9, suggest up to three yes/no follow-up
questions that would best narrow down the stopping point.
Record the result by calling the ` + functionName + ` function.`

// LastWatchedPoint locates the inferred stopping point. Season and Episode
// are nil when the inference does not resolve to a numbered episode.
type LastWatchedPoint struct {
	Season      *int   `json:"season,omitempty" description:"season number, omit if unknown"`
	Episode     *int   `json:"episode,omitempty" description:"episode number within the season, omit if unknown"`
	Description string `json:"description" description:"what happens at the point the viewer stopped"`
}

type Result struct {
	LastWatchedPoint  LastWatchedPoint `json:"lastWatchedPoint"`
	Confidence        float64          `json:"confidence" description:"confidence between 0 and 1"`
	FollowUpQuestions []string         `json:"followUpQuestions,omitempty" description:"yes/no questions that would raise confidence"`
}

// NeedsFollowUp reports whether the result is below the confidence threshold.
func (r *Result) NeedsFollowUp() bool {
	return r.Confidence < ConfidenceThreshold
}

var function = llm.Function{
	Name:        functionName,
	Description: "Record where the viewer most likely stopped watching.",
	Parameters:  llm.SchemaFor(Result{}),
}

type Analyzer struct {
	llmProvider llm.Provider
}

func New(llmProvider llm.Provider) *Analyzer {
	return &Analyzer{
		llmProvider: llmProvider,
	}
}

// Analyze infers the last watched point from paired questions and answers.
// The two slices must have equal, non-zero length.
func (a *Analyzer) Analyze(ctx context.Context, show string, questions, answers []string) (*Result, error) {
	show = strings.TrimSpace(show)
	switch {
	case show == "":
		return nil, errs.Validation("show title is required")
	case len(questions) == 0:
		return nil, errs.Validation("at least one question is required")
	case len(questions) != len(answers):
		return nil, errs.Validation("got %d questions but %d answers", len(questions), len(answers))
	}

	slog.Info("Starting analysis", "show", show, "questions", len(questions))
	startTime := time.Now()

	resp, err := a.llmProvider.CallStructured(ctx, llm.Request{
		SystemPrompt: SystemPrompt,
		UserPrompt:   buildTranscript(show, questions, answers),
		Function:     function,
	})
	if err != nil {
		slog.Error("LLM analysis failed", "error", err)
		return nil, errs.Generation("analyze", err)
	}

	result, err := decodeResult(resp)
	if err != nil {
		return nil, errs.Generation("analyze", err)
	}

	applyFollowUpPolicy(result)

	slog.Info("Analysis completed",
		"show", show,
		"confidence", result.Confidence,
		"followUps", len(result.FollowUpQuestions),
		"duration", time.Since(startTime).String(),
		"tokens", resp.Usage.TotalTokens,
	)
	return result, nil
}

// payload mirrors Result with pointers so absent required fields can be
// told apart from zero values.
type payload struct {
	LastWatchedPoint  *LastWatchedPoint `json:"lastWatchedPoint"`
	Confidence        *float64          `json:"confidence"`
	FollowUpQuestions []string          `json:"followUpQuestions"`
}

// decodeResult rejects payloads missing the stopping point description or
// the confidence.
func decodeResult(resp *llm.Response) (*Result, error) {
	var p payload
	if err := resp.Decode(&p); err != nil {
		return nil, err
	}
	switch {
	case p.LastWatchedPoint == nil || strings.TrimSpace(p.LastWatchedPoint.Description) == "":
		return nil, fmt.Errorf("%w: missing lastWatchedPoint.description", llm.ErrNoStructuredPayload)
	case p.Confidence == nil:
		return nil, fmt.Errorf("%w: missing confidence", llm.ErrNoStructuredPayload)
	}
	return &Result{
		LastWatchedPoint:  *p.LastWatchedPoint,
		Confidence:        *p.Confidence,
		FollowUpQuestions: p.FollowUpQuestions,
	}, nil
}

// applyFollowUpPolicy clamps confidence to [0, 1] and makes the follow-up
// list consistent with it: confident results carry none, unconfident ones
// always carry at least the fallback set.
func applyFollowUpPolicy(r *Result) {
	switch {
	case r.Confidence < 0:
		r.Confidence = 0
	case r.Confidence > 1:
		r.Confidence = 1
	}

	if !r.NeedsFollowUp() {
		r.FollowUpQuestions = nil
		return
	}

	var followUps []string
	for _, q := range r.FollowUpQuestions {
		if q = strings.TrimSpace(q); q != "" {
			followUps = append(followUps, q)
		}
	}
	if len(followUps) == 0 {
		followUps = append([]string(nil), FallbackFollowUps...)
	}
	r.FollowUpQuestions = followUps
}

func buildTranscript(show string, questions, answers []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "TV show: %s\n\nQuestions and answers:\n", show)
	for i := range questions {
		fmt.Fprintf(&b, "Q%d: %s\nA%d: %s\n", i+1, questions[i], i+1, answers[i])
	}
	return b.String()
}
