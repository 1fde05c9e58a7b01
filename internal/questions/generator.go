// Package questions synthesizes yes/no questions for shows that have no
// curated question set.
package questions

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sozercan/episode-finder/internal/errs"
	"github.com/sozercan/episode-finder/internal/llm"
)

// Count is the number of questions a generation must produce.
const Count = 5

const functionName = "record_questions"

var SystemPrompt = `You help people work out where they stopped watching a TV series.
Write exactly five questions about the show that can each be answered with yes, no or not sure.
Order them from general to specific, progressing through the series so that the answers
narrow down how far the viewer got.
Cover these categories, one question each, in this order: plot, character, event, emotion, detail.
Keep spoilers light: the viewer may have stopped anywhere, so describe moments just enough
to be recognised by someone who saw them.
Record the questions by calling the ` + functionName + ` function.`

// Question is one generated question.
type Question struct {
	Question string `json:"question" description:"a question answerable with yes, no or not sure"`
}

type generated struct {
	Questions []Question `json:"questions" required:"true" description:"exactly five questions ordered from general to specific"`
}

var function = llm.Function{
	Name:        functionName,
	Description: "Record the yes/no questions used to locate the viewer's last watched episode.",
	Parameters:  llm.SchemaFor(generated{}),
}

type Generator struct {
	llmProvider llm.Provider
}

func New(llmProvider llm.Provider) *Generator {
	return &Generator{llmProvider: llmProvider}
}

// Generate asks the provider for Count questions about show. Any failure,
// including a reply with too few usable questions, is an errs.ErrGeneration.
func (g *Generator) Generate(ctx context.Context, show string) ([]Question, error) {
	show = strings.TrimSpace(show)
	if show == "" {
		return nil, errs.Validation("show title is required")
	}

	slog.Info("Generating questions", "show", show)

	resp, err := g.llmProvider.CallStructured(ctx, llm.Request{
		SystemPrompt: SystemPrompt,
		UserPrompt:   fmt.Sprintf("TV show: %s", show),
		Function:     function,
	})
	if err != nil {
		slog.Error("Question generation failed", "show", show, "error", err)
		return nil, errs.Generation("generate questions", err)
	}

	var out generated
	if err := resp.Decode(&out); err != nil {
		return nil, errs.Generation("generate questions", err)
	}

	questions := make([]Question, 0, Count)
	for _, q := range out.Questions {
		text := strings.TrimSpace(q.Question)
		if text == "" {
			continue
		}
		questions = append(questions, Question{Question: text})
		if len(questions) == Count {
			break
		}
	}
	if len(questions) < Count {
		return nil, errs.Generation("generate questions",
			fmt.Errorf("%w: got %d usable questions, want %d", llm.ErrNoStructuredPayload, len(questions), Count))
	}

	slog.Debug("Generated questions", "show", show, "questions", questions, "tokens", resp.Usage.TotalTokens)
	return questions, nil
}
