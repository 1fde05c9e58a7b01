package session

import (
	"strings"

	"github.com/sozercan/episode-finder/internal/errs"
)

// Answer is one of YES, NO or NOT_SURE; the zero value means unanswered.
type Answer string

const (
	AnswerNone    Answer = ""
	AnswerYes     Answer = "YES"
	AnswerNo      Answer = "NO"
	AnswerNotSure Answer = "NOT_SURE"
)

// ParseAnswer accepts the enum names case-insensitively, with spaces or
// dashes in place of the underscore.
func ParseAnswer(s string) (Answer, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	a := Answer(norm)
	if !a.Valid() {
		return AnswerNone, errs.Validation("answer must be YES, NO or NOT_SURE, got %q", s)
	}
	return a, nil
}

func (a Answer) Valid() bool {
	switch a {
	case AnswerYes, AnswerNo, AnswerNotSure:
		return true
	}
	return false
}

// Label is the answer as shown to the viewer.
func (a Answer) Label() string {
	switch a {
	case AnswerYes:
		return "Yes"
	case AnswerNo:
		return "No"
	case AnswerNotSure:
		return "Not sure"
	}
	return ""
}

type QuestionState struct {
	Question       string `json:"question"`
	Answer         Answer `json:"answer,omitempty"`
	AdditionalInfo string `json:"additionalInfo,omitempty"`
}

func (q QuestionState) Answered() bool { return q.Answer != AnswerNone }

// AnswerText is the answer as sent to the analyzer: the enum value, followed
// by any additional info.
func (q QuestionState) AnswerText() string {
	if q.AdditionalInfo == "" {
		return string(q.Answer)
	}
	return string(q.Answer) + ". Additional info: " + q.AdditionalInfo
}
