// Package session drives one user's attempt to locate their last watched
// episode: loading questions, collecting answers one at a time, analysing
// them and offering follow-up rounds when the result is not confident.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/sozercan/episode-finder/internal/analyzer"
	"github.com/sozercan/episode-finder/internal/catalog"
	"github.com/sozercan/episode-finder/internal/errs"
	"github.com/sozercan/episode-finder/internal/finder"
	"github.com/sozercan/episode-finder/internal/quota"
)

// ErrInvalidState is returned for actions the current state does not permit.
var ErrInvalidState = errors.New("action not allowed in current state")

type State string

const (
	StateLoadingQuestions State = "loading_questions"
	StateAnswering        State = "answering"
	StateAnalyzing        State = "analyzing"
	StateResult           State = "result"
	StateError            State = "error"
)

// Backend sources questions and analyses answers. *finder.Service
// implements it.
type Backend interface {
	GenerateQuestions(ctx context.Context, show, identity string) (*finder.QuestionSet, error)
	Analyze(ctx context.Context, show string, questions, answers []string) (*analyzer.Result, error)
}

// Failure is the user-facing description of the last failed action.
type Failure struct {
	Message      string `json:"message"`
	RateLimited  bool   `json:"rateLimited"`
	ResetInHours int    `json:"resetInHours,omitempty"`
}

type action int

const (
	actionNone action = iota
	actionLoad
	actionAnalyze
)

// Session is not safe for concurrent use; Store serialises access.
type Session struct {
	id       string
	show     string
	identity string
	backend  Backend

	state        State
	questions    []QuestionState
	current      int
	result       *analyzer.Result
	pending      []string
	failure      *Failure
	failedAction action

	isPreWritten bool
	catalog      *catalog.Metadata
	quota        *quota.Status
}

// New creates a session in StateLoadingQuestions. identity is the client
// identity quota is charged to.
func New(show, identity string, backend Backend) (*Session, error) {
	show = strings.TrimSpace(show)
	if show == "" {
		return nil, errs.Validation("show title is required")
	}
	return &Session{
		id:       uuid.NewString(),
		show:     show,
		identity: identity,
		backend:  backend,
		state:    StateLoadingQuestions,
	}, nil
}

func (s *Session) ID() string   { return s.id }
func (s *Session) Show() string { return s.show }
func (s *Session) State() State { return s.state }

// CurrentIndex is the position of the question being answered.
func (s *Session) CurrentIndex() int { return s.current }

// Result is nil until an analysis succeeds.
func (s *Session) Result() *analyzer.Result { return s.result }

// Failure is nil unless the session is in StateError.
func (s *Session) Failure() *Failure { return s.failure }

// Questions returns a copy of the question list.
func (s *Session) Questions() []QuestionState {
	return append([]QuestionState(nil), s.questions...)
}

// PendingFollowUps are the follow-up questions awaiting the user's decision.
func (s *Session) PendingFollowUps() []string {
	return append([]string(nil), s.pending...)
}

// AwaitingConfirmation reports whether the user must accept or decline
// follow-up questions.
func (s *Session) AwaitingConfirmation() bool {
	return s.state == StateResult && len(s.pending) > 0
}

// Load fetches the question list. Backend failures move the session to
// StateError; the returned error only reports an action the state forbids.
func (s *Session) Load(ctx context.Context) error {
	if s.state != StateLoadingQuestions {
		return s.invalid("load questions")
	}

	set, err := s.backend.GenerateQuestions(ctx, s.show, s.identity)
	if err == nil && len(set.Questions) == 0 {
		err = errs.Generation("load questions", nil)
	}
	if err != nil {
		s.fail(actionLoad, err)
		return nil
	}

	s.questions = make([]QuestionState, len(set.Questions))
	for i, q := range set.Questions {
		s.questions[i] = QuestionState{Question: q}
	}
	s.current = 0
	s.isPreWritten = set.IsPreWritten
	s.catalog = set.Catalog
	s.quota = set.Quota
	s.state = StateAnswering
	slog.Debug("session questions loaded", "session", s.id, "questions", len(s.questions), "preWritten", s.isPreWritten)
	return nil
}

// Answer records a for the current question without advancing.
func (s *Session) Answer(a Answer) error {
	if s.state != StateAnswering {
		return s.invalid("answer")
	}
	if !a.Valid() {
		return errs.Validation("unknown answer %q", a)
	}
	s.questions[s.current].Answer = a
	return nil
}

// SetAdditionalInfo attaches free text to the current question. The
// question must already have an answer.
func (s *Session) SetAdditionalInfo(text string) error {
	if s.state != StateAnswering {
		return s.invalid("add details")
	}
	if !s.questions[s.current].Answered() {
		return errs.Validation("answer the question before adding details")
	}
	s.questions[s.current].AdditionalInfo = strings.TrimSpace(text)
	return nil
}

// Next moves past the current, answered question. Moving past the last
// question runs the analysis.
func (s *Session) Next(ctx context.Context) error {
	if s.state != StateAnswering {
		return s.invalid("next")
	}
	if !s.questions[s.current].Answered() {
		return errs.Validation("question %d has not been answered", s.current+1)
	}
	if s.current < len(s.questions)-1 {
		s.current++
		return nil
	}
	s.analyze(ctx)
	return nil
}

// Back moves to the previous question, keeping its recorded answer.
func (s *Session) Back() error {
	if s.state != StateAnswering || s.current == 0 {
		return s.invalid("back")
	}
	s.current--
	return nil
}

// AcceptFollowUps appends the pending follow-up questions and resumes
// answering at the first of them.
func (s *Session) AcceptFollowUps() error {
	if !s.AwaitingConfirmation() {
		return s.invalid("accept follow-ups")
	}
	first := len(s.questions)
	for _, q := range s.pending {
		s.questions = append(s.questions, QuestionState{Question: q})
	}
	s.current = first
	s.result = nil
	s.pending = nil
	s.state = StateAnswering
	return nil
}

// DeclineFollowUps discards the pending follow-up questions and keeps the
// result.
func (s *Session) DeclineFollowUps() error {
	if !s.AwaitingConfirmation() {
		return s.invalid("decline follow-ups")
	}
	s.pending = nil
	return nil
}

// Retry clears the failure and repeats the action that failed. Recorded
// answers are kept.
func (s *Session) Retry(ctx context.Context) error {
	if s.state != StateError {
		return s.invalid("retry")
	}
	failed := s.failedAction
	s.failure = nil
	s.failedAction = actionNone

	switch failed {
	case actionLoad:
		s.state = StateLoadingQuestions
		return s.Load(ctx)
	case actionAnalyze:
		s.analyze(ctx)
		return nil
	default:
		return fmt.Errorf("%w: nothing to retry", ErrInvalidState)
	}
}

func (s *Session) analyze(ctx context.Context) {
	s.state = StateAnalyzing

	qs := make([]string, len(s.questions))
	answers := make([]string, len(s.questions))
	for i, q := range s.questions {
		qs[i] = q.Question
		answers[i] = q.AnswerText()
	}

	result, err := s.backend.Analyze(ctx, s.show, qs, answers)
	if err != nil {
		s.fail(actionAnalyze, err)
		return
	}

	s.result = result
	s.pending = nil
	if result.NeedsFollowUp() && len(result.FollowUpQuestions) > 0 {
		s.pending = append([]string(nil), result.FollowUpQuestions...)
	}
	s.state = StateResult
	slog.Debug("session analysed", "session", s.id, "confidence", result.Confidence, "followUps", len(s.pending))
}

func (s *Session) fail(a action, err error) {
	slog.Warn("session action failed", "session", s.id, "state", s.state, "error", err)
	f := &Failure{Message: errs.Message(err)}
	if rl, ok := errs.AsRateLimit(err); ok {
		f.RateLimited = true
		f.ResetInHours = rl.ResetInHours
	}
	s.failure = f
	s.failedAction = a
	s.state = StateError
}

func (s *Session) invalid(op string) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidState, op, s.state)
}
