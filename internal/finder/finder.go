// Package finder implements the two inbound operations of the service:
// sourcing questions for a show and analysing the answers.
package finder

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sozercan/episode-finder/internal/analyzer"
	"github.com/sozercan/episode-finder/internal/catalog"
	"github.com/sozercan/episode-finder/internal/errs"
	"github.com/sozercan/episode-finder/internal/questions"
	"github.com/sozercan/episode-finder/internal/quota"
)

// QuestionSet is the outcome of sourcing questions for a show.
type QuestionSet struct {
	Questions    []string
	IsPreWritten bool
	// Catalog is set on a catalog hit.
	Catalog *catalog.Metadata
	// Quota is set when the set was generated; catalog hits are unmetered.
	Quota *quota.Status
}

type Service struct {
	catalog   *catalog.Catalog
	ledger    *quota.Ledger
	generator *questions.Generator
	analyzer  *analyzer.Analyzer
}

func New(c *catalog.Catalog, ledger *quota.Ledger, generator *questions.Generator, a *analyzer.Analyzer) *Service {
	return &Service{
		catalog:   c,
		ledger:    ledger,
		generator: generator,
		analyzer:  a,
	}
}

// GenerateQuestions prefers the curated catalog and falls back to metered
// generation. Quota is consumed only after a successful generation.
func (s *Service) GenerateQuestions(ctx context.Context, show, identity string) (*QuestionSet, error) {
	if strings.TrimSpace(show) == "" {
		return nil, errs.Validation("show title is required")
	}

	if entry, ok := s.catalog.Resolve(show); ok {
		slog.Info("Catalog hit", "show", show)
		meta := entry.Metadata
		return &QuestionSet{
			Questions:    entry.Questions,
			IsPreWritten: true,
			Catalog:      &meta,
		}, nil
	}

	st, err := s.ledger.Check(ctx, identity)
	if err != nil {
		return nil, err
	}
	if st.Limited {
		slog.Warn("Generation rate limited", "identity", identity, "resetInHours", st.ResetInHours)
		return nil, &errs.RateLimitError{Remaining: st.Remaining, ResetInHours: st.ResetInHours}
	}

	generated, err := s.generator.Generate(ctx, show)
	if err != nil {
		return nil, err
	}

	st, err = s.ledger.Increment(ctx, identity)
	if err != nil {
		return nil, err
	}

	qs := make([]string, len(generated))
	for i, q := range generated {
		qs[i] = q.Question
	}
	return &QuestionSet{
		Questions: qs,
		Quota:     &st,
	}, nil
}

// Analyze infers the last watched point from paired questions and answers.
func (s *Service) Analyze(ctx context.Context, show string, qs, answers []string) (*analyzer.Result, error) {
	return s.analyzer.Analyze(ctx, show, qs, answers)
}

// Titles lists the curated shows.
func (s *Service) Titles() []string {
	return s.catalog.Titles()
}
