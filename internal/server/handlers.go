package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sozercan/episode-finder/apimodels"
	"github.com/sozercan/episode-finder/internal/errs"
	"github.com/sozercan/episode-finder/internal/session"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, apimodels.CatalogResponse{Shows: s.finder.Titles()})
}

func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	var req apimodels.QuestionsRequest
	if !decode(w, r, &req) {
		return
	}

	identity := clientIdentity(r, s.cfg.TrustForwardedFor)
	set, err := s.finder.GenerateQuestions(r.Context(), req.Show, identity)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := apimodels.QuestionsResponse{
		Questions:    set.Questions,
		IsPreWritten: set.IsPreWritten,
		ShowInfo:     set.Catalog,
	}
	if set.Quota != nil {
		remaining, hours := set.Quota.Remaining, set.Quota.ResetInHours
		resp.RemainingUses = &remaining
		resp.HoursUntilReset = &hours
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req apimodels.AnalysisRequest
	if !decode(w, r, &req) {
		return
	}

	slog.Debug("Received analysis request", "show", req.Show, "questions", len(req.Questions))

	result, err := s.finder.Analyze(r.Context(), req.Show, req.Questions, req.Answers)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, apimodels.AnalysisResponse{Result: result})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req apimodels.CreateSessionRequest
	if !decode(w, r, &req) {
		return
	}

	sess, err := session.New(req.Show, clientIdentity(r, s.cfg.TrustForwardedFor), s.finder)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := sess.Load(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	s.sessions.Add(sess)

	w.Header().Set("Location", "/api/v1/sessions/"+sess.ID())
	writeJSON(w, http.StatusCreated, apimodels.NewSessionResponse(sess.Snapshot()))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(context.Context, *session.Session) error { return nil })
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.Delete(chi.URLParam(r, "id")) {
		writeError(w, r, session.ErrNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req apimodels.AnswerRequest
	if !decode(w, r, &req) {
		return
	}
	answer, err := session.ParseAnswer(req.Answer)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.withSession(w, r, func(_ context.Context, sess *session.Session) error {
		if err := sess.Answer(answer); err != nil {
			return err
		}
		if req.AdditionalInfo != "" {
			return sess.SetAdditionalInfo(req.AdditionalInfo)
		}
		return nil
	})
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(ctx context.Context, sess *session.Session) error {
		return sess.Next(ctx)
	})
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(_ context.Context, sess *session.Session) error {
		return sess.Back()
	})
}

func (s *Server) handleFollowUps(w http.ResponseWriter, r *http.Request) {
	var req apimodels.FollowUpRequest
	if !decode(w, r, &req) {
		return
	}
	s.withSession(w, r, func(_ context.Context, sess *session.Session) error {
		if req.Accept {
			return sess.AcceptFollowUps()
		}
		return sess.DeclineFollowUps()
	})
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(ctx context.Context, sess *session.Session) error {
		return sess.Retry(ctx)
	})
}

// withSession applies fn to the session named in the URL and responds with
// the resulting session view.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(context.Context, *session.Session) error) {
	var view apimodels.SessionResponse
	err := s.sessions.With(chi.URLParam(r, "id"), func(sess *session.Session) error {
		if err := fn(r.Context(), sess); err != nil {
			return err
		}
		view = apimodels.NewSessionResponse(sess.Snapshot())
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, r, errs.Validation("invalid request body: %v", err))
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errs.HTTPStatus(err)
	switch {
	case errors.Is(err, session.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrInvalidState):
		status = http.StatusConflict
	}

	resp := apimodels.ErrorResponse{Error: errs.Message(err)}
	if status == http.StatusNotFound || status == http.StatusConflict {
		resp.Error = err.Error()
	}
	if rl, ok := errs.AsRateLimit(err); ok {
		hours := rl.ResetInHours
		resp.ResetInHours = &hours
		w.Header().Set("Retry-After", strconv.Itoa(hours*3600))
	}

	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "path", r.URL.Path, "error", err)
	} else {
		slog.Debug("Request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
