package apimodels

import (
	"github.com/sozercan/episode-finder/internal/analyzer"
	"github.com/sozercan/episode-finder/internal/catalog"
	"github.com/sozercan/episode-finder/internal/session"
)

type QuestionsResponse struct {
	Questions []string `json:"questions"`

	// Quota fields are omitted for curated shows, which are unmetered
	RemainingUses   *int `json:"remainingUses,omitempty"`
	HoursUntilReset *int `json:"hoursUntilReset,omitempty"`

	IsPreWritten bool              `json:"isPreWritten"`
	ShowInfo     *catalog.Metadata `json:"showInfo,omitempty"`
}

type AnalysisResponse struct {
	Result *analyzer.Result `json:"result"`
}

type ErrorResponse struct {
	Error string `json:"error"`

	// Set on 429 responses
	ResetInHours *int `json:"resetInHours,omitempty"`
}

type CatalogResponse struct {
	Shows []string `json:"shows"`
}

type SessionResponse struct {
	ID    string        `json:"id"`
	Show  string        `json:"show"`
	State session.State `json:"state"`

	Questions    []session.QuestionState `json:"questions"`
	CurrentIndex int                     `json:"currentIndex"`

	Result               *analyzer.Result `json:"result,omitempty"`
	PendingFollowUps     []string         `json:"pendingFollowUps,omitempty"`
	AwaitingConfirmation bool             `json:"awaitingConfirmation"`

	Error *session.Failure `json:"error,omitempty"`

	IsPreWritten    bool              `json:"isPreWritten"`
	ShowInfo        *catalog.Metadata `json:"showInfo,omitempty"`
	RemainingUses   *int              `json:"remainingUses,omitempty"`
	HoursUntilReset *int              `json:"hoursUntilReset,omitempty"`
}

func NewSessionResponse(snap session.Snapshot) SessionResponse {
	resp := SessionResponse{
		ID:                   snap.ID,
		Show:                 snap.Show,
		State:                snap.State,
		Questions:            snap.Questions,
		CurrentIndex:         snap.CurrentIndex,
		Result:               snap.Result,
		PendingFollowUps:     snap.PendingFollowUps,
		AwaitingConfirmation: snap.AwaitingConfirmation,
		Error:                snap.Failure,
		IsPreWritten:         snap.IsPreWritten,
		ShowInfo:             snap.Catalog,
	}
	if resp.Questions == nil {
		resp.Questions = []session.QuestionState{}
	}
	if snap.Quota != nil {
		remaining, hours := snap.Quota.Remaining, snap.Quota.ResetInHours
		resp.RemainingUses = &remaining
		resp.HoursUntilReset = &hours
	}
	return resp
}
