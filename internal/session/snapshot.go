package session

import (
	"github.com/sozercan/episode-finder/internal/analyzer"
	"github.com/sozercan/episode-finder/internal/catalog"
	"github.com/sozercan/episode-finder/internal/quota"
)

// Snapshot is a point-in-time copy of a session for rendering.
type Snapshot struct {
	ID                   string
	Show                 string
	State                State
	Questions            []QuestionState
	CurrentIndex         int
	Result               *analyzer.Result
	PendingFollowUps     []string
	AwaitingConfirmation bool
	Failure              *Failure
	IsPreWritten         bool
	Catalog              *catalog.Metadata
	Quota                *quota.Status
}

func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		ID:                   s.id,
		Show:                 s.show,
		State:                s.state,
		Questions:            s.Questions(),
		CurrentIndex:         s.current,
		Result:               s.result,
		PendingFollowUps:     s.PendingFollowUps(),
		AwaitingConfirmation: s.AwaitingConfirmation(),
		Failure:              s.failure,
		IsPreWritten:         s.isPreWritten,
		Catalog:              s.catalog,
		Quota:                s.quota,
	}
}
