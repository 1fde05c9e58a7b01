package apimodels

type QuestionsRequest struct {
	// Show is the title to source questions for
	Show string `json:"show"`
}

type AnalysisRequest struct {
	Show      string   `json:"show"`
	Questions []string `json:"questions"`
	// Answers pairs with Questions by index
	Answers []string `json:"answers"`
}

type CreateSessionRequest struct {
	Show string `json:"show"`
}

type AnswerRequest struct {
	// One of YES, NO, NOT_SURE
	Answer string `json:"answer"`

	// Optional free text attached after the answer
	AdditionalInfo string `json:"additionalInfo,omitempty"`
}

type FollowUpRequest struct {
	Accept bool `json:"accept"`
}
