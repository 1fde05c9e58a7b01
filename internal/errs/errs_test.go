package errs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", Validation("show is required"), http.StatusBadRequest},
		{"rate limit", &RateLimitError{ResetInHours: 3}, http.StatusTooManyRequests},
		{"wrapped rate limit", fmt.Errorf("generate: %w", &RateLimitError{ResetInHours: 3}), http.StatusTooManyRequests},
		{"generation", Generation("analyze", context.DeadlineExceeded), http.StatusInternalServerError},
		{"service", Service("quota check", errors.New("dial tcp: refused")), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestGenerationKeepsCauseChain(t *testing.T) {
	err := Generation("generate questions", nil)
	assert.ErrorIs(t, err, ErrGeneration)
	assert.Equal(t, "generate questions: generation failed", err.Error())
}

func TestMessageHidesInternals(t *testing.T) {
	err := Service("quota check", errors.New("redis: connection refused"))
	assert.NotContains(t, Message(err), "redis")
	assert.Contains(t, Message(Validation("show is required")), "show is required")
	assert.Contains(t, Message(&RateLimitError{ResetInHours: 5}), "5 hours")
	assert.Empty(t, Message(nil))
}
