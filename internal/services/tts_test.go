package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpeechKindForStatus(t *testing.T) {
	tests := []struct {
		status int
		msg    string
		want   SpeechErrorKind
	}{
		{http.StatusUnauthorized, "", SpeechUnauthorized},
		{http.StatusForbidden, "", SpeechUnauthorized},
		{http.StatusPaymentRequired, "", SpeechPaymentRequired},
		{http.StatusTooManyRequests, "", SpeechRateLimited},
		{http.StatusBadRequest, "voice not found", SpeechInvalidRequest},
		{http.StatusBadRequest, "detected_unusual_activity on free tier", SpeechPaymentRequired},
		{http.StatusGatewayTimeout, "", SpeechTimeout},
		{http.StatusBadGateway, "", SpeechUnavailable},
		{http.StatusTeapot, "", SpeechFailed},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d %s", tt.status, tt.msg), func(t *testing.T) {
			assert.Equal(t, tt.want, speechKindForStatus(tt.status, tt.msg))
		})
	}
}

func TestTransportError(t *testing.T) {
	assert.Equal(t, SpeechTimeout, transportError("x", fmt.Errorf("wrapped: %w", context.DeadlineExceeded)).Kind)
	assert.Equal(t, SpeechUnavailable, transportError("x", errors.New("connection refused")).Kind)
}

func TestValidateSpeech(t *testing.T) {
	var se *SpeechError

	err := validateSpeech("lemonfox", "", SpeechRequest{Text: "hi"})
	assert.True(t, errors.As(err, &se))
	assert.Equal(t, SpeechUnauthorized, se.Kind)

	err = validateSpeech("lemonfox", "key", SpeechRequest{Text: "   "})
	assert.True(t, errors.As(err, &se))
	assert.Equal(t, SpeechInvalidRequest, se.Kind)

	assert.NoError(t, validateSpeech("lemonfox", "key", SpeechRequest{Text: "hi"}))
}

func TestSpeechErrorMessage(t *testing.T) {
	err := &SpeechError{Kind: SpeechRateLimited, Provider: "lemonfox", Status: 429, Message: "slow down"}
	assert.Equal(t, "lemonfox speech rate_limited (HTTP 429): slow down", err.Error())
}
