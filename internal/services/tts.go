package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ---------------------------------------------------------------------------
// Synthesizer — common interface for text-to-speech providers
// Lemonfox, ElevenLabs and Gemini implement it so the API layer can use
// whichever is configured without knowing the underlying provider.
// ---------------------------------------------------------------------------

type SpeechRequest struct {
	Text   string
	Voice  string // empty = provider default
	Format string // "mp3" unless the provider can only produce something else
}

// Audio is the common response type from any TTS provider.
type Audio struct {
	Data   []byte
	Format string // "mp3", "wav"
}

type Synthesizer interface {
	Name() string
	Synthesize(ctx context.Context, req SpeechRequest) (*Audio, error)
}

// SpeechErrorKind classifies provider failures so callers can map them
// without inspecting messages.
type SpeechErrorKind string

const (
	SpeechUnauthorized    SpeechErrorKind = "unauthorized"
	SpeechPaymentRequired SpeechErrorKind = "payment_required"
	SpeechRateLimited     SpeechErrorKind = "rate_limited"
	SpeechInvalidRequest  SpeechErrorKind = "invalid_request"
	SpeechTimeout         SpeechErrorKind = "timeout"
	SpeechUnavailable     SpeechErrorKind = "unavailable"
	SpeechFailed          SpeechErrorKind = "failed"
)

type SpeechError struct {
	Kind     SpeechErrorKind
	Provider string
	Status   int // upstream HTTP status, 0 if none
	Message  string
	Err      error
}

func (e *SpeechError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s speech %s", e.Provider, e.Kind)
	if e.Status != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *SpeechError) Unwrap() error { return e.Err }

// speechKindForStatus maps an upstream HTTP status. Some providers report
// account-tier problems as 400 with a free tier / unusual activity message.
func speechKindForStatus(status int, message string) SpeechErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return SpeechUnauthorized
	case status == http.StatusPaymentRequired:
		return SpeechPaymentRequired
	case status == http.StatusTooManyRequests:
		return SpeechRateLimited
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		lower := strings.ToLower(message)
		if strings.Contains(lower, "unusual_activity") || strings.Contains(lower, "unusual activity") || strings.Contains(lower, "free tier") {
			return SpeechPaymentRequired
		}
		return SpeechInvalidRequest
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return SpeechTimeout
	case status >= 500:
		return SpeechUnavailable
	default:
		return SpeechFailed
	}
}

// transportError classifies errors that never produced an HTTP response.
func transportError(provider string, err error) *SpeechError {
	kind := SpeechUnavailable
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = SpeechTimeout
	}
	return &SpeechError{Kind: kind, Provider: provider, Err: err}
}

// validateSpeech rejects requests that cannot succeed before any network call.
func validateSpeech(provider, apiKey string, req SpeechRequest) error {
	if apiKey == "" {
		return &SpeechError{Kind: SpeechUnauthorized, Provider: provider, Message: "API key is not configured"}
	}
	if strings.TrimSpace(req.Text) == "" {
		return &SpeechError{Kind: SpeechInvalidRequest, Provider: provider, Message: "text input is required"}
	}
	return nil
}
