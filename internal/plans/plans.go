package plans

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/bobarin/aistudio/internal/models"
)

// Limits describes the speech quota attached to a plan.
type Limits struct {
	Plan                  models.Plan
	MaxWordsPerGeneration int // 0 = no per-generation limit
	MaxTotalTokens        int
	Watermark             bool
	AudioURL              bool
	Features              []string
}

var (
	free = Limits{
		Plan:                  models.PlanFree,
		MaxWordsPerGeneration: 150,
		MaxTotalTokens:        300,
		Watermark:             true,
		Features: []string{
			"150 words max per generation",
			"300 tokens total limit",
			"Watermarked audio",
			"No download option",
		},
	}
	paid = Limits{
		MaxTotalTokens: 800,
		AudioURL:       true,
		Features: []string{
			"Unlimited generations",
			"800 tokens total limit per person",
			"High-quality audio",
			"Download enabled",
			"No watermarks",
			"Priority processing",
		},
	}
)

// For returns the limits of the given plan. Anything other than Free is paid.
func For(plan models.Plan) Limits {
	if !plan.IsPaid() {
		return free
	}
	l := paid
	l.Plan = plan
	return l
}

// QuotaError rejects a generation before the provider is called.
type QuotaError struct {
	Status  int
	Message string
}

func (e *QuotaError) Error() string { return e.Message }

// CountWords treats each whitespace-separated word as one token.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// Check validates a generation of words against the plan and the user's
// lifetime usage.
func (l Limits) Check(words, used int) error {
	if l.MaxWordsPerGeneration > 0 && words > l.MaxWordsPerGeneration {
		return &QuotaError{
			Status: http.StatusBadRequest,
			Message: fmt.Sprintf("Text exceeds maximum word limit. Maximum %d words allowed for free plan. Your text has %d words.",
				l.MaxWordsPerGeneration, words),
		}
	}

	if used+words > l.MaxTotalTokens {
		return &QuotaError{
			Status: http.StatusTooManyRequests,
			Message: fmt.Sprintf("Token limit reached. You have used %d/%d tokens. You can generate up to %d more words.",
				used, l.MaxTotalTokens, l.MaxTotalTokens-used),
		}
	}

	return nil
}

// Remaining never goes below zero.
func (l Limits) Remaining(used int) int {
	return max(0, l.MaxTotalTokens-used)
}

func (l Limits) Info(used int) models.PlanInfoResponse {
	info := models.PlanInfoResponse{
		Plan:            l.Plan,
		MaxTotalTokens:  l.MaxTotalTokens,
		TokensUsed:      used,
		TokensRemaining: l.Remaining(used),
		Features:        l.Features,
	}
	if l.MaxWordsPerGeneration > 0 {
		words := l.MaxWordsPerGeneration
		info.MaxWordsPerGeneration = &words
	}
	return info
}
