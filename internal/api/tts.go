package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bobarin/aistudio/internal/db"
	"github.com/bobarin/aistudio/internal/models"
	"github.com/bobarin/aistudio/internal/plans"
	"github.com/bobarin/aistudio/internal/services"
)

// GenerateVoice handles POST /api/generate-voice
func (h *Handler) GenerateVoice(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	ctx := r.Context()

	var req models.VoiceGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "Text is required")
		return
	}

	today := h.now().UTC().Truncate(24 * time.Hour)
	if !sameDay(user.LastResetDate, today) {
		if err := h.store.ResetDailyCounters(ctx, user, today); err != nil {
			h.log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to reset daily counters")
			respondError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
	}

	words := plans.CountWords(req.Text)
	limits := plans.For(user.Plan)
	if err := limits.Check(words, user.TotalTokensUsed); err != nil {
		var qe *plans.QuotaError
		if errors.As(err, &qe) {
			respondError(w, qe.Status, qe.Message)
			return
		}
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.log.Info().
		Int64("user_id", user.ID).
		Str("plan", string(user.Plan)).
		Str("provider", h.speech.Name()).
		Int("words", words).
		Msg("generating voice")

	audio, err := h.speech.Synthesize(ctx, services.SpeechRequest{Text: req.Text, Voice: req.Voice, Format: "mp3"})
	if err != nil {
		status, msg := speechErrorResponse(err)
		h.log.Error().Err(err).Int("status", status).Msg("voice generation failed")
		respondError(w, status, msg)
		return
	}

	data := audio.Data
	if limits.Watermark {
		marked, err := h.watermark.AppendWatermark(ctx, audio.Data, audio.Format)
		if err != nil {
			h.log.Warn().Err(err).Msg("watermarking failed, returning unmarked audio")
		} else {
			data = marked
		}
	}

	usage := db.VoiceUsage{Tokens: words, IncrementDaily: true}
	if limits.AudioURL {
		usage.AudioURL = func(id int64) string { return fmt.Sprintf("generated_audio_%d.mp3", id) }
	}
	entry := &models.VoiceHistory{Text: req.Text}
	if err := h.store.RecordVoiceGeneration(ctx, user, entry, usage); err != nil {
		h.log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to record voice generation")
		respondError(w, http.StatusInternalServerError, "Failed to save voice generation")
		return
	}

	message := "Voice generated successfully"
	if limits.Watermark {
		message = "Voice generated successfully (Trial version with watermark)"
	}

	respondJSON(w, http.StatusOK, models.VoiceGenerateResponse{
		Success:         true,
		Message:         message,
		AudioData:       base64.StdEncoding.EncodeToString(data),
		AudioURL:        entry.AudioURL,
		DailyCount:      user.DailyVoiceCount,
		LimitReached:    user.TotalTokensUsed >= limits.MaxTotalTokens,
		TokensUsed:      user.TotalTokensUsed,
		TokensRemaining: limits.Remaining(user.TotalTokensUsed),
	})
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// speechErrorResponse maps a provider failure to status and a client-safe message.
func speechErrorResponse(err error) (int, string) {
	var se *services.SpeechError
	if !errors.As(err, &se) {
		return http.StatusInternalServerError, "Voice generation failed. Please try again later."
	}

	switch se.Kind {
	case services.SpeechUnauthorized:
		return http.StatusInternalServerError, "Voice generation service configuration error. Please contact support."
	case services.SpeechPaymentRequired:
		msg := se.Message
		if msg == "" {
			msg = "Payment required by the voice generation provider."
		}
		return http.StatusPaymentRequired, msg
	case services.SpeechRateLimited:
		return http.StatusTooManyRequests, "Voice generation quota exceeded. Please try again later."
	case services.SpeechInvalidRequest:
		msg := "Invalid request"
		if se.Message != "" {
			msg += ": " + se.Message
		}
		return http.StatusBadRequest, msg
	case services.SpeechTimeout, services.SpeechUnavailable:
		return http.StatusServiceUnavailable, "Network error. Please check your connection and try again."
	default:
		return http.StatusInternalServerError, "Voice generation failed. Please try again later."
	}
}

// VoiceHistory handles GET /api/history
func (h *Handler) VoiceHistory(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	history, err := h.store.ListVoiceHistory(r.Context(), user.ID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to list voice history")
		respondError(w, http.StatusInternalServerError, "Failed to load history")
		return
	}

	items := make([]models.VoiceHistoryItem, 0, len(history))
	for _, entry := range history {
		items = append(items, models.VoiceHistoryItem{
			ID:        entry.ID,
			Text:      entry.Text,
			AudioURL:  entry.AudioURL,
			CreatedAt: entry.CreatedAt,
		})
	}

	respondJSON(w, http.StatusOK, items)
}

// PlanInfo handles GET /api/plan
func (h *Handler) PlanInfo(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	respondJSON(w, http.StatusOK, plans.For(user.Plan).Info(user.TotalTokensUsed))
}
