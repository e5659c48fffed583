package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/bobarin/aistudio/internal/artifact"
	"github.com/bobarin/aistudio/internal/auth"
	"github.com/bobarin/aistudio/internal/db"
	"github.com/bobarin/aistudio/internal/models"
	"github.com/bobarin/aistudio/internal/services"
	"github.com/bobarin/aistudio/internal/slideshow"
	"github.com/rs/zerolog"
)

// Store is the persistence the handlers need. *db.DB implements it.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ResetDailyCounters(ctx context.Context, user *models.User, today time.Time) error

	RecordVoiceGeneration(ctx context.Context, user *models.User, entry *models.VoiceHistory, usage db.VoiceUsage) error
	ListVoiceHistory(ctx context.Context, userID int64) ([]models.VoiceHistory, error)

	CreateGeneratedVideo(ctx context.Context, video *models.GeneratedVideo) error
	HasVideoRecord(ctx context.Context, userID int64, videoURL string) (bool, error)
}

var _ Store = (*db.DB)(nil)

type SlideshowGenerator interface {
	Generate(ctx context.Context, req slideshow.Request) (*slideshow.Result, error)
}

type Watermarker interface {
	AppendWatermark(ctx context.Context, audio []byte, format string) ([]byte, error)
}

type Deps struct {
	Store          Store
	Tokens         *auth.Tokens
	Speech         services.Synthesizer
	Watermark      Watermarker
	Generator      SlideshowGenerator
	Artifacts      *artifact.Cache
	MaxUploadBytes int64
	Logger         zerolog.Logger
}

type Handler struct {
	store          Store
	tokens         *auth.Tokens
	speech         services.Synthesizer
	watermark      Watermarker
	generator      SlideshowGenerator
	artifacts      *artifact.Cache
	maxUploadBytes int64
	log            zerolog.Logger
	now            func() time.Time
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		store:          d.Store,
		tokens:         d.Tokens,
		speech:         d.Speech,
		watermark:      d.Watermark,
		generator:      d.Generator,
		artifacts:      d.Artifacts,
		maxUploadBytes: d.MaxUploadBytes,
		log:            d.Logger,
		now:            time.Now,
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Errors keep the {"detail": ...} shape existing clients parse.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"detail": message})
}

// Health check
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
