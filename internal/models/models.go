package models

import (
	"time"
)

// Plan names as stored on users.plan
type Plan string

const (
	PlanFree    Plan = "Free"
	PlanStarter Plan = "Starter"
	PlanPro     Plan = "Pro"
)

// IsPaid reports whether the plan is any paid tier.
func (p Plan) IsPaid() bool {
	return p != PlanFree && p != ""
}

// Models

type User struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	Plan            Plan      `json:"plan"`
	DailyVoiceCount int       `json:"daily_voice_count"`
	DailyVideoCount int       `json:"daily_video_count"`
	TotalTokensUsed int       `json:"total_tokens_used"`
	LastResetDate   time.Time `json:"last_reset_date"` // Date only, UTC midnight
	CreatedAt       time.Time `json:"created_at"`
}

// GeneratedVideo is the durable metadata for a slideshow artifact. The bytes
// themselves live only in the artifact cache.
type GeneratedVideo struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	VideoURL  string    `json:"video_url"`
	CreatedAt time.Time `json:"created_at"`
}

type VoiceHistory struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Text      string    `json:"text"`
	AudioURL  *string   `json:"audio_url"`
	CreatedAt time.Time `json:"created_at"`
}

// DTOs for API requests/responses

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type UserResponse struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Plan            Plan      `json:"plan"`
	DailyVoiceCount int       `json:"daily_voice_count"`
	CreatedAt       time.Time `json:"created_at"`
}

func NewUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Plan:            u.Plan,
		DailyVoiceCount: u.DailyVoiceCount,
		CreatedAt:       u.CreatedAt,
	}
}

type VoiceGenerateRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

type VoiceGenerateResponse struct {
	Success         bool    `json:"success"`
	Message         string  `json:"message"`
	AudioData       string  `json:"audio_data"` // base64
	AudioURL        *string `json:"audio_url"`
	DailyCount      int     `json:"daily_count"`
	LimitReached    bool    `json:"limit_reached"`
	TokensUsed      int     `json:"tokens_used"`
	TokensRemaining int     `json:"tokens_remaining"`
}

type VoiceHistoryItem struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	AudioURL  *string   `json:"audio_url"`
	CreatedAt time.Time `json:"created_at"`
}

type PlanInfoResponse struct {
	Plan                  Plan     `json:"plan"`
	MaxWordsPerGeneration *int     `json:"max_words_per_generation,omitempty"`
	MaxTotalTokens        int      `json:"max_total_tokens"`
	TokensUsed            int      `json:"tokens_used"`
	TokensRemaining       int      `json:"tokens_remaining"`
	Features              []string `json:"features"`
}

type SlideshowResponse struct {
	Success         bool    `json:"success"`
	Message         string  `json:"message"`
	VideoURL        string  `json:"video_url"`
	DurationSeconds float64 `json:"duration_seconds"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
}
