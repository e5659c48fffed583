package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// ---------------------------------------------------------------------------
// ElevenLabs Text-to-Speech Service
// Uses ElevenLabs REST API to convert text into speech audio.
// Model: eleven_flash_v2_5 (Flash v2.5 — fast, 32 languages, ~75ms latency)
// ---------------------------------------------------------------------------

const (
	elevenLabsDefaultBaseURL = "https://api.elevenlabs.io"
	elevenLabsDefaultModel   = "eleven_flash_v2_5"
	elevenLabsDefaultVoice   = "pNInz6obpgDQGcFmaJgB"
	elevenLabsOutputFormat   = "mp3_44100_128"
)

// ElevenLabsService handles text-to-speech via ElevenLabs API.
type ElevenLabsService struct {
	apiKey  string
	baseURL string
	voiceID string
	modelID string
	client  *http.Client
	log     zerolog.Logger
}

// Ensure ElevenLabsService implements Synthesizer at compile time.
var _ Synthesizer = (*ElevenLabsService)(nil)

// NewElevenLabsService creates an ElevenLabs service. An empty voiceID uses
// the default narrator voice.
func NewElevenLabsService(apiKey, voiceID string, timeout time.Duration, log zerolog.Logger) *ElevenLabsService {
	if voiceID == "" {
		voiceID = elevenLabsDefaultVoice
	}
	return &ElevenLabsService{
		apiKey:  apiKey,
		baseURL: elevenLabsDefaultBaseURL,
		voiceID: voiceID,
		modelID: elevenLabsDefaultModel,
		client:  &http.Client{Timeout: timeout},
		log:     log.With().Str("provider", "elevenlabs").Logger(),
	}
}

func (s *ElevenLabsService) Name() string { return "elevenlabs" }

type elevenLabsRequest struct {
	Text          string                   `json:"text"`
	ModelID       string                   `json:"model_id"`
	VoiceSettings *elevenLabsVoiceSettings `json:"voice_settings,omitempty"`
}

type elevenLabsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type elevenLabsError struct {
	Detail struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"detail"`
}

// Synthesize converts text to speech. req.Voice overrides the service
// default voice ID when non-empty.
func (s *ElevenLabsService) Synthesize(ctx context.Context, req SpeechRequest) (*Audio, error) {
	if err := validateSpeech(s.Name(), s.apiKey, req); err != nil {
		return nil, err
	}

	voiceID := s.voiceID
	if req.Voice != "" {
		voiceID = req.Voice
	}

	jsonData, err := json.Marshal(elevenLabsRequest{
		Text:    req.Text,
		ModelID: s.modelID,
		VoiceSettings: &elevenLabsVoiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ElevenLabs request: %w", err)
	}

	// POST /v1/text-to-speech/{voice_id}?output_format=mp3_44100_128
	url := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s", s.baseURL, voiceID, elevenLabsOutputFormat)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create ElevenLabs request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/mpeg")
	httpReq.Header.Set("xi-api-key", s.apiKey)

	s.log.Info().Str("voice_id", voiceID).Str("model", s.modelID).Int("text_len", len(req.Text)).Msg("generating speech")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, transportError(s.Name(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(s.Name(), fmt.Errorf("failed to read ElevenLabs response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		msg := string(body)
		var apiErr elevenLabsError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Detail.Message != "" {
			msg = apiErr.Detail.Message
			if apiErr.Detail.Status != "" {
				msg = apiErr.Detail.Status + ": " + msg
			}
		}
		s.log.Warn().Int("status", resp.StatusCode).Str("message", msg).Msg("elevenlabs api error")
		return nil, &SpeechError{
			Kind:     speechKindForStatus(resp.StatusCode, msg),
			Provider: s.Name(),
			Status:   resp.StatusCode,
			Message:  msg,
		}
	}

	if len(body) == 0 {
		return nil, &SpeechError{Kind: SpeechFailed, Provider: s.Name(), Message: "empty audio response"}
	}

	s.log.Info().Int("bytes", len(body)).Msg("speech generated")
	return &Audio{Data: body, Format: "mp3"}, nil
}
