package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

// ---------------------------------------------------------------------------
// Lemonfox Text-to-Speech Service
// Lemonfox exposes an OpenAI-compatible /v1/audio/speech endpoint, so the
// go-openai client is pointed at its base URL.
// ---------------------------------------------------------------------------

const (
	lemonfoxDefaultBaseURL = "https://api.lemonfox.ai/v1"
	lemonfoxDefaultVoice   = "sarah"
	lemonfoxModel          = "tts-1"
)

type LemonfoxService struct {
	apiKey string
	voice  string
	client *openai.Client
	log    zerolog.Logger
}

var _ Synthesizer = (*LemonfoxService)(nil)

func NewLemonfoxService(apiKey, baseURL, voice string, timeout time.Duration, log zerolog.Logger) *LemonfoxService {
	if baseURL == "" {
		baseURL = lemonfoxDefaultBaseURL
	}
	if voice == "" {
		voice = lemonfoxDefaultVoice
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &LemonfoxService{
		apiKey: apiKey,
		voice:  voice,
		client: openai.NewClientWithConfig(cfg),
		log:    log.With().Str("provider", "lemonfox").Logger(),
	}
}

func (s *LemonfoxService) Name() string { return "lemonfox" }

func (s *LemonfoxService) Synthesize(ctx context.Context, req SpeechRequest) (*Audio, error) {
	if err := validateSpeech(s.Name(), s.apiKey, req); err != nil {
		return nil, err
	}

	voice := s.voice
	if req.Voice != "" {
		voice = req.Voice
	}
	format := req.Format
	if format == "" {
		format = string(openai.SpeechResponseFormatMp3)
	}

	s.log.Info().Str("voice", voice).Str("format", format).Int("text_len", len(req.Text)).Msg("generating speech")

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          lemonfoxModel,
		Input:          req.Text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormat(format),
	})
	if err != nil {
		return nil, s.classify(err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, transportError(s.Name(), fmt.Errorf("failed to read audio: %w", err))
	}
	if len(data) == 0 {
		return nil, &SpeechError{Kind: SpeechFailed, Provider: s.Name(), Message: "empty audio response"}
	}

	s.log.Info().Int("bytes", len(data)).Msg("speech generated")
	return &Audio{Data: data, Format: format}, nil
}

func (s *LemonfoxService) classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		s.log.Warn().Int("status", apiErr.HTTPStatusCode).Str("message", apiErr.Message).Msg("lemonfox api error")
		return &SpeechError{
			Kind:     speechKindForStatus(apiErr.HTTPStatusCode, apiErr.Message),
			Provider: s.Name(),
			Status:   apiErr.HTTPStatusCode,
			Message:  apiErr.Message,
			Err:      err,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		msg := string(reqErr.Body)
		if msg == "" && reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		s.log.Warn().Int("status", reqErr.HTTPStatusCode).Str("body", msg).Msg("lemonfox request error")
		return &SpeechError{
			Kind:     speechKindForStatus(reqErr.HTTPStatusCode, msg),
			Provider: s.Name(),
			Status:   reqErr.HTTPStatusCode,
			Message:  msg,
			Err:      err,
		}
	}

	return transportError(s.Name(), err)
}
