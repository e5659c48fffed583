package services

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// ---------------------------------------------------------------------------
// Gemini Text-to-Speech Service
// Gemini returns raw 16-bit PCM (24kHz mono) which is wrapped in a WAV header
// so it can be played directly or re-encoded by ffmpeg.
// ---------------------------------------------------------------------------

const (
	geminiPCMSampleRate = 24000
	geminiPCMChannels   = 1
	geminiPCMBits       = 16
)

type GeminiTTSService struct {
	apiKey string
	model  string
	voice  string
	client *genai.Client
	log    zerolog.Logger
}

var _ Synthesizer = (*GeminiTTSService)(nil)

func NewGeminiTTSService(ctx context.Context, apiKey, model, voice string, log zerolog.Logger) (*GeminiTTSService, error) {
	s := &GeminiTTSService{
		apiKey: apiKey,
		model:  model,
		voice:  voice,
		log:    log.With().Str("provider", "gemini").Logger(),
	}
	if apiKey == "" {
		// Synthesize reports the missing key per request.
		return s, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	s.client = client
	return s, nil
}

func (s *GeminiTTSService) Name() string { return "gemini" }

func (s *GeminiTTSService) Synthesize(ctx context.Context, req SpeechRequest) (*Audio, error) {
	if err := validateSpeech(s.Name(), s.apiKey, req); err != nil {
		return nil, err
	}

	voice := s.voice
	if req.Voice != "" {
		voice = req.Voice
	}

	s.log.Info().Str("voice", voice).Str("model", s.model).Int("text_len", len(req.Text)).Msg("generating speech")

	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(req.Text), &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
	})
	if err != nil {
		return nil, s.classify(err)
	}

	pcm := geminiAudioPCM(resp)
	if len(pcm) == 0 {
		return nil, &SpeechError{Kind: SpeechFailed, Provider: s.Name(), Message: "no audio in response"}
	}

	s.log.Info().Int("bytes", len(pcm)).Msg("speech generated")
	return &Audio{Data: pcmToWAV(pcm, geminiPCMSampleRate, geminiPCMChannels, geminiPCMBits), Format: "wav"}, nil
}

func (s *GeminiTTSService) classify(err error) error {
	code, msg := 0, ""
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code, msg = apiErr.Code, apiErr.Message
	case errors.As(err, &apiErrPtr):
		code, msg = apiErrPtr.Code, apiErrPtr.Message
	default:
		return transportError(s.Name(), err)
	}

	kind := speechKindForStatus(code, msg)
	// Gemini reports invalid keys as 400 API_KEY_INVALID.
	if code == http.StatusBadRequest && strings.Contains(strings.ToUpper(msg), "API KEY") {
		kind = SpeechUnauthorized
	}
	s.log.Warn().Int("status", code).Str("message", msg).Msg("gemini api error")
	return &SpeechError{Kind: kind, Provider: s.Name(), Status: code, Message: msg, Err: err}
}

// geminiAudioPCM concatenates the inline audio parts of the first candidate.
func geminiAudioPCM(resp *genai.GenerateContentResponse) []byte {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}

	var pcm []byte
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.InlineData != nil {
			pcm = append(pcm, part.InlineData.Data...)
		}
	}
	return pcm
}

// pcmToWAV prepends a canonical 44-byte RIFF header to little-endian PCM.
func pcmToWAV(pcm []byte, sampleRate, channels, bitsPerSample int) []byte {
	blockAlign := channels * bitsPerSample / 8
	byteRate := sampleRate * blockAlign

	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}
