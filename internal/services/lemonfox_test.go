package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLemonfoxSynthesize(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/speech", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("ID3-mp3-bytes"))
	}))
	defer srv.Close()

	s := NewLemonfoxService("test-key", srv.URL+"/v1", "alloy", 5*time.Second, zerolog.Nop())

	audio, err := s.Synthesize(context.Background(), SpeechRequest{Text: "hello world"})
	require.NoError(t, err)

	assert.Equal(t, "ID3-mp3-bytes", string(audio.Data))
	assert.Equal(t, "mp3", audio.Format)
	assert.Equal(t, "hello world", body["input"])
	assert.Equal(t, "alloy", body["voice"])
	assert.Equal(t, "mp3", body["response_format"])
}

func TestLemonfoxErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   SpeechErrorKind
	}{
		{"openai style 401", http.StatusUnauthorized, `{"error":{"message":"bad key","type":"auth"}}`, SpeechUnauthorized},
		{"payment", http.StatusPaymentRequired, `{"detail":"Payment required"}`, SpeechPaymentRequired},
		{"rate limit", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, SpeechRateLimited},
		{"unusual activity", http.StatusBadRequest, `{"detail":"unusual_activity detected"}`, SpeechPaymentRequired},
		{"bad request", http.StatusBadRequest, `{"error":{"message":"invalid voice"}}`, SpeechInvalidRequest},
		{"upstream down", http.StatusBadGateway, `<html>bad gateway</html>`, SpeechUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			s := NewLemonfoxService("test-key", srv.URL+"/v1", "alloy", 5*time.Second, zerolog.Nop())
			_, err := s.Synthesize(context.Background(), SpeechRequest{Text: "hello"})

			var se *SpeechError
			require.True(t, errors.As(err, &se), "got %v", err)
			assert.Equal(t, tt.want, se.Kind)
			assert.Equal(t, tt.status, se.Status)
		})
	}
}

func TestLemonfoxMissingKey(t *testing.T) {
	s := NewLemonfoxService("", "", "", time.Second, zerolog.Nop())

	_, err := s.Synthesize(context.Background(), SpeechRequest{Text: "hello"})

	var se *SpeechError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, SpeechUnauthorized, se.Kind)
}

func TestLemonfoxUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	s := NewLemonfoxService("test-key", url+"/v1", "alloy", time.Second, zerolog.Nop())
	_, err := s.Synthesize(context.Background(), SpeechRequest{Text: "hello"})

	var se *SpeechError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, SpeechUnavailable, se.Kind)
}
