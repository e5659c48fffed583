package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bobarin/aistudio/internal/api"
	"github.com/bobarin/aistudio/internal/artifact"
	"github.com/bobarin/aistudio/internal/auth"
	"github.com/bobarin/aistudio/internal/config"
	"github.com/bobarin/aistudio/internal/db"
	"github.com/bobarin/aistudio/internal/logging"
	"github.com/bobarin/aistudio/internal/services"
	"github.com/bobarin/aistudio/internal/slideshow"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logging.New("production")
		fallback.Fatal().Err(err).Msg("failed to load config")
	}

	log := logging.New(cfg.Server.AppEnv)
	log.Info().Str("env", cfg.Server.AppEnv).Msg("starting AI Studio API")

	ctx := context.Background()

	// Connect to database
	database, err := db.New(cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}
	log.Info().Msg("connected to database")

	ffmpegSvc, err := services.NewFFmpegService(cfg.Slideshow.FFmpegPath, cfg.Slideshow.TempDir, services.EncodeParams{
		FPS:     cfg.Slideshow.FPS,
		Codec:   cfg.Slideshow.Codec,
		Preset:  cfg.Slideshow.Preset,
		Bitrate: cfg.Slideshow.Bitrate,
		Threads: cfg.Slideshow.Threads,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize ffmpeg")
	}

	speech, err := newSynthesizer(ctx, cfg.Speech, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize speech provider")
	}
	log.Info().Str("provider", speech.Name()).Msg("speech provider ready")

	// Second artifact tier is optional
	var spill artifact.Spill
	if cfg.Artifacts.RedisURL != "" {
		redisSpill, err := artifact.NewRedisSpill(cfg.Artifacts.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisSpill.Close()
		spill = redisSpill
		log.Info().Msg("artifact spill to redis enabled")
	}
	artifacts := artifact.New(cfg.Artifacts.CacheSize, cfg.Artifacts.TTL, spill, log)

	generator := slideshow.NewGenerator(slideshow.Config{
		Bounds: slideshow.Bounds{
			Min: slideshow.Size{Width: cfg.Slideshow.MinWidth, Height: cfg.Slideshow.MinHeight},
			Max: slideshow.Size{Width: cfg.Slideshow.MaxWidth, Height: cfg.Slideshow.MaxHeight},
		},
		TempDir:              cfg.Slideshow.TempDir,
		EncodeTimeout:        cfg.Slideshow.EncodeTimeout,
		MaxConcurrentEncodes: cfg.Slideshow.MaxConcurrentEncodes,
		MinArtifactBytes:     cfg.Slideshow.MinArtifactBytes,
	}, ffmpegSvc, log)

	handler := api.NewHandler(api.Deps{
		Store:          database,
		Tokens:         auth.NewTokens(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.AccessTokenExpireMinutes)*time.Minute),
		Speech:         speech,
		Watermark:      ffmpegSvc,
		Generator:      generator,
		Artifacts:      artifacts,
		MaxUploadBytes: cfg.Slideshow.MaxUploadBytes,
		Logger:         log,
	})
	router := api.NewRouter(handler, api.RouterConfig{
		CorsAllowedOrigins: cfg.Server.CorsAllowedOrigins,
		Logger:             log,
	})

	if cfg.Server.CorsAllowedOrigins == "" && !cfg.IsDevelopment() {
		log.Warn().Str("env", cfg.Server.AppEnv).Msg("no CORS_ALLOWED_ORIGINS set, allowing all origins")
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.APIPort,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Server.APIPort).Msg("API server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}

// newSynthesizer builds the configured speech provider.
func newSynthesizer(ctx context.Context, cfg config.Speech, log zerolog.Logger) (services.Synthesizer, error) {
	switch cfg.Provider {
	case "elevenlabs":
		return services.NewElevenLabsService(cfg.ElevenLabsKey, cfg.ElevenLabsVoiceID, cfg.Timeout, log), nil
	case "gemini":
		return services.NewGeminiTTSService(ctx, cfg.GeminiKey, cfg.GeminiModel, cfg.GeminiVoice, log)
	default:
		return services.NewLemonfoxService(cfg.LemonfoxAPIKey, cfg.LemonfoxBaseURL, cfg.LemonfoxVoice, cfg.Timeout, log), nil
	}
}
