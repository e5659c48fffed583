package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type (
	Config struct {
		Server    Server
		Database  Database
		Auth      Auth
		Speech    Speech
		Slideshow Slideshow
		Artifacts Artifacts
	}

	Server struct {
		AppEnv             string        `env:"APP_ENV" envDefault:"development"`
		APIPort            string        `env:"API_PORT" envDefault:"8000"`
		CorsAllowedOrigins string        `env:"CORS_ALLOWED_ORIGINS"` // Comma-separated (empty = *, dev mode)
		ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}

	Database struct {
		URL string `env:"DATABASE_URL,required,notEmpty"`
	}

	Auth struct {
		JWTSecret                string `env:"JWT_SECRET,required,notEmpty"`
		AccessTokenExpireMinutes int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"30"`
	}

	// Speech selects and configures the text-to-speech provider.
	Speech struct {
		Provider string        `env:"TTS_PROVIDER" envDefault:"lemonfox"` // lemonfox | elevenlabs | gemini
		Timeout  time.Duration `env:"TTS_TIMEOUT" envDefault:"60s"`

		LemonfoxAPIKey  string `env:"LAMONFOX_API_KEY"`
		LemonfoxBaseURL string `env:"LAMONFOX_BASE_URL" envDefault:"https://api.lemonfox.ai/v1"`
		LemonfoxVoice   string `env:"LAMONFOX_VOICE" envDefault:"sarah"`

		ElevenLabsKey     string `env:"ELEVENLABS_API_KEY"`
		ElevenLabsVoiceID string `env:"ELEVENLABS_VOICE_ID"`

		GeminiKey   string `env:"GEMINI_API_KEY"`
		GeminiModel string `env:"GEMINI_TTS_MODEL" envDefault:"gemini-2.5-flash-preview-tts"`
		GeminiVoice string `env:"GEMINI_TTS_VOICE" envDefault:"Kore"`
	}

	// Slideshow holds the canvas envelope and the fixed encoder parameters.
	Slideshow struct {
		MinWidth  int `env:"SLIDESHOW_MIN_WIDTH" envDefault:"1280"`
		MinHeight int `env:"SLIDESHOW_MIN_HEIGHT" envDefault:"720"`
		MaxWidth  int `env:"SLIDESHOW_MAX_WIDTH" envDefault:"1920"`
		MaxHeight int `env:"SLIDESHOW_MAX_HEIGHT" envDefault:"1080"`

		FFmpegPath string `env:"FFMPEG_PATH" envDefault:"ffmpeg"`
		TempDir    string `env:"SLIDESHOW_TEMP_DIR" envDefault:"/tmp/aistudio"`
		FPS        int    `env:"SLIDESHOW_FPS" envDefault:"24"`
		Codec      string `env:"SLIDESHOW_CODEC" envDefault:"libx264"`
		Preset     string `env:"SLIDESHOW_PRESET" envDefault:"ultrafast"`
		Bitrate    string `env:"SLIDESHOW_BITRATE" envDefault:"2000k"`
		Threads    int    `env:"SLIDESHOW_THREADS" envDefault:"4"`

		MinArtifactBytes     int           `env:"SLIDESHOW_MIN_ARTIFACT_BYTES" envDefault:"1024"`
		EncodeTimeout        time.Duration `env:"ENCODE_TIMEOUT" envDefault:"2m"`
		MaxConcurrentEncodes int64         `env:"MAX_CONCURRENT_ENCODES" envDefault:"2"`
		MaxUploadBytes       int64         `env:"MAX_UPLOAD_BYTES" envDefault:"33554432"`
	}

	// Artifacts bounds the in-process video cache; RedisURL enables the
	// restart-surviving second tier.
	Artifacts struct {
		CacheSize int           `env:"ARTIFACT_CACHE_SIZE" envDefault:"64"`
		TTL       time.Duration `env:"ARTIFACT_TTL" envDefault:"1h"`
		RedisURL  string        `env:"REDIS_URL"`
	}
)

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the cross-field rules env tags cannot express.
func (c *Config) Validate() error {
	s := c.Slideshow
	if s.MinWidth <= 0 || s.MinHeight <= 0 {
		return fmt.Errorf("slideshow minimum dimensions must be positive")
	}
	if s.MinWidth > s.MaxWidth || s.MinHeight > s.MaxHeight {
		return fmt.Errorf("slideshow minimum dimensions exceed maximum (%dx%d > %dx%d)",
			s.MinWidth, s.MinHeight, s.MaxWidth, s.MaxHeight)
	}
	if s.MinWidth%2 != 0 || s.MinHeight%2 != 0 || s.MaxWidth%2 != 0 || s.MaxHeight%2 != 0 {
		return fmt.Errorf("slideshow dimensions must be even")
	}
	if s.FPS <= 0 {
		return fmt.Errorf("SLIDESHOW_FPS must be positive")
	}
	if s.MaxConcurrentEncodes <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_ENCODES must be positive")
	}
	if c.Artifacts.CacheSize <= 0 {
		return fmt.Errorf("ARTIFACT_CACHE_SIZE must be positive")
	}
	// Redis treats EXPIRE 0 as delete, so a zero TTL would disable the L2 tier.
	if c.Artifacts.TTL <= 0 {
		return fmt.Errorf("ARTIFACT_TTL must be positive")
	}

	switch c.Speech.Provider {
	case "lemonfox", "elevenlabs", "gemini":
	default:
		return fmt.Errorf("unknown TTS_PROVIDER %q (allowed: lemonfox, elevenlabs, gemini)", c.Speech.Provider)
	}

	return nil
}

// IsDevelopment reports whether the service runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development"
}
