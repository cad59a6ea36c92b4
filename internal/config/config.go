package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	OCREngineTesseract = "tesseract"
	OCREngineVision    = "vision"
)

type Config struct {
	HTTPAddr    string   `env:"HTTP_ADDR"    envDefault:":5000"`
	CORSOrigins []string `env:"CORS_ORIGINS"`

	ModelBaseURL    string        `env:"MODEL_BASE_URL"   envDefault:"http://localhost:11434/v1/"`
	ModelAPIKey     string        `env:"MODEL_API_KEY"    envDefault:"ollama"`
	ModelName       string        `env:"MODEL_NAME"       envDefault:"llama3.1:8b"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT"  envDefault:"120s"`
	LivenessTimeout time.Duration `env:"LIVENESS_TIMEOUT" envDefault:"5s"`
	LivenessRetries int           `env:"LIVENESS_RETRIES" envDefault:"0"`

	OCREngine       string        `env:"OCR_ENGINE"        envDefault:"tesseract"`
	TesseractPath   string        `env:"TESSERACT_PATH"    envDefault:"tesseract"`
	TesseractLangs  string        `env:"TESSERACT_LANGS"   envDefault:"eng"`
	OCRMaxDimension int           `env:"OCR_MAX_DIMENSION" envDefault:"2000"`
	OCRTimeout      time.Duration `env:"OCR_TIMEOUT"       envDefault:"60s"`
	VisionModel     string        `env:"VISION_MODEL"      envDefault:"llama3.2-vision"`
	MaxUploadBytes  int64         `env:"MAX_UPLOAD_BYTES"  envDefault:"10485760"`

	TelegramToken string  `env:"TELEGRAM_TOKEN"`
	AllowedUsers  []int64 `env:"ALLOWED_USERS"`

	ModelWatchSpec string `env:"MODEL_WATCH_SPEC" envDefault:"@every 5m"`

	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads an optional .env file from the working directory, then the
// process environment. Real environment variables win over .env values.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	return Parse(env.Options{})
}

// Parse reads the configuration with opts, e.g. opts.Environment in tests.
func Parse(opts env.Options) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.ModelName = strings.TrimSpace(cfg.ModelName)
	cfg.OCREngine = strings.ToLower(strings.TrimSpace(cfg.OCREngine))
	cfg.TelegramToken = strings.TrimSpace(cfg.TelegramToken)

	if err = cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	if c.ModelName == "" {
		errs = append(errs, errors.New("MODEL_NAME is empty"))
	}

	if u, err := url.Parse(c.ModelBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("MODEL_BASE_URL is not an absolute URL: %q", c.ModelBaseURL))
	}

	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT must be positive: %s", c.RequestTimeout))
	}
	if c.LivenessTimeout <= 0 {
		errs = append(errs, fmt.Errorf("LIVENESS_TIMEOUT must be positive: %s", c.LivenessTimeout))
	}
	if c.LivenessRetries < 0 {
		errs = append(errs, fmt.Errorf("LIVENESS_RETRIES must not be negative: %d", c.LivenessRetries))
	}
	if c.OCRTimeout <= 0 {
		errs = append(errs, fmt.Errorf("OCR_TIMEOUT must be positive: %s", c.OCRTimeout))
	}
	if c.OCRMaxDimension <= 0 {
		errs = append(errs, fmt.Errorf("OCR_MAX_DIMENSION must be positive: %d", c.OCRMaxDimension))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("MAX_UPLOAD_BYTES must be positive: %d", c.MaxUploadBytes))
	}

	switch c.OCREngine {
	case OCREngineTesseract:
		if strings.TrimSpace(c.TesseractPath) == "" {
			errs = append(errs, errors.New("TESSERACT_PATH is empty"))
		}
	case OCREngineVision:
		if strings.TrimSpace(c.VisionModel) == "" {
			errs = append(errs, errors.New("VISION_MODEL is empty"))
		}
	default:
		errs = append(errs, fmt.Errorf("OCR_ENGINE must be %q or %q: %q",
			OCREngineTesseract, OCREngineVision, c.OCREngine))
	}

	return errors.Join(errs...)
}

// TelegramEnabled reports whether the bot front end should run.
func (c Config) TelegramEnabled() bool {
	return c.TelegramToken != ""
}
