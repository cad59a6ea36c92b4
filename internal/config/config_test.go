package config

import (
	"log/slog"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
)

func parse(t *testing.T, vars map[string]string) (Config, error) {
	t.Helper()

	return Parse(env.Options{Environment: vars})
}

func TestParseDefaults(t *testing.T) {
	cfg, err := parse(t, map[string]string{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTPAddr != ":5000" {
		t.Fatalf("unexpected addr: %q", cfg.HTTPAddr)
	}
	if cfg.ModelBaseURL != "http://localhost:11434/v1/" {
		t.Fatalf("unexpected base URL: %q", cfg.ModelBaseURL)
	}
	if cfg.ModelName != "llama3.1:8b" {
		t.Fatalf("unexpected model: %q", cfg.ModelName)
	}
	if cfg.RequestTimeout != 120*time.Second || cfg.LivenessTimeout != 5*time.Second {
		t.Fatalf("unexpected timeouts: %s %s", cfg.RequestTimeout, cfg.LivenessTimeout)
	}
	if cfg.LivenessRetries != 0 {
		t.Fatalf("expected no liveness retries by default, got %d", cfg.LivenessRetries)
	}
	if cfg.OCREngine != OCREngineTesseract || cfg.TesseractPath != "tesseract" {
		t.Fatalf("unexpected ocr config: %q %q", cfg.OCREngine, cfg.TesseractPath)
	}
	if cfg.MaxUploadBytes != 10<<20 {
		t.Fatalf("unexpected upload limit: %d", cfg.MaxUploadBytes)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Fatalf("unexpected log level: %v", cfg.LogLevel)
	}
	if cfg.TelegramEnabled() {
		t.Fatalf("expected telegram to be disabled without token")
	}
}

func TestParseOverrides(t *testing.T) {
	cfg, err := parse(t, map[string]string{
		"MODEL_NAME":       "  mistral:7b ",
		"REQUEST_TIMEOUT":  "30s",
		"LIVENESS_RETRIES": "2",
		"OCR_ENGINE":       "Vision",
		"CORS_ORIGINS":     "http://localhost:3000,http://localhost:3001",
		"TELEGRAM_TOKEN":   "123:abc",
		"ALLOWED_USERS":    "1,42",
		"LOG_LEVEL":        "debug",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ModelName != "mistral:7b" {
		t.Fatalf("expected trimmed model name, got %q", cfg.ModelName)
	}
	if cfg.RequestTimeout != 30*time.Second || cfg.LivenessRetries != 2 {
		t.Fatalf("unexpected timeout/retries: %s %d", cfg.RequestTimeout, cfg.LivenessRetries)
	}
	if cfg.OCREngine != OCREngineVision {
		t.Fatalf("expected vision engine, got %q", cfg.OCREngine)
	}
	if !slices.Equal(cfg.CORSOrigins, []string{"http://localhost:3000", "http://localhost:3001"}) {
		t.Fatalf("unexpected origins: %v", cfg.CORSOrigins)
	}
	if !slices.Equal(cfg.AllowedUsers, []int64{1, 42}) {
		t.Fatalf("unexpected allowed users: %v", cfg.AllowedUsers)
	}
	if !cfg.TelegramEnabled() {
		t.Fatalf("expected telegram to be enabled")
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Fatalf("unexpected log level: %v", cfg.LogLevel)
	}
}

func TestParseRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]string
		wantErr string
	}{
		{name: "empty model", vars: map[string]string{"MODEL_NAME": "  "}, wantErr: "MODEL_NAME"},
		{name: "relative base url", vars: map[string]string{"MODEL_BASE_URL": "localhost"}, wantErr: "MODEL_BASE_URL"},
		{name: "zero timeout", vars: map[string]string{"REQUEST_TIMEOUT": "0s"}, wantErr: "REQUEST_TIMEOUT"},
		{name: "negative retries", vars: map[string]string{"LIVENESS_RETRIES": "-1"}, wantErr: "LIVENESS_RETRIES"},
		{name: "unknown engine", vars: map[string]string{"OCR_ENGINE": "easyocr"}, wantErr: "OCR_ENGINE"},
		{name: "bad duration", vars: map[string]string{"OCR_TIMEOUT": "soon"}, wantErr: "OCRTimeout"},
		{name: "bad user id", vars: map[string]string{"ALLOWED_USERS": "1,bob"}, wantErr: "AllowedUsers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(t, tt.vars)
			if err == nil {
				t.Fatalf("expected error")
			}

			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error mentioning %s, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := Config{OCREngine: "none"}

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected error")
	}

	for _, name := range []string{"MODEL_NAME", "MODEL_BASE_URL", "REQUEST_TIMEOUT", "OCR_ENGINE"} {
		if !strings.Contains(err.Error(), name) {
			t.Fatalf("expected %s in %v", name, err)
		}
	}
}
