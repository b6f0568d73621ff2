package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config holds every tunable for the service and the one-shot CLI.
// Values load in layers: defaults, then an optional TOML file, then
// flags and environment variables on top.
type Config struct {
	Port      int    `toml:"port"`
	DBPath    string `toml:"db_path"`
	Artifacts string `toml:"artifacts"`
	TempDir   string `toml:"temp_dir"`

	Scanner     string `toml:"scanner"`
	GeminiKey   string `toml:"gemini_key"`
	GeminiModel string `toml:"gemini_model"`
	OllamaURL   string `toml:"ollama_url"`
	OllamaModel string `toml:"ollama_model"`

	FFmpeg    string  `toml:"ffmpeg"`
	FFprobe   string  `toml:"ffprobe"`
	Threshold float64 `toml:"threshold"`
	PDFDPI    int     `toml:"pdf_dpi"`

	DateHorizonDays int `toml:"date_horizon_days"`

	AuthUser string `toml:"auth_user"`
	AuthPass string `toml:"auth_pass"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Port:            8080,
		DBPath:          "receipt-reel.db",
		Artifacts:       "./artifacts",
		TempDir:         os.TempDir(),
		Scanner:         "gemini",
		GeminiModel:     "gemini-2.0-flash",
		OllamaURL:       "http://localhost:11434",
		OllamaModel:     "llava",
		FFmpeg:          "ffmpeg",
		FFprobe:         "ffprobe",
		Threshold:       0.32,
		PDFDPI:          200,
		DateHorizonDays: 365,
	}
}

// Load reads a TOML config file over the defaults. A missing file is
// an error; pass an empty path to get the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}
