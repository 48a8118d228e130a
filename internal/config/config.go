package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Video describes the source clip and the short to produce from it.
type Video struct {
	InputPath         string `toml:"input_path"`
	OutputPath        string `toml:"output_path"`
	ShortDurationSecs int    `toml:"short_duration_secs"`
	OutputWidth       int    `toml:"output_width,omitempty"`
	OutputHeight      int    `toml:"output_height,omitempty"`
}

// Subtitles contains transcription and burn-in styling settings.
type Subtitles struct {
	Enabled             bool   `toml:"enabled"`
	WhisperModel        string `toml:"whisper_model"`
	FontPath            string `toml:"font_path"`
	FontSize            int    `toml:"font_size"`
	FontColor           string `toml:"font_color"`
	VerticalAlignment   string `toml:"vertical_alignment"`
	HorizontalAlignment string `toml:"horizontal_alignment"`
}

// Tools names the external executables.
type Tools struct {
	FFmpegBinary  string `toml:"ffmpeg"`
	FFprobeBinary string `toml:"ffprobe"`
	WhisperBinary string `toml:"whisper"`
}

// Relay controls how packet write failures are handled while remuxing.
type Relay struct {
	PacketFailurePolicy string `toml:"packet_failure_policy"`
}

// Paths contains state locations.
type Paths struct {
	StateDir string `toml:"state_dir"`
}

// History controls the run history database.
type History struct {
	Enabled bool `toml:"enabled"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	Dir    string `toml:"dir,omitempty"`
}

// Config encapsulates all configuration values for quickshorts.
//
// Configuration sections:
//   - Video: input, output and clip geometry
//   - Subtitles: whisper model and burn-in style
//   - Tools: ffmpeg, ffprobe and whisper executables
//   - Relay: packet failure policy
//   - Paths / History: run history database
//   - Logging: log format, level and optional file directory
type Config struct {
	Video     Video     `toml:"video"`
	Subtitles Subtitles `toml:"subtitles"`
	Tools     Tools     `toml:"tools"`
	Relay     Relay     `toml:"relay"`
	Paths     Paths     `toml:"paths"`
	History   History   `toml:"history"`
	Logging   Logging   `toml:"logging"`
}

// ErrInvalid marks configuration validation failures.
var ErrInvalid = errors.New("invalid configuration")

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// Save writes the configuration as TOML, creating parent directories.
func (c *Config) Save(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// HistoryPath returns the run history database location.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, historyFileName)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
