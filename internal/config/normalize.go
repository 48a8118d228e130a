package config

import (
	"fmt"
	"strings"
)

// Finalize normalizes and validates a config edited after Load, such as one
// overridden by command-line flags.
func (c *Config) Finalize() error {
	if err := c.normalize(); err != nil {
		return err
	}
	return c.Validate()
}

func (c *Config) normalize() error {
	if err := c.normalizeVideo(); err != nil {
		return err
	}
	if err := c.normalizeSubtitles(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeRelay()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	return c.normalizeLogging()
}

func (c *Config) normalizeVideo() error {
	var err error
	if c.Video.InputPath, err = expandPath(strings.TrimSpace(c.Video.InputPath)); err != nil {
		return fmt.Errorf("video.input_path: %w", err)
	}
	if c.Video.OutputPath, err = expandPath(strings.TrimSpace(c.Video.OutputPath)); err != nil {
		return fmt.Errorf("video.output_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeSubtitles() error {
	var err error
	c.Subtitles.WhisperModel = strings.TrimSpace(c.Subtitles.WhisperModel)
	if c.Subtitles.FontPath, err = expandPath(strings.TrimSpace(c.Subtitles.FontPath)); err != nil {
		return fmt.Errorf("subtitles.font_path: %w", err)
	}
	c.Subtitles.FontColor = strings.TrimSpace(c.Subtitles.FontColor)
	if c.Subtitles.FontColor == "" {
		c.Subtitles.FontColor = defaultFontColor
	}
	c.Subtitles.VerticalAlignment = strings.ToLower(strings.TrimSpace(c.Subtitles.VerticalAlignment))
	if c.Subtitles.VerticalAlignment == "" {
		c.Subtitles.VerticalAlignment = defaultVerticalAlignment
	}
	c.Subtitles.HorizontalAlignment = strings.ToLower(strings.TrimSpace(c.Subtitles.HorizontalAlignment))
	if c.Subtitles.HorizontalAlignment == "" {
		c.Subtitles.HorizontalAlignment = defaultHorizontalAlignment
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.FFmpegBinary = strings.TrimSpace(c.Tools.FFmpegBinary)
	if c.Tools.FFmpegBinary == "" {
		c.Tools.FFmpegBinary = defaultFFmpegBinary
	}
	c.Tools.FFprobeBinary = strings.TrimSpace(c.Tools.FFprobeBinary)
	if c.Tools.FFprobeBinary == "" {
		c.Tools.FFprobeBinary = defaultFFprobeBinary
	}
	c.Tools.WhisperBinary = strings.TrimSpace(c.Tools.WhisperBinary)
	if c.Tools.WhisperBinary == "" {
		c.Tools.WhisperBinary = defaultWhisperBinary
	}
}

func (c *Config) normalizeRelay() {
	policy := strings.ToLower(strings.TrimSpace(c.Relay.PacketFailurePolicy))
	policy = strings.ReplaceAll(policy, "-", "_")
	if policy == "" {
		policy = defaultPacketPolicy
	}
	c.Relay.PacketFailurePolicy = policy
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	var err error
	if c.Logging.Dir, err = expandPath(strings.TrimSpace(c.Logging.Dir)); err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}
	return nil
}
