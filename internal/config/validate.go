package config

import (
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. Job fields (input and
// output paths) are checked separately by ValidateJob so that a config file
// holding only defaults still validates.
func (c *Config) Validate() error {
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validateSubtitles(); err != nil {
		return err
	}
	if err := c.validateRelay(); err != nil {
		return err
	}
	return c.validateLogging()
}

// ValidateJob checks the fields a single run needs on top of Validate.
func (c *Config) ValidateJob() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Video.InputPath == "" {
		return invalid("video.input_path must be set")
	}
	if c.Video.OutputPath == "" {
		return invalid("video.output_path must be set")
	}
	if c.Video.InputPath == c.Video.OutputPath {
		return invalid("video.output_path must differ from video.input_path")
	}
	if c.Subtitles.Enabled && c.Subtitles.WhisperModel == "" {
		return invalid("subtitles.whisper_model must be set when subtitles.enabled is true")
	}
	return nil
}

func (c *Config) validateVideo() error {
	if c.Video.ShortDurationSecs <= 0 {
		return invalid("video.short_duration_secs must be positive")
	}
	if c.Video.OutputWidth < 0 || c.Video.OutputHeight < 0 {
		return invalid("video.output_width and video.output_height must not be negative")
	}
	if (c.Video.OutputWidth == 0) != (c.Video.OutputHeight == 0) {
		return invalid("video.output_width and video.output_height must be set together")
	}
	return nil
}

func (c *Config) validateSubtitles() error {
	if c.Subtitles.FontSize <= 0 {
		return invalid("subtitles.font_size must be positive")
	}
	if strings.ContainsAny(c.Subtitles.FontPath, ",\n") {
		return invalid("subtitles.font_path must not contain commas or newlines")
	}
	return nil
}

func (c *Config) validateRelay() error {
	switch c.Relay.PacketFailurePolicy {
	case "best_effort", "fail_fast":
		return nil
	default:
		return invalid(fmt.Sprintf("relay.packet_failure_policy %q must be best_effort or fail_fast", c.Relay.PacketFailurePolicy))
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json", "auto":
	default:
		return invalid(fmt.Sprintf("logging.format %q must be console, json or auto", c.Logging.Format))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return invalid(fmt.Sprintf("logging.level %q must be debug, info, warn or error", c.Logging.Level))
	}
	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalid, msg)
}
