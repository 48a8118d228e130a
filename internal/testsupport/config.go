package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"quickshorts/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config rooted in a unique temp directory per test:
// input and output paths live under base/media and history under base/state.
// No media files are created.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Video.InputPath = filepath.Join(base, "media", "source.mp4")
	cfgVal.Video.OutputPath = filepath.Join(base, "media", "short.mp4")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	if err := os.MkdirAll(filepath.Join(base, "media"), 0o755); err != nil {
		t.Fatalf("mkdir media dir: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithoutSubtitles disables transcription and burn-in.
func WithoutSubtitles() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Subtitles.Enabled = false
	}
}

// WithDuration overrides the short length in seconds.
func WithDuration(secs int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Video.ShortDurationSecs = secs
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg, ffprobe and whisper are
// stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe", "whisper"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
