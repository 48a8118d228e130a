package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"

	"quickshorts/internal/deps"
	"quickshorts/internal/logging"
	"quickshorts/internal/media"
)

// Tools records the resolved executables.
type Tools struct {
	FFmpeg  string
	FFprobe string
	Version string
}

// Backend opens containers through ffmpeg. One Backend is shared by every
// operation in a process.
type Backend struct {
	ffmpegCommand  string
	ffprobeCommand string
	logger         *slog.Logger

	once    sync.Once
	tools   Tools
	initErr error
}

// Option customizes a Backend.
type Option func(*Backend)

// WithBinaries overrides the ffmpeg and ffprobe commands. Empty values keep
// the defaults.
func WithBinaries(ffmpegCommand, ffprobeCommand string) Option {
	return func(b *Backend) {
		if v := strings.TrimSpace(ffmpegCommand); v != "" {
			b.ffmpegCommand = v
		}
		if v := strings.TrimSpace(ffprobeCommand); v != "" {
			b.ffprobeCommand = v
		}
	}
}

// WithLogger sets the logger used for backend diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// New constructs a Backend. Binaries are not resolved until first use.
func New(opts ...Option) *Backend {
	b := &Backend{
		ffmpegCommand: "ffmpeg",
		logger:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = logging.NewComponentLogger(b.logger, "ffmpeg")
	return b
}

// EnsureInitialized resolves the ffmpeg and ffprobe binaries and reads the
// ffmpeg version. It runs at most once per Backend; later calls return the
// cached result, including a failure.
func (b *Backend) EnsureInitialized(ctx context.Context) (Tools, error) {
	b.once.Do(func() {
		b.tools, b.initErr = b.initialize(ctx)
		if b.initErr != nil {
			logging.ErrorWithContext(b.logger, "media framework unavailable", "framework_init_failed",
				logging.Error(b.initErr),
				logging.String(logging.FieldErrorHint, "install ffmpeg or set tools.ffmpeg_binary"),
			)
			return
		}
		b.logger.Info("media framework initialized",
			logging.String(logging.FieldEventType, "framework_initialized"),
			logging.String("ffmpeg", b.tools.FFmpeg),
			logging.String("ffprobe", b.tools.FFprobe),
			logging.String("version", b.tools.Version),
		)
	})
	return b.tools, b.initErr
}

func (b *Backend) initialize(ctx context.Context) (Tools, error) {
	ffmpeg := deps.Locate(deps.Tool{Name: "FFmpeg", Command: b.ffmpegCommand})[0]
	if !ffmpeg.Available {
		return Tools{}, media.Wrap(media.ErrFrameworkUnavailable, ffmpeg.Detail, nil)
	}
	ffmpegPath := ffmpeg.Path
	ffprobeTool := deps.LocateFFprobe(ffmpegPath, b.ffprobeCommand)
	if !ffprobeTool.Available {
		return Tools{}, media.Wrap(media.ErrFrameworkUnavailable, ffprobeTool.Detail, nil)
	}

	version, err := readVersion(ctx, ffmpegPath)
	if err != nil {
		return Tools{}, media.Wrap(media.ErrFrameworkUnavailable, "ffmpeg -version", err)
	}
	return Tools{FFmpeg: ffmpegPath, FFprobe: ffprobeTool.Path, Version: version}, nil
}

func readVersion(ctx context.Context, binary string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, "-hide_banner", "-version")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()), nil
	}
	return "unknown", nil
}
