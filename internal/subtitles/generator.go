package subtitles

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"quickshorts/internal/logging"
)

// DefaultWhisperCommand is the transcription CLI invoked when none is configured.
const DefaultWhisperCommand = "whisper"

// CommandRunner executes a command and returns its captured output streams.
type CommandRunner func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)

// Generator produces SRT files from audio by shelling out to a whisper CLI.
type Generator struct {
	binary string
	logger *slog.Logger
	runner CommandRunner
}

// NewGenerator constructs a generator for the given whisper binary.
func NewGenerator(binary string, logger *slog.Logger) *Generator {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = DefaultWhisperCommand
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Generator{
		binary: binary,
		logger: logging.NewComponentLogger(logger, "subtitle-generator"),
		runner: defaultCommandRunner,
	}
}

// WithCommandRunner overrides command execution (used in tests).
func (g *Generator) WithCommandRunner(runner CommandRunner) {
	if runner == nil {
		runner = defaultCommandRunner
	}
	g.runner = runner
}

// Binary reports the configured whisper executable.
func (g *Generator) Binary() string {
	return g.binary
}

// GenerateSubtitleFile transcribes audioPath into <outputDir>/<audio stem>.srt
// and returns the subtitle path.
func (g *Generator) GenerateSubtitleFile(ctx context.Context, audioPath, model, outputDir string) (string, error) {
	info, err := os.Stat(audioPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("%w: audio file not found: %s", ErrSubtitleGenerationFailed, audioPath)
	case err != nil:
		return "", fmt.Errorf("%w: stat audio: %w", ErrSubtitleGenerationFailed, err)
	case info.IsDir():
		return "", fmt.Errorf("%w: audio path is a directory: %s", ErrSubtitleGenerationFailed, audioPath)
	}

	if outputDir == "" {
		outputDir = filepath.Dir(audioPath)
	}
	if info, err := os.Stat(outputDir); err == nil && !info.IsDir() {
		return "", fmt.Errorf("%w: output path is not a directory: %s", ErrSubtitleGenerationFailed, outputDir)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create output dir: %w", ErrSubtitleGenerationFailed, err)
	}

	args := []string{audioPath}
	if model = strings.TrimSpace(model); model != "" {
		args = append(args, "--model", model)
	}
	args = append(args, "--output_dir", outputDir, "--output_format", "srt")

	g.logger.Info("generating subtitles",
		logging.String(logging.FieldEventType, "subtitle_generation_started"),
		logging.String("audio", audioPath),
		logging.String("model", model),
	)
	stdout, stderr, err := g.runner(ctx, g.binary, args...)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("%w: %s not found: %w", ErrSubtitleGenerationFailed, g.binary, err)
		}
		return "", fmt.Errorf("%w: %s: %w: %s", ErrSubtitleGenerationFailed, g.binary, err, outputDetail(stdout, stderr))
	}

	stem := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	srtPath := filepath.Join(outputDir, stem+".srt")
	if _, err := os.Stat(srtPath); err != nil {
		return "", fmt.Errorf("%w: expected output %s missing: %s", ErrSubtitleGenerationFailed, srtPath, outputDetail(stdout, stderr))
	}

	g.logger.Info("subtitles generated",
		logging.String(logging.FieldEventType, "subtitle_generation_completed"),
		logging.String("subtitle", srtPath),
	)
	return srtPath, nil
}

func outputDetail(stdout, stderr []byte) string {
	out := strings.TrimSpace(string(stdout))
	errText := strings.TrimSpace(string(stderr))
	return fmt.Sprintf("stdout=%q stderr=%q", out, errText)
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
