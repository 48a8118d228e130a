package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"quickshorts/internal/config"
	"quickshorts/internal/fileutil"
	"quickshorts/internal/history"
	"quickshorts/internal/logging"
	"quickshorts/internal/pipeline"
	"quickshorts/internal/preflight"
	"quickshorts/internal/subtitles"
	"quickshorts/internal/textutil"
)

// ErrLocked is returned when another run holds the destination lock.
var ErrLocked = errors.New("output locked by another run")

// ErrPreflight marks runs aborted by a failed readiness check.
var ErrPreflight = errors.New("preflight failed")

// MediaPipeline is the subset of pipeline.Pipeline the runner drives.
type MediaPipeline interface {
	TrimVideo(ctx context.Context, input, output string, start, duration time.Duration) (pipeline.Result, error)
	ExtractAudio(ctx context.Context, input, output string) (pipeline.Result, error)
	BurnSubtitles(ctx context.Context, input, subtitlePath, output string, spec subtitles.StyleSpec, scale pipeline.Scale) (pipeline.Result, error)
}

// SubtitleGenerator transcribes extracted audio into an SRT file.
type SubtitleGenerator interface {
	GenerateSubtitleFile(ctx context.Context, audioPath, model, outputDir string) (string, error)
}

// Recorder persists run outcomes.
type Recorder interface {
	Record(ctx context.Context, run history.Run) (int64, error)
}

// Summary describes a processed job.
type Summary struct {
	RunID        string
	Output       string
	TempDir      string
	Subtitles    bool
	SubtitlePath string
	CueCount     int
	Steps        []pipeline.Result
	Elapsed      time.Duration
}

// PacketsFailed totals relay packet failures across all steps.
func (s Summary) PacketsFailed() int64 {
	var total int64
	for _, step := range s.Steps {
		total += step.Relay.Failed
	}
	return total
}

// Runner executes jobs.
type Runner struct {
	pipeline  MediaPipeline
	generator SubtitleGenerator
	recorder  Recorder
	logger    *slog.Logger
	preflight func(*config.Config) []preflight.Result
	newRunID  func() string
}

// Option customizes a Runner.
type Option func(*Runner)

// WithRecorder records every run through rec.
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) {
		r.recorder = rec
	}
}

// WithLogger sets the runner logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithPreflight replaces the readiness checks (used in tests).
func WithPreflight(check func(*config.Config) []preflight.Result) Option {
	return func(r *Runner) {
		if check != nil {
			r.preflight = check
		}
	}
}

// WithRunIDs replaces the run id source (used in tests).
func WithRunIDs(next func() string) Option {
	return func(r *Runner) {
		if next != nil {
			r.newRunID = next
		}
	}
}

// NewRunner constructs a runner around a pipeline and subtitle generator.
func NewRunner(p MediaPipeline, gen SubtitleGenerator, opts ...Option) *Runner {
	r := &Runner{
		pipeline:  p,
		generator: gen,
		logger:    logging.NewNop(),
		preflight: preflight.RunAll,
		newRunID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, "workflow")
	return r
}

// Process runs the job described by cfg.
func (r *Runner) Process(ctx context.Context, cfg *config.Config) (summary Summary, err error) {
	summary.RunID = r.newRunID()
	summary.Output = cfg.Video.OutputPath
	summary.Subtitles = cfg.Subtitles.Enabled
	ctx = logging.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, r.logger)
	started := time.Now()

	defer func() {
		summary.Elapsed = time.Since(started)
		r.record(ctx, logger, cfg, summary, started, err)
	}()

	if err := cfg.ValidateJob(); err != nil {
		return summary, err
	}
	if cfg.Subtitles.Enabled {
		if _, err := subtitles.NewStyle(styleSpec(cfg)); err != nil {
			return summary, err
		}
	}
	if err := preflight.Summarize(r.preflight(cfg)); err != nil {
		return summary, fmt.Errorf("%w: %w", ErrPreflight, err)
	}

	lockPath := cfg.Video.OutputPath + ".lock"
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return summary, fmt.Errorf("acquire lock %s: %w", lockPath, err)
	}
	if !locked {
		return summary, fmt.Errorf("%w: %s", ErrLocked, lockPath)
	}
	defer func() {
		if uerr := lock.Unlock(); uerr != nil {
			logger.Warn("failed to release output lock", logging.Error(uerr))
		}
		_ = os.Remove(lockPath)
	}()

	stem := textutil.FileStem(cfg.Video.InputPath)
	tempDir := filepath.Join(filepath.Dir(cfg.Video.OutputPath), fmt.Sprintf("%s_processing_%s", stem, summary.RunID))
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return summary, fmt.Errorf("create working directory: %w", err)
	}
	summary.TempDir = tempDir
	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_started"),
		logging.String("input", cfg.Video.InputPath),
		logging.String("output", cfg.Video.OutputPath),
		logging.String("work_dir", tempDir),
		logging.Bool("subtitles", cfg.Subtitles.Enabled),
	)

	if err := r.produce(ctx, logger, cfg, stem, &summary); err != nil {
		logging.ErrorWithContext(logger, "run failed", "run_failed",
			logging.Error(err),
			logging.String("work_dir", tempDir),
			logging.String(logging.FieldErrorHint, "intermediate files were kept in the working directory"),
		)
		return summary, err
	}

	if err := os.RemoveAll(tempDir); err != nil {
		logger.Warn("failed to remove working directory", logging.String("work_dir", tempDir), logging.Error(err))
	} else {
		summary.TempDir = ""
	}
	logger.Info("run completed",
		logging.String(logging.FieldEventType, "run_completed"),
		logging.String("output", cfg.Video.OutputPath),
		logging.Duration("elapsed", time.Since(started)),
	)
	return summary, nil
}

func (r *Runner) produce(ctx context.Context, logger *slog.Logger, cfg *config.Config, stem string, summary *Summary) error {
	trimmed := filepath.Join(summary.TempDir, stem+"_trimmed.mp4")
	duration := time.Duration(cfg.Video.ShortDurationSecs) * time.Second
	res, err := r.pipeline.TrimVideo(ctx, cfg.Video.InputPath, trimmed, 0, duration)
	summary.Steps = append(summary.Steps, res)
	if err != nil {
		return fmt.Errorf("trim %s: %w", cfg.Video.InputPath, err)
	}

	if !cfg.Subtitles.Enabled {
		if err := fileutil.MoveFile(trimmed, cfg.Video.OutputPath); err != nil {
			return fmt.Errorf("move trimmed video to %s: %w", cfg.Video.OutputPath, err)
		}
		return nil
	}

	audio := filepath.Join(summary.TempDir, stem+"_extracted_audio.wav")
	res, err = r.pipeline.ExtractAudio(ctx, trimmed, audio)
	summary.Steps = append(summary.Steps, res)
	if err != nil {
		return fmt.Errorf("extract audio from %s: %w", trimmed, err)
	}

	srt, err := r.generator.GenerateSubtitleFile(ctx, audio, cfg.Subtitles.WhisperModel, summary.TempDir)
	if err != nil {
		return err
	}
	summary.SubtitlePath = srt
	transcript, err := subtitles.ReadTranscript(srt)
	if err != nil {
		return err
	}
	summary.CueCount = transcript.Len()
	if issues := transcript.Issues(duration); len(issues) > 0 {
		logging.WarnWithContext(logger, "transcript has issues", "subtitle_validation",
			logging.String("subtitle", srt),
			logging.String("issues", strings.Join(issues, ",")),
			logging.String(logging.FieldImpact, "short may have no or clipped captions"),
		)
	}

	scale := pipeline.Scale{Width: cfg.Video.OutputWidth, Height: cfg.Video.OutputHeight}
	res, err = r.pipeline.BurnSubtitles(ctx, trimmed, srt, cfg.Video.OutputPath, styleSpec(cfg), scale)
	summary.Steps = append(summary.Steps, res)
	if err != nil {
		return fmt.Errorf("burn subtitles into %s: %w", cfg.Video.OutputPath, err)
	}
	return nil
}

func styleSpec(cfg *config.Config) subtitles.StyleSpec {
	return subtitles.StyleSpec{
		FontFile:   cfg.Subtitles.FontPath,
		FontSize:   uint(max(cfg.Subtitles.FontSize, 0)),
		Color:      cfg.Subtitles.FontColor,
		Vertical:   cfg.Subtitles.VerticalAlignment,
		Horizontal: cfg.Subtitles.HorizontalAlignment,
	}
}

func (r *Runner) record(ctx context.Context, logger *slog.Logger, cfg *config.Config, summary Summary, started time.Time, runErr error) {
	if r.recorder == nil {
		return
	}
	run := history.Run{
		RunID:         summary.RunID,
		InputPath:     cfg.Video.InputPath,
		OutputPath:    cfg.Video.OutputPath,
		Status:        classify(runErr),
		Subtitles:     summary.Subtitles,
		CueCount:      summary.CueCount,
		PacketsFailed: summary.PacketsFailed(),
		TempDir:       summary.TempDir,
		StartedAt:     started,
		FinishedAt:    time.Now(),
	}
	if runErr != nil {
		run.ErrorMessage = runErr.Error()
	}
	// The run context may already be cancelled by a signal.
	if _, err := r.recorder.Record(context.WithoutCancel(ctx), run); err != nil {
		logger.Warn("failed to record run history", logging.Error(err))
	}
}

func classify(err error) history.Status {
	switch {
	case err == nil:
		return history.StatusSucceeded
	case errors.Is(err, config.ErrInvalid), pipeline.IsInvalidInput(err):
		return history.StatusInvalid
	default:
		return history.StatusFailed
	}
}
