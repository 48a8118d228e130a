package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"quickshorts/internal/config"
	"quickshorts/internal/history"
	"quickshorts/internal/media"
	"quickshorts/internal/pipeline"
	"quickshorts/internal/preflight"
	"quickshorts/internal/subtitles"
	"quickshorts/internal/testsupport"
)

type call struct {
	op     string
	input  string
	output string
}

type fakePipeline struct {
	calls    []call
	duration time.Duration
	spec     subtitles.StyleSpec
	scale    pipeline.Scale
	burnErr  error
}

func (f *fakePipeline) TrimVideo(_ context.Context, input, output string, _, duration time.Duration) (pipeline.Result, error) {
	f.calls = append(f.calls, call{pipeline.OpTrim, input, output})
	f.duration = duration
	return pipeline.Result{Operation: pipeline.OpTrim, Output: output}, os.WriteFile(output, []byte("trimmed"), 0o644)
}

func (f *fakePipeline) ExtractAudio(_ context.Context, input, output string) (pipeline.Result, error) {
	f.calls = append(f.calls, call{pipeline.OpExtractAudio, input, output})
	return pipeline.Result{Operation: pipeline.OpExtractAudio, Output: output}, os.WriteFile(output, []byte("RIFF"), 0o644)
}

func (f *fakePipeline) BurnSubtitles(_ context.Context, input, _, output string, spec subtitles.StyleSpec, scale pipeline.Scale) (pipeline.Result, error) {
	f.calls = append(f.calls, call{pipeline.OpBurnSubtitles, input, output})
	f.spec = spec
	f.scale = scale
	res := pipeline.Result{Operation: pipeline.OpBurnSubtitles, Output: output, Relay: media.RelayStats{Failed: 2}}
	if f.burnErr != nil {
		return res, f.burnErr
	}
	return res, os.WriteFile(output, []byte("burned"), 0o644)
}

type fakeGenerator struct {
	audio string
	model string
}

func (g *fakeGenerator) GenerateSubtitleFile(_ context.Context, audioPath, model, outputDir string) (string, error) {
	g.audio = audioPath
	g.model = model
	path := filepath.Join(outputDir, strings.TrimSuffix(filepath.Base(audioPath), ".wav")+".srt")
	content := "1\n00:00:00,000 --> 00:00:02,000\nHello\n\n2\n00:00:02,500 --> 00:00:04,000\nWorld\n"
	return path, os.WriteFile(path, []byte(content), 0o644)
}

type memoryRecorder struct {
	runs []history.Run
}

func (m *memoryRecorder) Record(_ context.Context, run history.Run) (int64, error) {
	m.runs = append(m.runs, run)
	return int64(len(m.runs)), nil
}

func passingPreflight(*config.Config) []preflight.Result {
	return []preflight.Result{{Name: "stub", Passed: true}}
}

func newTestRunner(p MediaPipeline, g SubtitleGenerator, rec Recorder) *Runner {
	return NewRunner(p, g,
		WithRecorder(rec),
		WithPreflight(passingPreflight),
		WithRunIDs(func() string { return "run-1" }),
	)
}

func writeInput(t *testing.T, cfg *config.Config) {
	t.Helper()
	testsupport.WriteFile(t, cfg.Video.InputPath, "source")
}

func TestProcessWithoutSubtitlesMovesTrimmedFile(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutSubtitles(), testsupport.WithDuration(15))
	writeInput(t, cfg)
	fp := &fakePipeline{}
	rec := &memoryRecorder{}

	summary, err := newTestRunner(fp, &fakeGenerator{}, rec).Process(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(fp.calls) != 1 || fp.calls[0].op != pipeline.OpTrim {
		t.Fatalf("unexpected calls %+v", fp.calls)
	}
	if fp.duration != 15*time.Second {
		t.Fatalf("trim duration = %s", fp.duration)
	}
	wantTrim := filepath.Join(filepath.Dir(cfg.Video.OutputPath), "source_processing_run-1", "source_trimmed.mp4")
	if fp.calls[0].output != wantTrim {
		t.Fatalf("trim output = %q, want %q", fp.calls[0].output, wantTrim)
	}
	got, err := os.ReadFile(cfg.Video.OutputPath)
	if err != nil || string(got) != "trimmed" {
		t.Fatalf("output not moved into place: %q, %v", got, err)
	}
	if summary.TempDir != "" {
		t.Fatalf("expected temp dir cleared, got %q", summary.TempDir)
	}
	if _, err := os.Stat(filepath.Dir(wantTrim)); !os.IsNotExist(err) {
		t.Fatalf("expected working directory removed, stat err = %v", err)
	}
	if _, err := os.Stat(cfg.Video.OutputPath + ".lock"); !os.IsNotExist(err) {
		t.Fatalf("expected lock file removed, stat err = %v", err)
	}
	if len(rec.runs) != 1 || rec.runs[0].Status != history.StatusSucceeded || rec.runs[0].RunID != "run-1" {
		t.Fatalf("unexpected history %+v", rec.runs)
	}
}

func TestProcessWithSubtitles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Video.OutputWidth = 1080
	cfg.Video.OutputHeight = 1920
	writeInput(t, cfg)
	fp := &fakePipeline{}
	gen := &fakeGenerator{}
	rec := &memoryRecorder{}

	summary, err := newTestRunner(fp, gen, rec).Process(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	ops := make([]string, 0, len(fp.calls))
	for _, c := range fp.calls {
		ops = append(ops, c.op)
	}
	if strings.Join(ops, ",") != "trim,extract_audio,burn_subtitles" {
		t.Fatalf("unexpected operation order %v", ops)
	}
	trimmed := fp.calls[0].output
	if fp.calls[1].input != trimmed || fp.calls[2].input != trimmed {
		t.Fatalf("extract and burn should read the trimmed file: %+v", fp.calls)
	}
	if filepath.Base(gen.audio) != "source_extracted_audio.wav" || gen.model != "base" {
		t.Fatalf("unexpected generator inputs %q %q", gen.audio, gen.model)
	}
	if fp.spec.FontSize != 24 || fp.spec.Color != "white" || fp.spec.Vertical != "bottom" || fp.spec.Horizontal != "center" {
		t.Fatalf("unexpected style %+v", fp.spec)
	}
	if fp.scale != (pipeline.Scale{Width: 1080, Height: 1920}) {
		t.Fatalf("unexpected scale %+v", fp.scale)
	}
	if summary.CueCount != 2 || summary.PacketsFailed() != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if got, _ := os.ReadFile(cfg.Video.OutputPath); string(got) != "burned" {
		t.Fatalf("unexpected output %q", got)
	}
	if rec.runs[0].CueCount != 2 || rec.runs[0].PacketsFailed != 2 || !rec.runs[0].Subtitles {
		t.Fatalf("unexpected history %+v", rec.runs[0])
	}
}

func TestProcessFailureKeepsWorkingDirectory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	writeInput(t, cfg)
	fp := &fakePipeline{burnErr: media.Wrap(media.ErrMux, "encoder exited", nil)}
	rec := &memoryRecorder{}

	summary, err := newTestRunner(fp, &fakeGenerator{}, rec).Process(context.Background(), cfg)
	if !errors.Is(err, media.ErrMux) {
		t.Fatalf("expected ErrMux, got %v", err)
	}
	if summary.TempDir == "" {
		t.Fatal("expected temp dir reported on failure")
	}
	if _, err := os.Stat(filepath.Join(summary.TempDir, "source_trimmed.mp4")); err != nil {
		t.Fatalf("expected intermediate files kept: %v", err)
	}
	if len(rec.runs) != 1 || rec.runs[0].Status != history.StatusFailed || rec.runs[0].TempDir != summary.TempDir {
		t.Fatalf("unexpected history %+v", rec.runs)
	}
	if !strings.Contains(rec.runs[0].ErrorMessage, "encoder exited") {
		t.Fatalf("error message not recorded: %q", rec.runs[0].ErrorMessage)
	}
}

func TestProcessClassifiesInvalidRuns(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*config.Config, *fakePipeline)
	}{
		{"missing output", func(c *config.Config, _ *fakePipeline) { c.Video.OutputPath = "" }},
		{"bad style", func(_ *config.Config, p *fakePipeline) {
			p.burnErr = fmt.Errorf("%w: %q", subtitles.ErrUnsupportedColor, "mauve")
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testsupport.NewConfig(t)
			writeInput(t, cfg)
			fp := &fakePipeline{}
			tc.setup(cfg, fp)
			rec := &memoryRecorder{}
			if _, err := newTestRunner(fp, &fakeGenerator{}, rec).Process(context.Background(), cfg); err == nil {
				t.Fatal("expected error")
			}
			if len(rec.runs) != 1 || rec.runs[0].Status != history.StatusInvalid {
				t.Fatalf("expected invalid run, got %+v", rec.runs)
			}
		})
	}
}

func TestProcessRejectsStyleBeforeTrimming(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Subtitles.FontColor = "mauve"
	writeInput(t, cfg)
	fp := &fakePipeline{}
	rec := &memoryRecorder{}
	_, err := newTestRunner(fp, &fakeGenerator{}, rec).Process(context.Background(), cfg)
	if !errors.Is(err, subtitles.ErrUnsupportedColor) {
		t.Fatalf("expected ErrUnsupportedColor, got %v", err)
	}
	if len(fp.calls) != 0 {
		t.Fatalf("pipeline ran with an invalid style: %+v", fp.calls)
	}
	if _, err := os.Stat(cfg.Video.OutputPath); !os.IsNotExist(err) {
		t.Fatalf("output must not exist, stat err = %v", err)
	}
	if len(rec.runs) != 1 || rec.runs[0].Status != history.StatusInvalid {
		t.Fatalf("expected invalid run, got %+v", rec.runs)
	}
}

func TestProcessPreflightFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	writeInput(t, cfg)
	fp := &fakePipeline{}
	runner := NewRunner(fp, &fakeGenerator{}, WithPreflight(func(*config.Config) []preflight.Result {
		return []preflight.Result{{Name: "Whisper", Detail: "binary \"whisper\" not found"}}
	}))
	_, err := runner.Process(context.Background(), cfg)
	if !errors.Is(err, ErrPreflight) {
		t.Fatalf("expected ErrPreflight, got %v", err)
	}
	if len(fp.calls) != 0 {
		t.Fatalf("pipeline ran despite preflight failure: %+v", fp.calls)
	}
}

func TestProcessRejectsLockedOutput(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutSubtitles())
	writeInput(t, cfg)
	held := flock.New(cfg.Video.OutputPath + ".lock")
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("pre-lock: ok=%v err=%v", ok, err)
	}
	defer held.Unlock()

	fp := &fakePipeline{}
	_, err = newTestRunner(fp, &fakeGenerator{}, nil).Process(context.Background(), cfg)
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if len(fp.calls) != 0 {
		t.Fatal("pipeline ran while output was locked")
	}
}

func TestProcessRecordsToHistoryStore(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutSubtitles())
	writeInput(t, cfg)
	store := testsupport.MustOpenHistory(t, cfg)

	runner := NewRunner(&fakePipeline{}, &fakeGenerator{}, WithRecorder(store), WithPreflight(passingPreflight))
	summary, err := runner.Process(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	run, err := store.Get(context.Background(), summary.RunID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if run.Status != history.StatusSucceeded || run.OutputPath != cfg.Video.OutputPath {
		t.Fatalf("unexpected stored run %+v", run)
	}
}
