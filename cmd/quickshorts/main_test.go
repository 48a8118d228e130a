package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"quickshorts/internal/config"
	"quickshorts/internal/history"
	"quickshorts/internal/testsupport"
)

// isolateCLI points HOME and the working directory at fresh temp dirs so no
// user or project configuration leaks into a test.
func isolateCLI(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	home := filepath.Join(base, "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", home)
	t.Chdir(base)
	return base
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	base := isolateCLI(t)
	target := filepath.Join(base, "cfg", "config.toml")

	out, _, err := runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}

	out, _, err = runCLI(t, "--config", target, "config", "validate", "--job")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, target)
}

func TestConfigValidateDefaults(t *testing.T) {
	isolateCLI(t)
	out, _, err := runCLI(t, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "defaults were used")

	if _, _, err := runCLI(t, "config", "validate", "--job"); !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("expected ErrInvalid without input path, got %v", err)
	}
}

func TestConfigShow(t *testing.T) {
	isolateCLI(t)
	out, _, err := runCLI(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "[video]")
	requireContains(t, out, "short_duration_secs = 60")
	requireContains(t, out, "packet_failure_policy = 'best_effort'")
}

func TestGlobalLogOverridesAreValidated(t *testing.T) {
	isolateCLI(t)
	if _, _, err := runCLI(t, "--log-level", "loud", "config", "show"); !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for bad log level, got %v", err)
	}
	out, _, err := runCLI(t, "--log-format", "JSON", "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "format = 'json'")
}

func TestConfigureWritesLoadableConfig(t *testing.T) {
	base := isolateCLI(t)
	target := filepath.Join(base, "job.toml")

	out, _, err := runCLI(t, "configure",
		"--output-config-path", target,
		"--input-path", filepath.Join(base, "in.mp4"),
		"--output-path", filepath.Join(base, "out.mp4"),
		"--short-duration-secs", "30",
		"--output-width", "1080",
		"--output-height", "1920",
		"--use-subtitles",
		"--whisper-model-path", "small",
		"--font-color", "#ff0000",
		"--subtitle-position-vertical-alignment", "TOP",
	)
	if err != nil {
		t.Fatalf("configure: %v", err)
	}
	requireContains(t, out, "Wrote configuration")

	cfg, _, exists, err := config.Load(target)
	if err != nil || !exists {
		t.Fatalf("load saved config: exists=%v err=%v", exists, err)
	}
	if cfg.Video.ShortDurationSecs != 30 || cfg.Video.OutputWidth != 1080 || cfg.Video.OutputHeight != 1920 {
		t.Fatalf("unexpected video section %+v", cfg.Video)
	}
	if !cfg.Subtitles.Enabled || cfg.Subtitles.WhisperModel != "small" || cfg.Subtitles.FontColor != "#ff0000" {
		t.Fatalf("unexpected subtitles section %+v", cfg.Subtitles)
	}
	if cfg.Subtitles.VerticalAlignment != "top" || cfg.Subtitles.HorizontalAlignment != "center" {
		t.Fatalf("unexpected alignment %+v", cfg.Subtitles)
	}
	if err := cfg.ValidateJob(); err != nil {
		t.Fatalf("saved job should validate: %v", err)
	}
}

func TestConfigureSubtitleFlag(t *testing.T) {
	base := isolateCLI(t)
	disabled := filepath.Join(base, "disabled.toml")
	if err := os.WriteFile(disabled, []byte("[subtitles]\nenabled = false\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	tests := []struct {
		name string
		args []string
		want bool
	}{
		{"enabled by default", nil, true},
		{"explicitly disabled", []string{"--use-subtitles=false"}, false},
		{"config value kept when flag unset", []string{"--config", disabled}, false},
		{"flag overrides config", []string{"--config", disabled, "--use-subtitles"}, true},
	}
	for i, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			target := filepath.Join(base, fmt.Sprintf("job-%d.toml", i))
			args := append([]string{"configure", "--output-config-path", target, "--input-path", "in.mp4", "--output-path", "out.mp4"}, tc.args...)
			if _, _, err := runCLI(t, args...); err != nil {
				t.Fatalf("configure: %v", err)
			}
			cfg, _, _, err := config.Load(target)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if cfg.Subtitles.Enabled != tc.want {
				t.Fatalf("subtitles.enabled = %v, want %v", cfg.Subtitles.Enabled, tc.want)
			}
			if cfg.Video.InputPath != filepath.Join(base, "in.mp4") {
				t.Fatalf("expected input path made absolute, got %q", cfg.Video.InputPath)
			}
		})
	}
}

func TestJobCommandErrors(t *testing.T) {
	isolateCLI(t)
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"configure without target", []string{"configure", "--input-path", "a.mp4"}, "--output-config-path is required"},
		{"run without path", []string{"run"}, "--config-path is required"},
		{"run missing file", []string{"run", "--config-path", "absent.toml"}, "not found"},
		{"run-from-file alias", []string{"run-from-file", "--config-path", "absent.toml"}, "not found"},
		{"generate width without height", []string{"generate", "--output-width", "720"}, "must be set together"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := runCLI(t, tc.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			requireContains(t, err.Error(), tc.want)
		})
	}
}

func TestHistoryCommand(t *testing.T) {
	isolateCLI(t)
	out, _, err := runCLI(t, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No runs recorded")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	store, err := history.Open(context.Background(), cfg.HistoryPath())
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	started := time.Now().Add(-time.Minute)
	runs := []history.Run{
		{RunID: "0123456789abcdef", OutputPath: "/media/short.mp4", Status: history.StatusSucceeded, StartedAt: started, FinishedAt: started.Add(5 * time.Second)},
		{RunID: "fedcba9876543210", OutputPath: "/media/other.mp4", Status: history.StatusFailed, ErrorMessage: "mux failed\nstderr tail", StartedAt: started, FinishedAt: started},
	}
	for _, run := range runs {
		if _, err := store.Record(context.Background(), run); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	_ = store.Close()

	out, _, err = runCLI(t, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "01234567")
	requireContains(t, out, "mux failed")
	requireContains(t, out, "succeeded=1 failed=1 invalid=0")
	if strings.Contains(out, "stderr tail") {
		t.Fatalf("expected only the first error line, got %q", out)
	}
}

func TestRenderTablePadsRows(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"only"}}, []columnAlignment{alignLeft, alignRight})
	requireContains(t, out, "only")
	if lines := strings.Split(strings.TrimSpace(out), "\n"); len(lines) != 5 {
		t.Fatalf("expected header, separator, one row and borders, got %d lines:\n%s", len(lines), out)
	}
	if renderTable(nil, nil, nil) != "" {
		t.Fatal("expected empty output without headers")
	}
}

func TestRenderStatusLine(t *testing.T) {
	line := renderStatusLine("FFmpeg", statusOK, "/usr/bin/ffmpeg", false)
	if line != "  FFmpeg:            [OK] /usr/bin/ffmpeg" {
		t.Fatalf("unexpected line %q", line)
	}
	colored := renderStatusLine("FFmpeg", statusError, "", true)
	if !strings.HasPrefix(colored, ansiRed) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected colored line, got %q", colored)
	}
}

func TestStatusWithStubbedTools(t *testing.T) {
	isolateCLI(t)
	testsupport.NewConfig(t, testsupport.WithStubbedBinaries())

	out, _, err := runCLI(t, "status")
	if err != nil {
		t.Fatalf("status: %v\n%s", err, out)
	}
	requireContains(t, out, "FFmpeg:")
	requireContains(t, out, "Whisper:")
	requireContains(t, out, "Media framework:   [INFO] unknown")
	requireContains(t, out, "Subtitles:         [INFO] yes")
}

func TestStatusReportsMissingWhisper(t *testing.T) {
	isolateCLI(t)
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("ffmpeg", "ffprobe"))
	t.Setenv("PATH", filepath.Join(testsupport.BaseDir(cfg), "bin"))

	out, _, err := runCLI(t, "status")
	if err == nil || !strings.Contains(err.Error(), "1 check(s) failed") {
		t.Fatalf("expected one failed check, got %v\n%s", err, out)
	}
	requireContains(t, out, "Whisper:           [ERROR]")
}
