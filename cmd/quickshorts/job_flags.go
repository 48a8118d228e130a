package main

import (
	"github.com/spf13/cobra"

	"quickshorts/internal/config"
)

// jobFlags is the flag surface shared by generate and configure.
type jobFlags struct {
	inputPath    string
	outputPath   string
	durationSecs int
	outputWidth  int
	outputHeight int
	useSubtitles bool
	whisperModel string
	fontPath     string
	fontSize     int
	fontColor    string
	vertical     string
	horizontal   string
}

func (f *jobFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.inputPath, "input-path", "", "Source video")
	fs.StringVar(&f.outputPath, "output-path", "", "Destination for the short")
	fs.IntVar(&f.durationSecs, "short-duration-secs", 60, "Length of the short in seconds")
	fs.IntVar(&f.outputWidth, "output-width", 0, "Output width in pixels (requires --output-height)")
	fs.IntVar(&f.outputHeight, "output-height", 0, "Output height in pixels (requires --output-width)")
	fs.BoolVar(&f.useSubtitles, "use-subtitles", true, "Transcribe the clip and burn in subtitles (--use-subtitles=false to skip)")
	fs.StringVar(&f.whisperModel, "whisper-model-path", "", "Whisper model name or path")
	fs.StringVar(&f.fontPath, "font-path", "", "Font file used for subtitles")
	fs.IntVar(&f.fontSize, "font-size", 24, "Subtitle font size")
	fs.StringVar(&f.fontColor, "font-color", "white", "Subtitle color name or #RRGGBB")
	fs.StringVar(&f.vertical, "subtitle-position-vertical-alignment", "bottom", "Subtitle row: top, center or bottom")
	fs.StringVar(&f.horizontal, "subtitle-position-horizontal-alignment", "center", "Subtitle column: left, center or right")
}

// apply overlays explicitly set flags on cfg. Unset flags leave the loaded
// configuration alone, including subtitles.enabled.
func (f *jobFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	fs := cmd.Flags()
	set := func(name string, fn func()) {
		if fs.Changed(name) {
			fn()
		}
	}
	set("input-path", func() { cfg.Video.InputPath = f.inputPath })
	set("output-path", func() { cfg.Video.OutputPath = f.outputPath })
	set("short-duration-secs", func() { cfg.Video.ShortDurationSecs = f.durationSecs })
	set("output-width", func() { cfg.Video.OutputWidth = f.outputWidth })
	set("output-height", func() { cfg.Video.OutputHeight = f.outputHeight })
	set("use-subtitles", func() { cfg.Subtitles.Enabled = f.useSubtitles })
	set("whisper-model-path", func() { cfg.Subtitles.WhisperModel = f.whisperModel })
	set("font-path", func() { cfg.Subtitles.FontPath = f.fontPath })
	set("font-size", func() { cfg.Subtitles.FontSize = f.fontSize })
	set("font-color", func() { cfg.Subtitles.FontColor = f.fontColor })
	set("subtitle-position-vertical-alignment", func() { cfg.Subtitles.VerticalAlignment = f.vertical })
	set("subtitle-position-horizontal-alignment", func() { cfg.Subtitles.HorizontalAlignment = f.horizontal })
	return cfg.Finalize()
}
