package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"quickshorts/internal/config"
	"quickshorts/internal/history"
	"quickshorts/internal/logging"
	"quickshorts/internal/media"
	"quickshorts/internal/media/ffmpeg"
	"quickshorts/internal/pipeline"
	"quickshorts/internal/subtitles"
	"quickshorts/internal/workflow"
)

// runJob wires the ffmpeg backend, pipeline, generator and history store for
// one job and prints the outcome.
func (c *commandContext) runJob(cmd *cobra.Command, cfg *config.Config) error {
	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, err := c.newLogger(cfg)
	if err != nil {
		return err
	}
	policy, err := media.ParsePacketFailurePolicy(cfg.Relay.PacketFailurePolicy)
	if err != nil {
		return err
	}

	backend := ffmpeg.New(
		ffmpeg.WithBinaries(cfg.Tools.FFmpegBinary, cfg.Tools.FFprobeBinary),
		ffmpeg.WithLogger(logger),
	)
	p := pipeline.New(pipeline.FFmpeg(backend), pipeline.WithPolicy(policy), pipeline.WithLogger(logger))
	gen := subtitles.NewGenerator(cfg.Tools.WhisperBinary, logger)

	opts := []workflow.Option{workflow.WithLogger(logger)}
	if cfg.History.Enabled {
		store, err := history.Open(signalCtx, cfg.HistoryPath())
		if err != nil {
			logging.WarnWithContext(logger, "run history unavailable", "history_open_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "this run will not be recorded"),
			)
		} else {
			defer store.Close()
			opts = append(opts, workflow.WithRecorder(store))
		}
	}

	summary, err := workflow.NewRunner(p, gen, opts...).Process(signalCtx, cfg)
	out := cmd.OutOrStdout()
	if err != nil {
		if summary.TempDir != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Intermediate files kept in %s\n", summary.TempDir)
		}
		return err
	}

	fmt.Fprintf(out, "Wrote %s\n", summary.Output)
	rows := make([][]string, 0, len(summary.Steps))
	for _, step := range summary.Steps {
		rows = append(rows, []string{
			step.Operation,
			fmt.Sprintf("%d", step.Streams),
			humanize.Comma(step.Relay.Written),
			humanize.Comma(step.Relay.Failed),
			step.Elapsed.Round(timeRounding).String(),
		})
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable(
			[]string{"Step", "Streams", "Packets", "Failed", "Elapsed"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight},
		))
	}
	if summary.Subtitles {
		fmt.Fprintf(out, "Subtitle cues: %d\n", summary.CueCount)
	}
	if failed := summary.PacketsFailed(); failed > 0 {
		fmt.Fprintf(out, "Warning: %d packets could not be written\n", failed)
	}
	return nil
}
