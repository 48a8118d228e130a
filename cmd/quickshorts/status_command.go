package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"quickshorts/internal/media/ffmpeg"
	"quickshorts/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check tools and paths needed to generate shorts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			results := preflight.RunAll(cfg)
			for _, r := range results {
				kind := statusOK
				if !r.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}

			backend := ffmpeg.New(ffmpeg.WithBinaries(cfg.Tools.FFmpegBinary, cfg.Tools.FFprobeBinary))
			if tools, err := backend.EnsureInitialized(cmd.Context()); err != nil {
				fmt.Fprintln(out, renderStatusLine("Media framework", statusError, err.Error(), colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Media framework", statusInfo, tools.Version, colorize))
			}
			fmt.Fprintln(out, renderStatusLine("Subtitles", statusInfo, yesNo(cfg.Subtitles.Enabled), colorize))
			fmt.Fprintln(out, renderStatusLine("History", statusInfo, yesNo(cfg.History.Enabled), colorize))

			if failed := preflight.Failures(results); len(failed) > 0 {
				return fmt.Errorf("%d check(s) failed", len(failed))
			}
			return nil
		},
	}
}
