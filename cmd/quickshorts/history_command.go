package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"quickshorts/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if _, err := os.Stat(cfg.HistoryPath()); errors.Is(err, os.ErrNotExist) {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}

			store, err := history.Open(cmd.Context(), cfg.HistoryPath())
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortID(run.RunID),
					string(run.Status),
					humanize.Time(run.StartedAt),
					run.Duration().Round(timeRounding).String(),
					yesNo(run.Subtitles),
					run.OutputPath,
					firstLine(run.ErrorMessage),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Status", "Started", "Took", "Subs", "Output", "Error"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
			))

			counts, err := store.Counts(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "succeeded=%d failed=%d invalid=%d\n",
				counts[history.StatusSucceeded], counts[history.StatusFailed], counts[history.StatusInvalid])
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func firstLine(s string) string {
	s, _, _ = strings.Cut(strings.TrimSpace(s), "\n")
	return s
}
