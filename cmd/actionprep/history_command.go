package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"actionprep/internal/faults"
	"actionprep/internal/ledger"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openLedger()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for i, run := range runs {
				rows = append(rows, []string{
					displayRunID(run.ID),
					humanize.Time(run.StartedAt),
					run.Status,
					strconv.Itoa(run.NumFrames),
					runOptions(run),
					runDuration(run),
					matchesPrevious(runs[i+1:], run),
				})
			}
			fmt.Fprintln(out, renderTable("", []string{"Run", "Started", "Status", "Frames", "Options", "Duration", "Reproduced"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignLeft}))

			colorize := shouldColorize(out)
			for _, run := range runs {
				if run.ErrorMessage == "" {
					continue
				}
				kind := statusWarn
				if run.Status == faults.StatusFailed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(displayRunID(run.ID), kind, run.ErrorMessage, colorize))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 shows all)")
	return cmd
}

func runOptions(run ledger.Run) string {
	opts := "velocity=" + run.RawVelocity
	if run.NormalizeJoints {
		opts += " normalize-joints"
	}
	return opts
}

func runDuration(run ledger.Run) string {
	d := run.Duration()
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Millisecond).String()
}

// matchesPrevious compares run with the next older completed run over the same
// recording and options among older.
func matchesPrevious(older []ledger.Run, run ledger.Run) string {
	if run.Status != faults.StatusCompleted || run.Fingerprint == "" {
		return "-"
	}
	for _, prev := range older {
		if prev.Status != faults.StatusCompleted || prev.RecordingDir != run.RecordingDir ||
			prev.RawVelocity != run.RawVelocity || prev.NormalizeJoints != run.NormalizeJoints {
			continue
		}
		return yesNo(prev.Fingerprint == run.Fingerprint)
	}
	return "-"
}
