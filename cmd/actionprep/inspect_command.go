package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"actionprep/internal/pipeline"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var recordingDir string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Describe a recording without writing anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if recordingDir != "" {
				if err := cfg.SetRecordingDir(recordingDir); err != nil {
					return err
				}
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			report, err := pipeline.Inspect(cfg, logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Recording: %s\n", cfg.Paths.RecordingDir)
			fmt.Fprintf(out, "Frames:    %s\n\n", humanize.Comma(int64(report.Metadata.NumFrames)))

			fileRows := make([][]string, 0, len(report.Channels))
			for _, ch := range report.Channels {
				fileRows = append(fileRows, []string{
					ch.Spec.FileName(),
					strconv.Itoa(ch.Spec.Width),
					humanize.IBytes(uint64(ch.Bytes)),
				})
			}
			fmt.Fprintln(out, renderTable("Channel files", []string{"File", "Width", "Size"}, fileRows, []columnAlignment{alignLeft, alignRight, alignRight}))
			fmt.Fprintln(out)

			colRows := make([][]string, 0, len(report.Columns))
			for i, col := range report.Columns {
				colRows = append(colRows, []string{
					strconv.Itoa(i),
					col.Name,
					strconv.FormatFloat(float64(col.Min), 'g', 6, 32),
					strconv.FormatFloat(float64(col.Max), 'g', 6, 32),
					strconv.Itoa(col.Changes.Rising),
					strconv.Itoa(col.Changes.Falling),
					strconv.Itoa(col.Changes.Steady),
				})
			}
			fmt.Fprintln(out, renderTable("Vector slots", []string{"Slot", "Channel", "Min", "Max", "Rising", "Falling", "Steady"}, colRows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight}))
			return nil
		},
	}

	cmd.Flags().StringVar(&recordingDir, "recording", "", "Recording directory (overrides paths.recording_dir)")
	return cmd
}
