package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"actionprep/internal/config"
	"actionprep/internal/faults"
	"actionprep/internal/logging"
	"actionprep/internal/pipeline"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		recordingDir    string
		outputDir       string
		normalizeJoints bool
		rawVelocity     string
		workers         int
		noProgress      bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Decode a recording and write channel arrays and frame vectors",
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
			if outputDir != "" {
				if err := cfg.SetOutputDir(outputDir); err != nil {
					return faults.Wrap(faults.ErrConfiguration, "run", "flags", "", err)
				}
			}
			flags := cmd.Flags()
			if flags.Changed("normalize-joints") {
				cfg.Assembly.NormalizeJoints = normalizeJoints
			}
			if flags.Changed("raw-velocity") {
				cfg.Assembly.RawVelocity = strings.ToLower(strings.TrimSpace(rawVelocity))
			}
			if flags.Changed("workers") {
				cfg.Assembly.Workers = workers
			}
			if err := cfg.Validate(); err != nil {
				return faults.Wrap(faults.ErrConfiguration, "run", "flags", "", err)
			}

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			store, err := ctx.openLedger()
			if err != nil {
				logger.Warn("run history unavailable", logging.Error(err))
				store = nil
			} else {
				defer store.Close()
			}

			var progress pipeline.Progress
			if !noProgress && shouldColorize(os.Stderr) {
				progress = &barProgress{out: os.Stderr}
			}

			res, err := pipeline.Run(cmd.Context(), pipeline.Options{
				Config:   cfg,
				Logger:   logger,
				Ledger:   store,
				Progress: progress,
			})
			if err != nil {
				return err
			}
			printRunSummary(cmd.OutOrStdout(), cfg, res)
			return nil
		},
	}

	cmd.Flags().StringVar(&recordingDir, "recording", "", "Recording directory (overrides paths.recording_dir)")
	cmd.Flags().StringVar(&outputDir, "output", "", "Output directory (overrides paths.output_dir)")
	cmd.Flags().BoolVar(&normalizeJoints, "normalize-joints", false, "Use normalized joint sign-changes in normalized vectors")
	cmd.Flags().StringVar(&rawVelocity, "raw-velocity", config.RawVelocityValue, "Raw vector velocity slots: value or sign")
	cmd.Flags().IntVar(&workers, "workers", 0, "Frame assembly workers (0 uses every CPU)")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")
	return cmd
}

func printRunSummary(out io.Writer, cfg *config.Config, res pipeline.Result) {
	p := message.NewPrinter(language.English)
	p.Fprintf(out, "Run %s complete\n", displayRunID(res.RunID))
	p.Fprintf(out, "  Frames:     %d\n", res.NumFrames)
	p.Fprintf(out, "  Channels:   %d arrays in %s and %s\n", len(res.Channels), cfg.Paths.ActionDataDir, cfg.Paths.NormalizedDataDir)
	for _, set := range res.Frames {
		p.Fprintf(out, "  %-11s %d vectors in %s\n", set.Flavor.String()+":", set.Count, set.Dir)
	}
	fmt.Fprintf(out, "  Written:    %s in %s\n", humanize.IBytes(uint64(res.Bytes())), res.Elapsed.Round(time.Millisecond))
	switch {
	case res.PreviousRunID == "":
	case res.Reproduced:
		fmt.Fprintf(out, "  Matches previous run %s\n", displayRunID(res.PreviousRunID))
	default:
		fmt.Fprintf(out, "  Differs from previous run %s\n", displayRunID(res.PreviousRunID))
	}
}

func displayRunID(id string) string {
	if id == "" {
		return "(unrecorded)"
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// barProgress renders frame assembly on a terminal.
type barProgress struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

func (b *barProgress) Begin(label string, total int) {
	b.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(b.out),
		progressbar.OptionSetDescription(fmt.Sprintf("%-10s", label)),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func (b *barProgress) Tick() {
	if b.bar != nil {
		_ = b.bar.Add(1)
	}
}

func (b *barProgress) End() {
	if b.bar != nil {
		_ = b.bar.Finish()
		b.bar = nil
	}
}
