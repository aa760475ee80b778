package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"actionprep/internal/faults"
	"actionprep/internal/genloop"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var (
		start        int
		end          int
		step         int
		skipEvaluate bool
		dryRun       bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run the generation, visualization, and evaluation scripts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("start") {
				cfg.Generation.Start = start
			}
			if flags.Changed("end") {
				cfg.Generation.End = end
			}
			if flags.Changed("step") {
				cfg.Generation.Step = step
			}
			if flags.Changed("skip-evaluate") {
				cfg.Generation.SkipEvaluate = skipEvaluate
			}
			if err := cfg.Validate(); err != nil {
				return faults.Wrap(faults.ErrConfiguration, "generate", "flags", "", err)
			}

			out := cmd.OutOrStdout()
			if dryRun {
				for _, s := range genloop.Plan(cfg.Generation) {
					fmt.Fprintf(out, "%s %s\n", cfg.Generation.Python, shellJoin(s.Args))
				}
				return nil
			}

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			summary, err := genloop.New(cfg, logger).Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Generated %d examples into %s\n", summary.Examples, cfg.Generation.OutputDir)
			fmt.Fprintf(out, "Renamed %d visualization files (%d not produced)\n", summary.Renamed, summary.Skipped)
			fmt.Fprintf(out, "Evaluation: %s\n", yesNo(summary.Evaluated))
			return nil
		},
	}

	cmd.Flags().IntVar(&start, "start", 0, "First example index")
	cmd.Flags().IntVar(&end, "end", 0, "Last example index (inclusive)")
	cmd.Flags().IntVar(&step, "step", 0, "Example index step")
	cmd.Flags().BoolVar(&skipEvaluate, "skip-evaluate", false, "Skip the evaluation script")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the commands without running them")
	return cmd
}
