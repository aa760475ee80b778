package genloop

import (
	"fmt"
	"path/filepath"
	"strconv"

	"actionprep/internal/config"
)

// StepKind identifies one subprocess in the generation loop.
type StepKind string

const (
	StepGenerate  StepKind = "generate"
	StepVisualize StepKind = "visualize"
	StepEvaluate  StepKind = "evaluate"
)

// Generated artifacts written by the visualize script, and their renamed form.
const (
	generatedGIF = "generated_offset0.gif"
	generatedPNG = "generated_comic_offset0.png"
)

// Step is one subprocess invocation. Example is -1 for the evaluate step.
type Step struct {
	Kind    StepKind
	Example int
	Args    []string
}

// Rename moves one visualization artifact to its per-example name.
type Rename struct {
	From string
	To   string
}

// Examples lists the example indices in [start, end] visited with step.
func Examples(g config.Generation) []int {
	if g.Step <= 0 || g.End < g.Start {
		return nil
	}
	out := make([]int, 0, (g.End-g.Start)/g.Step+1)
	for i := g.Start; i <= g.End; i += g.Step {
		out = append(out, i)
	}
	return out
}

// Plan builds the ordered subprocess list for the configured range.
func Plan(g config.Generation) []Step {
	examples := Examples(g)
	steps := make([]Step, 0, 2*len(examples)+1)
	for _, i := range examples {
		steps = append(steps,
			Step{Kind: StepGenerate, Example: i, Args: generateArgs(g, i)},
			Step{Kind: StepVisualize, Example: i, Args: []string{g.VisualizeScript, "--token_dir", g.OutputDir}},
		)
	}
	if !g.SkipEvaluate {
		steps = append(steps, Step{Kind: StepEvaluate, Example: -1, Args: []string{
			g.EvaluateScript,
			"--checkpoint_dir", g.CheckpointDir,
			"--maskgit_steps", strconv.Itoa(g.MaskgitSteps),
		}})
	}
	return steps
}

// Renames returns the artifact moves performed after visualizing example i.
func Renames(outputDir string, example int) []Rename {
	return []Rename{
		{From: filepath.Join(outputDir, generatedGIF), To: filepath.Join(outputDir, fmt.Sprintf("example_%d.gif", example))},
		{From: filepath.Join(outputDir, generatedPNG), To: filepath.Join(outputDir, fmt.Sprintf("example_%d.png", example))},
	}
}

func generateArgs(g config.Generation, example int) []string {
	return []string{
		g.GenerateScript,
		"--checkpoint_dir", g.CheckpointDir,
		"--output_dir", g.OutputDir,
		"--example_ind", strconv.Itoa(example),
		"--maskgit_steps", strconv.Itoa(g.MaskgitSteps),
		"--temperature", strconv.FormatFloat(g.Temperature, 'g', -1, 64),
	}
}
