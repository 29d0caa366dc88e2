package repro

import (
	"context"
	"fmt"
	"log"

	apitags "github.com/modelyard/modelyard-api-types/tags"
	krst "github.com/modelyard/modelyard/cmd/yard/rest"
	"github.com/modelyard/modelyard/cmd/yard/subcommands/common"
	"github.com/modelyard/modelyard/cmd/yard/yardenv"
	"github.com/modelyard/modelyard/pkg/pipeline"
	kpath "github.com/modelyard/modelyard/pkg/utils/path"
	"github.com/youta-t/flarc"
)

type Flag struct {
	Force   bool   `flag:"force" alias:"f" help:"Execute stages even if their fingerprints are up to date."`
	DryRun  bool   `flag:"dry-run" help:"Report what would be executed, without executing anything."`
	NoTrack bool   `flag:"no-track" help:"Do not record stage executions as Runs."`
	Chdir   string `flag:"chdir" alias:"C" metavar:"DIR" help:"Directory holding pipeline.yaml. Default: current directory."`
}

// DefaultExperiment groups tracked stage executions when the yardenv
// file names no experiment.
const DefaultExperiment = "default"

const ARG_STAGE = "STAGE"

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Reproduce the pipeline, executing stages whose inputs changed.",
		Flag{
			Chdir: ".",
		},
		flarc.Args{
			{
				Name: ARG_STAGE, Required: false,
				Help: "Reproduce up to this stage only. Default: all stages.",
			},
		},
		common.NewTask(Task()),
		flarc.WithDescription(`
Reproduce the pipeline declared in pipeline.yaml.

Stages are executed producers first. A stage is skipped when the
hashes of its deps, params and command match the lock file ("cached").
Each executed stage is recorded as a Run under the experiment in the
yardenv file (or "` + DefaultExperiment + `"), with its params, metrics
and outs, unless --no-track is given.

Example
-------

Reproduce everything out of date:

	{{ .Command }}

See what would run, without running it:

	{{ .Command }} --dry-run

Reproduce up to the "train" stage, even if cached:

	{{ .Command }} --force train
`),
	)
}

func Task() common.Task[Flag] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		yenv yardenv.YardEnv,
		client krst.YardClient,
		cl flarc.Commandline[Flag],
		params []any,
	) error {
		flags := cl.Flags()

		root, err := kpath.Resolve(flags.Chdir)
		if err != nil {
			return fmt.Errorf("path resolving error for '%s': %w", flags.Chdir, err)
		}

		options := []pipeline.ReproOption{
			pipeline.WithOutput(cl.Stdout(), cl.Stderr()),
			pipeline.WithLogger(logger),
		}
		if flags.Force {
			options = append(options, pipeline.Force())
		}
		if flags.DryRun {
			options = append(options, pipeline.DryRun())
		}
		if stageArg := cl.Args()[ARG_STAGE]; 0 < len(stageArg) {
			options = append(options, pipeline.Target(stageArg[0]))
		}

		if !flags.NoTrack && !flags.DryRun {
			experimentName := yenv.Experiment
			if experimentName == "" {
				experimentName = DefaultExperiment
			}
			tags := []apitags.UserTag{}
			for _, t := range yenv.Tags() {
				if ut := new(apitags.UserTag); t.AsUserTag(ut) {
					tags = append(tags, *ut)
				}
			}
			options = append(
				options, pipeline.WithTracker(newTracker(client, experimentName, tags)),
			)
		}

		results, err := pipeline.Repro(ctx, root, options...)
		for _, r := range results {
			line := fmt.Sprintf("[%s] %s", r.Action, r.Stage)
			if r.Reason != "" {
				line = fmt.Sprintf("%s (%s)", line, r.Reason)
			}
			if r.RunId != "" {
				line = fmt.Sprintf("%s runId:%s", line, r.RunId)
			}
			fmt.Fprintln(cl.Stdout(), line)
		}
		if err != nil {
			return fmt.Errorf("repro failed: %w", err)
		}

		return nil
	}
}
