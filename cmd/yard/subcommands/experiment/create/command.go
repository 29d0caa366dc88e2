package create

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	apiexperiments "github.com/modelyard/modelyard-api-types/experiments"
	apitags "github.com/modelyard/modelyard-api-types/tags"
	krst "github.com/modelyard/modelyard/cmd/yard/rest"
	"github.com/modelyard/modelyard/cmd/yard/subcommands/common"
	"github.com/modelyard/modelyard/cmd/yard/yardenv"
	"github.com/modelyard/modelyard/pkg/utils"
	kargs "github.com/modelyard/modelyard/pkg/utils/args"
	"github.com/youta-t/flarc"
)

type Flag struct {
	Description string      `flag:"description" alias:"d" metavar:"TEXT" help:"Description of the Experiment."`
	Tags        *kargs.Tags `flag:"tag" alias:"t" metavar:"KEY:VALUE..." help:"Tags to be put on the Experiment. Repeatable."`
}

type Option struct {
	create func(
		ctx context.Context,
		client krst.YardClient,
		spec apiexperiments.Spec,
	) (apiexperiments.Detail, error)
}

func WithCreate(
	create func(
		ctx context.Context,
		client krst.YardClient,
		spec apiexperiments.Spec,
	) (apiexperiments.Detail, error),
) func(*Option) *Option {
	return func(dfc *Option) *Option {
		dfc.create = create
		return dfc
	}
}

const ARG_NAME = "NAME"

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{
		create: RunCreateExperiment,
	}
	for _, o := range options {
		option = o(option)
	}

	return flarc.NewCommand(
		"Create a new Experiment.",
		Flag{
			Description: "",
			Tags:        &kargs.Tags{},
		},
		flarc.Args{
			{
				Name: ARG_NAME, Required: true,
				Help: "Name of the new Experiment.",
			},
		},
		common.NewTask(Task(option.create)),
		flarc.WithDescription(`
Create a new Experiment, a group of Runs sharing a goal.

Tags given with --tag and Tags in the yardenv file are put on the Experiment.

Example
-------

Creating an Experiment named "mnist-tuning":

	{{ .Command }} mnist-tuning

Creating an Experiment with Tags:

	{{ .Command }} --tag project:mnist --tag owner:team-a mnist-tuning
`),
	)
}

func Task(
	create func(
		ctx context.Context,
		client krst.YardClient,
		spec apiexperiments.Spec,
	) (apiexperiments.Detail, error),
) common.Task[Flag] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		yenv yardenv.YardEnv,
		client krst.YardClient,
		cl flarc.Commandline[Flag],
		params []any,
	) error {
		name := cl.Args()[ARG_NAME][0]
		flags := cl.Flags()

		tags := make(map[apitags.UserTag]struct{})
		if flags.Tags != nil {
			for _, t := range *flags.Tags {
				if ut := new(apitags.UserTag); t.AsUserTag(ut) {
					tags[*ut] = struct{}{}
				} else {
					return fmt.Errorf(
						"%w: Tag starting %s is reserved", flarc.ErrUsage, apitags.SystemTagPrefix,
					)
				}
			}
		}
		for _, t := range yenv.Tags() {
			if ut := new(apitags.UserTag); t.AsUserTag(ut) {
				tags[*ut] = struct{}{}
			}
		}

		spec := apiexperiments.Spec{
			Name:        name,
			Description: flags.Description,
			Tags:        utils.KeysOf(tags),
		}

		experiment, err := create(ctx, client, spec)
		if err != nil {
			return err
		}
		logger.Printf("registered: experimentId:%s", experiment.ExperimentId)

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		if err := enc.Encode(experiment); err != nil {
			return err
		}

		return nil
	}
}

func RunCreateExperiment(
	ctx context.Context,
	client krst.YardClient,
	spec apiexperiments.Spec,
) (apiexperiments.Detail, error) {
	return client.CreateExperiment(ctx, spec)
}
