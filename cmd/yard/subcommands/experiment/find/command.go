package find

import (
	"context"
	"encoding/json"
	"log"

	apiexperiments "github.com/modelyard/modelyard-api-types/experiments"
	"github.com/modelyard/modelyard-api-types/tags"
	krst "github.com/modelyard/modelyard/cmd/yard/rest"
	"github.com/modelyard/modelyard/cmd/yard/subcommands/common"
	"github.com/modelyard/modelyard/cmd/yard/yardenv"
	kargs "github.com/modelyard/modelyard/pkg/utils/args"
	"github.com/youta-t/flarc"
)

type Flag struct {
	Name string      `flag:"name" metavar:"NAME" help:"Name of Experiments to be found."`
	Tags *kargs.Tags `flag:"tag" alias:"t" metavar:"KEY:VALUE..." help:"Tags of Experiments to be found. Repeatable."`
}

type Option struct {
	find func(
		ctx context.Context,
		log *log.Logger,
		client krst.YardClient,
		name string,
		tags []tags.Tag,
	) ([]apiexperiments.Detail, error)
}

func WithFind(
	find func(
		ctx context.Context,
		log *log.Logger,
		client krst.YardClient,
		name string,
		tags []tags.Tag,
	) ([]apiexperiments.Detail, error),
) func(*Option) *Option {
	return func(dfc *Option) *Option {
		dfc.find = find
		return dfc
	}
}

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{
		find: RunFindExperiments,
	}
	for _, o := range options {
		option = o(option)
	}

	return flarc.NewCommand(
		"Display Experiments that satisfy all specified conditions.",
		Flag{
			Name: "",
			Tags: &kargs.Tags{},
		},
		flarc.Args{},
		common.NewTask(Task(option.find)),
		flarc.WithDescription(`
Display Experiments that satisfy all specified conditions.

If no condition is specified, all Experiments are displayed.

Example
-------

Finding Experiments with Tag "project:mnist":

	{{ .Command }} --tag project:mnist

Finding Experiments with Tag "project:mnist" AND "owner:team-a":

	{{ .Command }} --tag project:mnist --tag owner:team-a

Finding the Experiment named "mnist-tuning":

	{{ .Command }} --name mnist-tuning
`),
	)
}

func Task(
	find func(
		ctx context.Context,
		log *log.Logger,
		client krst.YardClient,
		name string,
		tags []tags.Tag,
	) ([]apiexperiments.Detail, error),
) common.Task[Flag] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		yenv yardenv.YardEnv,
		client krst.YardClient,
		cl flarc.Commandline[Flag],
		params []any,
	) error {
		flags := cl.Flags()

		tags := []tags.Tag{}
		if flags.Tags != nil {
			tags = *flags.Tags
		}

		experiments, err := find(ctx, logger, client, flags.Name, tags)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		if err := enc.Encode(experiments); err != nil {
			return err
		}

		return nil
	}
}

func RunFindExperiments(
	ctx context.Context,
	log *log.Logger,
	client krst.YardClient,
	name string,
	tags []tags.Tag,
) ([]apiexperiments.Detail, error) {

	result, err := client.FindExperiments(ctx, krst.FindExperimentsQuery{
		Name: name,
		Tags: tags,
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
