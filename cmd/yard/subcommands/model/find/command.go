package find

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	apimodels "github.com/modelyard/modelyard-api-types/models"
	apitags "github.com/modelyard/modelyard-api-types/tags"
	krst "github.com/modelyard/modelyard/cmd/yard/rest"
	"github.com/modelyard/modelyard/cmd/yard/subcommands/common"
	"github.com/modelyard/modelyard/cmd/yard/yardenv"
	kargs "github.com/modelyard/modelyard/pkg/utils/args"
	"github.com/youta-t/flarc"
)

type Flag struct {
	Name   string          `flag:"name" metavar:"NAME" help:"Name of Models to be found."`
	Tags   *kargs.Tags     `flag:"tag" alias:"t" metavar:"KEY:VALUE..." help:"Find Models with this Tag. Repeatable, means AND."`
	Stages *kargs.Argslice `flag:"stage" alias:"s" metavar:"staging|production|..." help:"Find Models having a Version in this stage. Repeatable, means OR."`
}

type Option struct {
	find func(
		ctx context.Context,
		client krst.YardClient,
		query krst.FindModelsQuery,
	) ([]apimodels.Detail, error)
}

func WithFind(
	find func(
		ctx context.Context,
		client krst.YardClient,
		query krst.FindModelsQuery,
	) ([]apimodels.Detail, error),
) func(*Option) *Option {
	return func(dfc *Option) *Option {
		dfc.find = find
		return dfc
	}
}

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{
		find: RunFindModels,
	}
	for _, o := range options {
		option = o(option)
	}

	return flarc.NewCommand(
		"Find Models that satisfy all specified conditions.",
		Flag{
			Tags:   &kargs.Tags{},
			Stages: &kargs.Argslice{},
		},
		flarc.Args{},
		common.NewTask(Task(option.find)),
		flarc.WithDescription(`
Find Models that satisfy all specified conditions.
If no condition is specified, all Models are listed.

Example
-------

Find all Models:

	{{ .Command }}

Find Models with a Tag "team:growth", currently in production:

	{{ .Command }} --tag team:growth --stage production
`),
	)
}

func Task(
	find func(
		ctx context.Context,
		client krst.YardClient,
		query krst.FindModelsQuery,
	) ([]apimodels.Detail, error),
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

		stages := []apimodels.Stage{}
		if flags.Stages != nil {
			for _, s := range *flags.Stages {
				stage, err := apimodels.ParseStage(s)
				if err != nil {
					return fmt.Errorf("%w: %s", flarc.ErrUsage, err)
				}
				stages = append(stages, stage)
			}
		}

		tags := []apitags.Tag{}
		if flags.Tags != nil {
			tags = *flags.Tags
		}

		models, err := find(ctx, client, krst.FindModelsQuery{
			Name:   flags.Name,
			Tags:   tags,
			Stages: stages,
		})
		if err != nil {
			return fmt.Errorf("fail to find Models: %w", err)
		}

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		if err := enc.Encode(models); err != nil {
			logger.Panicf("fail to dump found Models")
		}

		return nil
	}
}

func RunFindModels(
	ctx context.Context,
	client krst.YardClient,
	query krst.FindModelsQuery,
) ([]apimodels.Detail, error) {
	return client.FindModels(ctx, query)
}
