package promote

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	apimodels "github.com/modelyard/modelyard-api-types/models"
	krst "github.com/modelyard/modelyard/cmd/yard/rest"
	"github.com/modelyard/modelyard/cmd/yard/subcommands/common"
	"github.com/modelyard/modelyard/cmd/yard/yardenv"
	"github.com/youta-t/flarc"
)

type Option struct {
	promote func(
		ctx context.Context,
		client krst.YardClient,
		name string,
		version int,
		stage apimodels.Stage,
	) (apimodels.VersionDetail, error)
}

func WithPromote(
	promote func(
		ctx context.Context,
		client krst.YardClient,
		name string,
		version int,
		stage apimodels.Stage,
	) (apimodels.VersionDetail, error),
) func(*Option) *Option {
	return func(o *Option) *Option {
		o.promote = promote
		return o
	}
}

const (
	ARG_NAME    = "NAME"
	ARG_VERSION = "VERSION"
	ARG_STAGE   = "STAGE"
)

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{
		promote: RunPromoteModelVersion,
	}
	for _, o := range options {
		option = o(option)
	}

	return flarc.NewCommand(
		"Move a Version of a Model to a stage.",
		struct{}{},
		flarc.Args{
			{
				Name: ARG_NAME, Required: true,
				Help: "Name of the Model.",
			},
			{
				Name: ARG_VERSION, Required: true,
				Help: "Version number to be moved.",
			},
			{
				Name: ARG_STAGE, Required: false,
				Help: `Stage to move the Version to: staging, production or archived. Default: production.`,
			},
		},
		common.NewTask(Task(option.promote)),
		flarc.WithDescription(`
Move a Version of a Model to a stage.

Promoting to production requires the Version to have passed its gates
(status "ready"), and archives the Version currently in production.
There is at most one production Version per Model.

Example
-------

Promote version 3 of "churn-predictor" to production:

	{{ .Command }} churn-predictor 3

Put version 4 into staging:

	{{ .Command }} churn-predictor 4 staging
`),
	)
}

func Task(
	promote func(
		ctx context.Context,
		client krst.YardClient,
		name string,
		version int,
		stage apimodels.Stage,
	) (apimodels.VersionDetail, error),
) common.Task[struct{}] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		yenv yardenv.YardEnv,
		client krst.YardClient,
		cl flarc.Commandline[struct{}],
		params []any,
	) error {
		name := cl.Args()[ARG_NAME][0]

		version, err := strconv.Atoi(cl.Args()[ARG_VERSION][0])
		if err != nil {
			return fmt.Errorf(
				"%w: VERSION should be an integer: %s",
				flarc.ErrUsage, cl.Args()[ARG_VERSION][0],
			)
		}

		stage := apimodels.StageProduction
		if stageArg := cl.Args()[ARG_STAGE]; 0 < len(stageArg) {
			stage, err = apimodels.ParseStage(stageArg[0])
			if err != nil {
				return fmt.Errorf("%w: %s", flarc.ErrUsage, err)
			}
		}

		moved, err := promote(ctx, client, name, version, stage)
		if err != nil {
			return fmt.Errorf("%w: Model:%s Version:%d", err, name, version)
		}
		logger.Printf(
			"promoted: model %s version %d is now %s",
			moved.Model, moved.Version, moved.Stage,
		)

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		if err := enc.Encode(moved); err != nil {
			logger.Panicf("fail to dump the moved Version")
		}

		return nil
	}
}

func RunPromoteModelVersion(
	ctx context.Context,
	client krst.YardClient,
	name string,
	version int,
	stage apimodels.Stage,
) (apimodels.VersionDetail, error) {
	return client.PromoteModelVersion(ctx, name, version, stage)
}
