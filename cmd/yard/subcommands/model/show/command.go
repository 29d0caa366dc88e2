package show

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	apimodels "github.com/modelyard/modelyard-api-types/models"
	krst "github.com/modelyard/modelyard/cmd/yard/rest"
	"github.com/modelyard/modelyard/cmd/yard/subcommands/common"
	"github.com/modelyard/modelyard/cmd/yard/yardenv"
	"github.com/youta-t/flarc"
)

// ShowInfo fetches the Model to be shown.
type ShowInfo func(
	ctx context.Context,
	client krst.YardClient,
	name string,
) (apimodels.Detail, error)

type Option struct {
	show ShowInfo
}

func WithRunner(show ShowInfo) func(*Option) *Option {
	return func(o *Option) *Option {
		o.show = show
		return o
	}
}

const ARG_NAME = "NAME"

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{
		show: RunShowModel,
	}
	for _, o := range options {
		option = o(option)
	}

	return flarc.NewCommand(
		"Return the Model information.",
		struct{}{},
		flarc.Args{
			{
				Name: ARG_NAME, Required: true,
				Help: "Name of the Model you want to know about.",
			},
		},
		common.NewTask(Task(option.show)),
		flarc.WithDescription(`
Return the Model information as JSON: its description, gate policy,
Tags and Version summaries.

Example
-------

	{{ .Command }} churn-predictor
`),
	)
}

func Task(show ShowInfo) common.Task[struct{}] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		yenv yardenv.YardEnv,
		client krst.YardClient,
		cl flarc.Commandline[struct{}],
		params []any,
	) error {
		name := cl.Args()[ARG_NAME][0]

		model, err := show(ctx, client, name)
		if err != nil {
			return fmt.Errorf("%w: Model:%s", err, name)
		}

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		if err := enc.Encode(model); err != nil {
			logger.Panicf("fail to dump found Model")
		}

		return nil
	}
}

func RunShowModel(
	ctx context.Context,
	client krst.YardClient,
	name string,
) (apimodels.Detail, error) {
	return client.GetModel(ctx, name)
}
