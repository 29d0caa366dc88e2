package stop

import (
	"context"
	"encoding/json"
	"log"

	apiruns "github.com/modelyard/modelyard-api-types/runs"
	krst "github.com/modelyard/modelyard/cmd/yard/rest"
	"github.com/modelyard/modelyard/cmd/yard/subcommands/common"
	"github.com/modelyard/modelyard/cmd/yard/yardenv"
	"github.com/youta-t/flarc"
)

type Option struct {
	stop func(
		ctx context.Context,
		client krst.YardClient,
		runId string,
	) (apiruns.Detail, error)
}

func WithStop(
	stop func(
		ctx context.Context,
		client krst.YardClient,
		runId string,
	) (apiruns.Detail, error),
) func(*Option) *Option {
	return func(dfc *Option) *Option {
		dfc.stop = stop
		return dfc
	}
}

const ARG_RUNID = "RUN_ID"

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{
		stop: RunStopRun,
	}
	for _, o := range options {
		option = o(option)
	}

	return flarc.NewCommand(
		"Stop a running Run.",
		struct{}{},
		flarc.Args{
			{
				Name: ARG_RUNID, Required: true,
				Help: "Run Id to be stopped",
			},
		},
		common.NewTask(Task(option.stop)),
		flarc.WithDescription(`
Stop a running Run and let it be killed.

A stopped Run keeps the params, metrics and artifacts recorded so far.
`),
	)
}

func Task(
	stop func(
		ctx context.Context,
		client krst.YardClient,
		runId string,
	) (apiruns.Detail, error),
) common.Task[struct{}] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		yenv yardenv.YardEnv,
		client krst.YardClient,
		cl flarc.Commandline[struct{}],
		params []any,
	) error {
		runId := cl.Args()[ARG_RUNID][0]

		run, err := stop(ctx, client, runId)
		if err != nil {
			return err
		}
		logger.Printf("Run Id: %s is stopped.", runId)

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		if err := enc.Encode(run); err != nil {
			return err
		}
		return nil
	}
}

func RunStopRun(
	ctx context.Context, client krst.YardClient, runId string,
) (apiruns.Detail, error) {
	return client.StopRun(ctx, runId)
}
