package show

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	apiruns "github.com/modelyard/modelyard-api-types/runs"
	krst "github.com/modelyard/modelyard/cmd/yard/rest"
	"github.com/modelyard/modelyard/cmd/yard/subcommands/common"
	"github.com/modelyard/modelyard/cmd/yard/yardenv"
	"github.com/youta-t/flarc"
)

type Option struct {
	showInfo ShowInfo
}

type ShowInfo func(
	ctx context.Context,
	client krst.YardClient,
	runId string,
) (apiruns.Detail, error)

func WithRunner(showInfo ShowInfo) func(*Option) *Option {
	return func(dfc *Option) *Option {
		dfc.showInfo = showInfo
		return dfc
	}
}

const ARG_RUNID = "RUN_ID"

func New(
	options ...func(*Option) *Option,
) (flarc.Command, error) {
	option := &Option{
		showInfo: RunShowRun,
	}

	for _, opt := range options {
		option = opt(option)
	}

	return flarc.NewCommand(
		"Return the Run information for the specified Run Id.",
		struct{}{},
		flarc.Args{
			{
				Name: ARG_RUNID, Required: true,
				Help: "Id of the Run to be shown",
			},
		},
		common.NewTask(Task(option.showInfo)),
		flarc.WithDescription(`
Return the Run information for the specified Run Id.

The information contains the params, the latest metric point per key
and the artifacts pushed from the Run.
`),
	)
}

func Task(showInfo ShowInfo) common.Task[struct{}] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		yenv yardenv.YardEnv,
		client krst.YardClient,
		cl flarc.Commandline[struct{}],
		params []any,
	) error {
		runId := cl.Args()[ARG_RUNID][0]

		run, err := showInfo(ctx, client, runId)
		if err != nil {
			return fmt.Errorf("%w: Run Id:%s", err, runId)
		}

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		if err := enc.Encode(run); err != nil {
			logger.Panicf("fail to dump found Run")
		}
		return nil
	}
}

func RunShowRun(
	ctx context.Context, client krst.YardClient, runId string,
) (apiruns.Detail, error) {
	result, err := client.GetRun(ctx, runId)
	if err != nil {
		return apiruns.Detail{}, err
	}
	return result, nil
}
