package versions

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	krst "github.com/modelyard/modelyard/cmd/yard/rest"
	"github.com/modelyard/modelyard/cmd/yard/subcommands/common"
	"github.com/modelyard/modelyard/cmd/yard/yardenv"
	"github.com/youta-t/flarc"
)

const ARG_NAME = "NAME"

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"List Versions of a Model.",
		struct{}{},
		flarc.Args{
			{
				Name: ARG_NAME, Required: true,
				Help: "Name of the Model.",
			},
		},
		common.NewTask(Task()),
		flarc.WithDescription(`
List Versions of a Model as JSON, newest first, with their status
(pending, ready or rejected), stage and gate evaluations.

Example
-------

	{{ .Command }} churn-predictor
`),
	)
}

func Task() common.Task[struct{}] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		yenv yardenv.YardEnv,
		client krst.YardClient,
		cl flarc.Commandline[struct{}],
		params []any,
	) error {
		name := cl.Args()[ARG_NAME][0]

		versions, err := client.ListModelVersions(ctx, name)
		if err != nil {
			return fmt.Errorf("%w: Model:%s", err, name)
		}

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		if err := enc.Encode(versions); err != nil {
			logger.Panicf("fail to dump found Versions")
		}

		return nil
	}
}
