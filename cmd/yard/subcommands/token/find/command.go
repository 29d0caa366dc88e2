package find

import (
	"context"
	"encoding/json"
	"log"

	krst "github.com/modelyard/modelyard/cmd/yard/rest"
	"github.com/modelyard/modelyard/cmd/yard/subcommands/common"
	"github.com/modelyard/modelyard/cmd/yard/yardenv"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"List issued api tokens.",
		struct{}{},
		flarc.Args{},
		common.NewTask(Task()),
		flarc.WithDescription(`
List issued api tokens, with their last use and revocation, if any.
Secrets are never listed.

Example
-------

	{{ .Command }}
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
		tokens, err := client.FindTokens(ctx)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		if err := enc.Encode(tokens); err != nil {
			logger.Panicf("fail to dump found tokens")
		}

		return nil
	}
}
