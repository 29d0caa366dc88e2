package issue

import (
	"context"
	"encoding/json"
	"log"

	apitokens "github.com/modelyard/modelyard-api-types/tokens"
	krst "github.com/modelyard/modelyard/cmd/yard/rest"
	"github.com/modelyard/modelyard/cmd/yard/subcommands/common"
	"github.com/modelyard/modelyard/cmd/yard/yardenv"
	"github.com/youta-t/flarc"
)

const ARG_NAME = "NAME"

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Issue a new api token.",
		struct{}{},
		flarc.Args{
			{
				Name: ARG_NAME, Required: true,
				Help: `Name telling what the token is for, like "ci" or "inferd-prod".`,
			},
		},
		common.NewTask(Task()),
		flarc.WithDescription(`
Issue a new api token.

The response holds the full credential in "token". It is shown this
once and cannot be recovered afterwards; the server keeps only its
hash. Put it in a yardprofile or hand it to a daemon.

Example
-------

	{{ .Command }} ci
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

		issued, err := client.IssueToken(ctx, apitokens.Spec{Name: name})
		if err != nil {
			return err
		}
		logger.Printf(
			"issued: token %s (%s). Save it now, it will not be shown again.",
			issued.TokenId, issued.Name,
		)

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		return enc.Encode(issued)
	}
}
