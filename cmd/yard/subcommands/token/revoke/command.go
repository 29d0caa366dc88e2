package revoke

import (
	"context"
	"fmt"
	"log"

	krst "github.com/modelyard/modelyard/cmd/yard/rest"
	"github.com/modelyard/modelyard/cmd/yard/subcommands/common"
	"github.com/modelyard/modelyard/cmd/yard/yardenv"
	"github.com/youta-t/flarc"
)

const ARG_TOKEN_ID = "TOKEN_ID"

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Revoke an api token.",
		struct{}{},
		flarc.Args{
			{
				Name: ARG_TOKEN_ID, Required: true,
				Help: "Id of the token to be revoked.",
			},
		},
		common.NewTask(Task()),
		flarc.WithDescription(`
Revoke an api token. Requests bearing it are rejected from now on.
Revoking is not undoable; issue a new token instead.

Example
-------

	{{ .Command }} token-1
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
		tokenId := cl.Args()[ARG_TOKEN_ID][0]

		if err := client.RevokeToken(ctx, tokenId); err != nil {
			return fmt.Errorf("%w: Token Id:%s", err, tokenId)
		}
		logger.Printf("revoked: token %s", tokenId)

		return nil
	}
}
