package show

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

type Flag struct {
	Env     string `flag:"env" alias:"e" metavar:"ENV" help:"Environment of releases to be shown."`
	Current bool   `flag:"current" alias:"c" help:"Show the live release of the environment given with --env."`
}

const ARG_RELEASE_ID = "RELEASE_ID"

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Show releases.",
		Flag{},
		flarc.Args{
			{
				Name: ARG_RELEASE_ID, Required: false,
				Help: "Id of the release to be shown. Without it, releases are listed.",
			},
		},
		common.NewTask(Task()),
		flarc.WithDescription(`
Show releases.

With RELEASE_ID, show that release. With --current --env ENV, show
the release serving ENV now. Otherwise, list releases, narrowed to
--env when given.

Example
-------

List all releases:

	{{ .Command }}

Show what is live in prod:

	{{ .Command }} --current --env prod
`),
	)
}

func Task() common.Task[Flag] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		yenv yardenv.YardEnv,
		client krst.YardClient,
		cl flarc.Commandline[Flag],
		params []any,
	) error {
		flags := cl.Flags()

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")

		if releaseIdArg := cl.Args()[ARG_RELEASE_ID]; 0 < len(releaseIdArg) {
			if flags.Current {
				return fmt.Errorf(
					"%w: RELEASE_ID and --current are exclusive", flarc.ErrUsage,
				)
			}
			releaseId := releaseIdArg[0]
			release, err := client.GetRelease(ctx, releaseId)
			if err != nil {
				return fmt.Errorf("%w: Release Id:%s", err, releaseId)
			}
			return enc.Encode(release)
		}

		if flags.Current {
			if flags.Env == "" {
				return fmt.Errorf("%w: --current needs --env", flarc.ErrUsage)
			}
			release, err := client.CurrentRelease(ctx, flags.Env)
			if err != nil {
				return fmt.Errorf("%w: environment:%s", err, flags.Env)
			}
			return enc.Encode(release)
		}

		releases, err := client.FindReleases(ctx, flags.Env)
		if err != nil {
			return fmt.Errorf("fail to find releases: %w", err)
		}
		if err := enc.Encode(releases); err != nil {
			logger.Panicf("fail to dump found releases")
		}

		return nil
	}
}
