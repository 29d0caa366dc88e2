package swtch

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	apireleases "github.com/modelyard/modelyard-api-types/releases"
	krst "github.com/modelyard/modelyard/cmd/yard/rest"
	"github.com/modelyard/modelyard/cmd/yard/subcommands/common"
	"github.com/modelyard/modelyard/cmd/yard/yardenv"
	"github.com/youta-t/flarc"
)

type Option struct {
	swtch func(
		ctx context.Context,
		client krst.YardClient,
		releaseId string,
	) (apireleases.Detail, error)
}

func WithSwitch(
	swtch func(
		ctx context.Context,
		client krst.YardClient,
		releaseId string,
	) (apireleases.Detail, error),
) func(*Option) *Option {
	return func(o *Option) *Option {
		o.swtch = swtch
		return o
	}
}

const ARG_RELEASE_ID = "RELEASE_ID"

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{
		swtch: RunSwitchRelease,
	}
	for _, o := range options {
		option = o(option)
	}

	return flarc.NewCommand(
		"Make a staged release live.",
		struct{}{},
		flarc.Args{
			{
				Name: ARG_RELEASE_ID, Required: true,
				Help: "Id of the staged release to go live.",
			},
		},
		common.NewTask(Task(option.swtch)),
		flarc.WithDescription(`
Make a staged release live.

The slots of the environment flip: the staged release goes live and
the previous live release is retired. Switching a release that is not
"staged" is rejected.

Example
-------

	{{ .Command }} release-1
`),
	)
}

func Task(
	swtch func(
		ctx context.Context,
		client krst.YardClient,
		releaseId string,
	) (apireleases.Detail, error),
) common.Task[struct{}] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		yenv yardenv.YardEnv,
		client krst.YardClient,
		cl flarc.Commandline[struct{}],
		params []any,
	) error {
		releaseId := cl.Args()[ARG_RELEASE_ID][0]

		release, err := swtch(ctx, client, releaseId)
		if err != nil {
			return fmt.Errorf("%w: Release Id:%s", err, releaseId)
		}
		logger.Printf(
			"switched: release %s is live in %s (slot %s)",
			release.ReleaseId, release.Environment, release.Slot,
		)

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		if err := enc.Encode(release); err != nil {
			logger.Panicf("fail to dump the release")
		}

		return nil
	}
}

func RunSwitchRelease(
	ctx context.Context,
	client krst.YardClient,
	releaseId string,
) (apireleases.Detail, error) {
	return client.SwitchRelease(ctx, releaseId)
}
