package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	apireleases "github.com/modelyard/modelyard-api-types/releases"
	krst "github.com/modelyard/modelyard/cmd/yard/rest"
	"github.com/modelyard/modelyard/cmd/yard/subcommands/common"
	"github.com/modelyard/modelyard/cmd/yard/yardenv"
	"github.com/youta-t/flarc"
)

type Flag struct {
	Model   string `flag:"model" alias:"m" metavar:"NAME" help:"Model to be released."`
	Version string `flag:"version" metavar:"N" help:"Version number of the Model to be released."`
	Image   string `flag:"image" alias:"i" metavar:"repository:tag" help:"Container image serving the Model."`
	Digest  string `flag:"digest" metavar:"sha256:..." help:"Image digest. When given, the registry is not asked to resolve the tag."`
}

// DigestResolver pins an image tag to its content digest.
type DigestResolver func(ctx context.Context, image apireleases.Image) (string, error)

type Option struct {
	resolve DigestResolver
}

func WithResolver(resolve DigestResolver) func(*Option) *Option {
	return func(o *Option) *Option {
		o.resolve = resolve
		return o
	}
}

const ARG_ENV = "ENV"

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{
		resolve: ResolveImageDigest,
	}
	for _, o := range options {
		option = o(option)
	}

	return flarc.NewCommand(
		"Stage a release of a Model Version in an environment.",
		Flag{},
		flarc.Args{
			{
				Name: ARG_ENV, Required: true,
				Help: `Environment to release into, like "prod".`,
			},
		},
		common.NewTask(Task(option.resolve)),
		flarc.WithDescription(`
Stage a release of a Model Version in an environment.

The image tag is resolved to its digest against the container
registry before the release is staged, so the release keeps shipping
the same bytes even if the tag moves later. Pass --digest to pin
explicitly without asking the registry.

The release is staged on the idle slot (blue or green) of the
environment. It starts serving when you run "release switch".

Example
-------

Stage version 3 of "churn-predictor" in prod:

	{{ .Command }} --model churn-predictor --version 3 --image registry.example.com/churn:v3 prod
`),
	)
}

func Task(resolve DigestResolver) common.Task[Flag] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		yenv yardenv.YardEnv,
		client krst.YardClient,
		cl flarc.Commandline[Flag],
		params []any,
	) error {
		env := cl.Args()[ARG_ENV][0]
		flags := cl.Flags()

		if flags.Model == "" || flags.Version == "" || flags.Image == "" {
			return fmt.Errorf(
				"%w: --model, --version and --image are required", flarc.ErrUsage,
			)
		}
		version, err := strconv.Atoi(flags.Version)
		if err != nil {
			return fmt.Errorf(
				"%w: --version should be an integer: %s", flarc.ErrUsage, flags.Version,
			)
		}

		image := apireleases.Image{}
		if err := image.Parse(flags.Image); err != nil {
			return fmt.Errorf("%w: --image: %s", flarc.ErrUsage, err)
		}

		digest := flags.Digest
		if digest == "" {
			logger.Printf("resolving image digest: %s", image.String())
			digest, err = resolve(ctx, image)
			if err != nil {
				return fmt.Errorf("failed to resolve digest of %s: %w", image.String(), err)
			}
		} else if _, err := v1.NewHash(digest); err != nil {
			return fmt.Errorf("%w: --digest: %s", flarc.ErrUsage, err)
		}
		logger.Printf("image %s is pinned at %s", image.String(), digest)

		release, err := client.PlanRelease(ctx, apireleases.Spec{
			Environment: env,
			Model:       flags.Model,
			Version:     version,
			Image:       image,
			ImageDigest: digest,
		})
		if err != nil {
			return err
		}
		logger.Printf(
			"staged: release %s in %s (slot %s)",
			release.ReleaseId, release.Environment, release.Slot,
		)

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		return enc.Encode(release)
	}
}

// ResolveImageDigest asks the container registry for the digest
// behind an image tag.
func ResolveImageDigest(ctx context.Context, image apireleases.Image) (string, error) {
	ref, err := name.NewTag(image.String())
	if err != nil {
		return "", err
	}

	desc, err := remote.Head(ref, remote.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return desc.Digest.String(), nil
}
