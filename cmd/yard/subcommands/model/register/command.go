package register

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	apiartifacts "github.com/modelyard/modelyard-api-types/artifacts"
	apimodels "github.com/modelyard/modelyard-api-types/models"
	apitags "github.com/modelyard/modelyard-api-types/tags"
	krst "github.com/modelyard/modelyard/cmd/yard/rest"
	"github.com/modelyard/modelyard/cmd/yard/subcommands/common"
	"github.com/modelyard/modelyard/cmd/yard/yardenv"
	"github.com/modelyard/modelyard/pkg/utils"
	kargs "github.com/modelyard/modelyard/pkg/utils/args"
	"github.com/youta-t/flarc"
)

type Flag struct {
	Description        string               `flag:"description" alias:"d" metavar:"TEXT" help:"Description of the Model."`
	GateMetric         string               `flag:"gate-metric" metavar:"METRIC" help:"Metric key checked by the performance gate."`
	GateThreshold      *kargs.OptionalFloat `flag:"gate-threshold" metavar:"VALUE" help:"Minimum METRIC value to pass the performance gate."`
	RequireImprovement bool                 `flag:"require-improvement" help:"Pass the performance gate when METRIC improves on the current production Version."`
	Tags               *kargs.Tags          `flag:"tag" alias:"t" metavar:"KEY:VALUE..." help:"Tags to be put on the Model. Repeatable."`
	Run                string               `flag:"run" alias:"r" metavar:"RUN_ID" help:"Register a new Version from this Run."`
	Artifact           string               `flag:"artifact" metavar:"sha256:..." help:"Model Artifact of the Run, stored as the Version content. Required with --run."`
}

const ARG_NAME = "NAME"

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Register a Model, and optionally a new Version of it.",
		Flag{
			GateThreshold: &kargs.OptionalFloat{},
			Tags:          &kargs.Tags{},
		},
		flarc.Args{
			{
				Name: ARG_NAME, Required: true,
				Help: "Name of the Model.",
			},
		},
		common.NewTask(Task()),
		flarc.WithDescription(`
Register a Model by name. Registering an existing name is no-op,
so it is safe to register before each Version.

With --run and --artifact, also register a new Version of the Model
from a finished Run. The new Version starts as "pending" and is
gated (a loading check and a performance check) before it can be
promoted.

The performance gate needs a policy. Give --gate-metric with
--gate-threshold, --require-improvement, or both; the gate passes
when either condition holds.

Example
-------

Register a Model gated on accuracy:

	{{ .Command }} --gate-metric accuracy --gate-threshold 0.85 churn-predictor

Register a Version of it from a Run:

	{{ .Command }} --run run-1 --artifact sha256:... churn-predictor
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
		name := cl.Args()[ARG_NAME][0]
		flags := cl.Flags()

		threshold := flags.GateThreshold.Float()
		var gate *apimodels.GatePolicy
		if flags.GateMetric != "" {
			if threshold == nil && !flags.RequireImprovement {
				return fmt.Errorf(
					"%w: --gate-metric needs --gate-threshold and/or --require-improvement",
					flarc.ErrUsage,
				)
			}
			gate = &apimodels.GatePolicy{
				Metric:             flags.GateMetric,
				Threshold:          threshold,
				RequireImprovement: flags.RequireImprovement,
			}
		} else if threshold != nil || flags.RequireImprovement {
			return fmt.Errorf(
				"%w: --gate-threshold and --require-improvement need --gate-metric",
				flarc.ErrUsage,
			)
		}

		if (flags.Run == "") != (flags.Artifact == "") {
			return fmt.Errorf(
				"%w: --run and --artifact must be given together", flarc.ErrUsage,
			)
		}
		if flags.Artifact != "" {
			if _, err := apiartifacts.ParseDigest(flags.Artifact); err != nil {
				return fmt.Errorf("%w: %s", flarc.ErrUsage, err)
			}
		}

		tags := make(map[apitags.UserTag]struct{})
		if flags.Tags != nil {
			for _, t := range *flags.Tags {
				if ut := new(apitags.UserTag); t.AsUserTag(ut) {
					tags[*ut] = struct{}{}
				} else {
					return fmt.Errorf(
						"%w: Tag starting %s is reserved", flarc.ErrUsage, apitags.SystemTagPrefix,
					)
				}
			}
		}
		for _, t := range yenv.Tags() {
			if ut := new(apitags.UserTag); t.AsUserTag(ut) {
				tags[*ut] = struct{}{}
			}
		}

		model, err := client.RegisterModel(ctx, apimodels.Spec{
			Name:        name,
			Description: flags.Description,
			Gate:        gate,
			Tags:        utils.KeysOf(tags),
		})
		if err != nil {
			return err
		}
		logger.Printf("registered: model %s", model.Name)

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")

		if flags.Run == "" {
			return enc.Encode(model)
		}

		version, err := client.RegisterModelVersion(
			ctx, name, apimodels.RegisterSpec{
				RunId:  flags.Run,
				Digest: flags.Artifact,
			},
		)
		if err != nil {
			return err
		}
		logger.Printf(
			"registered: model %s version %d (status %s)",
			version.Model, version.Version, version.Status,
		)

		return enc.Encode(version)
	}
}
