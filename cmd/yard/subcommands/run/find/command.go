package find

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	apiruns "github.com/modelyard/modelyard-api-types/runs"
	krst "github.com/modelyard/modelyard/cmd/yard/rest"
	"github.com/modelyard/modelyard/cmd/yard/subcommands/common"
	"github.com/modelyard/modelyard/cmd/yard/yardenv"
	kargs "github.com/modelyard/modelyard/pkg/utils/args"
	"github.com/youta-t/flarc"
)

type Flag struct {
	Experiment *kargs.Argslice             `flag:"experiment" alias:"e" metavar:"EXPERIMENT_ID..." help:"Find Runs of this Experiment. Repeatable."`
	Status     *kargs.Argslice             `flag:"status" alias:"s" metavar:"scheduled|running|finished|failed|killed..." help:"Find Runs in this status. Repeatable."`
	Tags       *kargs.Tags                 `flag:"tag" alias:"t" metavar:"KEY:VALUE..." help:"Find Runs with this Tag. Repeatable."`
	Since      *kargs.OptionalLooseRFC3339 `flag:"since" help:"Find Runs only updated at this time or later."`
	Duration   *kargs.OptionalDuration     `flag:"duration" help:"Find Runs only updated in '--duration' from '--since'."`
}

type Option struct {
	find func(
		ctx context.Context,
		log *log.Logger,
		client krst.YardClient,
		query krst.FindRunsQuery,
	) ([]apiruns.Detail, error)
}

func WithFind(
	find func(
		ctx context.Context,
		log *log.Logger,
		client krst.YardClient,
		query krst.FindRunsQuery,
	) ([]apiruns.Detail, error),
) func(*Option) *Option {
	return func(dfc *Option) *Option {
		dfc.find = find
		return dfc
	}
}

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{
		find: RunFindRuns,
	}
	for _, o := range options {
		option = o(option)
	}

	return flarc.NewCommand(
		"Find Runs that satisfy all specified conditions.",
		Flag{
			Experiment: &kargs.Argslice{},
			Status:     &kargs.Argslice{},
			Tags:       &kargs.Tags{},
			Since:      &kargs.OptionalLooseRFC3339{},
			Duration:   &kargs.OptionalDuration{},
		},
		flarc.Args{},
		common.NewTask(Task(option.find)),
		flarc.WithDescription(`
Find Runs that satisfy all specified conditions.

If the same flag is passed multiple times, Runs that satisfy any of the values are displayed.

To limit results with a timespan, use '--since' and '--duration'.

'--since' limits a result to Runs which have been updated at equal to or later than '--since'.
'--since' is expected to be formatted in RFC3339, and it is also possible to omit sub-seconds,
seconds, minutes, hours and time offsets.
When the time offset is omitted, it is assumed the local time.
Delimiter between the date and time can be "T" or " " (space), whichever equivalent.
For example, "2024-10-31T01:23:45.987Z", "2024-10-31 01:23" or "2024-10-31+09:00".

'--duration' limits a result to Runs which have been updated in '--duration' from '--since'.
'--duration' should be used in conjunction with '--since'.
Supported units are "ms" (milliseconds), "s" (seconds), "m" (minutes) and "h" (hours).
For example, "300ms", "1.5h" or "2h45m". Units are required. Negative duration is not supported.

Example
-------

Finding Runs of an Experiment:

	{{ .Command }} --experiment exp-1
	{{ .Command }} -e exp-1

	(both above are equivalent)

Finding running Runs of an Experiment:

	{{ .Command }} --experiment exp-1 --status running

Scan over Runs for day by day:

	{{ .Command }} --duration 24h --since 2024-01-01
	{{ .Command }} --duration 24h --since 2024-01-02
	{{ .Command }} --duration 24h --since 2024-01-03
	# And so on. There are no overlaps between days.
`),
	)
}

func Task(
	find func(
		ctx context.Context,
		log *log.Logger,
		client krst.YardClient,
		query krst.FindRunsQuery,
	) ([]apiruns.Detail, error),
) common.Task[Flag] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		yenv yardenv.YardEnv,
		client krst.YardClient,
		cl flarc.Commandline[Flag],
		params []any,
	) error {
		flags := cl.Flags()

		experiments := []string{}
		if flags.Experiment != nil {
			experiments = *flags.Experiment
		}
		status := []string{}
		if flags.Status != nil {
			status = *flags.Status
		}
		since := flags.Since.Time()
		duration := flags.Duration.Duration()

		if since == nil && duration != nil {
			return fmt.Errorf("%w: --duration must be together with --since", flarc.ErrUsage)
		}

		query := krst.FindRunsQuery{
			Experiments: experiments,
			Status:      status,
			Since:       since,
			Duration:    duration,
		}
		if flags.Tags != nil {
			query.Tags = *flags.Tags
		}

		runs, err := find(ctx, logger, client, query)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		if err := enc.Encode(runs); err != nil {
			return err
		}

		return nil
	}
}

func RunFindRuns(
	ctx context.Context,
	log *log.Logger,
	client krst.YardClient,
	query krst.FindRunsQuery,
) ([]apiruns.Detail, error) {
	result, err := client.FindRuns(ctx, query)
	if err != nil {
		return nil, err
	}

	return result, nil
}
