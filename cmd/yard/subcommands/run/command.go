package run

import (
	run_find "github.com/modelyard/modelyard/cmd/yard/subcommands/run/find"
	run_show "github.com/modelyard/modelyard/cmd/yard/subcommands/run/show"
	run_stop "github.com/modelyard/modelyard/cmd/yard/subcommands/run/stop"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {

	show, err := run_show.New()
	if err != nil {
		return nil, err
	}
	find, err := run_find.New()
	if err != nil {
		return nil, err
	}
	stop, err := run_stop.New()
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Manipulate Modelyard Run.",
		struct{}{},
		flarc.WithSubcommand("show", show),
		flarc.WithSubcommand("find", find),
		flarc.WithSubcommand("stop", stop),
	)
}
