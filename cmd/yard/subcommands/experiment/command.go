package experiment

import (
	experiment_create "github.com/modelyard/modelyard/cmd/yard/subcommands/experiment/create"
	experiment_find "github.com/modelyard/modelyard/cmd/yard/subcommands/experiment/find"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {

	create, err := experiment_create.New()
	if err != nil {
		return nil, err
	}
	find, err := experiment_find.New()
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Manipulate Modelyard Experiment.",
		struct{}{},
		flarc.WithSubcommand("create", create),
		flarc.WithSubcommand("find", find),
	)
}
