package release

import (
	release_plan "github.com/modelyard/modelyard/cmd/yard/subcommands/release/plan"
	release_show "github.com/modelyard/modelyard/cmd/yard/subcommands/release/show"
	release_switch "github.com/modelyard/modelyard/cmd/yard/subcommands/release/switch"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {

	plan, err := release_plan.New()
	if err != nil {
		return nil, err
	}
	swtch, err := release_switch.New()
	if err != nil {
		return nil, err
	}
	show, err := release_show.New()
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Manipulate Modelyard release, pinning a Model Version to an image.",
		struct{}{},
		flarc.WithSubcommand("plan", plan),
		flarc.WithSubcommand("switch", swtch),
		flarc.WithSubcommand("show", show),
	)
}
