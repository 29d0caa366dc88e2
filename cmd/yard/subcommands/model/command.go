package model

import (
	model_find "github.com/modelyard/modelyard/cmd/yard/subcommands/model/find"
	model_promote "github.com/modelyard/modelyard/cmd/yard/subcommands/model/promote"
	model_register "github.com/modelyard/modelyard/cmd/yard/subcommands/model/register"
	model_show "github.com/modelyard/modelyard/cmd/yard/subcommands/model/show"
	model_versions "github.com/modelyard/modelyard/cmd/yard/subcommands/model/versions"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {

	register, err := model_register.New()
	if err != nil {
		return nil, err
	}
	find, err := model_find.New()
	if err != nil {
		return nil, err
	}
	show, err := model_show.New()
	if err != nil {
		return nil, err
	}
	versions, err := model_versions.New()
	if err != nil {
		return nil, err
	}
	promote, err := model_promote.New()
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Manipulate Modelyard Model and its Versions.",
		struct{}{},
		flarc.WithSubcommand("register", register),
		flarc.WithSubcommand("find", find),
		flarc.WithSubcommand("show", show),
		flarc.WithSubcommand("versions", versions),
		flarc.WithSubcommand("promote", promote),
	)
}
