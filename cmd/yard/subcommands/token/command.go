package token

import (
	token_find "github.com/modelyard/modelyard/cmd/yard/subcommands/token/find"
	token_issue "github.com/modelyard/modelyard/cmd/yard/subcommands/token/issue"
	token_revoke "github.com/modelyard/modelyard/cmd/yard/subcommands/token/revoke"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {

	issue, err := token_issue.New()
	if err != nil {
		return nil, err
	}
	find, err := token_find.New()
	if err != nil {
		return nil, err
	}
	revoke, err := token_revoke.New()
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Manipulate api tokens.",
		struct{}{},
		flarc.WithSubcommand("issue", issue),
		flarc.WithSubcommand("find", find),
		flarc.WithSubcommand("revoke", revoke),
	)
}
