package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path"

	"github.com/modelyard/modelyard/cmd/yard/subcommands/common"
	subexperiment "github.com/modelyard/modelyard/cmd/yard/subcommands/experiment"
	subinit "github.com/modelyard/modelyard/cmd/yard/subcommands/init"
	"github.com/modelyard/modelyard/cmd/yard/subcommands/logger"
	submodel "github.com/modelyard/modelyard/cmd/yard/subcommands/model"
	subpull "github.com/modelyard/modelyard/cmd/yard/subcommands/pull"
	subpush "github.com/modelyard/modelyard/cmd/yard/subcommands/push"
	subrelease "github.com/modelyard/modelyard/cmd/yard/subcommands/release"
	subrepro "github.com/modelyard/modelyard/cmd/yard/subcommands/repro"
	subrun "github.com/modelyard/modelyard/cmd/yard/subcommands/run"
	subtoken "github.com/modelyard/modelyard/cmd/yard/subcommands/token"
	subver "github.com/modelyard/modelyard/cmd/yard/subcommands/version"
	"github.com/modelyard/modelyard/pkg/utils/try"
	"github.com/youta-t/flarc"
)

func main() {
	name := path.Base(os.Args[0])
	logger := logger.Default()
	logger.SetPrefix(fmt.Sprintf("[%s] ", name))

	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, os.Kill,
	)
	defer cancel()

	cf := try.To(common.Flags(".")).OrFatal(logger)
	init := try.To(subinit.New()).OrFatal(logger)
	experiment := try.To(subexperiment.New()).OrFatal(logger)
	run := try.To(subrun.New()).OrFatal(logger)
	push := try.To(subpush.New()).OrFatal(logger)
	pull := try.To(subpull.New()).OrFatal(logger)
	model := try.To(submodel.New()).OrFatal(logger)
	repro := try.To(subrepro.New()).OrFatal(logger)
	release := try.To(subrelease.New()).OrFatal(logger)
	token := try.To(subtoken.New()).OrFatal(logger)
	version := try.To(subver.New()).OrFatal(logger)

	yard := try.To(
		flarc.NewCommandGroup(
			"Modelyard commandline interface",
			cf,
			flarc.WithSubcommand("init", init),
			flarc.WithSubcommand("experiment", experiment),
			flarc.WithSubcommand("run", run),
			flarc.WithSubcommand("push", push),
			flarc.WithSubcommand("pull", pull),
			flarc.WithSubcommand("model", model),
			flarc.WithSubcommand("repro", repro),
			flarc.WithSubcommand("release", release),
			flarc.WithSubcommand("token", token),
			flarc.WithSubcommand("version", version),
		),
	).OrFatal(logger)

	os.Exit(flarc.Run(ctx, yard, flarc.WithHelp(true)))
}
