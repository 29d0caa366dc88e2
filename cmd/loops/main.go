package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelyard/modelyard/cmd/loops/recurring"
	cfg_hook "github.com/modelyard/modelyard/pkg/configs/hook"
	sconf "github.com/modelyard/modelyard/pkg/configs/server"
	"github.com/modelyard/modelyard/pkg/domain"
	"github.com/modelyard/modelyard/pkg/domain/modelyard"
	"github.com/modelyard/modelyard/pkg/storage"
	"github.com/modelyard/modelyard/pkg/utils/args"
	"github.com/modelyard/modelyard/pkg/utils/filewatch"
	"github.com/modelyard/modelyard/pkg/utils/try"
)

func main() {
	logger := log.Default()
	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, os.Kill, syscall.SIGTERM,
	)
	// call cancel() when this function exits
	defer cancel()

	// define command line flags
	//-- path to config file
	pconfig := flag.String(
		"config", os.Getenv("YARDD_CONFIG"), "path to config file",
	)
	pSchemaRepo := flag.String(
		"schema-repo", os.Getenv("YARD_SCHEMA"), "schema repository path",
	)
	phooks := flag.String(
		"hooks", os.Getenv("YARD_HOOK_CONFIG"), "path to hook config file",
	)
	//-- which loop type to run
	loopType := args.Parser(domain.AsLoopType)
	flag.Var(loopType, "type", "one of loop type")
	//-- loop policy
	policy := args.Parser(recurring.ParsePolicy)
	flag.Var(
		policy, "policy",
		`loop policy (syntax: forever[:COOLDOWN]|backlog).`+
			` "forever[:COOLDOWN]" = run forever until error. When backlog is over, `+
			`wait COOLDOWN (optional duration. default: 0) as inteval.`+
			` "backlog" = run until error or backlog is over.`,
	)
	// parse command line flags
	flag.Parse()

	{
		// watch config & hooks
		watch := []string{*pconfig}
		if *phooks != "" {
			watch = append(watch, *phooks)
		}
		wctx, cancel, err := filewatch.UntilModifyContext(ctx, watch...)
		if err != nil {
			logger.Fatal(err)
		}
		defer cancel()
		ctx = wctx
	}

	conf := try.To(sconf.LoadServerConfig(*pconfig)).OrFatal(logger)

	yard := try.To(modelyard.New(
		ctx, conf, modelyard.WithSchemaRepository(*pSchemaRepo),
	)).OrFatal(logger)
	defer yard.Close()

	{
		ctx_, ccan := yard.Schema().Database().Context(ctx)
		defer ccan()
		ctx = ctx_
	}

	store := try.To(storage.FromConfig(ctx, conf.Storage())).OrFatal(logger)

	hooks := cfg_hook.Hooks{}
	if hookPath := *phooks; hookPath != "" {
		hooks = try.To(cfg_hook.Load(hookPath)).OrFatal(logger)
	}

	loopPolicy := recurring.Policy(recurring.Forever(30 * time.Second))
	if policy.IsSet() {
		loopPolicy = policy.Value()
	}

	logger.Printf(
		`start loop "%s" /w policy "%s"`,
		loopType.Value().String(), loopPolicy.String(),
	)

	err := StartLoop(
		ctx, logger, yard, store,
		LoopManifest{
			Type:   loopType.Value(),
			Policy: recurring.UntilError(loopPolicy),
			Hooks:  hooks,
		},
	)

	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		logger.Fatal(err, "(loop context is cancelled by:", context.Cause(ctx), ")")
	}
	logger.Fatal(err)
}
