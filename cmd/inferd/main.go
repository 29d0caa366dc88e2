package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	apimodels "github.com/modelyard/modelyard-api-types/models"
	"github.com/modelyard/modelyard/cmd/inferd/loader"
	"github.com/modelyard/modelyard/cmd/inferd/registry"
	"github.com/modelyard/modelyard/cmd/inferd/server"
	"github.com/modelyard/modelyard/cmd/inferd/swap"
	"github.com/modelyard/modelyard/pkg/loop"
)

func main() {
	papi := flag.String(
		"api", os.Getenv("INFERD_API"),
		"api root of the modelyard registry, like http://yardd:8080/api",
	)
	pmodel := flag.String("model", os.Getenv("INFERD_MODEL"), "name of the model to serve")
	pstage := flag.String("stage", "production", `stage to follow. "staging" or "production"`)
	ptoken := flag.String(
		"token", os.Getenv("INFERD_TOKEN"),
		"api token, when the registry requires one",
	)
	pinterval := flag.Duration("interval", 30*time.Second, "interval polling the registry for a new version")
	pport := flag.Int("port", 8081, "port number where inferd serves on")
	pworkdir := flag.String("workdir", "", "directory where bundles are unpacked (default: the temp dir)")
	ploglevel := flag.String("loglevel", "warn", "log level. debug|info|warn|error|off")
	flag.Parse()

	logger := log.Default()

	if *papi == "" {
		logger.Fatal("-api (or INFERD_API) is required")
	}
	if *pmodel == "" {
		logger.Fatal("-model (or INFERD_MODEL) is required")
	}
	stage, err := apimodels.ParseStage(*pstage)
	if err != nil || (stage != apimodels.StageStaging && stage != apimodels.StageProduction) {
		logger.Fatalf(`-stage should be "staging" or "production": %s`, *pstage)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer cancel()

	reg := registry.New(
		*papi, *pmodel,
		registry.WithStage(stage), registry.WithToken(*ptoken),
	)

	// Serving nothing is not an option. A daemon which can not load its
	// model tells so by its exit code, before binding the port.
	ver, err := reg.CurrentVersion(ctx)
	if err != nil {
		logger.Fatalf("can not resolve the %s version of %s: %s", stage, *pmodel, err)
	}
	m, err := loader.Load(ctx, reg, ver, *pworkdir)
	if err != nil {
		logger.Fatalf("can not serve %s: %s", *pmodel, err)
	}

	cur := &server.Served{Model: m, Version: ver, Since: time.Now()}
	hold := server.NewHolder()
	hold.Swap(cur)
	logger.Printf("serving %s v%d (%s)", ver.Model, ver.Version, ver.Artifact.Digest)

	go loop.Start(ctx, cur, swap.Task(reg, hold, *pworkdir, *pinterval, logger))

	e := server.Build(hold, *ploglevel)

	ch := make(chan error, 1)
	go func() {
		defer close(ch)
		if err := e.Start(fmt.Sprintf(":%d", *pport)); err != nil && err != http.ErrServerClosed {
			ch <- err
		}
	}()

	exit := 0
	select {
	case <-ctx.Done():
		if err := ctx.Err(); err != nil {
			e.Logger.Infof("context has been done: %s, cause: %s", err, context.Cause(ctx))
		}
	case err := <-ch:
		if err != nil {
			e.Logger.Error("server stops with error:", err)
			exit = 1
		}
	}

	{
		e.Logger.Info("shutting down...")
		qctx, qcancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer qcancel()

		if err := e.Shutdown(qctx); err != nil {
			e.Logger.Fatalf("Shutdown with error. %+v", err)
			os.Exit(1)
		}
		os.Exit(exit)
	}
}
