package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	sconf "github.com/modelyard/modelyard/pkg/configs/server"
	"github.com/modelyard/modelyard/pkg/domain/modelyard"
	"github.com/modelyard/modelyard/pkg/storage"
	"github.com/modelyard/modelyard/pkg/utils/filewatch"
)

func main() {

	pconfig := flag.String(
		"config", os.Getenv("YARDD_CONFIG"), "path to config file",
	)
	schemaRepo := flag.String("schema-repo", os.Getenv("YARD_SCHEMA"), "schema repository path")
	loglevel := flag.String("loglevel", "warn", "log level. debug|info|warn|error|off")
	pcert := flag.String("cert", "", "certification file for TLS")
	pkey := flag.String("certkey", "", "key of certification file for TLS")

	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer cancel()

	conf, err := sconf.LoadServerConfig(*pconfig)
	if err != nil {
		log.Fatalf("can not read configration: %s", err)
	}

	yard, err := modelyard.New(ctx, conf, modelyard.WithSchemaRepository(*schemaRepo))
	if err != nil {
		log.Fatalf("can not connect to tracking database: %s", err)
	}
	defer yard.Close()
	{
		ctx_, ccan := yard.Schema().Database().Context(ctx)
		defer ccan()
		ctx = ctx_
	}

	store, err := storage.FromConfig(ctx, conf.Storage())
	if err != nil {
		log.Fatalf("can not open artifact store: %s", err)
	}

	server := BuildServer(yard, store, *loglevel)
	for _, r := range server.Routes() {
		server.Logger.Debugf("- mount handler: %s %s", strings.ToUpper(r.Method), r.Path)
	}

	{
		wctx, wcancel, err := filewatch.UntilModifyContext(ctx, *pconfig)
		if err != nil {
			log.Fatalf("can not watch configration: %s", err)
		}
		defer wcancel()
		context.AfterFunc(wctx, func() {
			if ctx.Err() != nil {
				return // shutting down anyway
			}
			server.Logger.Info("config file is updated. quit to restart server.")
			graceful, gcancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer gcancel()
			if err := server.Shutdown(graceful); err != nil {
				server.Logger.Errorf("error on shutdown by config update: %s", err)
			}
		})
	}

	ch := make(chan error, 1)
	go func() {
		defer close(ch)
		var err error
		if *pcert != "" && *pkey != "" {
			err = server.StartTLS(fmt.Sprintf(":%d", conf.Port()), *pcert, *pkey)
		} else {
			err = server.Start(fmt.Sprintf(":%d", conf.Port()))
		}
		if err != nil && err != http.ErrServerClosed {
			ch <- err
		}
	}()

	exit := 0
	select {
	case <-ctx.Done(): // wait
		if err := ctx.Err(); err != nil {
			server.Logger.Infof("context has been done: %s, cause: %s", err, context.Cause(ctx))
			exit = 1
		}
	case err := <-ch:
		if err != nil {
			server.Logger.Error("server stops with error:", err)
			exit = 1
		}
	}

	{
		server.Logger.Info("shutting down...")
		qctx, qcancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer qcancel()

		if err := server.Shutdown(qctx); err != nil {
			server.Logger.Fatalf("Shutdown with error. %+v", err)
			os.Exit(1)
		}
		os.Exit(exit)
	}
}
