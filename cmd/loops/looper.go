package main

import (
	"context"
	"fmt"
	"log"
	"time"

	apiartifacts "github.com/modelyard/modelyard-api-types/artifacts"
	apimodels "github.com/modelyard/modelyard-api-types/models"
	apiruns "github.com/modelyard/modelyard-api-types/runs"
	"github.com/modelyard/modelyard/cmd/loops/hook"
	"github.com/modelyard/modelyard/cmd/loops/recurring"
	"github.com/modelyard/modelyard/cmd/loops/tasks/gatekeeper"
	"github.com/modelyard/modelyard/cmd/loops/tasks/gc"
	"github.com/modelyard/modelyard/cmd/loops/tasks/housekeeping"
	cfg_hook "github.com/modelyard/modelyard/pkg/configs/hook"
	"github.com/modelyard/modelyard/pkg/domain"
	"github.com/modelyard/modelyard/pkg/domain/modelyard"
	"github.com/modelyard/modelyard/pkg/loop"
	"github.com/modelyard/modelyard/pkg/storage"
)

type LoggerOptions func(*log.Logger) *log.Logger

func byLogger(l *log.Logger, opt ...LoggerOptions) *log.Logger {
	for _, o := range opt {
		l = o(l)
	}
	return l
}

func Copied() LoggerOptions {
	return func(l *log.Logger) *log.Logger {
		return log.New(l.Writer(), l.Prefix(), l.Flags())
	}
}

func WithPrefix(pre string) LoggerOptions {
	return func(l *log.Logger) *log.Logger {
		l.SetPrefix(pre)
		return l
	}
}

func WithTimestamp() LoggerOptions {
	return func(l *log.Logger) *log.Logger {
		l.SetFlags(l.Flags() | log.Ldate | log.Ltime | log.Lmicroseconds)
		return l
	}
}

// Wrapper for monitoring loop tasks
//
//	Log the start and end of each time a task is executed. Essentially, it executes a task.
func monitor[T any](logger *log.Logger, task loop.Task[T]) loop.Task[T] {
	// counter for execution of the task
	var counter uint64
	return func(ctx context.Context, t T) (ret T, next loop.Next) {
		// func() capture the 'counter' variable
		counter += 1
		timestamp := time.Now()

		logger.Printf("task start: #0x%X: ", counter)

		// log at the end of the task
		defer func() {
			logger.Printf(
				"task end: #0x%X (takes %s): %s\n with value = %#v",
				counter, time.Since(timestamp), next, ret,
			)
		}()

		// execute the task specified by the argument
		ret, next = task(ctx, t)
		return
	}
}

// Manifest for starting a loop, which determines how the loop should behave.
type LoopManifest struct {
	// Type of the loop to run
	Type domain.LoopType

	// Policy for the looping
	Policy recurring.Policy

	// Hooks for the looping
	Hooks cfg_hook.Hooks
}

func mergeEmptyStruct(a, b struct{}) struct{} {
	return struct{}{}
}

// Start the loop the manifest names.
func StartLoop(
	ctx context.Context,
	logger *log.Logger,
	yard modelyard.Modelyard,
	store storage.Store,
	manifest LoopManifest,
) error {
	switch manifest.Type {
	case domain.Housekeeping:
		return StartHousekeepingLoop(ctx, logger, yard, manifest)
	case domain.Gatekeeper:
		return StartGatekeeperLoop(ctx, logger, yard, store, manifest)
	case domain.GarbageCollection:
		return StartGarbageCollectionLoop(ctx, logger, yard, store, manifest)
	default:
		return fmt.Errorf(`%w: "%s"`, domain.ErrUnknwonLoopType, manifest.Type)
	}
}

// Start housekeeping loop: fail runs which passed their deadline.
//
// Args:
//
// - ctx
//
// - logger : logger for monitoring loop.
//
// - yard : modelyard component provider
//
// - manifest
func StartHousekeepingLoop(
	ctx context.Context,
	logger *log.Logger,
	yard modelyard.Modelyard,
	manifest LoopManifest,
) error {
	_, err := loop.Start(
		ctx, housekeeping.Seed(),
		monitor(
			byLogger(logger, Copied(), WithPrefix("[housekeepoing loop]")),
			housekeeping.Task(
				yard.Run().Database(),
				yard.Experiment().Database(),
				hook.Build[apiruns.Detail](manifest.Hooks.RunLifecycle, mergeEmptyStruct),
			).Applied(manifest.Policy),
		),
		loop.WithTimeout(30*time.Second),
	)
	return err
}

// Start gatekeeper loop: evaluate pending model versions.
func StartGatekeeperLoop(
	ctx context.Context,
	logger *log.Logger,
	yard modelyard.Modelyard,
	store storage.Store,
	manifest LoopManifest,
) error {
	_, err := loop.Start(
		ctx, gatekeeper.Seed(),
		monitor(
			byLogger(logger, Copied(), WithPrefix("[gatekeeper loop]")),
			gatekeeper.Task(
				yard.Model().Database(),
				yard.Run().Database(),
				store,
				hook.Build[apimodels.VersionDetail](manifest.Hooks.Gatekeeping, mergeEmptyStruct),
			).Applied(manifest.Policy),
		),
		loop.WithTimeout(30*time.Second),
	)
	return err
}

// Start garbage collection loop: drop blobs of unreferenced artifacts.
func StartGarbageCollectionLoop(
	ctx context.Context,
	logger *log.Logger,
	yard modelyard.Modelyard,
	store storage.Store,
	manifest LoopManifest,
) error {
	_, err := loop.Start(
		ctx, gc.Seed(),
		monitor(
			byLogger(logger, Copied(), WithPrefix("[gc loop]")),
			gc.Task(
				yard.Artifact().Database(),
				store,
				hook.Build[apiartifacts.Detail](manifest.Hooks.Collection, mergeEmptyStruct),
			).Applied(manifest.Policy),
		),
	)
	return err
}
