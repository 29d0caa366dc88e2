// Package swap keeps the served model in step with the registry.
package swap

import (
	"context"
	"log"
	"time"

	apimodels "github.com/modelyard/modelyard-api-types/models"
	"github.com/modelyard/modelyard/cmd/inferd/loader"
	"github.com/modelyard/modelyard/cmd/inferd/registry"
	"github.com/modelyard/modelyard/cmd/inferd/server"
	"github.com/modelyard/modelyard/pkg/loop"
)

// Task returns a loop task polling the registry and swapping the model
// hold serves when the current version moves.
//
// A new version is loaded side by side with the one being served, and
// swapped in only after it answers a probe. When loading fails, the
// task logs and keeps serving what it already has. Every outcome
// continues the loop after interval; only the context stops it.
func Task(
	reg registry.Client,
	hold *server.Holder,
	workdir string,
	interval time.Duration,
	logger *log.Logger,
) loop.Task[*server.Served] {
	return func(ctx context.Context, cur *server.Served) (*server.Served, loop.Next) {
		ver, err := reg.CurrentVersion(ctx)
		if err != nil {
			logger.Printf("poll: %s", err)
			return cur, loop.Continue(interval)
		}

		if cur != nil && sameVersion(cur.Version, ver) {
			return cur, loop.Continue(interval)
		}

		m, err := loader.Load(ctx, reg, ver, workdir)
		if err != nil {
			if cur == nil {
				logger.Printf("%s v%d can not be served: %s", ver.Model, ver.Version, err)
			} else {
				logger.Printf(
					"%s v%d can not be served. keep serving v%d: %s",
					ver.Model, ver.Version, cur.Version.Version, err,
				)
			}
			return cur, loop.Continue(interval)
		}

		next := &server.Served{Model: m, Version: ver, Since: time.Now()}
		hold.Swap(next)
		if cur == nil {
			logger.Printf("serving %s v%d (%s)", ver.Model, ver.Version, ver.Artifact.Digest)
		} else {
			logger.Printf(
				"swapped %s: v%d -> v%d (%s)",
				ver.Model, cur.Version.Version, ver.Version, ver.Artifact.Digest,
			)
		}
		return next, loop.Continue(interval)
	}
}

// sameVersion tells whether the registry still points where we are.
//
// The digest is checked too. Re-registering a version number with
// another artifact counts as a move.
func sameVersion(a, b apimodels.VersionDetail) bool {
	return a.Version == b.Version && a.Artifact.Digest == b.Artifact.Digest
}
