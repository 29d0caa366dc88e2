// Package loader turns registered model versions into live models.
package loader

import (
	"context"
	"fmt"
	"io"
	"os"

	apimodels "github.com/modelyard/modelyard-api-types/models"
	"github.com/modelyard/modelyard/pkg/mlmodel"
	"github.com/modelyard/modelyard/pkg/utils/archive"
)

// Puller fetches one artifact blob, verified against its digest.
//
// registry.Client is one.
type Puller interface {
	PullArtifact(ctx context.Context, digest string, handler func(io.Reader) error) error
}

// Load fetches the bundle of ver through pull, unpacks it and builds
// the model, probing it once for a prediction.
//
// The bundle is unpacked under workdir (os.TempDir when empty) and
// removed again before returning. Only the model built from the
// manifest stays, in memory.
func Load(ctx context.Context, pull Puller, ver apimodels.VersionDetail, workdir string) (mlmodel.Model, error) {
	dest, err := os.MkdirTemp(workdir, fmt.Sprintf("%s-v%d-", ver.Model, ver.Version))
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dest)

	if err := pull.PullArtifact(
		ctx, ver.Artifact.Digest,
		func(r io.Reader) error {
			prog := archive.GoUntarGz(ctx, r, dest)
			<-prog.Done()
			return prog.Error()
		},
	); err != nil {
		return nil, fmt.Errorf("can not fetch %s v%d: %w", ver.Model, ver.Version, err)
	}

	m, err := mlmodel.LoadBundle(dest)
	if err != nil {
		return nil, fmt.Errorf("can not load %s v%d: %w", ver.Model, ver.Version, err)
	}
	if _, err := mlmodel.Probe(m); err != nil {
		return nil, fmt.Errorf("%s v%d does not answer predictions: %w", ver.Model, ver.Version, err)
	}
	return m, nil
}
