package domain

import (
	"fmt"
	"regexp"
	"time"
)

// Artifact is a content-addressed file in the artifact store.
//
// The same content attached to many runs is stored once.
type Artifact struct {
	// content digest, in "sha256:<64 hex>" format. Identity of the artifact.
	Digest string

	// size in bytes.
	Size int64

	CreatedAt time.Time
}

func (a *Artifact) Equal(other *Artifact) bool {
	if (a == nil) || (other == nil) {
		return (a == nil) && (other == nil)
	}
	return a.Digest == other.Digest &&
		a.Size == other.Size &&
		a.CreatedAt.Equal(other.CreatedAt)
}

var digestPattern = regexp.MustCompile(`^sha256:[0-9a-f]{64}$`)

// ValidateDigest tests that digest is spelled "sha256:<64 hex>".
func ValidateDigest(digest string) error {
	if !digestPattern.MatchString(digest) {
		return fmt.Errorf("'%s' is not a sha256 digest", digest)
	}
	return nil
}
