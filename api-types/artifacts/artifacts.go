package artifacts

import (
	"fmt"
	"strings"

	"github.com/modelyard/modelyard-api-types/misc/rfctime"
)

// DigestPrefix starts every artifact digest.
// The rest is the lowercase hex sha256 of the artifact tarball.
const DigestPrefix = "sha256:"

const hexDigestLen = 64

// ParseDigest validates s as "sha256:<64 hex>" and returns it normalized
// to lowercase.
func ParseDigest(s string) (string, error) {
	rest, ok := strings.CutPrefix(s, DigestPrefix)
	if !ok {
		return "", fmt.Errorf(`digest %q: missing "%s" prefix`, s, DigestPrefix)
	}
	rest = strings.ToLower(rest)
	if len(rest) != hexDigestLen {
		return "", fmt.Errorf("digest %q: hex part should be %d chars", s, hexDigestLen)
	}
	for _, r := range rest {
		if ('0' <= r && r <= '9') || ('a' <= r && r <= 'f') {
			continue
		}
		return "", fmt.Errorf("digest %q: not a hex string", s)
	}
	return DigestPrefix + rest, nil
}

// Ref points an artifact in the store.
type Ref struct {
	Digest string `json:"digest"`
	Name   string `json:"name,omitempty"`
	Size   int64  `json:"size"`
}

func (r Ref) Equal(o Ref) bool {
	return r.Digest == o.Digest &&
		r.Name == o.Name &&
		r.Size == o.Size
}

type Detail struct {
	Ref
	CreatedAt rfctime.RFC3339 `json:"createdAt"`
}

func (d Detail) Equal(o Detail) bool {
	return d.Ref.Equal(o.Ref) &&
		d.CreatedAt.Equal(o.CreatedAt)
}

// Token grants a time-boxed download of one artifact.
type Token struct {
	Token     string          `json:"token"`
	ExpiresAt rfctime.RFC3339 `json:"expiresAt"`
}
