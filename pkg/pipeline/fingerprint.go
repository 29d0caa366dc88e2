package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/modelyard/modelyard/pkg/utils"
)

// Fingerprint identifies one way of executing a stage.
//
// It hashes the command, the content hash of each dep, each selected
// param value and the declared out names. Changing any of them changes
// the fingerprint, and nothing else does.
//
// Args:
//
// - st: the stage to fingerprint.
//
// - depHashes: content hash per dep path, as StateDB.FileHash returns.
//
// - params: rendered param values per key, as Params.Select returns.
//
// Returns:
//
// - string: hex sha256 over the inputs above.
func Fingerprint(st Stage, depHashes map[string]string, params map[string]string) string {
	h := sha256.New()
	write := func(fields ...string) {
		for _, f := range fields {
			h.Write([]byte(f))
			h.Write([]byte{0})
		}
	}

	write("cmd", st.Cmd)

	deps := utils.KeysOf(depHashes)
	sort.Strings(deps)
	for _, dep := range deps {
		write("dep", dep, depHashes[dep])
	}

	keys := utils.KeysOf(params)
	sort.Strings(keys)
	for _, key := range keys {
		write("param", key, params[key])
	}

	outs := append([]string{}, st.Outs...)
	sort.Strings(outs)
	for _, out := range outs {
		write("out", out)
	}

	return hex.EncodeToString(h.Sum(nil))
}
