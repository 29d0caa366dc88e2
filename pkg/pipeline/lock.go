package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/modelyard/modelyard/pkg/utils"
	"github.com/modelyard/modelyard/pkg/utils/yamler"
	"gopkg.in/yaml.v3"
)

// LockFile is the name of the lock file, next to the pipeline file.
const LockFile = "yard.lock"

// LockEntry pins one stage execution.
type LockEntry struct {
	// Fingerprint identifies the execution. See Fingerprint.
	Fingerprint string `yaml:"fingerprint"`

	// Outs maps each produced out to its content digest, "sha256:..." form.
	Outs map[string]string `yaml:"outs,omitempty"`
}

// Lock maps stage names to their last pinned execution.
type Lock map[string]LockEntry

// LoadLock reads a lock file.
//
// A missing file is not an error. It loads as an empty Lock.
func LoadLock(path string) (Lock, error) {
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Lock{}, nil
	}
	if err != nil {
		return nil, err
	}

	l := Lock{}
	if err := yaml.Unmarshal(content, &l); err != nil {
		return nil, fmt.Errorf("broken lock file %s: %w", path, err)
	}
	return l, nil
}

// Save writes the lock file with stages and outs in name order,
// so that rewrites of a same Lock are byte to byte equal.
func (l Lock) Save(path string) error {
	stages := utils.KeysOf(l)
	sort.Strings(stages)

	entries := []yamler.MapEntry{}
	for _, stage := range stages {
		e := l[stage]

		body := []yamler.MapEntry{
			yamler.Entry(yamler.Text("fingerprint"), yamler.Text(e.Fingerprint)),
		}
		if 0 < len(e.Outs) {
			outs := utils.KeysOf(e.Outs)
			sort.Strings(outs)
			outEntries := []yamler.MapEntry{}
			for _, out := range outs {
				outEntries = append(
					outEntries,
					yamler.Entry(yamler.Text(out), yamler.Text(e.Outs[out])),
				)
			}
			body = append(body, yamler.Entry(yamler.Text("outs"), yamler.Map(outEntries...)))
		}

		entries = append(entries, yamler.Entry(yamler.Text(stage), yamler.Map(body...)))
	}

	content, err := yaml.Marshal(yamler.Map(entries...))
	if err != nil {
		return err
	}
	return os.WriteFile(path, content, 0644)
}
