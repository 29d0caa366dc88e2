package pipeline_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelyard/modelyard/pkg/pipeline"
	"github.com/modelyard/modelyard/pkg/utils/cmp"
	"github.com/modelyard/modelyard/pkg/utils/try"
)

func TestLock(t *testing.T) {
	t.Run("when the lock file is missing, it loads empty", func(t *testing.T) {
		lock := try.To(pipeline.LoadLock(filepath.Join(t.TempDir(), pipeline.LockFile))).OrFatal(t)
		if len(lock) != 0 {
			t.Errorf("unexpected entries: %+v", lock)
		}
	})

	t.Run("it round trips entries", func(t *testing.T) {
		lock := pipeline.Lock{
			"train": {
				Fingerprint: "fp-train",
				Outs:        map[string]string{"model.bin": "sha256:" + strings.Repeat("ab", 32)},
			},
			"prepare": {
				Fingerprint: "fp-prepare",
				Outs:        map[string]string{"data.csv": "sha256:" + strings.Repeat("cd", 32)},
			},
			"audit": {Fingerprint: "fp-audit"},
		}

		path := filepath.Join(t.TempDir(), pipeline.LockFile)
		if err := lock.Save(path); err != nil {
			t.Fatal(err)
		}

		loaded := try.To(pipeline.LoadLock(path)).OrFatal(t)
		entryEq := func(a, b pipeline.LockEntry) bool {
			return a.Fingerprint == b.Fingerprint && cmp.MapEq(a.Outs, b.Outs)
		}
		if !cmp.MapEqWith(loaded, lock, entryEq) {
			t.Errorf("(actual, expected) = (%+v, %+v)", loaded, lock)
		}
	})

	t.Run("it writes stages in name order", func(t *testing.T) {
		lock := pipeline.Lock{
			"train":   {Fingerprint: "fp-train"},
			"audit":   {Fingerprint: "fp-audit"},
			"prepare": {Fingerprint: "fp-prepare"},
		}

		path := filepath.Join(t.TempDir(), pipeline.LockFile)
		if err := lock.Save(path); err != nil {
			t.Fatal(err)
		}

		content := string(try.To(os.ReadFile(path)).OrFatal(t))
		audit := strings.Index(content, "audit:")
		prepare := strings.Index(content, "prepare:")
		train := strings.Index(content, "train:")
		if audit < 0 || prepare < 0 || train < 0 || !(audit < prepare && prepare < train) {
			t.Errorf("stages are not in name order:\n%s", content)
		}
	})

	t.Run("when the lock file is broken, it returns error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), pipeline.LockFile)
		writeFile(t, path, "a: [1,\n")
		if _, err := pipeline.LoadLock(path); err == nil {
			t.Error("no error is returned")
		}
	})
}
