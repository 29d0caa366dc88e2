package storage_test

import (
	"context"
	"strings"
	"testing"

	sconf "github.com/modelyard/modelyard/pkg/configs/server"
	"github.com/modelyard/modelyard/pkg/storage"
)

func TestObjectKey(t *testing.T) {
	type When struct {
		digest string
	}
	type Then struct {
		key     string
		wantErr bool
	}

	theory := func(when When, then Then) func(*testing.T) {
		return func(t *testing.T) {
			key, err := storage.ObjectKey(when.digest)
			if then.wantErr {
				if err == nil {
					t.Fatal("no error for digest:", when.digest)
				}
				return
			}
			if err != nil {
				t.Fatal("unexpected error:", err)
			}
			if key != then.key {
				t.Errorf("key unmatch: (actual, expected) = (%s, %s)", key, then.key)
			}
		}
	}

	t.Run("well-formed digest", theory(
		When{digest: "sha256:" + strings.Repeat("ab", 32)},
		Then{key: "sha256/" + strings.Repeat("ab", 32)},
	))
	t.Run("missing algorithm prefix", theory(
		When{digest: strings.Repeat("ab", 32)},
		Then{wantErr: true},
	))
	t.Run("unknown algorithm", theory(
		When{digest: "md5:" + strings.Repeat("ab", 32)},
		Then{wantErr: true},
	))
	t.Run("hex too short", theory(
		When{digest: "sha256:abcd"},
		Then{wantErr: true},
	))
	t.Run("path elements smuggled in digest", theory(
		When{digest: "sha256:../../../etc/passwd"},
		Then{wantErr: true},
	))
}

func TestFromConfig(t *testing.T) {
	t.Run("kind local builds a local store", func(t *testing.T) {
		cfg := sconf.TrySeal(&sconf.StorageConfigMarshall{
			Kind:  "local",
			Local: &sconf.LocalStorageConfigMarshall{Root: t.TempDir()},
		})

		store, err := storage.FromConfig(context.Background(), cfg)
		if err != nil {
			t.Fatal("failed to build store:", err)
		}
		if _, ok := store.(*storage.LocalStore); !ok {
			t.Errorf("unexpected store type: %T", store)
		}
	})
}
