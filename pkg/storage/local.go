package storage

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	kio "github.com/modelyard/modelyard/pkg/utils/io"
)

// LocalStore lays blobs out on the filesystem, as root/sha256/<hex>.
type LocalStore struct {
	root string
}

// NewLocal creates a LocalStore rooted at root.
//
// The root directory is created if missing.
func NewLocal(root string) (*LocalStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0770); err != nil {
		return nil, err
	}
	return &LocalStore{root: abs}, nil
}

func (l *LocalStore) filepathOf(digest string) (string, error) {
	key, err := ObjectKey(digest)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.root, filepath.FromSlash(key)), nil
}

func (l *LocalStore) Put(ctx context.Context, r io.Reader) (string, int64, error) {
	// Spool into the root. Rename must not cross filesystems.
	tmp, err := os.CreateTemp(l.root, ".upload-*")
	if err != nil {
		return "", 0, err
	}
	tmpname := tmp.Name()
	defer os.Remove(tmpname)

	chr := kio.NewSHA256Reader(r)
	size, err := io.Copy(tmp, chr)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", 0, err
	}

	digest := "sha256:" + hex.EncodeToString(chr.Sum())
	dest, err := l.filepathOf(digest)
	if err != nil {
		return "", 0, err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0770); err != nil {
		return "", 0, err
	}
	if err := os.Rename(tmpname, dest); err != nil {
		return "", 0, err
	}
	return digest, size, nil
}

func (l *LocalStore) Open(ctx context.Context, digest string) (io.ReadCloser, int64, error) {
	p, err := l.filepathOf(digest)
	if err != nil {
		return nil, 0, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, 0, fmt.Errorf("%w: %s", ErrNotFound, digest)
	}
	if err != nil {
		return nil, 0, err
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, stat.Size(), nil
}

func (l *LocalStore) Remove(ctx context.Context, digest string) error {
	p, err := l.filepathOf(digest)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (l *LocalStore) Exists(ctx context.Context, digest string) (bool, error) {
	p, err := l.filepathOf(digest)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

var _ Store = &LocalStore{}
