package files

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/trezcool/coachdesk/core"
)

// LocalStore keeps assets in a directory of the local filesystem.
type LocalStore struct {
	dir string
}

var _ core.AssetStore = (*LocalStore)(nil)

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating uploads dir")
	}
	return &LocalStore{dir: dir}, nil
}

// path confines name to the store's directory.
func (s *LocalStore) path(name string) (string, error) {
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." || base == ".." {
		return "", core.ErrAssetNotFound
	}
	return filepath.Join(s.dir, base), nil
}

func (s *LocalStore) Save(_ context.Context, name string, r io.Reader) error {
	fp, err := s.path(name)
	if err != nil {
		return err
	}
	f, err := os.Create(fp)
	if err != nil {
		return errors.Wrap(err, "creating file")
	}
	if _, err = io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(fp)
		return errors.Wrap(err, "writing file")
	}
	return errors.Wrap(f.Close(), "closing file")
}

func (s *LocalStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	fp, err := s.path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(fp)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.ErrAssetNotFound
		}
		return nil, errors.Wrap(err, "opening file")
	}
	if fi, err := f.Stat(); err == nil && fi.IsDir() {
		_ = f.Close()
		return nil, core.ErrAssetNotFound
	}
	return f, nil
}
