package distfield

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore keeps one file per key in a directory.
type FileStore struct {
	Dir string
}

// NewFileStore returns a store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	return &FileStore{Dir: dir}, nil
}

// Path returns the file that holds k.
func (s *FileStore) Path(k Key) string {
	return filepath.Join(s.Dir, k.String()+".field")
}

func (s *FileStore) Load(k Key) (*Field, error) {
	data, err := os.ReadFile(s.Path(k))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Save writes through a temp file and renames it into place so readers
// never see a partial grid.
func (s *FileStore) Save(k Key, f *Field) (err error) {
	data, err := f.MarshalBinary()
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.Dir, k.String()+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.Path(k))
}
