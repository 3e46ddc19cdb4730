package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/samirrijal/lgatracker/internal/core/domain"
)

// VisitRepo implements ports.VisitRepository as a JSON array in <dir>/<key>.json.
type VisitRepo struct {
	dir string
	key string
}

// NewVisitRepo creates the directory if needed.
func NewVisitRepo(dir, key string) (*VisitRepo, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &VisitRepo{dir: dir, key: key}, nil
}

func (r *VisitRepo) Key() string { return r.key }

// Path is the snapshot file location.
func (r *VisitRepo) Path() string { return filepath.Join(r.dir, r.key+".json") }

// Load reads the snapshot. A missing file is an empty set.
func (r *VisitRepo) Load(ctx context.Context) ([]int64, error) {
	data, err := os.ReadFile(r.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return domain.DecodeVisitedIDs(data)
}

// Save replaces the snapshot atomically.
func (r *VisitRepo) Save(ctx context.Context, ids []int64) error {
	data, err := domain.EncodeVisitedIDs(ids)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(r.dir, r.key+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), r.Path())
}
