package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"dormride/internal/domain"
	"dormride/internal/repository"
)

// Ensure interface is satisfied.
var _ repository.DatasetStore = (*DatasetStore)(nil)

// DatasetStore keeps the dataset as an indented JSON file.
type DatasetStore struct {
	path string
}

// NewDatasetStore creates a file-backed dataset store at path.
func NewDatasetStore(path string) *DatasetStore {
	return &DatasetStore{path: path}
}

// Load reads the dataset file. A missing file yields an empty dataset.
func (s *DatasetStore) Load(ctx context.Context) (*domain.Dataset, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.NewDataset(), nil
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	ds := domain.NewDataset()
	if err := json.Unmarshal(data, ds); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", repository.ErrCorruptDocument, s.path, err)
	}
	return ds, nil
}

// Save writes the dataset to a temporary file and renames it over the
// previous one, so readers never observe a half-written document.
func (s *DatasetStore) Save(ctx context.Context, ds *domain.Dataset) error {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("rename %s: %w", tmpName, err)
	}
	return nil
}
