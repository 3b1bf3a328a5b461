package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"dormride/internal/domain"
	"dormride/internal/repository"
)

const datasetKeyPrefix = "dataset:"

// DatasetStore keeps the whole dataset as a JSON string under one key.
type DatasetStore struct {
	client *redis.Client
	key    string
}

// NewDatasetStore creates a Redis dataset store for the named document.
func NewDatasetStore(client *redis.Client, name string) *DatasetStore {
	return &DatasetStore{client: client, key: datasetKeyPrefix + name}
}

// Load retrieves the dataset. A missing key yields an empty dataset.
func (s *DatasetStore) Load(ctx context.Context) (*domain.Dataset, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.NewDataset(), nil
		}
		return nil, fmt.Errorf("get %s: %w", s.key, err)
	}

	ds := domain.NewDataset()
	if err := json.Unmarshal(data, ds); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", repository.ErrCorruptDocument, s.key, err)
	}
	return ds, nil
}

// Save replaces the stored dataset. SET is atomic, so readers see either
// the old or the new document.
func (s *DatasetStore) Save(ctx context.Context, ds *domain.Dataset) error {
	data, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	// No TTL: the document is the system of record.
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", s.key, err)
	}
	return nil
}
