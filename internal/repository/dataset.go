package repository

import (
	"context"

	"dormride/internal/domain"
)

// DatasetStore loads and saves the whole ride/booking document.
//
// Implementations never write partial documents: Save replaces the stored
// document as a unit.
type DatasetStore interface {
	// Load returns the stored dataset. A store that holds no document yet
	// returns an empty dataset and a nil error.
	Load(ctx context.Context) (*domain.Dataset, error)

	// Save replaces the stored dataset.
	Save(ctx context.Context, ds *domain.Dataset) error
}
