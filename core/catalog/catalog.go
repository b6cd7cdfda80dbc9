// Package catalog keeps the ingested dataset summaries, keyed by filename.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"miniml-backend/core/models"
)

// ErrNotFound is returned when no dataset is stored under a filename
var ErrNotFound = errors.New("dataset not found")

// Persister mirrors catalog writes to durable storage
type Persister interface {
	UpsertDataset(ctx context.Context, ds *models.Dataset) error
	DeleteDataset(ctx context.Context, filename string) (bool, error)
	ListDatasets(ctx context.Context) ([]*models.Dataset, error)
}

// Catalog is a concurrency-safe, last-write-wins store of datasets
type Catalog struct {
	// writeMu serializes writers so memory and persister agree on the winner;
	// mu guards the map only and is never held across persister calls.
	writeMu   sync.Mutex
	mu        sync.RWMutex
	datasets  map[string]*models.Dataset
	persister Persister
}

// New creates an empty catalog. persister may be nil.
func New(persister Persister) *Catalog {
	return &Catalog{
		datasets:  make(map[string]*models.Dataset),
		persister: persister,
	}
}

// Restore loads every persisted dataset into memory
func (c *Catalog) Restore(ctx context.Context) (int, error) {
	if c.persister == nil {
		return 0, nil
	}

	datasets, err := c.persister.ListDatasets(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to restore datasets: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	for _, ds := range datasets {
		c.datasets[ds.Filename] = ds
	}
	c.mu.Unlock()

	return len(datasets), nil
}

// Store upserts a dataset by filename; a later store of the same filename
// replaces the earlier one.
func (c *Catalog) Store(ctx context.Context, ds *models.Dataset) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.persister != nil {
		if err := c.persister.UpsertDataset(ctx, ds); err != nil {
			return fmt.Errorf("failed to persist dataset %s: %w", ds.Filename, err)
		}
	}

	c.mu.Lock()
	c.datasets[ds.Filename] = ds
	c.mu.Unlock()
	return nil
}

// Get returns the dataset stored under filename
func (c *Catalog) Get(filename string) (*models.Dataset, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ds, ok := c.datasets[filename]
	if !ok {
		return nil, ErrNotFound
	}
	return ds, nil
}

// List returns a point-in-time snapshot ordered by filename
func (c *Catalog) List() []*models.Dataset {
	c.mu.RLock()
	datasets := make([]*models.Dataset, 0, len(c.datasets))
	for _, ds := range c.datasets {
		datasets = append(datasets, ds)
	}
	c.mu.RUnlock()

	sort.Slice(datasets, func(i, j int) bool {
		return datasets[i].Filename < datasets[j].Filename
	})
	return datasets
}

// Len returns the number of stored datasets
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.datasets)
}

// Delete removes a dataset. found is false when nothing was stored under filename.
func (c *Catalog) Delete(ctx context.Context, filename string) (found bool, err error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.RLock()
	_, found = c.datasets[filename]
	c.mu.RUnlock()
	if !found {
		return false, nil
	}

	if c.persister != nil {
		if _, err := c.persister.DeleteDataset(ctx, filename); err != nil {
			return false, fmt.Errorf("failed to delete persisted dataset %s: %w", filename, err)
		}
	}

	c.mu.Lock()
	delete(c.datasets, filename)
	c.mu.Unlock()
	return true, nil
}
