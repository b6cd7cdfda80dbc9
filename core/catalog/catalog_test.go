package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"miniml-backend/core/models"
)

type fakePersister struct {
	mu      sync.Mutex
	rows    map[string]*models.Dataset
	failPut bool
}

func newFakePersister() *fakePersister {
	return &fakePersister{rows: make(map[string]*models.Dataset)}
}

func (f *fakePersister) UpsertDataset(_ context.Context, ds *models.Dataset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPut {
		return errors.New("disk full")
	}
	f.rows[ds.Filename] = ds
	return nil
}

func (f *fakePersister) DeleteDataset(_ context.Context, filename string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rows[filename]
	delete(f.rows, filename)
	return ok, nil
}

func (f *fakePersister) ListDatasets(context.Context) ([]*models.Dataset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Dataset, 0, len(f.rows))
	for _, ds := range f.rows {
		out = append(out, ds)
	}
	return out, nil
}

func dataset(name string, rows int) *models.Dataset {
	return &models.Dataset{Filename: name, Rows: rows, UploadedAt: time.Now().UTC()}
}

func TestStoreUpsertsByFilename(t *testing.T) {
	ctx := context.Background()
	c := New(nil)

	if err := c.Store(ctx, dataset("a.csv", 1)); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if err := c.Store(ctx, dataset("a.csv", 7)); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	list := c.List()
	if len(list) != 1 {
		t.Fatalf("expected 1 dataset, got %d", len(list))
	}
	if list[0].Rows != 7 {
		t.Fatalf("expected last write to win, got rows=%d", list[0].Rows)
	}
}

func TestDeleteMissingLeavesCatalogUnchanged(t *testing.T) {
	ctx := context.Background()
	c := New(nil)
	_ = c.Store(ctx, dataset("keep.csv", 3))

	found, err := c.Delete(ctx, "nope.csv")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if found {
		t.Fatal("expected not found")
	}
	if c.Len() != 1 {
		t.Fatalf("expected catalog unchanged, len=%d", c.Len())
	}

	found, err = c.Delete(ctx, "keep.csv")
	if err != nil || !found {
		t.Fatalf("expected delete to succeed, found=%v err=%v", found, err)
	}
	if _, err := c.Get("keep.csv"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListIsSnapshot(t *testing.T) {
	ctx := context.Background()
	c := New(nil)
	_ = c.Store(ctx, dataset("b.csv", 1))
	_ = c.Store(ctx, dataset("a.csv", 1))

	list := c.List()
	_ = c.Store(ctx, dataset("c.csv", 1))

	if len(list) != 2 {
		t.Fatalf("snapshot changed after store, len=%d", len(list))
	}
	if list[0].Filename != "a.csv" || list[1].Filename != "b.csv" {
		t.Fatalf("expected filename order, got %s, %s", list[0].Filename, list[1].Filename)
	}
}

func TestConcurrentStoreDeleteList(t *testing.T) {
	ctx := context.Background()
	c := New(newFakePersister())

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				name := fmt.Sprintf("f%d.csv", i%10)
				switch i % 3 {
				case 0:
					_ = c.Store(ctx, dataset(name, w))
				case 1:
					_, _ = c.Delete(ctx, name)
				default:
					for _, ds := range c.List() {
						if ds == nil {
							t.Error("nil dataset in snapshot")
						}
					}
				}
			}
		}(w)
	}
	wg.Wait()

	if c.Len() > 10 {
		t.Fatalf("expected at most 10 keys, got %d", c.Len())
	}
}

func TestPersisterWriteThroughAndRestore(t *testing.T) {
	ctx := context.Background()
	p := newFakePersister()
	c := New(p)

	_ = c.Store(ctx, dataset("a.csv", 2))
	_ = c.Store(ctx, dataset("b.csv", 4))
	if _, err := c.Delete(ctx, "a.csv"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	restored := New(p)
	n, err := restored.Restore(ctx)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 restored dataset, got %d", n)
	}
	if ds, err := restored.Get("b.csv"); err != nil || ds.Rows != 4 {
		t.Fatalf("unexpected restored dataset %+v err=%v", ds, err)
	}
}

func TestPersisterFailureKeepsMemoryUnchanged(t *testing.T) {
	ctx := context.Background()
	p := newFakePersister()
	p.failPut = true
	c := New(p)

	if err := c.Store(ctx, dataset("a.csv", 1)); err == nil {
		t.Fatal("expected error from failing persister")
	}
	if c.Len() != 0 {
		t.Fatalf("expected empty catalog, got %d", c.Len())
	}
}
