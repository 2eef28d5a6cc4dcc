// Package lookup holds read-only reference data (categories, category types,
// locations) fetched once to populate form selectors.
package lookup

import (
	"context"
	"errors"
	"sync"

	"trovka.org/internal/api"
)

// Source is the slice of the API client reference data comes from.
type Source interface {
	Categories(ctx context.Context) ([]api.Category, error)
	CategoryTypes(ctx context.Context) ([]api.CategoryType, error)
	Locations(ctx context.Context) ([]api.Location, error)
}

// Cache holds the three snapshots. Each slot fills independently; readers
// must tolerate any subset being still empty while fetches are in flight.
type Cache struct {
	source Source

	mu              sync.RWMutex
	categories      []api.Category
	categoriesOK    bool
	categoryTypes   []api.CategoryType
	categoryTypesOK bool
	locations       []api.Location
	locationsOK     bool
}

func NewCache(source Source) *Cache {
	return &Cache{source: source}
}

// Fetch fills the three slots with independent concurrent calls. A slot that
// already holds data is not refetched. Slots that fail stay empty; the
// combined error reports every failure.
func (c *Cache) Fetch(ctx context.Context) error {
	var wg sync.WaitGroup
	errs := make([]error, 3)

	c.mu.RLock()
	needCategories := !c.categoriesOK
	needTypes := !c.categoryTypesOK
	needLocations := !c.locationsOK
	c.mu.RUnlock()

	if needCategories {
		wg.Add(1)
		go func() {
			defer wg.Done()
			items, err := c.source.Categories(ctx)
			if err != nil {
				errs[0] = err
				return
			}
			c.mu.Lock()
			c.categories = items
			c.categoriesOK = true
			c.mu.Unlock()
		}()
	}
	if needTypes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			items, err := c.source.CategoryTypes(ctx)
			if err != nil {
				errs[1] = err
				return
			}
			c.mu.Lock()
			c.categoryTypes = items
			c.categoryTypesOK = true
			c.mu.Unlock()
		}()
	}
	if needLocations {
		wg.Add(1)
		go func() {
			defer wg.Done()
			items, err := c.source.Locations(ctx)
			if err != nil {
				errs[2] = err
				return
			}
			c.mu.Lock()
			c.locations = items
			c.locationsOK = true
			c.mu.Unlock()
		}()
	}

	wg.Wait()
	return errors.Join(errs...)
}

// Categories returns the sub-category list; ok is false while still loading.
func (c *Cache) Categories() ([]api.Category, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.categories, c.categoriesOK
}

// CategoryTypes returns the top-level category list.
func (c *Cache) CategoryTypes() ([]api.CategoryType, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.categoryTypes, c.categoryTypesOK
}

// Locations returns the location list.
func (c *Cache) Locations() ([]api.Location, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.locations, c.locationsOK
}

// SubCategories returns exactly the categories whose category_type matches
// the selected top-level category. Recomputed from the full snapshot every
// time, never merged with stale values.
func (c *Cache) SubCategories(categoryType int64) []api.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if categoryType <= 0 {
		return nil
	}
	var out []api.Category
	for _, cat := range c.categories {
		if cat.CategoryType == categoryType {
			out = append(out, cat)
		}
	}
	return out
}
