// Package repositories implements the encrypted vault store: one generic
// Store over the closed set of record kinds, backed by SQLite.
package repositories

import (
	"context"
	"sort"

	"github.com/dmitrijs2005/saverpwd/internal/models"
)

// Filter is an AND-ed set of column equality conditions. An empty filter matches every row.
type Filter map[string]any

// Changes maps column names to new values for Update.
type Changes map[string]any

// Store is the persistence contract shared by users, categories and units.
type Store[T models.Record] interface {
	// Create validates and inserts rec.
	Create(ctx context.Context, rec *T) error
	// GetObjects returns every record matching f in a stable order.
	GetObjects(ctx context.Context, f Filter) ([]T, error)
	// GetObj returns the single record matching f.
	GetObj(ctx context.Context, f Filter) (*T, error)
	// Update applies ch to every record matching f and returns the affected count.
	Update(ctx context.Context, f Filter, ch Changes) (int64, error)
	// Delete removes every record matching f and returns the affected count.
	Delete(ctx context.Context, f Filter) (int64, error)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
