package cache

import (
	"context"
	"time"

	"github.com/matheuskafuri/menuscore/internal/dining"
)

// DefaultTTL is how long a result set stays valid.
const DefaultTTL = 24 * time.Hour

// Entry is a cached result set with the time it was stored.
type Entry struct {
	Result    *dining.ResultSet
	CreatedAt time.Time
}

// Store holds result sets by cache key. Expired entries read as misses.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Put(ctx context.Context, key string, rs *dining.ResultSet) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
