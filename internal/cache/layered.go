package cache

import (
	"context"

	"github.com/matheuskafuri/menuscore/internal/dining"
)

// Layered serves reads from memory first and falls back to disk. Disk hits
// are promoted into memory with their original creation time, so both
// layers expire together.
type Layered struct {
	Memory *Memory
	Disk   *Cache
}

func (l *Layered) Get(ctx context.Context, key string) (Entry, bool, error) {
	if e, ok, _ := l.Memory.Get(ctx, key); ok {
		return e, true, nil
	}
	e, ok, err := l.Disk.Get(ctx, key)
	if err != nil || !ok {
		return Entry{}, false, err
	}
	l.Memory.put(key, e)
	return e, true, nil
}

func (l *Layered) Put(ctx context.Context, key string, rs *dining.ResultSet) error {
	l.Memory.Put(ctx, key, rs)
	return l.Disk.Put(ctx, key, rs)
}

func (l *Layered) Delete(ctx context.Context, key string) error {
	l.Memory.Delete(ctx, key)
	return l.Disk.Delete(ctx, key)
}

func (l *Layered) Clear(ctx context.Context) error {
	l.Memory.Clear(ctx)
	return l.Disk.Clear(ctx)
}
