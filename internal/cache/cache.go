package cache

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/matheuskafuri/menuscore/internal/dining"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Cache is the on-disk result set store. Reads and writes use separate
// connections; writes are serialised through a single one.
type Cache struct {
	readDB  *sql.DB
	writeDB *sql.DB
	ttl     time.Duration
	now     func() time.Time
}

// Open opens or creates the cache database at dbPath and brings its schema
// up to date.
func Open(dbPath string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	if err := migrateUp(dbPath); err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", dbPath+"?mode=ro")
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}

	return &Cache{readDB: readDB, writeDB: writeDB, ttl: ttl, now: time.Now}, nil
}

func migrateUp(dbPath string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, "sqlite://"+dbPath)
	if err != nil {
		return fmt.Errorf("preparing migrations: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// SetClock replaces the clock used for expiry.
func (c *Cache) SetClock(now func() time.Time) {
	c.now = now
}

func (c *Cache) Close() error {
	var errs []error
	if c.readDB != nil {
		errs = append(errs, c.readDB.Close())
	}
	if c.writeDB != nil {
		errs = append(errs, c.writeDB.Close())
	}
	return errors.Join(errs...)
}

func (c *Cache) Get(ctx context.Context, key string) (Entry, bool, error) {
	var (
		payload string
		created time.Time
	)
	err := c.readDB.QueryRowContext(ctx,
		"SELECT payload, created_at FROM result_sets WHERE key = ?", key,
	).Scan(&payload, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("reading result set %s: %w", key, err)
	}
	if c.now().Sub(created) >= c.ttl {
		return Entry{}, false, nil
	}

	var rs dining.ResultSet
	if err := json.Unmarshal([]byte(payload), &rs); err != nil {
		return Entry{}, false, fmt.Errorf("decoding result set %s: %w", key, err)
	}
	return Entry{Result: &rs, CreatedAt: created}, true, nil
}

func (c *Cache) Put(ctx context.Context, key string, rs *dining.ResultSet) error {
	payload, err := json.Marshal(rs)
	if err != nil {
		return fmt.Errorf("encoding result set: %w", err)
	}
	_, err = c.writeDB.ExecContext(ctx, `
		INSERT INTO result_sets (key, campus, menu_date, preferences, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			payload = excluded.payload,
			created_at = excluded.created_at
	`, key, rs.Campus, rs.Date.Format(dining.DateLayout), rs.Preferences.String(), string(payload), c.now().UTC())
	if err != nil {
		return fmt.Errorf("storing result set %s: %w", key, err)
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	_, err := c.writeDB.ExecContext(ctx, "DELETE FROM result_sets WHERE key = ?", key)
	return err
}

func (c *Cache) Clear(ctx context.Context) error {
	_, err := c.writeDB.ExecContext(ctx, "DELETE FROM result_sets")
	return err
}

// Prune deletes result sets older than the TTL and reclaims disk space.
func (c *Cache) Prune(ctx context.Context) (int64, error) {
	cutoff := c.now().Add(-c.ttl).UTC()
	res, err := c.writeDB.ExecContext(ctx, "DELETE FROM result_sets WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		c.writeDB.ExecContext(ctx, "VACUUM")
	}
	if err := c.setMeta(ctx, "last_prune", c.now().Format(time.RFC3339)); err != nil {
		return n, err
	}
	return n, nil
}

// NeedsPrune reports whether the last prune is older than interval.
func (c *Cache) NeedsPrune(ctx context.Context, interval time.Duration) bool {
	value, err := c.getMeta(ctx, "last_prune")
	if err != nil {
		return true
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return true
	}
	return c.now().Sub(t) > interval
}

// Stats returns the number of stored result sets and the database file size.
func (c *Cache) Stats(ctx context.Context, dbPath string) (int, int64, error) {
	var count int
	if err := c.readDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM result_sets").Scan(&count); err != nil {
		return 0, 0, fmt.Errorf("counting result sets: %w", err)
	}
	info, err := os.Stat(dbPath)
	if err != nil {
		return count, 0, fmt.Errorf("stat %s: %w", dbPath, err)
	}
	return count, info.Size(), nil
}

// Summary is one stored result set, without its payload.
type Summary struct {
	Key         string
	Campus      string
	Date        string
	Preferences string
	CreatedAt   time.Time
}

// List returns stored result sets, newest first.
func (c *Cache) List(ctx context.Context) ([]Summary, error) {
	rows, err := c.readDB.QueryContext(ctx,
		"SELECT key, campus, menu_date, preferences, created_at FROM result_sets ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("listing result sets: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.Key, &s.Campus, &s.Date, &s.Preferences, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning result set: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (c *Cache) getMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := c.readDB.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	return value, err
}

func (c *Cache) setMeta(ctx context.Context, key, value string) error {
	_, err := c.writeDB.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}
