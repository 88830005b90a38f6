package dataset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/adalundhe/branchobs/core/storage"
	"github.com/adalundhe/branchobs/core/tensor"
)

// =============================================================================
// SQLite Sample Store
// =============================================================================
//
// SQLiteStore persists samples in two tables: samples holds one row per
// decision point and sample_features one row per encoded observation. Reads
// by ID go through a Ristretto cache; the database is the source of truth.

const (
	defaultNumCounters = 1e5
	defaultBufferItems = 64
)

// ErrNotFound is returned by Get for an unknown sample ID.
var ErrNotFound = errors.New("dataset: sample not found")

const schema = `
CREATE TABLE IF NOT EXISTS samples (
	id TEXT PRIMARY KEY,
	episode TEXT NOT NULL,
	step INTEGER NOT NULL,
	done INTEGER NOT NULL,
	target BLOB,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sample_features (
	sample_id TEXT NOT NULL REFERENCES samples(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	data BLOB NOT NULL,
	PRIMARY KEY (sample_id, name)
);

CREATE INDEX IF NOT EXISTS idx_samples_episode ON samples(episode, step);
`

// StoreStats counts Get lookups by tier.
type StoreStats struct {
	HotHits  int64 `json:"hot_hits"`
	ColdHits int64 `json:"cold_hits"`
	Misses   int64 `json:"misses"`
}

// SQLiteStore is a durable Sink. It is safe for concurrent use.
type SQLiteStore struct {
	db    *sql.DB
	cache *ristretto.Cache
	path  string

	hotHits  atomic.Int64
	coldHits atomic.Int64
	misses   atomic.Int64
}

// OpenSQLite opens or creates the store at path. hotCache is the byte budget
// of the read cache; zero disables it.
func OpenSQLite(path string, hotCache int64) (*SQLiteStore, error) {
	if err := storage.EnsureParent(path); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	s := &SQLiteStore{db: db, path: path}
	if hotCache > 0 {
		cache, err := ristretto.NewCache(&ristretto.Config{
			NumCounters: defaultNumCounters,
			MaxCost:     hotCache,
			BufferItems: defaultBufferItems,
		})
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize Ristretto cache: %w", err)
		}
		s.cache = cache
	}
	return s, nil
}

func (s *SQLiteStore) Path() string {
	return s.path
}

// Add implements Sink.
func (s *SQLiteStore) Add(ctx context.Context, sample Sample) error {
	var target []byte
	if sample.Target != nil {
		var err error
		if target, err = sample.Target.MarshalBinary(); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO samples (id, episode, step, done, target, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		sample.ID.String(), sample.Episode, sample.Step, sample.Done, target, time.Now().UnixNano(),
	); err != nil {
		return fmt.Errorf("insert sample: %w", err)
	}
	for name, data := range sample.Features {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sample_features (sample_id, name, data) VALUES (?, ?, ?)`,
			sample.ID.String(), name, data,
		); err != nil {
			return fmt.Errorf("insert feature %s: %w", name, err)
		}
	}
	return tx.Commit()
}

// Get returns the sample with the given ID, or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, id uuid.UUID) (Sample, error) {
	key := id.String()
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			s.hotHits.Add(1)
			return v.(Sample).Clone(), nil
		}
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, episode, step, done, target FROM samples WHERE id = ?`, key)
	sample, err := scanSample(row)
	if errors.Is(err, sql.ErrNoRows) {
		s.misses.Add(1)
		return Sample{}, ErrNotFound
	}
	if err != nil {
		return Sample{}, err
	}
	if err := s.loadFeatures(ctx, &sample); err != nil {
		return Sample{}, err
	}

	s.coldHits.Add(1)
	if s.cache != nil {
		s.cache.Set(key, sample.Clone(), sample.cost())
		s.cache.Wait()
	}
	return sample, nil
}

// Episode returns the samples of an episode ordered by step.
func (s *SQLiteStore) Episode(ctx context.Context, episode string) ([]Sample, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, episode, step, done, target FROM samples WHERE episode = ? ORDER BY step`, episode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Sample
	for rows.Next() {
		sample, err := scanSample(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := s.loadFeatures(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Count returns the number of stored samples.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM samples`).Scan(&n)
	return n, err
}

// Stats returns the Get counters.
func (s *SQLiteStore) Stats() StoreStats {
	return StoreStats{
		HotHits:  s.hotHits.Load(),
		ColdHits: s.coldHits.Load(),
		Misses:   s.misses.Load(),
	}
}

// Close releases the cache and the database.
func (s *SQLiteStore) Close() error {
	if s.cache != nil {
		s.cache.Close()
	}
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSample(sc scanner) (Sample, error) {
	var (
		sample Sample
		id     string
		target []byte
	)
	if err := sc.Scan(&id, &sample.Episode, &sample.Step, &sample.Done, &target); err != nil {
		return Sample{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Sample{}, fmt.Errorf("sample id %q: %w", id, err)
	}
	sample.ID = parsed
	if target != nil {
		var v tensor.Vector
		if err := v.UnmarshalBinary(target); err != nil {
			return Sample{}, fmt.Errorf("sample %s target: %w", id, err)
		}
		sample.Target = v
	}
	return sample, nil
}

func (s *SQLiteStore) loadFeatures(ctx context.Context, sample *Sample) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, data FROM sample_features WHERE sample_id = ?`, sample.ID.String())
	if err != nil {
		return err
	}
	defer rows.Close()

	sample.Features = make(map[string][]byte)
	for rows.Next() {
		var (
			name string
			data []byte
		)
		if err := rows.Scan(&name, &data); err != nil {
			return err
		}
		sample.Features[name] = data
	}
	return rows.Err()
}
