package distfield

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS distance_field (
	map_name           TEXT    NOT NULL,
	resampling_factor  REAL    NOT NULL,
	fingerprint        INTEGER NOT NULL,
	grid_blob          BLOB    NOT NULL,
	created_unix_nanos INTEGER NOT NULL,
	PRIMARY KEY (map_name, resampling_factor)
);`

// SQLiteStore keeps fields as blobs in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configuring sqlite: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(k Key) (*Field, error) {
	var blob []byte
	err := s.db.QueryRow(
		`SELECT grid_blob FROM distance_field WHERE map_name = ? AND resampling_factor = ?`,
		k.MapName, k.Factor,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return Decode(blob)
}

func (s *SQLiteStore) Save(k Key, f *Field) error {
	blob, err := f.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO distance_field (map_name, resampling_factor, fingerprint, grid_blob, created_unix_nanos)
		 VALUES (?, ?, ?, ?, ?)`,
		k.MapName, k.Factor, int64(f.Fingerprint), blob, time.Now().UnixNano(),
	)
	return err
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
