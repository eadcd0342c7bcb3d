package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/yousuf/funcmap/internal/funcmap"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database at path.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection keeps ":memory:" databases consistent across calls.
	db.SetMaxOpenConns(1)

	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Put stores m under name, replacing any previous map.
func (s *SQLiteStore) Put(name string, m *funcmap.EnrichedSourceMap) error {
	if err := validName(name); err != nil {
		return err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling source map: %w", err)
	}
	enriched := 0
	if m.FunctionMappings != nil {
		enriched = 1
	}

	_, err = s.db.Exec(`
		INSERT INTO source_maps (name, content, has_function_mappings, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			content = excluded.content,
			has_function_mappings = excluded.has_function_mappings,
			updated_at = excluded.updated_at
	`, name, string(data), enriched)
	if err != nil {
		return fmt.Errorf("inserting source map: %w", err)
	}
	return nil
}

// Get retrieves the map stored under name.
func (s *SQLiteStore) Get(name string) (*funcmap.EnrichedSourceMap, error) {
	var content string
	err := s.db.QueryRow("SELECT content FROM source_maps WHERE name = ?", name).Scan(&content)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("querying source map: %w", err)
	}
	return funcmap.ParseAny([]byte(content))
}

// List returns the stored names in ascending order.
func (s *SQLiteStore) List() ([]string, error) {
	rows, err := s.db.Query("SELECT name FROM source_maps ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("querying source maps: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning source map: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Delete removes the map stored under name.
func (s *SQLiteStore) Delete(name string) error {
	result, err := s.db.Exec("DELETE FROM source_maps WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("deleting source map: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting source map: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
