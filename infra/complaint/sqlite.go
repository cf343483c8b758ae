// Package complaint provides the SQLite-backed complaint store.
package complaint

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	core "github.com/espressobar/brewsched/core/complaint"
)

// SQLiteStore persists complaints in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS complaints (
        id TEXT PRIMARY KEY,
        barista TEXT,
        customer TEXT,
        message TEXT,
        ts INTEGER
    );`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("schema: %v (close: %v)", err, cerr)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Record inserts one complaint.
func (s *SQLiteStore) Record(ctx context.Context, c core.Complaint) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO complaints(id, barista, customer, message, ts) VALUES(?,?,?,?,?)`,
		c.ID, c.Barista, c.Customer, c.Message, c.Time.UnixMilli())
	return err
}

// List returns all complaints ordered by time.
func (s *SQLiteStore) List(ctx context.Context) ([]core.Complaint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, barista, customer, message, ts FROM complaints ORDER BY ts`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []core.Complaint
	for rows.Next() {
		var c core.Complaint
		var ts int64
		if err := rows.Scan(&c.ID, &c.Barista, &c.Customer, &c.Message, &ts); err != nil {
			return nil, err
		}
		c.Time = time.UnixMilli(ts).UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
