package asset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore is a Service backed by a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the asset database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS assets (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL,
			type INTEGER NOT NULL,
			content_type TEXT NOT NULL,
			temporary INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			data BLOB NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_assets_type ON assets(type);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetData implements Service.
func (s *SQLiteStore) GetData(ctx context.Context, id uuid.UUID) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM assets WHERE id=?`, id.String()).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading asset %s: %w", id, err)
	}
	return data, nil
}

// Get returns the full asset row.
func (s *SQLiteStore) Get(ctx context.Context, id uuid.UUID) (Asset, error) {
	var (
		a       Asset
		typ     int
		temp    int
		created string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT name,description,type,content_type,temporary,created_at,data FROM assets WHERE id=?`,
		id.String(),
	).Scan(&a.Name, &a.Description, &typ, &a.ContentType, &temp, &created, &a.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return Asset{}, ErrNotFound
	}
	if err != nil {
		return Asset{}, fmt.Errorf("reading asset %s: %w", id, err)
	}
	a.ID = id
	a.Type = Type(typ)
	a.Temporary = temp != 0
	if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
		a.CreatedAt = t
	}
	return a, nil
}

// Store implements Service. Storing an existing id replaces it.
func (s *SQLiteStore) Store(ctx context.Context, a *Asset) (uuid.UUID, error) {
	id := a.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	temp := 0
	if a.Temporary {
		temp = 1
	}
	data := a.Data
	if data == nil {
		data = []byte{}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO assets(id,name,description,type,content_type,temporary,created_at,updated_at,data)
		VALUES(?,?,?,?,?,?,?,?,?)`,
		id.String(), a.Name, a.Description, int(a.Type), a.ContentType, temp,
		created.UTC().Format(time.RFC3339Nano), now, data,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("storing asset %s: %w", id, err)
	}
	return id, nil
}

// UpdateContent implements Service.
func (s *SQLiteStore) UpdateContent(ctx context.Context, id uuid.UUID, data []byte) (uuid.UUID, error) {
	if data == nil {
		data = []byte{}
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE assets SET data=?, updated_at=? WHERE id=?`,
		data, time.Now().UTC().Format(time.RFC3339Nano), id.String(),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("updating asset %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return uuid.Nil, err
	}
	if n == 0 {
		return uuid.Nil, ErrNotFound
	}
	return id, nil
}

// Count returns the number of stored assets of type t.
func (s *SQLiteStore) Count(ctx context.Context, t Type) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM assets WHERE type=?`, int(t)).Scan(&n)
	return n, err
}
