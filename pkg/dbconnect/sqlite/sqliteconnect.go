package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"gomarketplace_vendor/pkg/dbconnect"
)

var Dialect = dbconnect.Dialect{
	Name:        "sqlite",
	Placeholder: func(int) string { return "?" },
}

// SQLiteDatabase keeps client state in a single local file.
type SQLiteDatabase struct {
	Path string
	db   *sql.DB
	mu   sync.Mutex
}

func NewSQLiteConnector(path string) *SQLiteDatabase {
	return &SQLiteDatabase{Path: path}
}

func (s *SQLiteDatabase) Connect() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db, nil
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+s.Path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", s.Path, err)
	}
	// One writer at a time; sqlite serializes anyway.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite %s: %w", s.Path, err)
	}
	s.db = db
	return s.db, nil
}

func (s *SQLiteDatabase) Ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return fmt.Errorf("database connection is not established")
	}
	return s.db.Ping()
}

func (s *SQLiteDatabase) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
