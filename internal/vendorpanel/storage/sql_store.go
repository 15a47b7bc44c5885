package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gomarketplace_vendor/pkg/dbconnect"
)

// SQLStore keeps the marker in vendor_watch_state, scoped by session id so that two
// sessions sharing one database never see each other's pending import.
type SQLStore struct {
	db        *sql.DB
	dialect   dbconnect.Dialect
	sessionID string
}

func NewSQLStore(db *sql.DB, dialect dbconnect.Dialect, sessionID string) (*SQLStore, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	if sessionID == "" {
		return nil, errors.New("session id is required")
	}
	return &SQLStore{db: db, dialect: dialect, sessionID: sessionID}, nil
}

func (s *SQLStore) p(n int) string {
	return s.dialect.Placeholder(n)
}

func (s *SQLStore) Load(ctx context.Context) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT value FROM vendor_watch_state WHERE session_id = %s AND state_key = %s", s.p(1), s.p(2)),
		s.sessionID, PendingImportKey,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("load %s: %w", PendingImportKey, err)
	}
	return value, value != "", nil
}

func (s *SQLStore) Save(ctx context.Context, transactionID string) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO vendor_watch_state (session_id, state_key, value, updated_at)
		VALUES (%s, %s, %s, %s)
		ON CONFLICT (session_id, state_key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`, s.p(1), s.p(2), s.p(3), s.p(4)),
		s.sessionID, PendingImportKey, transactionID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save %s: %w", PendingImportKey, err)
	}
	return nil
}

func (s *SQLStore) Clear(ctx context.Context, transactionID string) error {
	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM vendor_watch_state WHERE session_id = %s AND state_key = %s AND value = %s",
			s.p(1), s.p(2), s.p(3)),
		s.sessionID, PendingImportKey, transactionID)
	if err != nil {
		return fmt.Errorf("clear %s: %w", PendingImportKey, err)
	}
	return nil
}
