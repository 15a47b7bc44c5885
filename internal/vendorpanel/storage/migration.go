package storage

import (
	"database/sql"
	"fmt"

	"gomarketplace_vendor/pkg/dbconnect"
)

type WatchStateTable struct{}

func (m *WatchStateTable) Name() string {
	return "vendor_watch_state"
}

func (m *WatchStateTable) UpMigration(db *sql.DB, _ dbconnect.Dialect) error {
	query := `
	CREATE TABLE IF NOT EXISTS vendor_watch_state (
		session_id VARCHAR(255) NOT NULL,
		state_key VARCHAR(64) NOT NULL,
		value TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (session_id, state_key)
	);`
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to create vendor_watch_state table: %w", err)
	}
	return nil
}
