package migration

import (
	"database/sql"
	"fmt"

	"gomarketplace_vendor/pkg/dbconnect"
	"gomarketplace_vendor/pkg/logger"
)

type MigrationInterface interface {
	Name() string
	UpMigration(db *sql.DB, dialect dbconnect.Dialect) error
}

const registryDDL = `
CREATE TABLE IF NOT EXISTS vendor_migrations (
	name VARCHAR(255) PRIMARY KEY,
	applied_at TIMESTAMP NOT NULL
);`

// Apply runs every migration not yet recorded in vendor_migrations, in order.
func Apply(db *sql.DB, dialect dbconnect.Dialect, log logger.Logger, migrations ...MigrationInterface) error {
	if _, err := db.Exec(registryDDL); err != nil {
		return fmt.Errorf("failed to create migrations registry: %w", err)
	}

	for _, m := range migrations {
		var applied int
		err := db.QueryRow(
			fmt.Sprintf("SELECT COUNT(*) FROM vendor_migrations WHERE name = %s", dialect.Placeholder(1)),
			m.Name(),
		).Scan(&applied)
		if err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if applied > 0 {
			continue
		}

		if err := m.UpMigration(db, dialect); err != nil {
			return fmt.Errorf("migration %s: %w", m.Name(), err)
		}
		_, err = db.Exec(
			fmt.Sprintf("INSERT INTO vendor_migrations (name, applied_at) VALUES (%s, CURRENT_TIMESTAMP)", dialect.Placeholder(1)),
			m.Name(),
		)
		if err != nil {
			return fmt.Errorf("failed to mark %s migration as complete: %w", m.Name(), err)
		}
		log.Log("Migration '%s' completed successfully.", m.Name())
	}
	return nil
}
