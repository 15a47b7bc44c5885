package dbconnect

import "database/sql"

type Database interface {
	Connect() (*sql.DB, error)
	Ping() error
	Close() error
}

// Dialect hides the few SQL differences between the supported drivers.
type Dialect struct {
	Name string
	// Placeholder returns the bind marker for the n-th (1-based) argument.
	Placeholder func(n int) string
}
