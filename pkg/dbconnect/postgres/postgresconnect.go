package postgres

import (
	"database/sql"
	"fmt"
	"strconv"
	"sync"
	"time"

	_ "github.com/lib/pq"

	"gomarketplace_vendor/config"
	"gomarketplace_vendor/pkg/dbconnect"
	"gomarketplace_vendor/pkg/logger"
)

const maxRetries = 10
const dbMaxOpenConns = 5
const retryDelay = 5 * time.Second

var Dialect = dbconnect.Dialect{
	Name:        "postgres",
	Placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
}

type PostgresDatabase struct {
	config.PostgresConfig
	log        logger.Logger
	db         *sql.DB
	mu         sync.Mutex // Для защиты доступа к db
	retries    int
	retryDelay time.Duration
}

func NewPgConnector(dbConfig config.PostgresConfig, log logger.Logger) *PostgresDatabase {
	return &PostgresDatabase{
		PostgresConfig: dbConfig,
		log:            log,
		retries:        maxRetries,
		retryDelay:     retryDelay,
	}
}

func (pg *PostgresDatabase) Connect() (*sql.DB, error) {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	if pg.db != nil {
		return pg.db, nil
	}

	var err error
	conStr := pg.GetConnectionString()

	for i := 0; i < pg.retries; i++ {
		var db *sql.DB
		db, err = sql.Open("postgres", conStr)
		if err != nil {
			pg.log.Warn("Failed to open Postgres (attempt %d/%d): %v", i+1, pg.retries, err)
			time.Sleep(pg.retryDelay)
			continue
		}

		db.SetMaxOpenConns(dbMaxOpenConns)

		if err = db.Ping(); err != nil {
			pg.log.Warn("Failed to ping Postgres %s:%s (attempt %d/%d): %v", pg.Host, pg.Port, i+1, pg.retries, err)
			db.Close()
			time.Sleep(pg.retryDelay)
			continue
		}

		pg.log.Log("Connected to Postgres %s:%s/%s", pg.Host, pg.Port, pg.DBName)
		pg.db = db
		return pg.db, nil
	}
	return nil, fmt.Errorf("connect to postgres %s:%s: %w", pg.Host, pg.Port, err)
}

func (pg *PostgresDatabase) Ping() error {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	if pg.db == nil {
		return fmt.Errorf("database connection is not established")
	}

	if err := pg.db.Ping(); err != nil {
		pg.db.Close()
		pg.db = nil
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

func (pg *PostgresDatabase) Close() error {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	if pg.db == nil {
		return nil
	}
	err := pg.db.Close()
	pg.db = nil
	return err
}
