package storage

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomarketplace_vendor/config"
	"gomarketplace_vendor/pkg/dbconnect/migration"
	"gomarketplace_vendor/pkg/dbconnect/postgres"
	"gomarketplace_vendor/pkg/logger"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestSQLStore_Postgres(t *testing.T) {
	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		t.Skip("POSTGRES_HOST not set")
	}

	conn := postgres.NewPgConnector(config.PostgresConfig{
		Host:     host,
		Port:     envOr("POSTGRES_PORT", "5432"),
		User:     envOr("POSTGRES_USER", "postgres"),
		Password: envOr("POSTGRES_PASSWORD", "postgres"),
		DBName:   envOr("POSTGRES_NAME", "postgres"),
		SSLMode:  "disable",
	}, logger.Discard())
	db, err := conn.Connect()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, migration.Apply(db, postgres.Dialect, logger.Discard(), &WatchStateTable{}))

	ctx := context.Background()
	session := "test-" + uuid.NewString()
	store, err := NewSQLStore(db, postgres.Dialect, session)
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "tx_1"))
	require.NoError(t, store.Save(ctx, "tx_42"))
	id, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tx_42", id)

	other, err := NewSQLStore(db, postgres.Dialect, session+"-other")
	require.NoError(t, err)
	_, ok, err = other.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Clear(ctx, "tx_42"))
	assertClearKeepsNewerMarker(t, store)
}
