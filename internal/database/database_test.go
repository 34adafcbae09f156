package database

import (
	"context"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/photoshoot_server/config"
)

func TestNew_SQLite(t *testing.T) {
	db, err := New(&config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	require.NoError(t, AutoMigrate(db))

	for _, table := range []string{"accounts", "credit_transactions", "anon_trials", "photoshoots"} {
		assert.True(t, db.Migrator().HasTable(table), "table %s should exist", table)
	}

	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestClose(t *testing.T) {
	db, err := New(&config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)

	require.NoError(t, Close(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Error(t, sqlDB.Ping(), "pool is closed")
}

func TestNew_UnsupportedDriver(t *testing.T) {
	_, err := New(&config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestNewRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := NewRedis(&config.RedisConfig{Host: mr.Host(), Port: mustPort(t, mr.Port())})
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
}

func TestNewRedis_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	port := mustPort(t, mr.Port())
	mr.Close()

	_, err = NewRedis(&config.RedisConfig{Host: "127.0.0.1", Port: port})
	assert.Error(t, err)
}

func mustPort(t *testing.T, port string) int {
	t.Helper()

	p, err := strconv.Atoi(port)
	require.NoError(t, err)
	return p
}
