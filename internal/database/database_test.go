package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"linesen/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	cfg := &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)
}

func TestMigrate_CreatesGalleryTables(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), NewGormConfig())
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for _, table := range []string{"artworks", "profiles", "likes"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasColumn("artworks", "like_count"))
	assert.True(t, db.Migrator().HasColumn("likes", "artwork_id"))
}

func TestGormLogger_Trace(t *testing.T) {
	var buf bytes.Buffer
	l := &gormLogger{
		logger:        slog.New(slog.NewTextHandler(&buf, nil)),
		level:         logger.Warn,
		slowThreshold: 100 * time.Millisecond,
	}
	stmt := func() (string, int64) { return "SELECT 1", 0 }
	ctx := context.Background()

	l.Trace(ctx, time.Now(), stmt, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	l.Trace(ctx, time.Now(), stmt, errors.New("relation does not exist"))
	assert.Contains(t, buf.String(), "query failed")
	assert.Contains(t, buf.String(), "relation does not exist")

	buf.Reset()
	l.Trace(ctx, time.Now().Add(-time.Second), stmt, nil)
	assert.Contains(t, buf.String(), "slow query")

	buf.Reset()
	l.LogMode(logger.Silent).Trace(ctx, time.Now(), stmt, errors.New("ignored"))
	assert.Empty(t, buf.String())
}
