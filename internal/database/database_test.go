package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/models"

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

func TestAutoMigrate_CreatesSchema(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), GormConfig(logger.Default.LogMode(logger.Silent)))
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	for _, table := range []string{"users", "tags", "posts", "post_tags", "comments", "post_likes", "saved_posts"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasColumn(&models.PostTag{}, "created_at"))
	assert.False(t, db.Migrator().HasColumn(&models.Tag{}, "post_count"))
}

func TestAutoMigrate_UniqueLikeIndex(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), GormConfig(logger.Default.LogMode(logger.Silent)))
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	require.NoError(t, db.Create(&models.PostLike{UserID: 1, PostID: 1}).Error)
	err = db.Create(&models.PostLike{UserID: 1, PostID: 1}).Error
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)
}

func TestSchemaPolicy(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		runSQL  bool
		runAuto bool
		wantErr bool
	}{
		{"hybrid dev", config.Config{Env: "development", DBSchemaMode: "hybrid"}, true, true, false},
		{"hybrid prod", config.Config{Env: "production", DBSchemaMode: "hybrid"}, true, false, false},
		{"empty mode defaults to hybrid", config.Config{Env: "development"}, true, true, false},
		{"sql", config.Config{Env: "production", DBSchemaMode: "sql"}, true, false, false},
		{"auto dev", config.Config{Env: "development", DBSchemaMode: "auto"}, false, true, false},
		{"auto prod refused", config.Config{Env: "production", DBSchemaMode: "auto"}, false, false, true},
		{"sqlite always auto", config.Config{Env: "test", DBDriver: "sqlite", DBSchemaMode: "hybrid"}, false, true, false},
		{"sqlite sql refused", config.Config{Env: "test", DBDriver: "sqlite", DBSchemaMode: "sql"}, false, false, true},
		{"unknown mode", config.Config{Env: "development", DBSchemaMode: "yolo"}, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			runSQL, runAuto, err := schemaPolicy(&cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.runSQL, runSQL)
			assert.Equal(t, tt.runAuto, runAuto)
		})
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	ms := GetMigrations()
	require.NotEmpty(t, ms)
	for i, m := range ms {
		assert.NotEmpty(t, m.UpScript, m.String())
		assert.NotEmpty(t, m.DownScript, m.String())
		if i > 0 {
			assert.Greater(t, m.Version, ms[i-1].Version)
		}
	}
	assert.Equal(t, "000001_init", ms[0].String())
	assert.NotNil(t, GetMigrationByVersion(1))
	assert.Nil(t, GetMigrationByVersion(999999))
}

func TestValidateAppliedVersions(t *testing.T) {
	registered := []Migration{{Version: 1}, {Version: 2}}
	assert.NoError(t, validateAppliedVersions(nil, registered))
	assert.NoError(t, validateAppliedVersions([]int{1, 2}, registered))
	err := validateAppliedVersions([]int{1, 7}, registered)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000007")
}

func TestGormLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewGormLogger(slog.New(slog.NewTextHandler(&buf, nil)), 50*time.Millisecond)
	ctx := context.Background()
	fc := func() (string, int64) { return "SELECT 1", 1 }

	l.Trace(ctx, time.Now(), fc, gorm.ErrRecordNotFound)
	l.Trace(ctx, time.Now(), fc, gorm.ErrDuplicatedKey)
	l.Trace(ctx, time.Now(), fc, nil)
	assert.Empty(t, buf.String())

	l.Trace(ctx, time.Now().Add(-time.Second), fc, nil)
	assert.Contains(t, buf.String(), "GORM slow query")

	buf.Reset()
	l.Trace(ctx, time.Now(), fc, errors.New("boom"))
	assert.Contains(t, buf.String(), "GORM query error")

	buf.Reset()
	l.LogMode(logger.Silent).Trace(ctx, time.Now(), fc, errors.New("boom"))
	assert.Empty(t, buf.String())
}

func TestCreateDatabaseSQL(t *testing.T) {
	assert.Equal(t, `CREATE DATABASE "inkwell"`, createDatabaseSQL("inkwell"))
	assert.Equal(t, `CREATE DATABASE "bad""name; DROP"`, createDatabaseSQL(`bad"name; DROP`))
}

func TestEnsureDatabase_SQLiteIsNoop(t *testing.T) {
	created, err := EnsureDatabase(context.Background(), &config.Config{DBDriver: "sqlite"})
	require.NoError(t, err)
	assert.False(t, created)
}
