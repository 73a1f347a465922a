// Package testutil builds throwaway stores for package tests.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/jobchat/internal/database"
	"github.com/thereayou/jobchat/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase returns a migrated in-memory sqlite database.
func NewDatabase(t *testing.T) *database.Database {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))

	d := database.NewDatabase(db)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// NewRedis starts a miniredis server and returns a client for it.
func NewRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

// CreateUser stores a user with a predictable name.
func CreateUser(t *testing.T, db *database.Database, first string) *models.User {
	t.Helper()

	u := &models.User{
		Email:     fmt.Sprintf("%s@example.com", first),
		FirstName: first,
		LastName:  "Tester",
	}
	require.NoError(t, db.SaveUser(context.Background(), u))
	return u
}
