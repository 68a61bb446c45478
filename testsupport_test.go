package accounts_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	accounts "github.com/accountsd/go-accounts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// newTestDB opens a private in-memory database with the schema applied.
func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())

	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, accounts.Migrate(context.Background(), db))

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// seedUser inserts a user with a hashed password and returns the record.
func seedUser(t *testing.T, repo accounts.Users, username, email, password string) *accounts.User {
	t.Helper()

	hash, err := accounts.HashPassword(password)
	require.NoError(t, err)

	user, err := repo.Create(context.Background(), &accounts.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	})
	require.NoError(t, err)

	return user
}
