package database

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/account-api/pkg/config"
)

func TestEmbeddedMigrationsPresent(t *testing.T) {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"migrations/00001_create_users.sql",
		"migrations/00002_create_user_roles.sql",
		"migrations/00003_create_audit_logs.sql",
	}, names)

	for _, name := range names {
		body, err := fs.ReadFile(migrations, name)
		require.NoError(t, err)
		assert.Contains(t, string(body), "-- +goose Up")
		assert.Contains(t, string(body), "-- +goose Down")
	}
}

func TestMigrateWrapsFailure(t *testing.T) {
	original := gooseUp
	t.Cleanup(func() { gooseUp = original })

	var dir string
	gooseUp = func(ctx context.Context, db *sql.DB, d string) error {
		dir = d
		return errors.New("boom")
	}

	err := Migrate(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apply migrations")
	assert.Equal(t, "migrations", dir)
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "accounts", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=accounts sslmode=disable", dsn)
}
